package blueprint

import (
	"fmt"
)

// Validate checks structural integrity of the blueprint. The zone
// hierarchy must be a forest: every parentZoneId must reference a
// declared zone and the parent chain must be acyclic. Malformed
// hierarchies are rejected here so the visibility resolver can assume a
// well-formed forest; the resolver itself still tolerates arbitrary
// input and leaves unreachable zones unclassified.
func (bp *Blueprint) Validate() error {
	zones := make(map[string]*Zone, len(bp.Zones))
	for i := range bp.Zones {
		z := &bp.Zones[i]
		if z.ID == "" {
			return fmt.Errorf("zone %d: missing id", i)
		}
		if _, dup := zones[z.ID]; dup {
			return fmt.Errorf("duplicate zone id: %s", z.ID)
		}
		zones[z.ID] = z
	}

	for _, z := range bp.Zones {
		if z.ParentZoneID == "" {
			continue
		}
		if _, ok := zones[z.ParentZoneID]; !ok {
			return fmt.Errorf("zone %s: parentZoneId %s does not exist", z.ID, z.ParentZoneID)
		}
	}

	// Walk each parent chain; a chain longer than the zone count means
	// a cycle.
	for _, z := range bp.Zones {
		steps := 0
		cur := z.ParentZoneID
		for cur != "" {
			steps++
			if steps > len(bp.Zones) {
				return fmt.Errorf("zone hierarchy cycle involving %s", z.ID)
			}
			parent, ok := zones[cur]
			if !ok {
				break
			}
			cur = parent.ParentZoneID
		}
	}

	for _, c := range bp.TemporalConstraints {
		switch c.Type {
		case ConstraintBefore, ConstraintAfter, ConstraintSequence, ConstraintMutex, ConstraintConcurrent:
		default:
			return fmt.Errorf("constraint %s->%s: unknown type %q", c.ZoneA, c.ZoneB, c.Type)
		}
	}

	sceneIDs := make(map[string]bool, len(bp.Scenes))
	for _, sc := range bp.Scenes {
		if sc.SceneID == "" {
			return fmt.Errorf("scene %q: missing sceneId", sc.Title)
		}
		if sceneIDs[sc.SceneID] {
			return fmt.Errorf("duplicate scene id: %s", sc.SceneID)
		}
		sceneIDs[sc.SceneID] = true
	}
	for _, sc := range bp.Scenes {
		if sc.PrerequisiteScene != "" && !sceneIDs[sc.PrerequisiteScene] {
			return fmt.Errorf("scene %s: prerequisiteScene %s does not exist", sc.SceneID, sc.PrerequisiteScene)
		}
	}

	for _, e := range bp.FlowGraph {
		switch e.Condition {
		case FlowAlways, FlowCompletion, FlowScoreThreshold:
		default:
			return fmt.Errorf("flow edge %s->%s: unknown condition %q", e.FromScene, e.ToScene, e.Condition)
		}
	}

	return nil
}

// ZoneByID returns the zone with the given id, or nil.
func (bp *Blueprint) ZoneByID(id string) *Zone {
	for i := range bp.Zones {
		if bp.Zones[i].ID == id {
			return &bp.Zones[i]
		}
	}
	return nil
}

// LabelByID returns the label with the given id, or nil.
func (bp *Blueprint) LabelByID(id string) *Label {
	for i := range bp.Labels {
		if bp.Labels[i].ID == id {
			return &bp.Labels[i]
		}
	}
	return nil
}

// SceneByID returns the scene with the given id, or nil.
func (bp *Blueprint) SceneByID(id string) *Scene {
	for i := range bp.Scenes {
		if bp.Scenes[i].SceneID == id {
			return &bp.Scenes[i]
		}
	}
	return nil
}

// SceneZones returns the zones active in a scene. A scene with no
// explicit zone list uses every blueprint zone.
func (bp *Blueprint) SceneZones(sc *Scene) []Zone {
	if sc == nil || len(sc.ZoneIDs) == 0 {
		return bp.Zones
	}
	out := make([]Zone, 0, len(sc.ZoneIDs))
	for _, id := range sc.ZoneIDs {
		if z := bp.ZoneByID(id); z != nil {
			out = append(out, *z)
		}
	}
	return out
}

// HasMechanic reports whether the blueprint declares a mechanic type.
func (bp *Blueprint) HasMechanic(mechanicType string) bool {
	for _, m := range bp.Mechanics {
		if m.Type == mechanicType {
			return true
		}
	}
	return false
}
