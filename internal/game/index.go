package game

import (
	"github.com/diagramquest/engine/internal/blueprint"
)

// ConstraintIndex holds O(1) lookup structures derived from the zone
// hierarchy and the temporal constraint list. It is a pure derived
// view of immutable inputs: rebuild it rather than mutating it.
type ConstraintIndex struct {
	// Mutex is symmetric: for every mutex constraint (a,b) both
	// directions are present.
	Mutex map[string]map[string]bool

	// Prerequisites maps a zone to the set of zones that must be
	// completed before it may become visible. before/sequence (a,b)
	// add a to b's set; after (a,b) adds b to a's set.
	Prerequisites map[string]map[string]bool

	// Concurrent is advisory only: it records explicitly permitted
	// co-visibility for introspection and is never enforced.
	Concurrent map[string]map[string]bool

	// ParentToChildren and ChildToParent are derived purely from
	// parentZoneId, preserving zone declaration order.
	ParentToChildren map[string][]string
	ChildToParent    map[string]string

	// RootZones lists zones with no parent, in declaration order.
	RootZones []string
}

// NewConstraintIndex builds the index. Malformed input (a constraint or
// parent referencing a zone that does not exist) never errors; such
// zones simply never resolve into any visibility set.
func NewConstraintIndex(zones []blueprint.Zone, constraints []blueprint.TemporalConstraint) *ConstraintIndex {
	idx := &ConstraintIndex{
		Mutex:            make(map[string]map[string]bool),
		Prerequisites:    make(map[string]map[string]bool),
		Concurrent:       make(map[string]map[string]bool),
		ParentToChildren: make(map[string][]string),
		ChildToParent:    make(map[string]string),
	}

	for _, z := range zones {
		if z.ParentZoneID == "" {
			idx.RootZones = append(idx.RootZones, z.ID)
			continue
		}
		idx.ChildToParent[z.ID] = z.ParentZoneID
		idx.ParentToChildren[z.ParentZoneID] = append(idx.ParentToChildren[z.ParentZoneID], z.ID)
	}

	for _, c := range constraints {
		switch c.Type {
		case blueprint.ConstraintMutex:
			addEdge(idx.Mutex, c.ZoneA, c.ZoneB)
			addEdge(idx.Mutex, c.ZoneB, c.ZoneA)
		case blueprint.ConstraintBefore, blueprint.ConstraintSequence:
			addEdge(idx.Prerequisites, c.ZoneB, c.ZoneA)
		case blueprint.ConstraintAfter:
			addEdge(idx.Prerequisites, c.ZoneA, c.ZoneB)
		case blueprint.ConstraintConcurrent:
			addEdge(idx.Concurrent, c.ZoneA, c.ZoneB)
			addEdge(idx.Concurrent, c.ZoneB, c.ZoneA)
		}
	}

	return idx
}

func addEdge(m map[string]map[string]bool, from, to string) {
	set, ok := m[from]
	if !ok {
		set = make(map[string]bool)
		m[from] = set
	}
	set[to] = true
}
