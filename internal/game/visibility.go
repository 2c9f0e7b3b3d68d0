package game

import (
	"fmt"

	"github.com/diagramquest/engine/internal/blueprint"
)

// Visibility is the resolver output: three disjoint zone sets plus a
// per-zone reason string for blocked/pending zones. The union need not
// cover all zones; a zone whose parent chain is unreachable stays
// unclassified.
type Visibility struct {
	Visible map[string]bool
	Blocked map[string]bool
	Pending map[string]bool
	Reasons map[string]string
}

// Classified reports whether the zone landed in any set.
func (v *Visibility) Classified(zoneID string) bool {
	return v.Visible[zoneID] || v.Blocked[zoneID] || v.Pending[zoneID]
}

// Resolve computes zone visibility from the constraint index and the
// set of completed zones. It is a pure function: identical inputs yield
// identical outputs, and it never mutates its arguments.
//
// Three phases run in fixed order:
//  1. root pass: classify parentless zones.
//  2. cascade pass: classify children of completed zones, one level per
//     call. Deeper descendants resolve on later calls, once their
//     parent's completion has been recorded.
//  3. sweep pass: remaining zones whose parent exists but is not
//     completed become pending.
//
// Mutex arbitration is first-visible-wins in declaration order. The
// constraint priority field is not consulted.
func Resolve(zones []blueprint.Zone, idx *ConstraintIndex, completed map[string]bool) *Visibility {
	v := &Visibility{
		Visible: make(map[string]bool),
		Blocked: make(map[string]bool),
		Pending: make(map[string]bool),
		Reasons: make(map[string]string),
	}

	known := make(map[string]bool, len(zones))
	for _, z := range zones {
		known[z.ID] = true
	}

	// Phase 1: roots.
	for _, z := range zones {
		if z.ParentZoneID != "" {
			continue
		}
		v.classify(z.ID, idx, completed)
	}

	// Phase 2: cascade from completed parents, one level deep.
	for _, z := range zones {
		if !completed[z.ID] {
			continue
		}
		for _, childID := range idx.ParentToChildren[z.ID] {
			if v.Classified(childID) {
				continue
			}
			v.classify(childID, idx, completed)
		}
	}

	// Phase 3: sweep. Zones with a known but uncompleted parent wait as
	// pending. Zones with a dangling parent stay unclassified.
	for _, z := range zones {
		if z.ParentZoneID == "" || v.Classified(z.ID) {
			continue
		}
		if !known[z.ParentZoneID] {
			continue
		}
		v.Pending[z.ID] = true
		v.Reasons[z.ID] = fmt.Sprintf("parent zone %s not completed", z.ParentZoneID)
	}

	return v
}

// classify applies the prerequisite-then-mutex test to a single zone.
func (v *Visibility) classify(zoneID string, idx *ConstraintIndex, completed map[string]bool) {
	for prereq := range idx.Prerequisites[zoneID] {
		if !completed[prereq] {
			v.Pending[zoneID] = true
			v.Reasons[zoneID] = fmt.Sprintf("prerequisite zone %s not completed", prereq)
			return
		}
	}

	for partner := range idx.Mutex[zoneID] {
		if v.Visible[partner] && !completed[partner] {
			v.Blocked[zoneID] = true
			v.Reasons[zoneID] = fmt.Sprintf("mutually exclusive with visible zone %s", partner)
			return
		}
	}

	v.Visible[zoneID] = true
}
