package game

import (
	"testing"

	"github.com/diagramquest/engine/internal/blueprint"
)

func TestMutexIsSymmetric(t *testing.T) {
	zones := []blueprint.Zone{{ID: "artery"}, {ID: "vein"}}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "artery", ZoneB: "vein", Type: blueprint.ConstraintMutex},
	}

	idx := NewConstraintIndex(zones, constraints)

	if !idx.Mutex["artery"]["vein"] {
		t.Errorf("expected mutex edge artery -> vein")
	}
	if !idx.Mutex["vein"]["artery"] {
		t.Errorf("expected mutex edge vein -> artery")
	}
}

func TestBeforeAndSequenceBuildPrerequisites(t *testing.T) {
	zones := []blueprint.Zone{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "a", ZoneB: "b", Type: blueprint.ConstraintBefore},
		{ZoneA: "b", ZoneB: "c", Type: blueprint.ConstraintSequence},
	}

	idx := NewConstraintIndex(zones, constraints)

	if !idx.Prerequisites["b"]["a"] {
		t.Errorf("expected a to be a prerequisite of b")
	}
	if !idx.Prerequisites["c"]["b"] {
		t.Errorf("expected b to be a prerequisite of c")
	}
	if len(idx.Prerequisites["a"]) != 0 {
		t.Errorf("expected a to have no prerequisites, got %v", idx.Prerequisites["a"])
	}
}

func TestAfterMirrorsBefore(t *testing.T) {
	zones := []blueprint.Zone{{ID: "a"}, {ID: "b"}}

	after := NewConstraintIndex(zones, []blueprint.TemporalConstraint{
		{ZoneA: "a", ZoneB: "b", Type: blueprint.ConstraintAfter},
	})
	before := NewConstraintIndex(zones, []blueprint.TemporalConstraint{
		{ZoneA: "b", ZoneB: "a", Type: blueprint.ConstraintBefore},
	})

	if !after.Prerequisites["a"]["b"] {
		t.Errorf("expected after(a,b) to make b a prerequisite of a")
	}
	if !before.Prerequisites["a"]["b"] {
		t.Errorf("expected before(b,a) to make b a prerequisite of a")
	}
}

func TestConcurrentIsAdvisoryOnly(t *testing.T) {
	zones := []blueprint.Zone{{ID: "a"}, {ID: "b"}}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "a", ZoneB: "b", Type: blueprint.ConstraintConcurrent},
	}

	idx := NewConstraintIndex(zones, constraints)

	if !idx.Concurrent["a"]["b"] || !idx.Concurrent["b"]["a"] {
		t.Errorf("expected symmetric concurrent edges")
	}
	if len(idx.Prerequisites["a"]) != 0 || len(idx.Prerequisites["b"]) != 0 {
		t.Errorf("concurrent must not create prerequisites")
	}
	if len(idx.Mutex["a"]) != 0 || len(idx.Mutex["b"]) != 0 {
		t.Errorf("concurrent must not create mutex edges")
	}
}

func TestHierarchyIndex(t *testing.T) {
	zones := []blueprint.Zone{
		{ID: "cell"},
		{ID: "nucleus", ParentZoneID: "cell"},
		{ID: "nucleolus", ParentZoneID: "nucleus"},
		{ID: "membrane", ParentZoneID: "cell"},
	}

	idx := NewConstraintIndex(zones, nil)

	if len(idx.RootZones) != 1 || idx.RootZones[0] != "cell" {
		t.Errorf("expected single root cell, got %v", idx.RootZones)
	}
	if idx.ChildToParent["nucleolus"] != "nucleus" {
		t.Errorf("expected nucleolus parent nucleus, got %s", idx.ChildToParent["nucleolus"])
	}

	children := idx.ParentToChildren["cell"]
	if len(children) != 2 || children[0] != "nucleus" || children[1] != "membrane" {
		t.Errorf("expected children in declaration order, got %v", children)
	}
}

func TestConstraintOnUnknownZoneIsInert(t *testing.T) {
	zones := []blueprint.Zone{{ID: "a"}}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "ghost", ZoneB: "a", Type: blueprint.ConstraintBefore},
	}

	// Building the index must not panic; the ghost prerequisite simply
	// keeps zone a pending forever until an operator intervenes.
	idx := NewConstraintIndex(zones, constraints)
	if !idx.Prerequisites["a"]["ghost"] {
		t.Errorf("expected ghost recorded as prerequisite of a")
	}
}
