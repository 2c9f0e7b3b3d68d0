package game

import (
	"testing"

	"github.com/diagramquest/engine/internal/blueprint"
)

func resolveZones(zones []blueprint.Zone, constraints []blueprint.TemporalConstraint, completed map[string]bool) *Visibility {
	if completed == nil {
		completed = map[string]bool{}
	}
	return Resolve(zones, NewConstraintIndex(zones, constraints), completed)
}

func assertDisjoint(t *testing.T, v *Visibility, zones []blueprint.Zone) {
	t.Helper()
	for _, z := range zones {
		n := 0
		if v.Visible[z.ID] {
			n++
		}
		if v.Blocked[z.ID] {
			n++
		}
		if v.Pending[z.ID] {
			n++
		}
		if n > 1 {
			t.Errorf("zone %s classified into %d sets", z.ID, n)
		}
	}
}

func TestRootZonesStartVisible(t *testing.T) {
	zones := []blueprint.Zone{{ID: "heart"}, {ID: "lungs"}}

	v := resolveZones(zones, nil, nil)

	if !v.Visible["heart"] || !v.Visible["lungs"] {
		t.Errorf("expected unconstrained roots visible, got %v", v.Visible)
	}
	assertDisjoint(t, v, zones)
}

func TestPrerequisiteGatesVisibility(t *testing.T) {
	zones := []blueprint.Zone{{ID: "atrium"}, {ID: "ventricle"}}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "atrium", ZoneB: "ventricle", Type: blueprint.ConstraintBefore},
	}

	v := resolveZones(zones, constraints, nil)
	if !v.Visible["atrium"] {
		t.Errorf("expected atrium visible")
	}
	if !v.Pending["ventricle"] {
		t.Errorf("expected ventricle pending before atrium completes")
	}
	if v.Reasons["ventricle"] == "" {
		t.Errorf("expected a reason for pending ventricle")
	}

	v = resolveZones(zones, constraints, map[string]bool{"atrium": true})
	if !v.Visible["ventricle"] {
		t.Errorf("expected ventricle visible after atrium completed")
	}
}

func TestMutexFirstVisibleWins(t *testing.T) {
	zones := []blueprint.Zone{{ID: "systole"}, {ID: "diastole"}}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "systole", ZoneB: "diastole", Type: blueprint.ConstraintMutex},
	}

	// Declaration order decides: systole classifies first and wins.
	v := resolveZones(zones, constraints, nil)
	if !v.Visible["systole"] {
		t.Errorf("expected systole visible")
	}
	if !v.Blocked["diastole"] {
		t.Errorf("expected diastole blocked by visible systole")
	}
	assertDisjoint(t, v, zones)
}

func TestMutexReleasesOnCompletion(t *testing.T) {
	zones := []blueprint.Zone{{ID: "systole"}, {ID: "diastole"}}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "systole", ZoneB: "diastole", Type: blueprint.ConstraintMutex},
	}

	v := resolveZones(zones, constraints, map[string]bool{"systole": true})
	if !v.Visible["diastole"] {
		t.Errorf("expected diastole visible once systole is completed")
	}
}

func TestChildRevealedByParentCompletion(t *testing.T) {
	zones := []blueprint.Zone{
		{ID: "cell"},
		{ID: "nucleus", ParentZoneID: "cell"},
	}

	v := resolveZones(zones, nil, nil)
	if !v.Pending["nucleus"] {
		t.Errorf("expected nucleus pending while cell uncompleted")
	}

	v = resolveZones(zones, nil, map[string]bool{"cell": true})
	if !v.Visible["nucleus"] {
		t.Errorf("expected nucleus visible after cell completed")
	}
}

func TestCascadeDescendsOneLevelPerResolve(t *testing.T) {
	zones := []blueprint.Zone{
		{ID: "cell"},
		{ID: "nucleus", ParentZoneID: "cell"},
		{ID: "nucleolus", ParentZoneID: "nucleus"},
	}

	// Cell completed: nucleus resolves, nucleolus still waits on nucleus.
	v := resolveZones(zones, nil, map[string]bool{"cell": true})
	if !v.Visible["nucleus"] {
		t.Errorf("expected nucleus visible")
	}
	if !v.Pending["nucleolus"] {
		t.Errorf("expected nucleolus pending until nucleus completes")
	}

	v = resolveZones(zones, nil, map[string]bool{"cell": true, "nucleus": true})
	if !v.Visible["nucleolus"] {
		t.Errorf("expected nucleolus visible after nucleus completed")
	}
}

func TestDanglingParentStaysUnclassified(t *testing.T) {
	zones := []blueprint.Zone{
		{ID: "orphan", ParentZoneID: "missing"},
	}

	v := resolveZones(zones, nil, nil)
	if v.Classified("orphan") {
		t.Errorf("expected orphan unclassified, got visible=%v blocked=%v pending=%v",
			v.Visible["orphan"], v.Blocked["orphan"], v.Pending["orphan"])
	}
}

// Growing the completed set never demotes a visible zone. The fixture
// declares each mutex winner before its partner; a later-declared
// winner newly revealed by a prerequisite would re-block its partner
// under first-visible-wins arbitration.
func TestVisibilityMonotoneUnderCompletionGrowth(t *testing.T) {
	zones := []blueprint.Zone{
		{ID: "heart"},
		{ID: "atrium", ParentZoneID: "heart"},
		{ID: "ventricle"},
		{ID: "valve"},
		{ID: "aorta"},
	}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "heart", ZoneB: "ventricle", Type: blueprint.ConstraintBefore},
		{ZoneA: "valve", ZoneB: "aorta", Type: blueprint.ConstraintMutex},
	}

	steps := []map[string]bool{
		{},
		{"heart": true},
		{"heart": true, "valve": true},
		{"heart": true, "valve": true, "atrium": true, "ventricle": true},
	}

	prev := resolveZones(zones, constraints, steps[0])
	for _, completed := range steps[1:] {
		next := resolveZones(zones, constraints, completed)
		for _, z := range zones {
			if prev.Visible[z.ID] && !next.Visible[z.ID] && !completed[z.ID] {
				t.Errorf("zone %s regressed from visible with completed=%v", z.ID, completed)
			}
		}
		assertDisjoint(t, next, zones)
		prev = next
	}
}

func TestResolveIsPureAndRepeatable(t *testing.T) {
	zones := []blueprint.Zone{
		{ID: "a"},
		{ID: "b"},
		{ID: "c", ParentZoneID: "a"},
	}
	constraints := []blueprint.TemporalConstraint{
		{ZoneA: "a", ZoneB: "b", Type: blueprint.ConstraintMutex},
	}
	completed := map[string]bool{"a": true}

	idx := NewConstraintIndex(zones, constraints)
	v1 := Resolve(zones, idx, completed)
	v2 := Resolve(zones, idx, completed)

	for _, z := range zones {
		if v1.Visible[z.ID] != v2.Visible[z.ID] ||
			v1.Blocked[z.ID] != v2.Blocked[z.ID] ||
			v1.Pending[z.ID] != v2.Pending[z.ID] {
			t.Errorf("resolve not repeatable for zone %s", z.ID)
		}
	}
	if len(completed) != 1 || !completed["a"] {
		t.Errorf("resolve mutated the completed set: %v", completed)
	}
}
