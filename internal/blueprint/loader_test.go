package blueprint

import (
	"testing"
)

const minimalBlueprint = `{
	"version": 1,
	"gameId": "heart-anatomy",
	"title": "Label the Heart",
	"zones": [
		{"id": "atrium", "name": "Right Atrium", "shape": {"type": "circle", "cx": 10, "cy": 10, "radius": 5}},
		{"id": "ventricle", "name": "Right Ventricle", "shape": {"type": "rect", "x": 0, "y": 0, "width": 10, "height": 10}}
	],
	"labels": [
		{"id": "lbl-atrium", "text": "Atrium", "correctZoneIds": ["atrium"]}
	],
	"mechanics": [{"type": "drag_drop"}],
	"temporalConstraints": [
		{"zoneA": "atrium", "zoneB": "ventricle", "type": "before", "priority": 2}
	],
	"scoringStrategy": {"pointsPerCorrect": 10, "penaltyPerIncorrect": 2}
}`

func TestParseBlueprint(t *testing.T) {
	bp, err := Parse([]byte(minimalBlueprint))
	if err != nil {
		t.Fatalf("failed to parse blueprint: %v", err)
	}

	if bp.GameID != "heart-anatomy" {
		t.Errorf("expected gameId heart-anatomy, got %s", bp.GameID)
	}
	if len(bp.Zones) != 2 {
		t.Errorf("expected 2 zones, got %d", len(bp.Zones))
	}
	if bp.Zones[0].Shape.Type != "circle" || bp.Zones[0].Shape.Radius != 5 {
		t.Errorf("unexpected shape: %+v", bp.Zones[0].Shape)
	}
	if len(bp.TemporalConstraints) != 1 || bp.TemporalConstraints[0].Priority != 2 {
		t.Errorf("unexpected constraints: %+v", bp.TemporalConstraints)
	}
	if !bp.HasMechanic("drag_drop") {
		t.Errorf("expected drag_drop mechanic declared")
	}
}

func TestParseRejectsBadVersion(t *testing.T) {
	if _, err := Parse([]byte(`{"version": 3, "gameId": "x", "zones": []}`)); err == nil {
		t.Errorf("expected version 3 rejected")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"version": 1,`)); err == nil {
		t.Errorf("expected malformed JSON rejected")
	}
}
