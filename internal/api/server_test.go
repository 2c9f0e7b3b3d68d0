package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diagramquest/engine/internal/blueprint"
	"github.com/diagramquest/engine/internal/game"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	bp := &blueprint.Blueprint{
		Version: 1,
		GameID:  "api-test",
		Zones: []blueprint.Zone{
			{ID: "nucleus"}, {ID: "mitochondrion"},
		},
		Labels: []blueprint.Label{
			{ID: "lbl-nucleus", CorrectZoneIDs: []string{"nucleus"}},
			{ID: "lbl-mito", CorrectZoneIDs: []string{"mitochondrion"}},
		},
		Mechanics:       []blueprint.Mechanic{{Type: "drag_drop"}},
		ScoringStrategy: blueprint.ScoringStrategy{PointsPerCorrect: 10, PenaltyPerIncorrect: 2},
	}
	sess := game.NewSession(bp)
	if err := sess.Start(); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	return NewServer(bp, sess, "API Test")
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// stateView mirrors stateResponse for decoding in tests; the live struct's
// Progress field is the interface type game.Progress, which encoding/json
// cannot unmarshal into, so it is held here as raw JSON instead.
type stateView struct {
	SessionID        string            `json:"sessionId"`
	GameID           string            `json:"gameId"`
	SceneID          string            `json:"sceneId"`
	TaskIndex        int               `json:"taskIndex"`
	Mechanic         game.MechanicType `json:"mechanic"`
	MechanicComplete bool              `json:"mechanicComplete"`
	GameComplete     bool              `json:"gameComplete"`
	Score            int               `json:"score"`
	Visibility       visibilityView    `json:"visibility"`
	CompletedZones   []string          `json:"completedZones"`
	CompletedScenes  []string          `json:"completedScenes"`
	UnlockedScenes   []string          `json:"unlockedScenes"`
	Progress         json.RawMessage   `json:"progress"`
	CanUndo          bool              `json:"canUndo"`
	CanRedo          bool              `json:"canRedo"`
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid health JSON: %v", err)
	}
	if resp.Status != "ok" || resp.Game != "API Test" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestStateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/state", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp stateView
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid state JSON: %v", err)
	}
	if resp.GameID != "api-test" || resp.Mechanic != game.MechanicDragDrop {
		t.Errorf("unexpected state: %+v", resp)
	}
	if len(resp.Visibility.Visible) != 2 {
		t.Errorf("expected both zones visible, got %v", resp.Visibility)
	}
}

func TestActionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/actions", game.Action{
		Type: game.ActionPlaceLabel, LabelID: "lbl-nucleus", ZoneID: "nucleus",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res game.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid result JSON: %v", err)
	}
	if !res.Accepted || !res.Correct || res.ScoreDelta != 10 {
		t.Errorf("unexpected dispatch result: %+v", res)
	}

	rec = doJSON(t, router, http.MethodGet, "/state", nil)
	var state stateView
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("invalid state JSON: %v", err)
	}
	if state.Score != 10 {
		t.Errorf("expected score 10 in state, got %d", state.Score)
	}
}

func TestActionEndpointRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/actions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestRejectedActionIsStillOK(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/actions", game.Action{
		Type: game.ActionPlaceLabel, LabelID: "no-such-label", ZoneID: "nucleus",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for game-level rejection, got %d", rec.Code)
	}
	var res game.Result
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Accepted {
		t.Errorf("expected rejection, got %+v", res)
	}
}

func TestOperatorOverrideEndpoint(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/operator/override", zoneRequest{ZoneID: "nucleus"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/state", nil)
	var state stateView
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("invalid state JSON: %v", err)
	}
	if len(state.CompletedZones) != 1 || state.CompletedZones[0] != "nucleus" {
		t.Errorf("expected nucleus completed, got %v", state.CompletedZones)
	}

	rec = doJSON(t, router, http.MethodPost, "/operator/override", zoneRequest{ZoneID: "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown zone, got %d", rec.Code)
	}
}

func TestUndoEndpoint(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	doJSON(t, router, http.MethodPost, "/actions", game.Action{
		Type: game.ActionPlaceLabel, LabelID: "lbl-nucleus", ZoneID: "nucleus",
	})
	rec := doJSON(t, router, http.MethodPost, "/undo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/state", nil)
	var state stateView
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("invalid state JSON: %v", err)
	}
	if state.Score != 0 {
		t.Errorf("expected score reverted to 0, got %d", state.Score)
	}
	if !state.CanRedo {
		t.Errorf("expected redo available after undo")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	InitMetrics()
	srv := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/metrics", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"diagramquest_uptime_seconds", "diagramquest_score", "diagramquest_events_total"} {
		if !bytes.Contains([]byte(body), []byte(want)) {
			t.Errorf("expected metric %s in output", want)
		}
	}
}
