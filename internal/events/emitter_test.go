package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEmitValidatesName(t *testing.T) {
	if _, err := Emit("info", "made.up.event", "nope", nil); err == nil {
		t.Errorf("expected unregistered event name to be rejected")
	}
}

func TestEmitProducesJSON(t *testing.T) {
	Clear()

	b, err := Emit("info", "zone.completed", "zone done", map[string]interface{}{
		"zone_id": "atrium",
	})
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("emit output is not valid JSON: %v", err)
	}
	if e.Name != "zone.completed" || e.Level != "info" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Fields["zone_id"] != "atrium" {
		t.Errorf("fields not carried through: %+v", e.Fields)
	}
	if _, err := time.Parse(time.RFC3339Nano, e.Timestamp); err != nil {
		t.Errorf("bad timestamp %q: %v", e.Timestamp, err)
	}
}

func TestEmitTracksTotal(t *testing.T) {
	Clear()
	before := TotalCount()

	for i := 0; i < 3; i++ {
		if _, err := Emit("info", "action.dispatched", "", nil); err != nil {
			t.Fatalf("emit failed: %v", err)
		}
	}

	if got := TotalCount() - before; got != 3 {
		t.Errorf("expected total to grow by 3, grew by %d", got)
	}
}

func TestRingBufferRotation(t *testing.T) {
	rb := NewRingBuffer(3)
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		rb.Add(Event{Name: name})
		if rb.Total() != int64(i+1) {
			t.Fatalf("total after %d adds: %d", i+1, rb.Total())
		}
	}

	snap := rb.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Errorf("snapshot[%d] = %s, want %s", i, snap[i].Name, want)
		}
	}
}

func TestRecentEvents(t *testing.T) {
	Clear()

	names := []string{"scene.started", "task.started", "zone.completed", "task.completed"}
	for _, n := range names {
		if _, err := Emit("info", n, "", nil); err != nil {
			t.Fatalf("emit failed: %v", err)
		}
	}

	recent := RecentEvents(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recent))
	}
	if recent[0].Name != "zone.completed" || recent[1].Name != "task.completed" {
		t.Errorf("unexpected recent events: %s, %s", recent[0].Name, recent[1].Name)
	}

	if got := RecentEvents(100); len(got) != len(names) {
		t.Errorf("expected all %d events when asking for more, got %d", len(names), len(got))
	}
}
