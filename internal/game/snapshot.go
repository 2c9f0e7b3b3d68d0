package game

import (
	"encoding/json"
	"fmt"

	"github.com/diagramquest/engine/internal/blueprint"
	"github.com/diagramquest/engine/internal/events"
	"github.com/diagramquest/engine/internal/storage"
)

// Snapshot is the serializable state of a session: everything needed
// to resume play on the same blueprint. Progress holds the active
// mechanic's record as raw JSON so each variant round-trips through
// its own shape.
type Snapshot struct {
	SessionID       string          `json:"sessionId"`
	GameID          string          `json:"gameId"`
	SceneID         string          `json:"sceneId,omitempty"`
	TaskIndex       int             `json:"taskIndex"`
	Score           int             `json:"score"`
	CompletedZones  []string        `json:"completedZones,omitempty"`
	CompletedScenes []string        `json:"completedScenes,omitempty"`
	GameComplete    bool            `json:"gameComplete"`
	Mechanic        MechanicType    `json:"mechanic,omitempty"`
	Progress        json.RawMessage `json:"progress,omitempty"`
}

// Snapshot captures the current session state and journals it under a
// snapshot.saved event, which is what RestoreFromJournal reads back.
func (s *Session) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		SessionID:       s.ID,
		GameID:          s.bp.GameID,
		SceneID:         s.sceneID,
		TaskIndex:       s.taskIdx,
		Score:           s.score,
		CompletedZones:  s.CompletedZones(),
		GameComplete:    s.gameComplete,
	}
	for i := range s.bp.Scenes {
		if s.completedScenes[s.bp.Scenes[i].SceneID] {
			snap.CompletedScenes = append(snap.CompletedScenes, s.bp.Scenes[i].SceneID)
		}
	}
	if s.progress != nil {
		b, err := json.Marshal(s.progress)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal progress: %w", err)
		}
		snap.Progress = b
		snap.Mechanic = s.progress.Mechanic()
	}

	state, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	s.emit("snapshot.saved", map[string]interface{}{
		"session_id": s.ID,
		"state":      string(state),
	})
	return snap, nil
}

// RestoreSession rebuilds a session from a snapshot. The undo stack is
// not part of the snapshot; a restored session starts with empty
// history. Zones and scenes the blueprint no longer declares are
// dropped silently, so a restored session is always playable against
// the current blueprint.
func RestoreSession(bp *blueprint.Blueprint, snap *Snapshot) (*Session, error) {
	if snap.GameID != "" && snap.GameID != bp.GameID {
		return nil, fmt.Errorf("snapshot is for game %s, blueprint declares %s", snap.GameID, bp.GameID)
	}

	s := NewSession(bp)
	if snap.SessionID != "" {
		s.ID = snap.SessionID
	}

	s.sceneID = snap.SceneID
	if s.sceneID == "" && len(bp.Scenes) > 0 {
		s.sceneID = bp.Scenes[0].SceneID
	}
	if s.sceneID != "" && bp.SceneByID(s.sceneID) == nil {
		return nil, fmt.Errorf("snapshot references unknown scene: %s", s.sceneID)
	}

	s.taskIdx = snap.TaskIndex
	if sc := s.currentScene(); sc != nil && s.taskIdx >= len(sc.Tasks) {
		s.taskIdx = 0
	}

	for _, id := range snap.CompletedZones {
		if bp.ZoneByID(id) != nil {
			s.completed[id] = true
		}
	}
	for _, id := range snap.CompletedScenes {
		if bp.SceneByID(id) != nil {
			s.completedScenes[id] = true
		}
	}
	s.score = snap.Score
	s.gameComplete = snap.GameComplete
	s.rebuildIndex()

	if s.gameComplete {
		s.progress = nil
		return s, nil
	}

	if err := s.initProgress(); err != nil {
		return nil, err
	}
	if len(snap.Progress) > 0 && snap.Mechanic == s.currentMechanicType() {
		if err := json.Unmarshal(snap.Progress, s.progress); err != nil {
			return nil, fmt.Errorf("failed to restore %s progress: %w", snap.Mechanic, err)
		}
	}
	if capab, ok := Lookup(s.currentMechanicType()); ok && capab.IsComplete(s.progress, bp) {
		s.mechDone = true
	}
	return s, nil
}

// RestoreFromJournal reconstructs the most recent session from the
// event journal: the latest snapshot.saved state, corrected by zone
// completion events journaled after it. Returns nil with no error when
// the journal holds no restorable session.
func RestoreFromJournal(bp *blueprint.Blueprint, j storage.Journal, limit int) (*Session, error) {
	if j == nil {
		return nil, nil
	}
	rows, err := j.Query(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}

	var snap *Snapshot
	var tail []storage.Row

	// Rows arrive newest-first; walk them chronologically.
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		switch r.Event {
		case "session.started", "session.reset":
			// A new run invalidates anything restored so far.
			snap = nil
			tail = nil
		case "snapshot.saved":
			state := fieldString(r.Fields, "state")
			if state == "" {
				continue
			}
			var decoded Snapshot
			if err := json.Unmarshal([]byte(state), &decoded); err != nil {
				events.Emit("warn", "system.error", "skipping undecodable snapshot", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			snap = &decoded
			tail = nil
		case "zone.completed", "zone.overridden", "zone.reset", "session.completed":
			if snap != nil {
				tail = append(tail, r)
			}
		}
	}

	if snap == nil {
		return nil, nil
	}
	s, err := RestoreSession(bp, snap)
	if err != nil {
		return nil, err
	}

	// Re-apply zone state journaled after the snapshot. Mechanic
	// progress past the snapshot is not reconstructable and is
	// accepted as lost.
	for _, r := range tail {
		switch r.Event {
		case "zone.completed", "zone.overridden":
			if id := fieldString(r.Fields, "zone_id"); id != "" && bp.ZoneByID(id) != nil {
				s.completed[id] = true
			}
		case "zone.reset":
			if id := fieldString(r.Fields, "zone_id"); id != "" {
				delete(s.completed, id)
			}
		case "session.completed":
			s.gameComplete = true
			s.progress = nil
		}
	}

	events.Emit("info", "session.restored", "session restored from journal", map[string]interface{}{
		"session_id": s.ID,
		"scene_id":   s.sceneID,
		"score":      s.score,
	})
	return s, nil
}

func fieldString(fields map[string]interface{}, key string) string {
	if fields == nil {
		return ""
	}
	v, _ := fields[key].(string)
	return v
}
