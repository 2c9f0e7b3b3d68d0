package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/diagramquest/engine/internal/blueprint"
	"github.com/diagramquest/engine/internal/events"
)

// Session owns the mutable state of one play-through: the completed
// zone set, the active mechanic's progress record, the scene/task
// pointer and the score. All mutation goes through Dispatch and the
// flow methods; the visibility view is derived on demand.
//
// A session is single-threaded by design. Callers that share one
// across goroutines (the API server does) must serialize access.
type Session struct {
	ID string

	bp    *blueprint.Blueprint
	index *ConstraintIndex

	sceneID string
	taskIdx int

	completed       map[string]bool
	completedScenes map[string]bool

	progress     Progress
	score        int
	gameComplete bool
	mechDone     bool

	history *History
	now     func() time.Time
}

// NewSession creates a session for a blueprint. Call Start before
// dispatching.
func NewSession(bp *blueprint.Blueprint) *Session {
	return &Session{
		ID:              uuid.NewString(),
		bp:              bp,
		completed:       make(map[string]bool),
		completedScenes: make(map[string]bool),
		history:         NewHistory(DefaultHistoryLimit),
		now:             time.Now,
	}
}

// SetHistoryLimit replaces the undo stack with one of the given cap.
// Only meaningful before any dispatch.
func (s *Session) SetHistoryLimit(limit int) {
	s.history = NewHistory(limit)
}

// Start enters the first scene and task and initializes the first
// mechanic's progress.
func (s *Session) Start() error {
	if len(s.bp.Scenes) > 0 {
		s.sceneID = s.bp.Scenes[0].SceneID
	}
	s.taskIdx = 0
	s.rebuildIndex()
	if err := s.initProgress(); err != nil {
		return err
	}

	s.emit("session.started", map[string]interface{}{
		"session_id": s.ID,
		"game_id":    s.bp.GameID,
	})
	if sc := s.currentScene(); sc != nil {
		s.emit("scene.started", map[string]interface{}{"scene_id": sc.SceneID})
		if t := s.currentTask(); t != nil {
			s.emit("task.started", map[string]interface{}{"task_id": t.TaskID, "scene_id": sc.SceneID})
		}
	}
	return nil
}

// Reset discards all session state and restarts from the first scene.
func (s *Session) Reset() error {
	s.emit("session.reset", map[string]interface{}{"session_id": s.ID})
	s.completed = make(map[string]bool)
	s.completedScenes = make(map[string]bool)
	s.score = 0
	s.gameComplete = false
	s.mechDone = false
	s.history.Clear()
	return s.Start()
}

func (s *Session) currentScene() *blueprint.Scene {
	if s.sceneID == "" {
		return nil
	}
	return s.bp.SceneByID(s.sceneID)
}

func (s *Session) currentTask() *blueprint.Task {
	sc := s.currentScene()
	if sc == nil || s.taskIdx >= len(sc.Tasks) {
		return nil
	}
	return &sc.Tasks[s.taskIdx]
}

// currentMechanicType returns the active mechanic: the current task's
// in multi-scene games, otherwise the first declared mechanic.
func (s *Session) currentMechanicType() MechanicType {
	if t := s.currentTask(); t != nil {
		return MechanicType(t.Mechanic)
	}
	if len(s.bp.Mechanics) > 0 {
		return MechanicType(s.bp.Mechanics[0].Type)
	}
	return ""
}

func (s *Session) rebuildIndex() {
	zones := s.bp.SceneZones(s.currentScene())
	s.index = NewConstraintIndex(zones, s.bp.TemporalConstraints)
}

// initProgress builds a fresh progress record for the active mechanic
// and drops undo state, since recorded commands reference the old
// record.
func (s *Session) initProgress() error {
	mech := s.currentMechanicType()
	if mech == "" {
		return fmt.Errorf("blueprint declares no mechanics")
	}
	capab, ok := Lookup(mech)
	if !ok {
		return fmt.Errorf("unknown mechanic type: %s", mech)
	}
	s.progress = capab.InitProgress(s.bp, s.currentTask())
	s.mechDone = false
	s.history.Clear()
	return nil
}

// Visibility resolves the derived zone view for the current scene.
func (s *Session) Visibility() *Visibility {
	return Resolve(s.bp.SceneZones(s.currentScene()), s.index, s.completed)
}

func (s *Session) flowState() FlowState {
	return FlowState{
		CurrentSceneID:   s.sceneID,
		TaskIndex:        s.taskIdx,
		CompletedScenes:  s.completedScenes,
		Score:            s.score,
		SequenceComplete: s.gameComplete,
	}
}

// Advance applies the flow controller's decision after a mechanic
// completion. Calling it while the mechanic is unfinished is a no-op
// wait.
func (s *Session) Advance() FlowDecision {
	if s.gameComplete {
		return FlowDecision{Type: FlowCompleteGame}
	}
	if !s.mechDone {
		return FlowDecision{Type: FlowWait}
	}
	d := NextStep(s.bp, s.flowState())
	s.applyDecision(d)
	return d
}

// TimeElapsed feeds an externally measured elapsed time into the flow
// controller. When the current scene's limit has passed, the scene is
// closed out and the flow decision applied, exactly as if the mechanic
// had completed.
func (s *Session) TimeElapsed(elapsed time.Duration) FlowDecision {
	if s.gameComplete {
		return FlowDecision{Type: FlowCompleteGame}
	}
	if !TimeExpired(s.currentScene(), elapsed) {
		return FlowDecision{Type: FlowWait}
	}
	s.mechDone = true
	d := NextStep(s.bp, s.flowState())
	s.applyDecision(d)
	return d
}

func (s *Session) applyDecision(d FlowDecision) {
	switch d.Type {
	case FlowAdvanceTask:
		s.finishTask()
		s.taskIdx = d.NextTaskIndex
		if err := s.initProgress(); err != nil {
			s.emitError("failed to enter task", err)
			return
		}
		if t := s.currentTask(); t != nil {
			s.emit("task.started", map[string]interface{}{"task_id": t.TaskID, "scene_id": s.sceneID})
		}

	case FlowAdvanceScene:
		s.finishTask()
		s.finishScene()
		s.enterScene(d.NextSceneID)

	case FlowWait:
		// Branching progression: the scene is done but the user picks
		// the next one via JumpToScene.
		if len(d.UnlockedScenes) > 0 {
			s.finishTask()
			s.finishScene()
			s.progress = nil
			s.mechDone = false
		}

	case FlowCompleteGame:
		s.finishTask()
		s.finishScene()
		s.gameComplete = true
		s.progress = nil
		s.emit("session.completed", map[string]interface{}{
			"session_id": s.ID,
			"score":      s.score,
		})
	}
}

// JumpToScene enters one of the currently unlocked scenes. Used by
// branching progressions and by operator jumps.
func (s *Session) JumpToScene(sceneID string) error {
	if s.gameComplete {
		return fmt.Errorf("game already complete")
	}
	for _, id := range UnlockedScenes(s.bp, s.completedScenes) {
		if id == sceneID {
			s.enterScene(sceneID)
			return nil
		}
	}
	return fmt.Errorf("scene %s is not unlocked", sceneID)
}

func (s *Session) enterScene(sceneID string) {
	s.sceneID = sceneID
	s.taskIdx = 0
	s.rebuildIndex()
	if err := s.initProgress(); err != nil {
		s.emitError("failed to enter scene", err)
		return
	}
	s.emit("scene.started", map[string]interface{}{"scene_id": sceneID})
	if t := s.currentTask(); t != nil {
		s.emit("task.started", map[string]interface{}{"task_id": t.TaskID, "scene_id": sceneID})
	}
}

func (s *Session) finishTask() {
	if t := s.currentTask(); t != nil {
		s.emit("task.completed", map[string]interface{}{"task_id": t.TaskID, "scene_id": s.sceneID})
	}
}

func (s *Session) finishScene() {
	sc := s.currentScene()
	if sc == nil || s.completedScenes[sc.SceneID] {
		return
	}
	s.completedScenes[sc.SceneID] = true
	s.emit("scene.completed", map[string]interface{}{"scene_id": sc.SceneID})
}

// OverrideZone force-completes a zone on operator request.
func (s *Session) OverrideZone(zoneID string) error {
	if s.bp.ZoneByID(zoneID) == nil {
		return fmt.Errorf("zone not found: %s", zoneID)
	}
	if s.completed[zoneID] {
		return nil
	}
	s.emit("operator.override", map[string]interface{}{"zone_id": zoneID})
	s.completed[zoneID] = true
	s.emit("zone.overridden", map[string]interface{}{"zone_id": zoneID})
	return nil
}

// ResetZone returns a zone to the uncompleted state on operator
// request. This is the one sanctioned way completion regresses outside
// of undo.
func (s *Session) ResetZone(zoneID string) error {
	if s.bp.ZoneByID(zoneID) == nil {
		return fmt.Errorf("zone not found: %s", zoneID)
	}
	if !s.completed[zoneID] {
		return nil
	}
	s.emit("operator.reset", map[string]interface{}{"zone_id": zoneID})
	delete(s.completed, zoneID)
	s.emit("zone.reset", map[string]interface{}{"zone_id": zoneID})
	return nil
}

// Undo reverts the most recent reversible action.
func (s *Session) Undo() bool {
	if !s.history.Undo() {
		return false
	}
	s.refreshMechDone()
	return true
}

// Redo re-applies the most recently undone action.
func (s *Session) Redo() bool {
	if !s.history.Redo() {
		return false
	}
	s.refreshMechDone()
	return true
}

// refreshMechDone re-evaluates the cached completion flag after undo
// or redo rewrites the progress record.
func (s *Session) refreshMechDone() {
	if s.progress == nil {
		s.mechDone = false
		return
	}
	capab, ok := Lookup(s.currentMechanicType())
	s.mechDone = ok && capab.IsComplete(s.progress, s.bp)
}

// CanUndo reports whether an undo step is available.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// markZoneCompleted records a zone completion from correct play.
func (s *Session) markZoneCompleted(zoneID string) {
	if s.completed[zoneID] {
		return
	}
	s.completed[zoneID] = true
	s.emit("zone.completed", map[string]interface{}{"zone_id": zoneID})
}

// unmarkZoneCompleted reverts a completion during undo.
func (s *Session) unmarkZoneCompleted(zoneID string) {
	if !s.completed[zoneID] {
		return
	}
	delete(s.completed, zoneID)
	s.emit("zone.reset", map[string]interface{}{"zone_id": zoneID})
}

func (s *Session) addScore(delta int) {
	s.score += delta
}

func (s *Session) emit(name string, fields map[string]interface{}) {
	events.Emit("info", name, "", fields)
}

func (s *Session) emitError(msg string, err error) {
	events.Emit("error", "system.error", msg, map[string]interface{}{
		"error": err.Error(),
	})
}

// --- read-only accessors for the API layer ---

// Blueprint returns the immutable game declaration.
func (s *Session) Blueprint() *blueprint.Blueprint { return s.bp }

// Score returns the running score.
func (s *Session) Score() int { return s.score }

// GameComplete reports whether the sequence has finished.
func (s *Session) GameComplete() bool { return s.gameComplete }

// SceneID returns the current scene id ("" for single-scene games).
func (s *Session) SceneID() string { return s.sceneID }

// TaskIndex returns the current task index within the scene.
func (s *Session) TaskIndex() int { return s.taskIdx }

// Progress returns the active mechanic's progress record (nil between
// scenes in branching progressions and after completion).
func (s *Session) Progress() Progress { return s.progress }

// Mechanic returns the active mechanic type.
func (s *Session) Mechanic() MechanicType { return s.currentMechanicType() }

// MechanicComplete reports whether the active mechanic has finished.
func (s *Session) MechanicComplete() bool { return s.mechDone }

// CompletedZones lists completed zones in blueprint declaration order.
func (s *Session) CompletedZones() []string {
	var out []string
	for _, z := range s.bp.Zones {
		if s.completed[z.ID] {
			out = append(out, z.ID)
		}
	}
	return out
}

// CompletedScenes lists completed scenes in blueprint declaration
// order.
func (s *Session) CompletedScenes() []string {
	var out []string
	for i := range s.bp.Scenes {
		if s.completedScenes[s.bp.Scenes[i].SceneID] {
			out = append(out, s.bp.Scenes[i].SceneID)
		}
	}
	return out
}

// UnlockedSceneIDs lists scenes currently available to enter.
func (s *Session) UnlockedSceneIDs() []string {
	return UnlockedScenes(s.bp, s.completedScenes)
}

// HasZone reports whether the blueprint declares the zone. Used by
// operator endpoints to validate requests.
func (s *Session) HasZone(zoneID string) bool {
	return s.bp.ZoneByID(zoneID) != nil
}
