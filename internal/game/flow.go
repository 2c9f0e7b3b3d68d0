package game

import (
	"sort"
	"time"

	"github.com/diagramquest/engine/internal/blueprint"
)

// FlowActionType is the decision space of the scene/task flow
// controller.
type FlowActionType string

const (
	FlowAdvanceTask  FlowActionType = "advance_task"
	FlowAdvanceScene FlowActionType = "advance_scene"
	FlowCompleteGame FlowActionType = "complete_game"
	FlowWait         FlowActionType = "wait"
)

// FlowDecision is one transition decision. UnlockedScenes is only
// populated for branching progressions, where the caller presents the
// choices and the user picks.
type FlowDecision struct {
	Type           FlowActionType `json:"type"`
	NextSceneID    string         `json:"nextSceneId,omitempty"`
	NextTaskIndex  int            `json:"nextTaskIndex,omitempty"`
	UnlockedScenes []string       `json:"unlockedScenes,omitempty"`
}

// FlowState is the session state the controller reads. It never
// mutates anything; applying a decision is the session's job.
type FlowState struct {
	CurrentSceneID   string
	TaskIndex        int
	CompletedScenes  map[string]bool
	Score            int
	SequenceComplete bool
}

// NextStep decides the transition after a mechanic-completion event.
//
// Order of evaluation: no multi-scene context or sequence already
// complete means the game is done; remaining tasks in the current
// scene advance the task pointer; otherwise scene selection runs via
// the flow graph (when present) or the progression strategy.
func NextStep(bp *blueprint.Blueprint, st FlowState) FlowDecision {
	if len(bp.Scenes) == 0 || st.SequenceComplete {
		return FlowDecision{Type: FlowCompleteGame}
	}

	scene := bp.SceneByID(st.CurrentSceneID)
	if scene == nil {
		return FlowDecision{Type: FlowCompleteGame}
	}

	if st.TaskIndex+1 < len(scene.Tasks) {
		return FlowDecision{Type: FlowAdvanceTask, NextTaskIndex: st.TaskIndex + 1}
	}

	// The current scene counts as completed for selection purposes.
	completed := make(map[string]bool, len(st.CompletedScenes)+1)
	for id := range st.CompletedScenes {
		completed[id] = true
	}
	completed[scene.SceneID] = true

	if len(bp.FlowGraph) > 0 {
		return nextByFlowGraph(bp, scene, st.Score)
	}

	switch bp.ProgressionType {
	case blueprint.ProgressionZoomIn, blueprint.ProgressionDepthFirst:
		if next := nextInHierarchy(bp, scene, completed); next != nil {
			return FlowDecision{Type: FlowAdvanceScene, NextSceneID: next.SceneID}
		}
		return FlowDecision{Type: FlowCompleteGame}
	case blueprint.ProgressionBranching:
		unlocked := UnlockedScenes(bp, completed)
		if len(unlocked) == 0 {
			return FlowDecision{Type: FlowCompleteGame}
		}
		return FlowDecision{Type: FlowWait, UnlockedScenes: unlocked}
	default: // linear
		if next := nextByNumber(bp, scene, completed); next != nil {
			return FlowDecision{Type: FlowAdvanceScene, NextSceneID: next.SceneID}
		}
		return FlowDecision{Type: FlowCompleteGame}
	}
}

// nextByFlowGraph evaluates conditioned edges from the current scene in
// declaration order; the first satisfied edge wins. No matching edge
// means the game is complete (a dead end is not an error).
func nextByFlowGraph(bp *blueprint.Blueprint, scene *blueprint.Scene, score int) FlowDecision {
	for _, e := range bp.FlowGraph {
		if e.FromScene != scene.SceneID {
			continue
		}
		switch e.Condition {
		case blueprint.FlowAlways, blueprint.FlowCompletion:
			// Completion holds by construction: edges are only
			// evaluated on a completion event.
			return FlowDecision{Type: FlowAdvanceScene, NextSceneID: e.ToScene}
		case blueprint.FlowScoreThreshold:
			if score >= e.Threshold {
				return FlowDecision{Type: FlowAdvanceScene, NextSceneID: e.ToScene}
			}
		}
	}
	return FlowDecision{Type: FlowCompleteGame}
}

// nextByNumber picks the next uncompleted scene by ascending
// scene_number.
func nextByNumber(bp *blueprint.Blueprint, scene *blueprint.Scene, completed map[string]bool) *blueprint.Scene {
	var candidates []*blueprint.Scene
	for i := range bp.Scenes {
		sc := &bp.Scenes[i]
		if sc.SceneNumber > scene.SceneNumber && !completed[sc.SceneID] {
			candidates = append(candidates, sc)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SceneNumber < candidates[j].SceneNumber
	})
	return candidates[0]
}

// nextInHierarchy prefers an uncompleted child of the current scene,
// then an uncompleted sibling, then walks up to the parent's siblings
// recursively. Shared by zoom_in and depth_first; with one uncompleted
// child selected at a time the two strategies traverse identically.
func nextInHierarchy(bp *blueprint.Blueprint, scene *blueprint.Scene, completed map[string]bool) *blueprint.Scene {
	cur := scene
	for steps := 0; steps <= len(bp.Scenes); steps++ {
		if child := firstUncompleted(bp, cur.SceneID, completed); child != nil {
			return child
		}
		if sibling := firstUncompleted(bp, cur.PrerequisiteScene, completed); sibling != nil {
			return sibling
		}
		if cur.PrerequisiteScene == "" {
			return nil
		}
		parent := bp.SceneByID(cur.PrerequisiteScene)
		if parent == nil {
			return nil
		}
		cur = parent
	}
	return nil
}

// firstUncompleted returns the lowest-numbered uncompleted scene whose
// prerequisite is the given scene id.
func firstUncompleted(bp *blueprint.Blueprint, prerequisite string, completed map[string]bool) *blueprint.Scene {
	var best *blueprint.Scene
	for i := range bp.Scenes {
		sc := &bp.Scenes[i]
		if sc.PrerequisiteScene != prerequisite || completed[sc.SceneID] {
			continue
		}
		if best == nil || sc.SceneNumber < best.SceneNumber {
			best = sc
		}
	}
	return best
}

// UnlockedScenes lists uncompleted scenes whose prerequisite is
// satisfied (or absent), in declaration order. Used by branching
// progressions, where the user picks the next scene.
func UnlockedScenes(bp *blueprint.Blueprint, completed map[string]bool) []string {
	var out []string
	for i := range bp.Scenes {
		sc := &bp.Scenes[i]
		if completed[sc.SceneID] {
			continue
		}
		if sc.PrerequisiteScene == "" || completed[sc.PrerequisiteScene] {
			out = append(out, sc.SceneID)
		}
	}
	return out
}

// TimeExpired reports whether a timed scene's limit has passed.
// Elapsed time is injected by the caller; the controller never reads
// the wall clock.
func TimeExpired(sc *blueprint.Scene, elapsed time.Duration) bool {
	if sc == nil || sc.TimeLimitMs <= 0 {
		return false
	}
	return elapsed >= time.Duration(sc.TimeLimitMs)*time.Millisecond
}
