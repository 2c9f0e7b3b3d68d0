package game

import (
	"testing"
	"time"

	"github.com/diagramquest/engine/internal/blueprint"
)

func scene(id string, number int, prereq string, tasks ...blueprint.Task) blueprint.Scene {
	if len(tasks) == 0 {
		tasks = []blueprint.Task{{TaskID: id + "-t1", Mechanic: "sequencing"}}
	}
	return blueprint.Scene{
		SceneID:           id,
		SceneNumber:       number,
		PrerequisiteScene: prereq,
		Tasks:             tasks,
	}
}

func flowBlueprint(progression string, scenes ...blueprint.Scene) *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Version:         1,
		GameID:          "flow-test",
		Zones:           []blueprint.Zone{{ID: "z"}},
		Mechanics:       []blueprint.Mechanic{{Type: "sequencing"}},
		Scenes:          scenes,
		ProgressionType: progression,
	}
}

func TestSingleSceneGameCompletes(t *testing.T) {
	bp := flowBlueprint(blueprint.ProgressionLinear)
	d := NextStep(bp, FlowState{})
	if d.Type != FlowCompleteGame {
		t.Errorf("expected complete_game without scenes, got %+v", d)
	}
}

func TestTasksAdvanceBeforeScenes(t *testing.T) {
	bp := flowBlueprint(blueprint.ProgressionLinear,
		scene("s1", 1, "",
			blueprint.Task{TaskID: "t1", Mechanic: "sequencing"},
			blueprint.Task{TaskID: "t2", Mechanic: "sequencing"},
		),
		scene("s2", 2, ""),
	)

	d := NextStep(bp, FlowState{CurrentSceneID: "s1", TaskIndex: 0, CompletedScenes: map[string]bool{}})
	if d.Type != FlowAdvanceTask || d.NextTaskIndex != 1 {
		t.Fatalf("expected advance to task 1, got %+v", d)
	}

	d = NextStep(bp, FlowState{CurrentSceneID: "s1", TaskIndex: 1, CompletedScenes: map[string]bool{}})
	if d.Type != FlowAdvanceScene || d.NextSceneID != "s2" {
		t.Errorf("expected advance to s2 after last task, got %+v", d)
	}
}

func TestLinearProgressionBySceneNumber(t *testing.T) {
	bp := flowBlueprint(blueprint.ProgressionLinear,
		scene("s1", 1, ""),
		scene("s3", 3, ""),
		scene("s2", 2, ""),
	)

	d := NextStep(bp, FlowState{CurrentSceneID: "s1", CompletedScenes: map[string]bool{}})
	if d.Type != FlowAdvanceScene || d.NextSceneID != "s2" {
		t.Fatalf("expected lowest-numbered next scene s2, got %+v", d)
	}

	d = NextStep(bp, FlowState{CurrentSceneID: "s3", CompletedScenes: map[string]bool{"s1": true, "s2": true}})
	if d.Type != FlowCompleteGame {
		t.Errorf("expected complete after last scene, got %+v", d)
	}
}

func TestFlowGraphFirstMatchWins(t *testing.T) {
	bp := flowBlueprint(blueprint.ProgressionLinear,
		scene("s1", 1, ""), scene("s2", 2, ""), scene("s3", 3, ""),
	)
	bp.FlowGraph = []blueprint.FlowEdge{
		{FromScene: "s1", ToScene: "s3", Condition: blueprint.FlowScoreThreshold, Threshold: 50},
		{FromScene: "s1", ToScene: "s2", Condition: blueprint.FlowAlways},
	}

	d := NextStep(bp, FlowState{CurrentSceneID: "s1", Score: 10, CompletedScenes: map[string]bool{}})
	if d.NextSceneID != "s2" {
		t.Errorf("expected low score to fall through to s2, got %+v", d)
	}

	d = NextStep(bp, FlowState{CurrentSceneID: "s1", Score: 60, CompletedScenes: map[string]bool{}})
	if d.NextSceneID != "s3" {
		t.Errorf("expected threshold edge to win at 60 points, got %+v", d)
	}
}

func TestFlowGraphDeadEndCompletes(t *testing.T) {
	bp := flowBlueprint(blueprint.ProgressionLinear, scene("s1", 1, ""), scene("s2", 2, ""))
	bp.FlowGraph = []blueprint.FlowEdge{
		{FromScene: "s1", ToScene: "s2", Condition: blueprint.FlowScoreThreshold, Threshold: 100},
	}

	d := NextStep(bp, FlowState{CurrentSceneID: "s1", Score: 0, CompletedScenes: map[string]bool{}})
	if d.Type != FlowCompleteGame {
		t.Errorf("expected dead end to complete the game, got %+v", d)
	}
}

func TestHierarchyProgressionChildThenSibling(t *testing.T) {
	bp := flowBlueprint(blueprint.ProgressionZoomIn,
		scene("body", 1, ""),
		scene("heart", 2, "body"),
		scene("lungs", 3, "body"),
	)

	// Finishing the parent descends into its first child.
	d := NextStep(bp, FlowState{CurrentSceneID: "body", CompletedScenes: map[string]bool{}})
	if d.Type != FlowAdvanceScene || d.NextSceneID != "heart" {
		t.Fatalf("expected descent into heart, got %+v", d)
	}

	// Finishing a child moves to the uncompleted sibling.
	d = NextStep(bp, FlowState{CurrentSceneID: "heart", CompletedScenes: map[string]bool{"body": true}})
	if d.Type != FlowAdvanceScene || d.NextSceneID != "lungs" {
		t.Fatalf("expected sibling lungs, got %+v", d)
	}

	// Everything done: complete.
	d = NextStep(bp, FlowState{CurrentSceneID: "lungs", CompletedScenes: map[string]bool{"body": true, "heart": true}})
	if d.Type != FlowCompleteGame {
		t.Errorf("expected completion after hierarchy exhausted, got %+v", d)
	}
}

func TestBranchingProgressionWaitsForChoice(t *testing.T) {
	bp := flowBlueprint(blueprint.ProgressionBranching,
		scene("intro", 1, ""),
		scene("pathA", 2, "intro"),
		scene("pathB", 3, "intro"),
	)

	d := NextStep(bp, FlowState{CurrentSceneID: "intro", CompletedScenes: map[string]bool{}})
	if d.Type != FlowWait {
		t.Fatalf("expected wait for user choice, got %+v", d)
	}
	if len(d.UnlockedScenes) != 2 || d.UnlockedScenes[0] != "pathA" || d.UnlockedScenes[1] != "pathB" {
		t.Errorf("expected both paths unlocked in declaration order, got %v", d.UnlockedScenes)
	}

	d = NextStep(bp, FlowState{
		CurrentSceneID:  "pathB",
		CompletedScenes: map[string]bool{"intro": true, "pathA": true},
	})
	if d.Type != FlowCompleteGame {
		t.Errorf("expected completion when no scene remains unlocked, got %+v", d)
	}
}

func TestUnlockedScenesHonorPrerequisites(t *testing.T) {
	bp := flowBlueprint(blueprint.ProgressionBranching,
		scene("a", 1, ""),
		scene("b", 2, "a"),
		scene("c", 3, "b"),
	)

	unlocked := UnlockedScenes(bp, map[string]bool{})
	if len(unlocked) != 1 || unlocked[0] != "a" {
		t.Errorf("expected only a unlocked, got %v", unlocked)
	}

	unlocked = UnlockedScenes(bp, map[string]bool{"a": true})
	if len(unlocked) != 1 || unlocked[0] != "b" {
		t.Errorf("expected only b unlocked, got %v", unlocked)
	}
}

func TestTimeExpired(t *testing.T) {
	sc := &blueprint.Scene{SceneID: "timed", TimeLimitMs: 1000}

	if TimeExpired(sc, 500*time.Millisecond) {
		t.Errorf("expected limit not reached at 500ms")
	}
	if !TimeExpired(sc, time.Second) {
		t.Errorf("expected limit reached at 1s")
	}
	if TimeExpired(&blueprint.Scene{SceneID: "untimed"}, time.Hour) {
		t.Errorf("expected untimed scene to never expire")
	}
	if TimeExpired(nil, time.Hour) {
		t.Errorf("expected nil scene to never expire")
	}
}
