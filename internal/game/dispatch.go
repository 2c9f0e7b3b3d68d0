package game

import (
	"fmt"
	"time"

	"github.com/diagramquest/engine/internal/blueprint"
	"github.com/diagramquest/engine/internal/events"
)

// mergeWindow coalesces rapid successive placements of the same label
// into one undo step.
const mergeWindow = 500 * time.Millisecond

// Dispatch validates and applies one action against the active
// mechanic. Invalid input of any shape is rejected, never panicked on.
func (s *Session) Dispatch(a Action) Result {
	if s.gameComplete {
		return s.reject(a, "game already complete")
	}
	if s.progress == nil {
		return s.reject(a, "no active mechanic")
	}
	want, ok := actionMechanics[a.Type]
	if !ok {
		return s.reject(a, fmt.Sprintf("unknown action type: %s", a.Type))
	}
	active := s.currentMechanicType()
	if want != active {
		return s.reject(a, fmt.Sprintf("action %s does not apply to mechanic %s", a.Type, active))
	}

	var res Result
	switch a.Type {
	case ActionPlaceLabel:
		res = s.applyPlaceLabel(a)
	case ActionRemoveLabel:
		res = s.applyRemoveLabel(a)
	case ActionReorderSequence:
		res = s.applyReorderSequence(a)
	case ActionSubmitSequence:
		res = s.applySubmitSequence(a)
	case ActionAssignCategory:
		res = s.applyAssignCategory(a)
	case ActionClearCategory:
		res = s.applyClearCategory(a)
	case ActionSubmitSorting:
		res = s.applySubmitSorting(a)
	case ActionMatchAttempt:
		res = s.applyMatchAttempt(a)
	case ActionBranchingChoice:
		res = s.applyBranchingChoice(a)
	case ActionCompareChoice:
		res = s.applyCompareChoice(a)
	case ActionSubmitCompare:
		res = s.applySubmitCompare(a)
	case ActionMatchDescription:
		res = s.applyMatchDescription(a)
	case ActionIdentifyZone:
		res = s.applyIdentifyZone(a)
	case ActionVisitWaypoint:
		res = s.applyVisitWaypoint(a)
	}

	if !res.Accepted {
		if res.Message != "" {
			return s.reject(a, res.Message)
		}
		return s.reject(a, "action not applicable")
	}

	s.emit("action.dispatched", map[string]interface{}{
		"action":      string(a.Type),
		"mechanic":    string(active),
		"correct":     res.Correct,
		"score_delta": res.ScoreDelta,
	})

	if capab, ok := Lookup(active); ok && capab.IsComplete(s.progress, s.bp) {
		res.MechanicComplete = true
		if !s.mechDone {
			s.mechDone = true
			s.emit("mechanic.completed", map[string]interface{}{
				"mechanic": string(active),
				"score":    s.score,
			})
		}
	}
	return res
}

func (s *Session) reject(a Action, reason string) Result {
	events.Emit("warn", "action.rejected", reason, map[string]interface{}{
		"action": string(a.Type),
	})
	return Result{Message: reason}
}

func (s *Session) scoreRule() blueprint.ScoreRule {
	return s.bp.ScoringStrategy.Rule(string(s.currentMechanicType()))
}

// --- drag_drop ---

func (s *Session) applyPlaceLabel(a Action) Result {
	dp := s.progress.(*DragDropProgress)
	label := s.bp.LabelByID(a.LabelID)
	if label == nil || !containsString(dp.LabelIDs, a.LabelID) {
		return Result{Message: fmt.Sprintf("unknown label: %s", a.LabelID)}
	}
	if s.bp.ZoneByID(a.ZoneID) == nil {
		return Result{Message: fmt.Sprintf("unknown zone: %s", a.ZoneID)}
	}

	correct := containsString(label.CorrectZoneIDs, a.ZoneID)
	prevZone, hadPrev := dp.Placements[a.LabelID]

	cmd := &placeLabelCommand{
		session:    s,
		labelID:    a.LabelID,
		zoneID:     a.ZoneID,
		correct:    correct,
		prevZone:   prevZone,
		hadPrev:    hadPrev,
		wasCorrect: dp.Correct[a.LabelID],
		at:         s.now(),
	}
	rule := s.scoreRule()
	if correct {
		cmd.firstScore = !dp.Scored[a.LabelID]
		cmd.zoneNewlyCompleted = !s.completed[a.ZoneID]
		if cmd.firstScore {
			cmd.scoreDelta = rule.PointsPerCorrect
		}
	} else {
		cmd.scoreDelta = -rule.PenaltyPerIncorrect
	}
	s.history.Execute(cmd)

	return Result{Accepted: true, Correct: correct, ScoreDelta: cmd.scoreDelta}
}

func (s *Session) applyRemoveLabel(a Action) Result {
	dp := s.progress.(*DragDropProgress)
	if cfg := s.bp.DragDropConfig; cfg != nil && !cfg.AllowRemoval {
		return Result{Message: "label removal is not allowed"}
	}
	zone, ok := dp.Placements[a.LabelID]
	if !ok {
		return Result{Message: fmt.Sprintf("label not placed: %s", a.LabelID)}
	}

	cmd := &removeLabelCommand{
		session:    s,
		labelID:    a.LabelID,
		zoneID:     zone,
		wasCorrect: dp.Correct[a.LabelID],
		at:         s.now(),
	}
	s.history.Execute(cmd)
	return Result{Accepted: true}
}

// placeLabelCommand puts a label on a zone. Score and zone completion
// are command-owned so undo restores them exactly.
type placeLabelCommand struct {
	session *Session
	labelID string
	zoneID  string
	correct bool

	prevZone   string
	hadPrev    bool
	wasCorrect bool

	firstScore         bool
	zoneNewlyCompleted bool
	scoreDelta         int

	at time.Time
}

func (c *placeLabelCommand) Execute() {
	dp := c.session.progress.(*DragDropProgress)
	dp.Placements[c.labelID] = c.zoneID
	if c.correct {
		dp.Correct[c.labelID] = true
	} else {
		delete(dp.Correct, c.labelID)
	}
	if c.firstScore {
		dp.Scored[c.labelID] = true
	}
	if c.zoneNewlyCompleted {
		c.session.markZoneCompleted(c.zoneID)
	}
	c.session.addScore(c.scoreDelta)
}

func (c *placeLabelCommand) Undo() {
	dp := c.session.progress.(*DragDropProgress)
	if c.hadPrev {
		dp.Placements[c.labelID] = c.prevZone
	} else {
		delete(dp.Placements, c.labelID)
	}
	if c.wasCorrect {
		dp.Correct[c.labelID] = true
	} else {
		delete(dp.Correct, c.labelID)
	}
	if c.firstScore {
		delete(dp.Scored, c.labelID)
	}
	if c.zoneNewlyCompleted {
		c.session.unmarkZoneCompleted(c.zoneID)
	}
	c.session.addScore(-c.scoreDelta)
}

func (c *placeLabelCommand) Kind() string  { return string(ActionPlaceLabel) }
func (c *placeLabelCommand) At() time.Time { return c.at }

func (c *placeLabelCommand) Merge(next Command) Command {
	n, ok := next.(*placeLabelCommand)
	if !ok || n.labelID != c.labelID || n.at.Sub(c.at) > mergeWindow {
		return nil
	}
	return &compositeCommand{first: c, second: n}
}

type removeLabelCommand struct {
	session    *Session
	labelID    string
	zoneID     string
	wasCorrect bool
	at         time.Time
}

func (c *removeLabelCommand) Execute() {
	dp := c.session.progress.(*DragDropProgress)
	delete(dp.Placements, c.labelID)
	delete(dp.Correct, c.labelID)
}

func (c *removeLabelCommand) Undo() {
	dp := c.session.progress.(*DragDropProgress)
	dp.Placements[c.labelID] = c.zoneID
	if c.wasCorrect {
		dp.Correct[c.labelID] = true
	}
}

func (c *removeLabelCommand) Kind() string             { return string(ActionRemoveLabel) }
func (c *removeLabelCommand) At() time.Time            { return c.at }
func (c *removeLabelCommand) Merge(next Command) Command { return nil }

// --- sequencing ---

func (s *Session) applyReorderSequence(a Action) Result {
	sp := s.progress.(*SequencingProgress)
	cfg := s.bp.SequenceConfig
	if cfg == nil || len(cfg.Items) == 0 {
		return Result{Message: "no sequence configured"}
	}
	if sp.Submitted {
		return Result{Message: "sequence already submitted"}
	}
	if !isPermutation(a.Order, cfg.Items) {
		return Result{Message: "order must be a permutation of the sequence items"}
	}
	sp.CurrentOrder = append(sp.CurrentOrder[:0], a.Order...)
	return Result{Accepted: true}
}

func (s *Session) applySubmitSequence(a Action) Result {
	sp := s.progress.(*SequencingProgress)
	cfg := s.bp.SequenceConfig
	if cfg == nil || len(cfg.CorrectOrder) == 0 {
		return Result{Message: "no sequence configured"}
	}
	if sp.Submitted {
		return Result{Message: "sequence already submitted"}
	}

	correct := 0
	for i, id := range cfg.CorrectOrder {
		if i < len(sp.CurrentOrder) && sp.CurrentOrder[i] == id {
			correct++
		}
	}
	sp.Submitted = true
	sp.CorrectPositions = correct

	rule := s.scoreRule()
	wrong := len(cfg.CorrectOrder) - correct
	delta := correct*rule.PointsPerCorrect - wrong*rule.PenaltyPerIncorrect
	s.addScore(delta)

	return Result{
		Accepted:   true,
		Correct:    correct == len(cfg.CorrectOrder),
		ScoreDelta: delta,
		Message:    fmt.Sprintf("%d of %d positions correct", correct, len(cfg.CorrectOrder)),
	}
}

func isPermutation(order []string, items []blueprint.SequenceItem) bool {
	if len(order) != len(items) {
		return false
	}
	want := make(map[string]bool, len(items))
	for _, it := range items {
		want[it.ID] = true
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !want[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// --- sorting ---

func (s *Session) applyAssignCategory(a Action) Result {
	sp := s.progress.(*SortingProgress)
	cfg := s.bp.SortingConfig
	if cfg == nil {
		return Result{Message: "no sorting configured"}
	}
	if sp.Submitted {
		return Result{Message: "sorting already submitted"}
	}
	item := sortItemByID(cfg, a.ItemID)
	if item == nil {
		return Result{Message: fmt.Sprintf("unknown item: %s", a.ItemID)}
	}
	if !sortCategoryExists(cfg, a.CategoryID) {
		return Result{Message: fmt.Sprintf("unknown category: %s", a.CategoryID)}
	}
	sp.Assignments[a.ItemID] = a.CategoryID
	// Immediate per-item feedback; scoring waits for submit.
	return Result{Accepted: true, Correct: containsString(item.CategoryIDs, a.CategoryID)}
}

func (s *Session) applyClearCategory(a Action) Result {
	sp := s.progress.(*SortingProgress)
	if sp.Submitted {
		return Result{Message: "sorting already submitted"}
	}
	if _, ok := sp.Assignments[a.ItemID]; !ok {
		return Result{Message: fmt.Sprintf("item not assigned: %s", a.ItemID)}
	}
	delete(sp.Assignments, a.ItemID)
	return Result{Accepted: true}
}

func (s *Session) applySubmitSorting(a Action) Result {
	sp := s.progress.(*SortingProgress)
	cfg := s.bp.SortingConfig
	if cfg == nil || len(cfg.Items) == 0 {
		return Result{Message: "no sorting configured"}
	}
	if sp.Submitted {
		return Result{Message: "sorting already submitted"}
	}

	correct, wrong := 0, 0
	for _, item := range cfg.Items {
		cat, ok := sp.Assignments[item.ID]
		if !ok {
			continue
		}
		if containsString(item.CategoryIDs, cat) {
			correct++
		} else {
			wrong++
		}
	}
	sp.Submitted = true
	sp.CorrectCount = correct

	rule := s.scoreRule()
	delta := correct*rule.PointsPerCorrect - wrong*rule.PenaltyPerIncorrect
	s.addScore(delta)

	return Result{
		Accepted:   true,
		Correct:    correct == len(cfg.Items),
		ScoreDelta: delta,
		Message:    fmt.Sprintf("%d of %d items sorted correctly", correct, len(cfg.Items)),
	}
}

func sortItemByID(cfg *blueprint.SortingConfig, id string) *blueprint.SortItem {
	for i := range cfg.Items {
		if cfg.Items[i].ID == id {
			return &cfg.Items[i]
		}
	}
	return nil
}

func sortCategoryExists(cfg *blueprint.SortingConfig, id string) bool {
	for _, c := range cfg.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// --- memory_match ---

func (s *Session) applyMatchAttempt(a Action) Result {
	mp := s.progress.(*MemoryMatchProgress)
	cfg := s.bp.MemoryMatchConfig
	if cfg == nil || len(cfg.Pairs) == 0 {
		return Result{Message: "no pairs configured"}
	}
	if !cardExists(cfg, a.CardA) || !cardExists(cfg, a.CardB) {
		return Result{Message: "unknown card"}
	}
	if a.CardA == a.CardB {
		return Result{Message: "cannot match a card with itself"}
	}

	mp.Attempts++
	rule := s.scoreRule()

	pair := pairForCards(cfg, a.CardA, a.CardB)
	if pair == nil {
		delta := -rule.PenaltyPerIncorrect
		s.addScore(delta)
		return Result{Accepted: true, ScoreDelta: delta}
	}
	if mp.MatchedPairIDs[pair.ID] {
		return Result{Accepted: true, Correct: true, Message: "pair already matched"}
	}
	mp.MatchedPairIDs[pair.ID] = true
	delta := rule.PointsPerCorrect
	s.addScore(delta)
	return Result{Accepted: true, Correct: true, ScoreDelta: delta}
}

func cardExists(cfg *blueprint.MemoryMatchConfig, card string) bool {
	for _, p := range cfg.Pairs {
		if p.CardA == card || p.CardB == card {
			return true
		}
	}
	return false
}

func pairForCards(cfg *blueprint.MemoryMatchConfig, a, b string) *blueprint.MatchPair {
	for i := range cfg.Pairs {
		p := &cfg.Pairs[i]
		if (p.CardA == a && p.CardB == b) || (p.CardA == b && p.CardB == a) {
			return p
		}
	}
	return nil
}

// --- branching_scenario ---

func (s *Session) applyBranchingChoice(a Action) Result {
	bpr := s.progress.(*BranchingProgress)
	cfg := s.bp.BranchingConfig
	if cfg == nil || len(cfg.Nodes) == 0 {
		return Result{Message: "no scenario configured"}
	}
	if bpr.Terminal {
		return Result{Message: "scenario already finished"}
	}
	if bpr.CurrentNodeID == "" || a.NodeID != bpr.CurrentNodeID {
		return Result{Message: fmt.Sprintf("not the current node: %s", a.NodeID)}
	}
	node := branchNodeByID(cfg, a.NodeID)
	if node == nil {
		return Result{Message: fmt.Sprintf("unknown node: %s", a.NodeID)}
	}
	var opt *blueprint.BranchOption
	for i := range node.Options {
		if node.Options[i].ID == a.OptionID {
			opt = &node.Options[i]
			break
		}
	}
	if opt == nil {
		return Result{Message: fmt.Sprintf("unknown option: %s", a.OptionID)}
	}

	bpr.Choices = append(bpr.Choices, BranchChoice{NodeID: a.NodeID, OptionID: a.OptionID})

	rule := s.scoreRule()
	delta := -rule.PenaltyPerIncorrect
	if opt.Correct {
		delta = rule.PointsPerCorrect
	}
	s.addScore(delta)

	if opt.NextNodeID == "" {
		bpr.Terminal = true
	} else {
		bpr.CurrentNodeID = opt.NextNodeID
		next := branchNodeByID(cfg, opt.NextNodeID)
		if next == nil || next.Terminal {
			bpr.Terminal = true
		}
	}
	return Result{Accepted: true, Correct: opt.Correct, ScoreDelta: delta}
}

func branchNodeByID(cfg *blueprint.BranchingConfig, id string) *blueprint.BranchNode {
	for i := range cfg.Nodes {
		if cfg.Nodes[i].ID == id {
			return &cfg.Nodes[i]
		}
	}
	return nil
}

// --- compare ---

func (s *Session) applyCompareChoice(a Action) Result {
	cp := s.progress.(*CompareProgress)
	cfg := s.bp.CompareConfig
	if cfg == nil || len(cfg.Statements) == 0 {
		return Result{Message: "no comparison configured"}
	}
	if cp.Submitted {
		return Result{Message: "comparison already submitted"}
	}
	st := compareStatementByID(cfg, a.StatementID)
	if st == nil {
		return Result{Message: fmt.Sprintf("unknown statement: %s", a.StatementID)}
	}
	switch a.Choice {
	case blueprint.CompareLeft, blueprint.CompareRight, blueprint.CompareBoth:
	default:
		return Result{Message: fmt.Sprintf("invalid choice: %s", a.Choice)}
	}
	cp.Choices[a.StatementID] = a.Choice
	return Result{Accepted: true, Correct: a.Choice == st.Answer}
}

func (s *Session) applySubmitCompare(a Action) Result {
	cp := s.progress.(*CompareProgress)
	cfg := s.bp.CompareConfig
	if cfg == nil || len(cfg.Statements) == 0 {
		return Result{Message: "no comparison configured"}
	}
	if cp.Submitted {
		return Result{Message: "comparison already submitted"}
	}
	for _, st := range cfg.Statements {
		if cp.Choices[st.ID] == "" {
			return Result{Message: fmt.Sprintf("statement not answered: %s", st.ID)}
		}
	}

	correct := 0
	for _, st := range cfg.Statements {
		if cp.Choices[st.ID] == st.Answer {
			correct++
		}
	}
	cp.Submitted = true
	cp.CorrectCount = correct

	rule := s.scoreRule()
	wrong := len(cfg.Statements) - correct
	delta := correct*rule.PointsPerCorrect - wrong*rule.PenaltyPerIncorrect
	s.addScore(delta)

	return Result{
		Accepted:   true,
		Correct:    correct == len(cfg.Statements),
		ScoreDelta: delta,
		Message:    fmt.Sprintf("%d of %d statements correct", correct, len(cfg.Statements)),
	}
}

func compareStatementByID(cfg *blueprint.CompareConfig, id string) *blueprint.CompareStatement {
	for i := range cfg.Statements {
		if cfg.Statements[i].ID == id {
			return &cfg.Statements[i]
		}
	}
	return nil
}

// --- description_matching ---

func (s *Session) applyMatchDescription(a Action) Result {
	dp := s.progress.(*DescriptionMatchingProgress)
	cfg := s.bp.DescriptionMatchingConfig
	if cfg == nil || len(cfg.Descriptions) == 0 {
		return Result{Message: "no descriptions configured"}
	}
	var desc *blueprint.Description
	for i := range cfg.Descriptions {
		if cfg.Descriptions[i].ID == a.DescriptionID {
			desc = &cfg.Descriptions[i]
			break
		}
	}
	if desc == nil {
		return Result{Message: fmt.Sprintf("unknown description: %s", a.DescriptionID)}
	}
	if s.bp.ZoneByID(a.ZoneID) == nil {
		return Result{Message: fmt.Sprintf("unknown zone: %s", a.ZoneID)}
	}
	if dp.Matched[a.DescriptionID] != "" {
		return Result{Message: fmt.Sprintf("description already matched: %s", a.DescriptionID)}
	}

	rule := s.scoreRule()
	if a.ZoneID != desc.CorrectZoneID {
		delta := -rule.PenaltyPerIncorrect
		s.addScore(delta)
		return Result{Accepted: true, ScoreDelta: delta}
	}
	dp.Matched[a.DescriptionID] = a.ZoneID
	s.markZoneCompleted(a.ZoneID)
	delta := rule.PointsPerCorrect
	s.addScore(delta)
	return Result{Accepted: true, Correct: true, ScoreDelta: delta}
}

// --- click_to_identify ---

func (s *Session) applyIdentifyZone(a Action) Result {
	cp := s.progress.(*ClickToIdentifyProgress)
	cfg := s.bp.ClickToIdentifyConfig
	if cfg == nil || len(cfg.Prompts) == 0 {
		return Result{Message: "no prompts configured"}
	}
	var prompt *blueprint.IdentifyPrompt
	for i := range cfg.Prompts {
		if cfg.Prompts[i].ID == a.PromptID {
			prompt = &cfg.Prompts[i]
			break
		}
	}
	if prompt == nil {
		return Result{Message: fmt.Sprintf("unknown prompt: %s", a.PromptID)}
	}
	if s.bp.ZoneByID(a.ZoneID) == nil {
		return Result{Message: fmt.Sprintf("unknown zone: %s", a.ZoneID)}
	}
	if cp.AnsweredPrompts[a.PromptID] {
		return Result{Message: fmt.Sprintf("prompt already answered: %s", a.PromptID)}
	}

	rule := s.scoreRule()
	if !containsString(prompt.CorrectZoneIDs, a.ZoneID) {
		delta := -rule.PenaltyPerIncorrect
		s.addScore(delta)
		return Result{Accepted: true, ScoreDelta: delta}
	}
	cp.AnsweredPrompts[a.PromptID] = true
	cp.CompletedZoneIDs[a.ZoneID] = true
	s.markZoneCompleted(a.ZoneID)
	delta := rule.PointsPerCorrect
	s.addScore(delta)
	return Result{Accepted: true, Correct: true, ScoreDelta: delta}
}

// --- trace_path ---

func (s *Session) applyVisitWaypoint(a Action) Result {
	tp := s.progress.(*TracePathProgress)
	cfg := s.bp.TracePathConfig
	if cfg == nil || len(cfg.Paths) == 0 {
		return Result{Message: "no paths configured"}
	}
	var path *blueprint.TracePath
	for i := range cfg.Paths {
		if cfg.Paths[i].ID == a.PathID {
			path = &cfg.Paths[i]
			break
		}
	}
	if path == nil {
		return Result{Message: fmt.Sprintf("unknown path: %s", a.PathID)}
	}
	if tp.CompletedPaths[a.PathID] {
		return Result{Message: fmt.Sprintf("path already traced: %s", a.PathID)}
	}
	if s.bp.ZoneByID(a.ZoneID) == nil {
		return Result{Message: fmt.Sprintf("unknown zone: %s", a.ZoneID)}
	}

	visited := tp.Visited[a.PathID]
	rule := s.scoreRule()

	var correct bool
	if path.RequiresOrder {
		correct = len(visited) < len(path.WaypointZones) &&
			path.WaypointZones[len(visited)] == a.ZoneID
	} else {
		correct = containsString(path.WaypointZones, a.ZoneID) &&
			!containsString(visited, a.ZoneID)
	}
	if !correct {
		delta := -rule.PenaltyPerIncorrect
		s.addScore(delta)
		return Result{Accepted: true, ScoreDelta: delta}
	}

	tp.Visited[a.PathID] = append(visited, a.ZoneID)
	s.markZoneCompleted(a.ZoneID)
	delta := rule.PointsPerCorrect
	s.addScore(delta)

	msg := ""
	if len(tp.Visited[a.PathID]) == len(path.WaypointZones) {
		tp.CompletedPaths[a.PathID] = true
		msg = fmt.Sprintf("path complete: %s", a.PathID)
	}
	return Result{Accepted: true, Correct: true, ScoreDelta: delta, Message: msg}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
