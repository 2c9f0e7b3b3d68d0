package game

// ActionType tags one (mechanic, operation) variant of the closed
// action union.
type ActionType string

const (
	ActionPlaceLabel       ActionType = "place_label"
	ActionRemoveLabel      ActionType = "remove_label"
	ActionReorderSequence  ActionType = "reorder_sequence"
	ActionSubmitSequence   ActionType = "submit_sequence"
	ActionAssignCategory   ActionType = "assign_category"
	ActionClearCategory    ActionType = "clear_category"
	ActionSubmitSorting    ActionType = "submit_sorting"
	ActionMatchAttempt     ActionType = "match_attempt"
	ActionBranchingChoice  ActionType = "branching_choice"
	ActionCompareChoice    ActionType = "compare_choice"
	ActionSubmitCompare    ActionType = "submit_compare"
	ActionMatchDescription ActionType = "match_description"
	ActionIdentifyZone     ActionType = "identify_zone"
	ActionVisitWaypoint    ActionType = "visit_waypoint"
)

// actionMechanics maps each action variant to the mechanic it belongs
// to. Dispatch rejects an action whose mechanic is not the active one.
var actionMechanics = map[ActionType]MechanicType{
	ActionPlaceLabel:       MechanicDragDrop,
	ActionRemoveLabel:      MechanicDragDrop,
	ActionReorderSequence:  MechanicSequencing,
	ActionSubmitSequence:   MechanicSequencing,
	ActionAssignCategory:   MechanicSorting,
	ActionClearCategory:    MechanicSorting,
	ActionSubmitSorting:    MechanicSorting,
	ActionMatchAttempt:     MechanicMemoryMatch,
	ActionBranchingChoice:  MechanicBranching,
	ActionCompareChoice:    MechanicCompare,
	ActionSubmitCompare:    MechanicCompare,
	ActionMatchDescription: MechanicDescriptionMatching,
	ActionIdentifyZone:     MechanicClickToIdentify,
	ActionVisitWaypoint:    MechanicTracePath,
}

// Action is the single mutating request shape accepted by a session.
// Only the fields relevant to Type are read; the rest stay zero.
type Action struct {
	Type ActionType `json:"type"`

	// drag_drop
	LabelID string `json:"labelId,omitempty"`

	// drag_drop, description_matching, click_to_identify, trace_path
	ZoneID string `json:"zoneId,omitempty"`

	// sequencing
	Order []string `json:"order,omitempty"`

	// sorting
	ItemID     string `json:"itemId,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`

	// memory_match
	CardA string `json:"cardA,omitempty"`
	CardB string `json:"cardB,omitempty"`

	// branching_scenario
	NodeID   string `json:"nodeId,omitempty"`
	OptionID string `json:"optionId,omitempty"`

	// compare
	StatementID string `json:"statementId,omitempty"`
	Choice      string `json:"choice,omitempty"`

	// description_matching
	DescriptionID string `json:"descriptionId,omitempty"`

	// click_to_identify
	PromptID string `json:"promptId,omitempty"`

	// trace_path
	PathID string `json:"pathId,omitempty"`
}

// Result is the immediate feedback for one dispatched action. A
// rejected action (unknown ids, wrong mechanic, game over) is a no-op:
// Accepted false, Correct false, ScoreDelta zero. Dispatch never
// panics on user input.
type Result struct {
	Accepted         bool   `json:"accepted"`
	Correct          bool   `json:"correct"`
	ScoreDelta       int    `json:"scoreDelta"`
	Message          string `json:"message,omitempty"`
	MechanicComplete bool   `json:"mechanicComplete"`
}
