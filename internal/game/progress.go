package game

// MechanicType identifies one interaction paradigm.
type MechanicType string

const (
	MechanicDragDrop            MechanicType = "drag_drop"
	MechanicSequencing          MechanicType = "sequencing"
	MechanicSorting             MechanicType = "sorting"
	MechanicMemoryMatch         MechanicType = "memory_match"
	MechanicBranching           MechanicType = "branching_scenario"
	MechanicCompare             MechanicType = "compare"
	MechanicDescriptionMatching MechanicType = "description_matching"
	MechanicClickToIdentify     MechanicType = "click_to_identify"
	MechanicTracePath           MechanicType = "trace_path"
)

// Progress is the mutable interaction state of the active mechanic.
// One variant exists per mechanic type; all are mutated exclusively
// through Session.Dispatch and discarded on task/scene transition
// unless snapshotted.
type Progress interface {
	Mechanic() MechanicType
}

// DragDropProgress tracks label placements. Correct reflects where a
// label currently sits; Scored records labels that have earned points
// once, so re-placing a label never farms points.
type DragDropProgress struct {
	Placements map[string]string `json:"placements"` // labelID -> zoneID
	Correct    map[string]bool   `json:"correct"`
	Scored     map[string]bool   `json:"scored"`
	LabelIDs   []string          `json:"labelIds"` // scope for this task
}

func (p *DragDropProgress) Mechanic() MechanicType { return MechanicDragDrop }

// SequencingProgress holds the user's working order. Completion is
// submission-gated, not auto-detected from correctness.
type SequencingProgress struct {
	CurrentOrder     []string `json:"currentOrder"`
	Submitted        bool     `json:"submitted"`
	CorrectPositions int      `json:"correctPositions"`
}

func (p *SequencingProgress) Mechanic() MechanicType { return MechanicSequencing }

// SortingProgress maps items to categories. An item missing from
// Assignments has no category yet (the null assignment).
type SortingProgress struct {
	Assignments  map[string]string `json:"assignments"` // itemID -> categoryID
	Submitted    bool              `json:"submitted"`
	CorrectCount int               `json:"correctCount"`
}

func (p *SortingProgress) Mechanic() MechanicType { return MechanicSorting }

type MemoryMatchProgress struct {
	MatchedPairIDs map[string]bool `json:"matchedPairIds"`
	Attempts       int             `json:"attempts"`
	TotalPairs     int             `json:"totalPairs"`
}

func (p *MemoryMatchProgress) Mechanic() MechanicType { return MechanicMemoryMatch }

type BranchChoice struct {
	NodeID   string `json:"nodeId"`
	OptionID string `json:"optionId"`
}

type BranchingProgress struct {
	CurrentNodeID string         `json:"currentNodeId"`
	Choices       []BranchChoice `json:"choices"`
	Terminal      bool           `json:"terminal"`
}

func (p *BranchingProgress) Mechanic() MechanicType { return MechanicBranching }

type CompareProgress struct {
	Choices      map[string]string `json:"choices"` // statementID -> left/right/both
	Submitted    bool              `json:"submitted"`
	CorrectCount int               `json:"correctCount"`
}

func (p *CompareProgress) Mechanic() MechanicType { return MechanicCompare }

// DescriptionMatchingProgress records confirmed matches only; an
// incorrect attempt leaves no mark beyond the score penalty.
type DescriptionMatchingProgress struct {
	Matched map[string]string `json:"matched"` // descriptionID -> zoneID
	Total   int               `json:"total"`
}

func (p *DescriptionMatchingProgress) Mechanic() MechanicType { return MechanicDescriptionMatching }

type ClickToIdentifyProgress struct {
	CompletedZoneIDs map[string]bool `json:"completedZoneIds"`
	AnsweredPrompts  map[string]bool `json:"answeredPrompts"`
	TotalPrompts     int             `json:"totalPrompts"`
}

func (p *ClickToIdentifyProgress) Mechanic() MechanicType { return MechanicClickToIdentify }

type TracePathProgress struct {
	Visited        map[string][]string `json:"visited"` // pathID -> visited waypoints
	CompletedPaths map[string]bool     `json:"completedPaths"`
	TotalPaths     int                 `json:"totalPaths"`
}

func (p *TracePathProgress) Mechanic() MechanicType { return MechanicTracePath }
