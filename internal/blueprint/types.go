package blueprint

// Blueprint is the top-level game declaration loaded from JSON.
// It arrives pre-normalized from the authoring pipeline; this package
// only checks structural integrity (see Validate).
type Blueprint struct {
	Version int    `json:"version"`
	GameID  string `json:"gameId"`
	Title   string `json:"title"`

	Zones  []Zone  `json:"zones"`
	Labels []Label `json:"labels"`

	Mechanics []Mechanic `json:"mechanics"`

	TemporalConstraints []TemporalConstraint `json:"temporalConstraints,omitempty"`
	MotionPaths         []MotionPath         `json:"motionPaths,omitempty"`

	Scenes          []Scene    `json:"scenes,omitempty"`
	ProgressionType string     `json:"progressionType,omitempty"`
	FlowGraph       []FlowEdge `json:"flowGraph,omitempty"`

	ScoringStrategy ScoringStrategy `json:"scoringStrategy"`

	SequenceConfig            *SequenceConfig            `json:"sequenceConfig,omitempty"`
	SortingConfig             *SortingConfig             `json:"sortingConfig,omitempty"`
	MemoryMatchConfig         *MemoryMatchConfig         `json:"memoryMatchConfig,omitempty"`
	BranchingConfig           *BranchingConfig           `json:"branchingConfig,omitempty"`
	CompareConfig             *CompareConfig             `json:"compareConfig,omitempty"`
	DescriptionMatchingConfig *DescriptionMatchingConfig `json:"descriptionMatchingConfig,omitempty"`
	ClickToIdentifyConfig     *ClickToIdentifyConfig     `json:"clickToIdentifyConfig,omitempty"`
	TracePathConfig           *TracePathConfig           `json:"tracePathConfig,omitempty"`
	DragDropConfig            *DragDropConfig            `json:"dragDropConfig,omitempty"`
}

// Zone is an addressable region of the diagram.
// ParentZoneID gates visibility, not lifecycle: a child zone exists on
// its own but is only revealed once the parent is completed.
type Zone struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Shape          Shape  `json:"shape"`
	ParentZoneID   string `json:"parentZoneId,omitempty"`
	HierarchyLevel int    `json:"hierarchyLevel,omitempty"` // 1 = root
}

// Shape describes zone geometry. Type selects which fields apply.
type Shape struct {
	Type string `json:"type"` // circle, rect, polygon

	// circle
	Cx     float64 `json:"cx,omitempty"`
	Cy     float64 `json:"cy,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	// rect
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// polygon
	Points []Point `json:"points,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Label is a draggable term. A label may accept several zones
// (CorrectZoneIDs); any of them scores as correct.
type Label struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	CorrectZoneIDs []string `json:"correctZoneIds"`
}

// Mechanic declares one interaction paradigm used by the game.
// The matching *Config payload on Blueprint holds its content.
type Mechanic struct {
	Type     string     `json:"type"`
	Scoring  *ScoreRule `json:"scoring,omitempty"`
	Feedback string     `json:"feedback,omitempty"`
}

// Constraint types.
const (
	ConstraintBefore     = "before"
	ConstraintAfter      = "after"
	ConstraintSequence   = "sequence"
	ConstraintMutex      = "mutex"
	ConstraintConcurrent = "concurrent"
)

// TemporalConstraint governs when two zones may be visible.
// Constraints are immutable for the lifetime of a session.
// Priority is carried for authoring round-trips but is not consumed by
// visibility resolution.
type TemporalConstraint struct {
	ZoneA    string `json:"zoneA"`
	ZoneB    string `json:"zoneB"`
	Type     string `json:"type"`
	Priority int    `json:"priority,omitempty"`
}

// MotionPath is a presentational hint for the rendering layer.
// The engine stores and serves it but never interprets it.
type MotionPath struct {
	ID       string  `json:"id"`
	ZoneID   string  `json:"zoneId"`
	Points   []Point `json:"points"`
	Duration int     `json:"durationMs,omitempty"`
}

// Scene is one stage of a multi-stage game.
type Scene struct {
	SceneID           string   `json:"sceneId"`
	SceneNumber       int      `json:"sceneNumber"`
	Title             string   `json:"title"`
	ImageURL          string   `json:"imageUrl,omitempty"`
	PrerequisiteScene string   `json:"prerequisiteScene,omitempty"`
	ZoneIDs           []string `json:"zoneIds,omitempty"`
	LabelIDs          []string `json:"labelIds,omitempty"`
	TimeLimitMs       int      `json:"timeLimitMs,omitempty"`
	Tasks             []Task   `json:"tasks"`
}

// Task activates a subset of a scene's zones/labels under one mechanic.
type Task struct {
	TaskID   string   `json:"taskId"`
	Mechanic string   `json:"mechanic"`
	ZoneIDs  []string `json:"zoneIds,omitempty"`
	LabelIDs []string `json:"labelIds,omitempty"`
}

// Progression types for multi-scene sequences.
const (
	ProgressionLinear     = "linear"
	ProgressionZoomIn     = "zoom_in"
	ProgressionDepthFirst = "depth_first"
	ProgressionBranching  = "branching"
)

// Flow edge conditions.
const (
	FlowAlways         = "always"
	FlowCompletion     = "completion"
	FlowScoreThreshold = "score_threshold"
)

// FlowEdge is one conditioned transition in the optional flow graph.
// Edges are evaluated in declaration order; the first satisfied edge
// wins.
type FlowEdge struct {
	FromScene string `json:"fromScene"`
	ToScene   string `json:"toScene"`
	Condition string `json:"condition"`
	Threshold int    `json:"threshold,omitempty"` // score_threshold only
}

// ScoreRule is one mechanic's scoring policy.
type ScoreRule struct {
	PointsPerCorrect    int `json:"pointsPerCorrect"`
	PenaltyPerIncorrect int `json:"penaltyPerIncorrect"`
}

// ScoringStrategy holds the game-wide default rule plus per-mechanic
// overrides keyed by mechanic type.
type ScoringStrategy struct {
	PointsPerCorrect    int                  `json:"pointsPerCorrect"`
	PenaltyPerIncorrect int                  `json:"penaltyPerIncorrect"`
	PerMechanic         map[string]ScoreRule `json:"perMechanic,omitempty"`
}

// DefaultPointsPerCorrect applies when the blueprint omits a strategy.
const DefaultPointsPerCorrect = 10

// Rule resolves the effective score rule for a mechanic type.
func (s ScoringStrategy) Rule(mechanic string) ScoreRule {
	if r, ok := s.PerMechanic[mechanic]; ok {
		return r
	}
	r := ScoreRule{
		PointsPerCorrect:    s.PointsPerCorrect,
		PenaltyPerIncorrect: s.PenaltyPerIncorrect,
	}
	if r.PointsPerCorrect == 0 {
		r.PointsPerCorrect = DefaultPointsPerCorrect
	}
	return r
}

// --- Mechanic config payloads ---

type SequenceConfig struct {
	Items        []SequenceItem `json:"items"`
	CorrectOrder []string       `json:"correctOrder"`
}

type SequenceItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type SortingConfig struct {
	Categories []Category `json:"categories"`
	Items      []SortItem `json:"items"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SortItem may belong to several acceptable categories.
type SortItem struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	CategoryIDs []string `json:"categoryIds"`
}

type MemoryMatchConfig struct {
	Pairs []MatchPair `json:"pairs"`
}

type MatchPair struct {
	ID    string `json:"id"`
	CardA string `json:"cardA"`
	CardB string `json:"cardB"`
}

type BranchingConfig struct {
	StartNodeID string       `json:"startNodeId"`
	Nodes       []BranchNode `json:"nodes"`
}

type BranchNode struct {
	ID       string         `json:"id"`
	Prompt   string         `json:"prompt"`
	Terminal bool           `json:"terminal,omitempty"`
	Options  []BranchOption `json:"options,omitempty"`
}

// BranchOption leads to NextNodeID; an empty NextNodeID is a terminal
// choice that ends the scenario.
type BranchOption struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	NextNodeID string `json:"nextNodeId,omitempty"`
	Correct    bool   `json:"correct,omitempty"`
}

type CompareConfig struct {
	SubjectA   string             `json:"subjectA"`
	SubjectB   string             `json:"subjectB"`
	Statements []CompareStatement `json:"statements"`
}

// Compare answers: which subject a statement applies to.
const (
	CompareLeft  = "left"
	CompareRight = "right"
	CompareBoth  = "both"
)

type CompareStatement struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Answer string `json:"answer"` // left, right, both
}

type DescriptionMatchingConfig struct {
	Descriptions []Description `json:"descriptions"`
}

type Description struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CorrectZoneID string `json:"correctZoneId"`
}

type ClickToIdentifyConfig struct {
	Prompts []IdentifyPrompt `json:"prompts"`
}

// IdentifyPrompt accepts any of CorrectZoneIDs as a correct click.
type IdentifyPrompt struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	CorrectZoneIDs []string `json:"correctZoneIds"`
}

type TracePathConfig struct {
	Paths []TracePath `json:"paths"`
}

// TracePath is an ordered (or unordered, per RequiresOrder) list of
// waypoint zone ids the user must visit.
type TracePath struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	WaypointZones []string `json:"waypointZones"`
	RequiresOrder bool     `json:"requiresOrder,omitempty"`
}

type DragDropConfig struct {
	// AllowRemoval permits picking a placed label back up.
	AllowRemoval bool `json:"allowRemoval,omitempty"`
	// RequireAllLabels gates completion on every label being placed
	// correctly rather than every zone being filled.
	RequireAllLabels bool `json:"requireAllLabels,omitempty"`
}
