package game

import (
	"github.com/diagramquest/engine/internal/blueprint"
)

// Capability is the seam through which mechanic types plug into the
// engine. New mechanics register an implementation here; dispatch and
// flow code never switch on mechanic type for init/completion logic.
type Capability interface {
	Type() MechanicType

	// InitProgress builds the empty progress record for a task. A nil
	// or empty config payload yields a progress record whose
	// IsComplete is permanently false, never a panic.
	InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress

	// IsComplete reports whether the mechanic is finished.
	IsComplete(p Progress, bp *blueprint.Blueprint) bool
}

var registry = map[MechanicType]Capability{
	MechanicDragDrop:            dragDropMechanic{},
	MechanicSequencing:          sequencingMechanic{},
	MechanicSorting:             sortingMechanic{},
	MechanicMemoryMatch:         memoryMatchMechanic{},
	MechanicBranching:           branchingMechanic{},
	MechanicCompare:             compareMechanic{},
	MechanicDescriptionMatching: descriptionMatchingMechanic{},
	MechanicClickToIdentify:     clickToIdentifyMechanic{},
	MechanicTracePath:           tracePathMechanic{},
}

// Lookup returns the capability for a mechanic type.
func Lookup(t MechanicType) (Capability, bool) {
	c, ok := registry[t]
	return c, ok
}

// --- drag_drop ---

type dragDropMechanic struct{}

func (dragDropMechanic) Type() MechanicType { return MechanicDragDrop }

func (dragDropMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	p := &DragDropProgress{
		Placements: make(map[string]string),
		Correct:    make(map[string]bool),
		Scored:     make(map[string]bool),
	}
	if task != nil && len(task.LabelIDs) > 0 {
		p.LabelIDs = append(p.LabelIDs, task.LabelIDs...)
	} else {
		for _, l := range bp.Labels {
			p.LabelIDs = append(p.LabelIDs, l.ID)
		}
	}
	return p
}

func (dragDropMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	dp, ok := p.(*DragDropProgress)
	if !ok || len(dp.LabelIDs) == 0 {
		return false
	}
	for _, id := range dp.LabelIDs {
		if !dp.Correct[id] {
			return false
		}
	}
	return true
}

// --- sequencing ---

type sequencingMechanic struct{}

func (sequencingMechanic) Type() MechanicType { return MechanicSequencing }

func (sequencingMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	p := &SequencingProgress{}
	if bp.SequenceConfig != nil {
		for _, item := range bp.SequenceConfig.Items {
			p.CurrentOrder = append(p.CurrentOrder, item.ID)
		}
	}
	return p
}

// Sequencing completes on submission, regardless of correctness.
func (sequencingMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	sp, ok := p.(*SequencingProgress)
	return ok && len(sp.CurrentOrder) > 0 && sp.Submitted
}

// --- sorting ---

type sortingMechanic struct{}

func (sortingMechanic) Type() MechanicType { return MechanicSorting }

func (sortingMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	return &SortingProgress{Assignments: make(map[string]string)}
}

// Sorting completes when every item has a category and the user has
// submitted.
func (sortingMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	sp, ok := p.(*SortingProgress)
	if !ok || !sp.Submitted || bp.SortingConfig == nil || len(bp.SortingConfig.Items) == 0 {
		return false
	}
	for _, item := range bp.SortingConfig.Items {
		if sp.Assignments[item.ID] == "" {
			return false
		}
	}
	return true
}

// --- memory_match ---

type memoryMatchMechanic struct{}

func (memoryMatchMechanic) Type() MechanicType { return MechanicMemoryMatch }

func (memoryMatchMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	p := &MemoryMatchProgress{MatchedPairIDs: make(map[string]bool)}
	if bp.MemoryMatchConfig != nil {
		p.TotalPairs = len(bp.MemoryMatchConfig.Pairs)
	}
	return p
}

func (memoryMatchMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	mp, ok := p.(*MemoryMatchProgress)
	return ok && mp.TotalPairs > 0 && len(mp.MatchedPairIDs) == mp.TotalPairs
}

// --- branching_scenario ---

type branchingMechanic struct{}

func (branchingMechanic) Type() MechanicType { return MechanicBranching }

func (branchingMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	p := &BranchingProgress{}
	if bp.BranchingConfig != nil {
		p.CurrentNodeID = bp.BranchingConfig.StartNodeID
	}
	return p
}

// Branching completes when a choice reached a terminal: an option with
// no next node, or a node flagged terminal.
func (branchingMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	bpg, ok := p.(*BranchingProgress)
	return ok && bpg.Terminal
}

// --- compare ---

type compareMechanic struct{}

func (compareMechanic) Type() MechanicType { return MechanicCompare }

func (compareMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	return &CompareProgress{Choices: make(map[string]string)}
}

func (compareMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	cp, ok := p.(*CompareProgress)
	if !ok || !cp.Submitted || bp.CompareConfig == nil || len(bp.CompareConfig.Statements) == 0 {
		return false
	}
	for _, st := range bp.CompareConfig.Statements {
		if cp.Choices[st.ID] == "" {
			return false
		}
	}
	return true
}

// --- description_matching ---

type descriptionMatchingMechanic struct{}

func (descriptionMatchingMechanic) Type() MechanicType { return MechanicDescriptionMatching }

func (descriptionMatchingMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	p := &DescriptionMatchingProgress{Matched: make(map[string]string)}
	if bp.DescriptionMatchingConfig != nil {
		p.Total = len(bp.DescriptionMatchingConfig.Descriptions)
	}
	return p
}

func (descriptionMatchingMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	dp, ok := p.(*DescriptionMatchingProgress)
	return ok && dp.Total > 0 && len(dp.Matched) == dp.Total
}

// --- click_to_identify ---

type clickToIdentifyMechanic struct{}

func (clickToIdentifyMechanic) Type() MechanicType { return MechanicClickToIdentify }

func (clickToIdentifyMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	p := &ClickToIdentifyProgress{
		CompletedZoneIDs: make(map[string]bool),
		AnsweredPrompts:  make(map[string]bool),
	}
	if bp.ClickToIdentifyConfig != nil {
		p.TotalPrompts = len(bp.ClickToIdentifyConfig.Prompts)
	}
	return p
}

func (clickToIdentifyMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	cp, ok := p.(*ClickToIdentifyProgress)
	return ok && cp.TotalPrompts > 0 && len(cp.AnsweredPrompts) == cp.TotalPrompts
}

// --- trace_path ---

type tracePathMechanic struct{}

func (tracePathMechanic) Type() MechanicType { return MechanicTracePath }

func (tracePathMechanic) InitProgress(bp *blueprint.Blueprint, task *blueprint.Task) Progress {
	p := &TracePathProgress{
		Visited:        make(map[string][]string),
		CompletedPaths: make(map[string]bool),
	}
	if bp.TracePathConfig != nil {
		p.TotalPaths = len(bp.TracePathConfig.Paths)
	}
	return p
}

func (tracePathMechanic) IsComplete(p Progress, bp *blueprint.Blueprint) bool {
	tp, ok := p.(*TracePathProgress)
	return ok && tp.TotalPaths > 0 && len(tp.CompletedPaths) == tp.TotalPaths
}
