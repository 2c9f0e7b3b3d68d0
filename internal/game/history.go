package game

import "time"

// Command is a reversible unit of work for the undo/redo stack.
type Command interface {
	Execute()
	Undo()
	Kind() string
	At() time.Time

	// Merge coalesces this command with the next one (already
	// executed) into a single undo step, or returns nil to decline.
	Merge(next Command) Command
}

// DefaultHistoryLimit caps the undo stack; the oldest entry is evicted
// when the cap is exceeded.
const DefaultHistoryLimit = 100

// History is a bounded, linear undo/redo stack. Redo entries are
// discarded whenever a new command is executed after an undo.
type History struct {
	limit  int
	done   []Command
	undone []Command
}

// NewHistory creates a history with the given cap (<=0 uses the
// default).
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Execute runs the command and records it. If the previous command
// merges with it, the two become one undo step.
func (h *History) Execute(c Command) {
	c.Execute()
	h.undone = h.undone[:0]

	if n := len(h.done); n > 0 {
		if merged := h.done[n-1].Merge(c); merged != nil {
			h.done[n-1] = merged
			return
		}
	}

	h.done = append(h.done, c)
	if len(h.done) > h.limit {
		h.done = h.done[1:]
	}
}

// Undo reverts the most recent command. Returns false if there is
// nothing to undo.
func (h *History) Undo() bool {
	n := len(h.done)
	if n == 0 {
		return false
	}
	c := h.done[n-1]
	h.done = h.done[:n-1]
	c.Undo()
	h.undone = append(h.undone, c)
	return true
}

// Redo re-applies the most recently undone command. Returns false if
// there is nothing to redo.
func (h *History) Redo() bool {
	n := len(h.undone)
	if n == 0 {
		return false
	}
	c := h.undone[n-1]
	h.undone = h.undone[:n-1]
	c.Execute()
	h.done = append(h.done, c)
	return true
}

// CanUndo reports whether an undo step exists.
func (h *History) CanUndo() bool { return len(h.done) > 0 }

// CanRedo reports whether a redo step exists.
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// Len returns the number of undo steps recorded.
func (h *History) Len() int { return len(h.done) }

// Clear drops all undo and redo state. Called on task and scene
// transitions, since commands capture progress records that no longer
// exist afterwards.
func (h *History) Clear() {
	h.done = h.done[:0]
	h.undone = h.undone[:0]
}

// compositeCommand chains two merged commands into one undo step.
type compositeCommand struct {
	first, second Command
}

func (c *compositeCommand) Execute() {
	c.first.Execute()
	c.second.Execute()
}

func (c *compositeCommand) Undo() {
	c.second.Undo()
	c.first.Undo()
}

func (c *compositeCommand) Kind() string  { return c.second.Kind() }
func (c *compositeCommand) At() time.Time { return c.second.At() }

func (c *compositeCommand) Merge(next Command) Command {
	if merged := c.second.Merge(next); merged != nil {
		return &compositeCommand{first: c.first, second: merged}
	}
	return nil
}
