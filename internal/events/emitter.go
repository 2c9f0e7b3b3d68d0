package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/diagramquest/engine/internal/storage"
)

var buffer = NewRingBuffer(256)

var (
	journal        storage.Journal
	journalMu      sync.RWMutex
	journalErrOnce bool
	sessionID      string
)

// SetJournal sets the journal backend for event persistence.
// A nil journal disables persistence (dev mode).
func SetJournal(j storage.Journal) {
	journalMu.Lock()
	journal = j
	journalMu.Unlock()
}

// GetJournal returns the current journal (for API queries and restore).
func GetJournal() storage.Journal {
	journalMu.RLock()
	defer journalMu.RUnlock()
	return journal
}

// SetSessionID tags subsequent journal appends with the session id.
func SetSessionID(id string) {
	journalMu.Lock()
	sessionID = id
	journalMu.Unlock()
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	broadcast(e)

	journalMu.RLock()
	j := journal
	sid := sessionID
	errLogged := journalErrOnce
	journalMu.RUnlock()

	if j != nil {
		if err := j.Append(ts, level, name, msg, fields, sid); err != nil {
			// Log the failure once to avoid spam. Added directly to the
			// ring buffer, NOT via Emit, so a persistently failing
			// journal cannot recurse.
			if !errLogged {
				journalMu.Lock()
				if !journalErrOnce {
					journalErrOnce = true
					journalMu.Unlock()
					errEvent := Event{
						Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
						Level:     "error",
						Name:      "system.error",
						Message:   "journal append failed",
						Fields: map[string]interface{}{
							"error": err.Error(),
						},
					}
					buffer.Add(errEvent)
				} else {
					journalMu.Unlock()
				}
			}
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return b, nil
}

func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events emitted since startup.
func TotalCount() int64 {
	return buffer.Total()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	buffer.Clear()
}
