// Package storage defines the session event journal and its backends.
// The journal is append-only; restore-after-restart replays it to
// reconstruct session state.
package storage

import "time"

// Row represents one journaled event.
type Row struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	GameID    string                 `json:"game_id"`
	SessionID *string                `json:"session_id,omitempty"`
}

// Journal is implemented by the postgres and sqlite backends.
// Append must be safe to call from the event emitter on every emit;
// Query returns the most recent rows in descending timestamp order.
type Journal interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error
	Query(limit int) ([]Row, error)
	Close() error
}
