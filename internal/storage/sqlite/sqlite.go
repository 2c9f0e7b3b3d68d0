package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/diagramquest/engine/internal/storage"
)

// Client is the SQLite journal backend, for single-box installs that
// run without a Postgres server.
type Client struct {
	db     *sql.DB
	gameID string
}

// Open opens (and creates if missing) the journal database file.
// Busy timeout and WAL journaling keep concurrent reads from the API
// from tripping over appends.
func Open(dsn, gameID string) (*Client, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	client := &Client{db: db, gameID: gameID}
	if err := client.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create game_events table: %w", err)
	}
	return client, nil
}

func (c *Client) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS game_events (
			event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			ts         TEXT NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     TEXT,
			game_id    TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_game_events_ts ON game_events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_game_events_game_id ON game_events(game_id);
	`
	_, err := c.db.Exec(query)
	return err
}

// Append inserts an event into the journal.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	var err error
	if fields != nil {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	var msgVal, sessionVal, fieldsVal interface{}
	if msg != "" {
		msgVal = msg
	}
	if sessionID != "" {
		sessionVal = sessionID
	}
	if fieldsJSON != nil {
		fieldsVal = string(fieldsJSON)
	}

	_, err = c.db.Exec(`
		INSERT INTO game_events (ts, level, event, msg, fields, game_id, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(time.RFC3339Nano), level, event, msgVal, fieldsVal, c.gameID, sessionVal)
	return err
}

// Query returns the last N events in descending order by timestamp.
func (c *Client) Query(limit int) ([]storage.Row, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 10000 {
		limit = 10000
	}

	rows, err := c.db.Query(`
		SELECT event_id, ts, level, event, msg, fields, game_id, session_id
		FROM game_events
		WHERE game_id = ?
		ORDER BY ts DESC, event_id DESC
		LIMIT ?`, c.gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.Row
	for rows.Next() {
		var e storage.Row
		var ts string
		var msg, fieldsJSON, sessionID sql.NullString

		if err := rows.Scan(&e.EventID, &ts, &e.Level, &e.Event, &msg, &fieldsJSON, &e.GameID, &sessionID); err != nil {
			return nil, err
		}

		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if msg.Valid {
			e.Message = &msg.String
		}
		if sessionID.Valid {
			e.SessionID = &sessionID.String
		}
		if fieldsJSON.Valid && fieldsJSON.String != "" {
			if err := json.Unmarshal([]byte(fieldsJSON.String), &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}

		out = append(out, e)
	}

	return out, rows.Err()
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
