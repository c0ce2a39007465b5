// Package store persists accepted recordings in a local SQLite database.
// The full payload is kept as a JSON document; a few columns are broken out
// so recordings can be listed and fetched without parsing every document.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hmwatts/tracebench/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when a recording id has no row.
var ErrNotFound = errors.New("recording not found")

// Store wraps the SQLite handle. Safe for concurrent use; WAL mode plus a
// busy timeout keeps concurrent writers from tripping over each other.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// RecordingSummary is the cheap listing view of one stored recording.
type RecordingSummary struct {
	ID             string    `json:"id"`
	Task           string    `json:"task"`
	Duration       float64   `json:"duration"`
	EventsRecorded int       `json:"events_recorded"`
	StartURL       string    `json:"start_url"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger.Named("store")}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS recordings(
	  id               TEXT    PRIMARY KEY,
	  task             TEXT    NOT NULL,
	  duration_seconds REAL    NOT NULL,
	  events_recorded  INTEGER NOT NULL,
	  start_url        TEXT,
	  end_url          TEXT,
	  received_at      TEXT    NOT NULL,
	  payload_json     TEXT    NOT NULL CHECK (json_valid(payload_json))
	);
	CREATE TABLE IF NOT EXISTS recording_events(
	  recording_id TEXT    NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
	  seq          INTEGER NOT NULL,
	  type         TEXT    NOT NULL,
	  timestamp    REAL    NOT NULL,
	  bid          TEXT,
	  url          TEXT,
	  PRIMARY KEY (recording_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_recordings_task    ON recordings(task);
	CREATE INDEX IF NOT EXISTS idx_recording_events_type ON recording_events(type);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Validate rejects uploads the pipeline cannot do anything with. Unknown
// event types are accepted here; downstream verification reports on them.
func Validate(upload *schemas.RecordingUpload) error {
	if upload.Task == "" {
		return fmt.Errorf("task cannot be empty")
	}
	if upload.Duration < 0 {
		return fmt.Errorf("duration must be non-negative")
	}
	if upload.EventsRecorded < 0 {
		return fmt.Errorf("events_recorded must be non-negative")
	}
	return nil
}

// SaveRecording validates and persists one upload, returning the assigned
// recording id. The recording row and its per-event index rows are written
// in one transaction.
func (s *Store) SaveRecording(ctx context.Context, upload *schemas.RecordingUpload) (string, error) {
	if err := Validate(upload); err != nil {
		return "", fmt.Errorf("invalid recording: %w", err)
	}

	id := uuid.New().String()
	payload, err := json.Marshal(upload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}

	receivedAt := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO recordings(id, task, duration_seconds, events_recorded, start_url, end_url, received_at, payload_json)
		 VALUES(?,?,?,?,?,?,?,json(?))`,
		id, upload.Task, upload.Duration, upload.EventsRecorded,
		upload.StartURL, upload.EndURL, receivedAt, string(payload))
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to insert recording: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recording_events(recording_id, seq, type, timestamp, bid, url) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for seq, event := range upload.Data {
		bid := ""
		if event.Target != nil {
			bid = event.Target.BID
		}
		if _, err := stmt.ExecContext(ctx, id, seq, string(event.Type), event.Timestamp, bid, event.URL); err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("failed to index event %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("recording stored",
		zap.String("recording_id", id),
		zap.String("task", upload.Task),
		zap.Int("events", len(upload.Data)))
	return id, nil
}

// GetRecording loads the full upload payload for one recording id.
func (s *Store) GetRecording(ctx context.Context, id string) (*schemas.RecordingUpload, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_json FROM recordings WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recording: %w", err)
	}

	var upload schemas.RecordingUpload
	if err := json.Unmarshal([]byte(payload), &upload); err != nil {
		return nil, fmt.Errorf("failed to decode stored payload: %w", err)
	}
	return &upload, nil
}

// ListRecordings returns the newest recordings first, at most limit rows.
func (s *Store) ListRecordings(ctx context.Context, limit int) ([]RecordingSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task, duration_seconds, events_recorded, COALESCE(start_url,''), received_at
		 FROM recordings ORDER BY received_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	var out []RecordingSummary
	for rows.Next() {
		var rec RecordingSummary
		var receivedAt string
		if err := rows.Scan(&rec.ID, &rec.Task, &rec.Duration, &rec.EventsRecorded, &rec.StartURL, &receivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recording row: %w", err)
		}
		if ts, perr := time.Parse(time.RFC3339Nano, receivedAt); perr == nil {
			rec.ReceivedAt = ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountEventsByType aggregates the indexed event rows for one recording.
func (s *Store) CountEventsByType(ctx context.Context, id string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM recording_events WHERE recording_id = ? GROUP BY type`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}
