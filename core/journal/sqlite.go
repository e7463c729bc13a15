package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/yard/core/events"
)

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS yard_journal (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT,
        strategy TEXT,
        seq INTEGER,
        ts INTEGER,
        action TEXT,
        container_id INTEGER,
        record TEXT
    );`,
		`CREATE INDEX IF NOT EXISTS yard_journal_run ON yard_journal (run_id, seq);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, ev events.ActionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO yard_journal (run_id, strategy, seq, ts, action, container_id, record) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Strategy, ev.Seq, int64(ev.Time), string(ev.Type), int64(ev.Container.ID), string(b))
	return err
}

// Query returns records matching q in insertion order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]events.ActionEvent, error) {
	var args []any
	query := `SELECT record FROM yard_journal WHERE 1=1`
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if q.Strategy != "" {
		query += ` AND strategy = ?`
		args = append(args, q.Strategy)
	}
	if q.ContainerID != 0 {
		query += ` AND container_id = ?`
		args = append(args, int64(q.ContainerID))
	}
	if q.Type != "" {
		query += ` AND action = ?`
		args = append(args, string(q.Type))
	}
	if q.Start != 0 {
		query += ` AND ts >= ?`
		args = append(args, int64(q.Start))
	}
	if q.End > 0 {
		query += ` AND ts <= ?`
		args = append(args, int64(q.End))
	}
	query += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []events.ActionEvent
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var ev events.ActionEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
