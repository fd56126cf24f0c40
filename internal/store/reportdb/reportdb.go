// Package reportdb keeps analysis history in SQLite.
package reportdb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"botcheck/internal/detect"
)

// ErrNotFound is returned for an unknown report id.
var ErrNotFound = errors.New("report not found")

// DB wraps a SQLite database holding past reports and their feature vectors.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS reports (
	  id TEXT PRIMARY KEY,
	  created_at INTEGER NOT NULL,
	  handle TEXT NOT NULL,
	  prediction TEXT NOT NULL,
	  bot_score REAL NOT NULL,
	  schema TEXT NOT NULL,
	  vector BLOB NOT NULL,
	  body TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	CREATE INDEX IF NOT EXISTS idx_reports_handle ON reports(handle);
	`)
	return err
}

// PutReport stores r, replacing any report with the same id.
func (d *DB) PutReport(ctx context.Context, r detect.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO reports(id, created_at, handle, prediction, bot_score, schema, vector, body)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET created_at=excluded.created_at, handle=excluded.handle, prediction=excluded.prediction,
		  bot_score=excluded.bot_score, schema=excluded.schema, vector=excluded.vector, body=excluded.body`,
		r.ID, r.CreatedAt.UnixNano(), r.Handle, string(r.Prediction), r.Scores.BotScore, r.SchemaName, encodeF64(r.Features), string(body))
	return err
}

// GetReport loads one report by id.
func (d *DB) GetReport(ctx context.Context, id string) (detect.Report, error) {
	var body string
	err := d.sql.QueryRowContext(ctx, `SELECT body FROM reports WHERE id=?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return detect.Report{}, ErrNotFound
	}
	if err != nil {
		return detect.Report{}, err
	}
	var r detect.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return detect.Report{}, err
	}
	return r, nil
}

// Summary is one history row.
type Summary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Handle     string    `json:"handle"`
	Prediction string    `json:"prediction"`
	BotScore   float64   `json:"bot_score"`
}

// ListReports returns the newest reports first. handle filters when non-empty.
func (d *DB) ListReports(ctx context.Context, handle string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows *sql.Rows
	var err error
	if handle == "" {
		rows, err = d.sql.QueryContext(ctx, `SELECT id, created_at, handle, prediction, bot_score FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	} else {
		rows, err = d.sql.QueryContext(ctx, `SELECT id, created_at, handle, prediction, bot_score FROM reports WHERE handle=? ORDER BY created_at DESC LIMIT ?`, handle, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var s Summary
		var ts int64
		if err := rows.Scan(&s.ID, &ts, &s.Handle, &s.Prediction, &s.BotScore); err != nil {
			return nil, err
		}
		s.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadVectors returns the stored feature rows and predictions for one schema
// in [start,end), oldest first, for auditing or retraining.
func (d *DB) LoadVectors(ctx context.Context, schema string, start, end time.Time) ([][]float64, []string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT vector, prediction FROM reports WHERE schema=? AND created_at>=? AND created_at<? ORDER BY created_at`,
		schema, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var X [][]float64
	var y []string
	for rows.Next() {
		var vb []byte
		var label string
		if err := rows.Scan(&vb, &label); err != nil {
			return nil, nil, err
		}
		X = append(X, decodeF64(vb))
		y = append(y, label)
	}
	return X, y, rows.Err()
}

func encodeF64(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v[i]))
	}
	return b
}

func decodeF64(b []byte) []float64 {
	n := len(b) / 8
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v
}
