package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ShafahmadxX69/Dashioh/internal"
)

const defaultRunsLimit = 20

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  startedAt TEXT NOT NULL,
  status TEXT NOT NULL,
  records INTEGER NOT NULL DEFAULT 0,
  totalMs REAL NOT NULL DEFAULT 0,
  error TEXT,
  sourcesJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_startedAt ON runs(startedAt);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.RefreshRun) error {
	sources := run.Sources
	if sources == nil {
		sources = []internal.SourceReport{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO runs (id, startedAt, status, records, totalMs, error, sourcesJson)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Status, run.Records, run.TotalMs, nullableString(run.Error), string(sourcesJSON))
	return err
}

// ListRuns returns the newest runs first.
func (d *DB) ListRuns(limit int) ([]internal.RefreshRun, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	rows, err := d.conn.Query(`
SELECT id, startedAt, status, records, totalMs, error, sourcesJson
FROM runs
ORDER BY startedAt DESC, createdAt DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RefreshRun{}
	for rows.Next() {
		var run internal.RefreshRun
		var runErr sql.NullString
		var sourcesJSON string
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.Status, &run.Records, &run.TotalMs, &runErr, &sourcesJSON); err != nil {
			return nil, err
		}
		run.Error = runErr.String
		if err := json.Unmarshal([]byte(sourcesJSON), &run.Sources); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
