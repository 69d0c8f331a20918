// Package store persists dataprep runs and their encoded GDSII cell
// blobs to a local SQLite database, so previously prepared cells can be
// inspected or re-exported without re-running dataprep.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the SQLite database holding prep runs and cell blobs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies any
// pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// runMigrations applies the embedded migrations up to the latest version.
func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	// Note: we don't close m because it would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PrepRun is one recorded dataprep invocation.
type PrepRun struct {
	RunID      string
	JobName    string
	StartedNs  int64
	FinishedNs sql.NullInt64
	ConfigJSON string
}

// RecordRun inserts a new run row and returns its generated id.
func (s *Store) RecordRun(jobName, configJSON string) (string, error) {
	runID := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO prep_runs (run_id, job_name, started_ns, config_json) VALUES (?, ?, ?, ?)`,
		runID, jobName, time.Now().UnixNano(), configJSON,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return runID, nil
}

// FinishRun stamps the run's completion time.
func (s *Store) FinishRun(runID string) error {
	res, err := s.db.Exec(
		`UPDATE prep_runs SET finished_ns = ? WHERE run_id = ?`,
		time.Now().UnixNano(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no run with id %s", runID)
	}
	return nil
}

// GetRun fetches one run row.
func (s *Store) GetRun(runID string) (*PrepRun, error) {
	var r PrepRun
	err := s.db.QueryRow(
		`SELECT run_id, job_name, started_ns, finished_ns, config_json FROM prep_runs WHERE run_id = ?`,
		runID,
	).Scan(&r.RunID, &r.JobName, &r.StartedNs, &r.FinishedNs, &r.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return &r, nil
}

// CellRow describes one stored cell without its blob.
type CellRow struct {
	RunID      string
	CellName   string
	LayerCount int
	ByteLen    int
}

// SaveCell stores an encoded cell structure blob for a run.
func (s *Store) SaveCell(runID, cellName string, layerCount int, blob []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO cells (run_id, cell_name, layer_count, byte_len, gds_blob) VALUES (?, ?, ?, ?, ?)`,
		runID, cellName, layerCount, len(blob), blob,
	)
	if err != nil {
		return fmt.Errorf("failed to save cell %s: %w", cellName, err)
	}
	return nil
}

// ListCells returns the cells stored for a run, ordered by name.
func (s *Store) ListCells(runID string) ([]CellRow, error) {
	rows, err := s.db.Query(
		`SELECT run_id, cell_name, layer_count, byte_len FROM cells WHERE run_id = ? ORDER BY cell_name`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	defer rows.Close()

	var out []CellRow
	for rows.Next() {
		var c CellRow
		if err := rows.Scan(&c.RunID, &c.CellName, &c.LayerCount, &c.ByteLen); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCellBlob fetches the encoded GDSII structure bytes for one cell.
func (s *Store) GetCellBlob(runID, cellName string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT gds_blob FROM cells WHERE run_id = ? AND cell_name = ?`,
		runID, cellName,
	).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("failed to get cell %s: %w", cellName, err)
	}
	return blob, nil
}
