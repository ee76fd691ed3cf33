// Package storage provides SQLite-backed persistence for series observations, fetch runs and scalers.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rewired-gh/macropanel/internal/dataset"
	"github.com/rewired-gh/macropanel/internal/models"
)

const dateLayout = "2006-01-02"

// ErrNoObservations marks a series with nothing stored.
var ErrNoObservations = errors.New("no stored observations")

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db      *sql.DB
	maxRuns int
}

// New opens or creates the SQLite database at dbPath and keeps at most maxRuns fetch runs.
// An empty dbPath defaults to $TMPDIR/macropanel/data.db.
func New(maxRuns int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "macropanel", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db, maxRuns: maxRuns}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series (
			id           TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			category     TEXT NOT NULL,
			position     INTEGER NOT NULL,
			updated_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS observations (
			series_id TEXT NOT NULL REFERENCES series(id) ON DELETE CASCADE,
			date      TEXT NOT NULL,
			value     REAL,
			PRIMARY KEY (series_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS fetch_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			requested   INTEGER NOT NULL,
			succeeded   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fetch_failures (
			run_id       TEXT NOT NULL REFERENCES fetch_runs(id) ON DELETE CASCADE,
			seq          INTEGER NOT NULL,
			series_id    TEXT NOT NULL,
			display_name TEXT NOT NULL,
			reason       TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS scalers (
			name       TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_runs_started_at ON fetch_runs(started_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSeries upserts the series row and replaces all of its observations.
func (s *Storage) SaveSeries(spec models.SeriesSpec, observations []models.Observation) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid series: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO series (id, display_name, category, position, updated_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			display_name=excluded.display_name, category=excluded.category,
			position=excluded.position, updated_at=excluded.updated_at`,
		spec.ID, spec.DisplayName, spec.Category, spec.Position, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert series: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM observations WHERE series_id = ?`, spec.ID); err != nil {
		return fmt.Errorf("failed to clear observations: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO observations (series_id, date, value) VALUES (?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range observations {
		var value sql.NullFloat64
		if !math.IsNaN(o.Value) {
			value = sql.NullFloat64{Float64: o.Value, Valid: true}
		}
		if _, err := stmt.Exec(spec.ID, o.Date.Format(dateLayout), value); err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	return tx.Commit()
}

// SaveResults stores every successful result and returns how many were saved.
func (s *Storage) SaveResults(results []models.FetchResult) (int, error) {
	saved := 0
	for _, r := range results {
		if !r.OK() {
			continue
		}
		if err := s.SaveSeries(r.Spec, r.Observations); err != nil {
			return saved, fmt.Errorf("failed to save %s: %w", r.Spec.ID, err)
		}
		saved++
	}
	return saved, nil
}

// LoadObservations returns the stored observations of one series in date order.
func (s *Storage) LoadObservations(seriesID string) ([]models.Observation, error) {
	rows, err := s.db.Query(`
		SELECT date, value FROM observations
		WHERE series_id = ? ORDER BY date`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var obs []models.Observation
	for rows.Next() {
		var date string
		var value sql.NullFloat64
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		v := math.NaN()
		if value.Valid {
			v = value.Float64
		}
		obs = append(obs, models.Observation{Date: t, Value: v})
	}
	return obs, rows.Err()
}

// LoadResults rebuilds fetch results for entries from stored data. An entry with
// no stored observations becomes a failed result.
func (s *Storage) LoadResults(entries []models.SeriesSpec) ([]models.FetchResult, error) {
	results := make([]models.FetchResult, len(entries))
	for i, spec := range entries {
		obs, err := s.LoadObservations(spec.ID)
		if err != nil {
			return nil, err
		}
		results[i] = models.FetchResult{Spec: spec, Observations: obs}
		if len(obs) == 0 {
			results[i].Err = &models.FetchError{
				SeriesID:    spec.ID,
				DisplayName: spec.DisplayName,
				Err:         ErrNoObservations,
			}
		}
	}
	return results, nil
}

// RecordRun stores a fetch report and its failures, then rotates old runs.
func (s *Storage) RecordRun(report models.FetchReport) error {
	if report.RunID == "" {
		return errors.New("run ID must not be empty")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO fetch_runs (id, started_at, finished_at, requested, succeeded)
		VALUES (?,?,?,?,?)`,
		report.RunID, report.StartedAt.UnixNano(), report.FinishedAt.UnixNano(),
		report.Requested, report.Succeeded,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, f := range report.Failures {
		_, err := tx.Exec(`
			INSERT INTO fetch_failures (run_id, seq, series_id, display_name, reason)
			VALUES (?,?,?,?,?)`,
			report.RunID, i, f.SeriesID, f.DisplayName, f.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert failure: %w", err)
		}
	}

	if s.maxRuns > 0 {
		if _, err = tx.Exec(`
			DELETE FROM fetch_runs WHERE id NOT IN (
				SELECT id FROM fetch_runs ORDER BY started_at DESC LIMIT ?
			)`, s.maxRuns); err != nil {
			return fmt.Errorf("failed to enforce run cap: %w", err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns up to k runs, newest first, with their failures.
func (s *Storage) RecentRuns(k int) ([]models.FetchReport, error) {
	rows, err := s.db.Query(`
		SELECT `+runCols+` FROM fetch_runs
		ORDER BY started_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []models.FetchReport
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		failures, err := s.loadFailures(runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Failures = failures
	}
	if runs == nil {
		runs = []models.FetchReport{}
	}
	return runs, nil
}

func (s *Storage) loadFailures(runID string) ([]models.FetchFailure, error) {
	rows, err := s.db.Query(`
		SELECT series_id, display_name, reason FROM fetch_failures
		WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var failures []models.FetchFailure
	for rows.Next() {
		var f models.FetchFailure
		if err := rows.Scan(&f.SeriesID, &f.DisplayName, &f.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// SaveScaler stores fitted scaler parameters under name, replacing any previous ones.
func (s *Storage) SaveScaler(name string, scaler *dataset.Scaler) error {
	if name == "" {
		return errors.New("scaler name must not be empty")
	}
	if scaler == nil || !scaler.Fitted() {
		return errors.New("scaler is not fitted")
	}
	payload, err := json.Marshal(scaler)
	if err != nil {
		return fmt.Errorf("failed to marshal scaler: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO scalers (name, payload, updated_at)
		VALUES (?,?,?)`,
		name, string(payload), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save scaler: %w", err)
	}
	return nil
}

// LoadScaler returns the scaler stored under name, or nil if there is none.
func (s *Storage) LoadScaler(name string) (*dataset.Scaler, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM scalers WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scaler: %w", err)
	}
	var scaler dataset.Scaler
	if err := json.Unmarshal([]byte(payload), &scaler); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scaler: %w", err)
	}
	return &scaler, nil
}

const runCols = `id, started_at, finished_at, requested, succeeded`

func scanRun(scan func(...any) error) (*models.FetchReport, error) {
	var r models.FetchReport
	var startedAtNano, finishedAtNano int64
	err := scan(&r.RunID, &startedAtNano, &finishedAtNano, &r.Requested, &r.Succeeded)
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.Unix(0, startedAtNano).UTC()
	r.FinishedAt = time.Unix(0, finishedAtNano).UTC()
	return &r, nil
}
