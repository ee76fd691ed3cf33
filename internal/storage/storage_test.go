package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rewired-gh/macropanel/internal/dataset"
	"github.com/rewired-gh/macropanel/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(100, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSpec(id string, position int) models.SeriesSpec {
	return models.SeriesSpec{
		ID:          id,
		DisplayName: "Series " + id,
		Category:    "Test",
		Position:    position,
	}
}

func quarter(year, q int) time.Time {
	return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

func TestStorage_SaveAndLoadObservations(t *testing.T) {
	s := newTestStorage(t)
	obs := []models.Observation{
		{Date: quarter(2020, 2), Value: 2.5},
		{Date: quarter(2020, 1), Value: math.NaN()},
		{Date: quarter(2020, 3), Value: -1},
	}
	if err := s.SaveSeries(testSpec("GDP", 0), obs); err != nil {
		t.Fatalf("SaveSeries: %v", err)
	}

	got, err := s.LoadObservations("GDP")
	if err != nil {
		t.Fatalf("LoadObservations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d observations, want 3", len(got))
	}
	if !got[0].Date.Equal(quarter(2020, 1)) {
		t.Errorf("observations not in date order: first is %v", got[0].Date)
	}
	if !math.IsNaN(got[0].Value) {
		t.Errorf("missing value should load as NaN, got %f", got[0].Value)
	}
	if got[1].Value != 2.5 || got[2].Value != -1 {
		t.Errorf("unexpected values: %v, %v", got[1].Value, got[2].Value)
	}
}

func TestStorage_SaveSeriesReplacesObservations(t *testing.T) {
	s := newTestStorage(t)
	first := []models.Observation{{Date: quarter(2019, 1), Value: 1}, {Date: quarter(2019, 2), Value: 2}}
	second := []models.Observation{{Date: quarter(2021, 1), Value: 9}}

	if err := s.SaveSeries(testSpec("CPI", 0), first); err != nil {
		t.Fatalf("SaveSeries: %v", err)
	}
	if err := s.SaveSeries(testSpec("CPI", 0), second); err != nil {
		t.Fatalf("SaveSeries: %v", err)
	}

	got, _ := s.LoadObservations("CPI")
	if len(got) != 1 || got[0].Value != 9 {
		t.Errorf("expected only the replacement observation, got %+v", got)
	}
}

func TestStorage_SaveSeriesInvalid(t *testing.T) {
	s := newTestStorage(t)
	if err := s.SaveSeries(models.SeriesSpec{ID: "X"}, nil); err == nil {
		t.Error("expected error for series without display name")
	}
}

func TestStorage_LoadResults(t *testing.T) {
	s := newTestStorage(t)
	results := []models.FetchResult{
		{Spec: testSpec("A", 0), Observations: []models.Observation{{Date: quarter(2020, 1), Value: 1}}},
		{Spec: testSpec("B", 1), Err: errors.New("boom")},
		{Spec: testSpec("C", 2), Observations: []models.Observation{{Date: quarter(2020, 2), Value: 3}}},
	}
	saved, err := s.SaveResults(results)
	if err != nil {
		t.Fatalf("SaveResults: %v", err)
	}
	if saved != 2 {
		t.Errorf("saved %d series, want 2", saved)
	}

	loaded, err := s.LoadResults([]models.SeriesSpec{testSpec("A", 0), testSpec("B", 1), testSpec("C", 2)})
	if err != nil {
		t.Fatalf("LoadResults: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("got %d results, want 3", len(loaded))
	}
	if !loaded[0].OK() || !loaded[2].OK() {
		t.Error("stored series should load as successful results")
	}
	if loaded[1].OK() {
		t.Fatal("series without stored data should load as a failure")
	}
	var fetchErr *models.FetchError
	if !errors.As(loaded[1].Err, &fetchErr) || !errors.Is(loaded[1].Err, ErrNoObservations) {
		t.Errorf("unexpected error type: %v", loaded[1].Err)
	}
}

func testReport(id string, startedAt time.Time, failures ...string) models.FetchReport {
	r := models.FetchReport{
		RunID:      id,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(30 * time.Second),
		Requested:  5,
		Succeeded:  5 - len(failures),
	}
	for _, f := range failures {
		r.Failures = append(r.Failures, models.FetchFailure{SeriesID: f, DisplayName: "Series " + f, Reason: "not found"})
	}
	return r
}

func TestStorage_RecordAndRecentRuns(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now().UTC()

	if err := s.RecordRun(testReport("run-1", now.Add(-time.Hour), "X", "Y")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := s.RecordRun(testReport("run-2", now)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].RunID != "run-2" {
		t.Errorf("newest run should be first, got %s", runs[0].RunID)
	}
	if runs[1].Failed() != 2 || runs[1].Failures[0].SeriesID != "X" || runs[1].Failures[1].SeriesID != "Y" {
		t.Errorf("failures not restored in order: %+v", runs[1].Failures)
	}
	if runs[1].Duration() != 30*time.Second {
		t.Errorf("got duration %v, want 30s", runs[1].Duration())
	}
}

func TestStorage_RecordRunRotates(t *testing.T) {
	s, err := New(3, ":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	now := time.Now()
	for i := 0; i < 6; i++ {
		r := testReport(fmt.Sprintf("run-%d", i), now.Add(-time.Duration(6-i)*time.Minute), "F")
		if err := s.RecordRun(r); err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	runs, _ := s.RecentRuns(10)
	if len(runs) != 3 {
		t.Fatalf("got %d runs after rotation, want 3", len(runs))
	}
	for _, r := range runs {
		if r.RunID == "run-0" || r.RunID == "run-1" || r.RunID == "run-2" {
			t.Errorf("old run %s should have been rotated out", r.RunID)
		}
	}

	var orphans int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM fetch_failures`).Scan(&orphans); err != nil {
		t.Fatalf("count failures: %v", err)
	}
	if orphans != 3 {
		t.Errorf("got %d failure rows, want 3 after cascade", orphans)
	}
}

func TestStorage_RecordRunRequiresID(t *testing.T) {
	s := newTestStorage(t)
	if err := s.RecordRun(models.FetchReport{}); err == nil {
		t.Error("expected error for report without run ID")
	}
}

func TestStorage_SaveLoadScaler(t *testing.T) {
	s := newTestStorage(t)
	scaler := dataset.NewScaler([]string{"GDP", "CPI"})
	x := mat.NewDense(3, 2, []float64{1, 10, 2, 20, 3, 30})
	if err := scaler.Fit(x); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if err := s.SaveScaler("default", scaler); err != nil {
		t.Fatalf("SaveScaler: %v", err)
	}
	got, err := s.LoadScaler("default")
	if err != nil {
		t.Fatalf("LoadScaler: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored scaler")
	}
	if got.Count != 3 || got.Columns[1] != "CPI" {
		t.Errorf("unexpected scaler: %+v", got)
	}
	for j := range scaler.Mean {
		if got.Mean[j] != scaler.Mean[j] || got.Scale[j] != scaler.Scale[j] {
			t.Errorf("column %d parameters differ: got %v/%v want %v/%v",
				j, got.Mean[j], got.Scale[j], scaler.Mean[j], scaler.Scale[j])
		}
	}
}

func TestStorage_LoadScaler_NotFound(t *testing.T) {
	s := newTestStorage(t)
	got, err := s.LoadScaler("missing")
	if err != nil {
		t.Fatalf("LoadScaler: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil scaler, got %+v", got)
	}
}

func TestStorage_SaveScaler_Unfitted(t *testing.T) {
	s := newTestStorage(t)
	if err := s.SaveScaler("x", dataset.NewScaler(nil)); err == nil {
		t.Error("expected error for unfitted scaler")
	}
}

func TestStorage_DefaultPath(t *testing.T) {
	s, err := New(10, "")
	if err != nil {
		t.Fatalf("New with empty path: %v", err)
	}
	defer s.Close()
}

func TestStorage_New_SchemaConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conflict.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE fetch_runs (id TEXT PRIMARY KEY)`); err != nil {
		t.Fatalf("seed schema: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := New(10, path); err == nil {
		t.Fatal("expected error for incompatible fetch_runs table")
	}

	db, err = sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := db.Exec(`DROP TABLE fetch_runs`); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err := New(10, path)
	if err != nil {
		t.Fatalf("New after repair: %v", err)
	}
	defer s.Close()
}
