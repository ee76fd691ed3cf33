// Package models defines the core domain entities: series specs, observations, fetch results and reports.
package models

import (
	"errors"
	"time"
)

// SeriesSpec describes one provider series requested by the catalog.
// Position is the zero-based declared position in the flattened catalog.
type SeriesSpec struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Position    int    `json:"position"`
}

// Validate checks series spec field constraints.
func (s *SeriesSpec) Validate() error {
	if s.ID == "" {
		return errors.New("series ID must not be empty")
	}
	if s.DisplayName == "" {
		return errors.New("series display name must not be empty")
	}
	if s.Category == "" {
		return errors.New("series category must not be empty")
	}
	if s.Position < 0 {
		return errors.New("series position must not be negative")
	}
	return nil
}

// Observation is a single dated value. A missing value is NaN.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// FetchResult is the outcome of one fetch attempt. It succeeded iff Err is nil.
type FetchResult struct {
	Spec         SeriesSpec
	Observations []Observation
	Err          error
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// FetchFailure records why a single series is absent from a run.
type FetchFailure struct {
	SeriesID    string `json:"series_id"`
	DisplayName string `json:"display_name"`
	Reason      string `json:"reason"`
}

// FetchReport summarizes one pass over the catalog.
type FetchReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Requested  int            `json:"requested"`
	Succeeded  int            `json:"succeeded"`
	Failures   []FetchFailure `json:"failures"`
}

// Failed returns the number of series that could not be fetched.
func (r *FetchReport) Failed() int {
	return len(r.Failures)
}

// Duration returns the wall time of the run.
func (r *FetchReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
