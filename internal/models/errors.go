package models

import "fmt"

// FetchError is a provider failure for a single series. It never aborts a run.
type FetchError struct {
	SeriesID    string
	DisplayName string
	Err         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.DisplayName, e.SeriesID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DegenerateSplitError means a chronological split would leave one partition empty.
type DegenerateSplitError struct {
	Rows         int
	TestFraction float64
	SplitIndex   int
}

func (e *DegenerateSplitError) Error() string {
	return fmt.Sprintf("degenerate split: %d rows with test fraction %.3f gives split index %d",
		e.Rows, e.TestFraction, e.SplitIndex)
}

// EmptyPanelError means a panel has no rows or no columns where data is required.
type EmptyPanelError struct {
	Stage     string
	InRows    int
	InCols    int
	OutRows   int
	OutCols   int
	Threshold float64
}

func (e *EmptyPanelError) Error() string {
	return fmt.Sprintf("empty panel after %s: input %dx%d, output %dx%d (column missing threshold %.2f)",
		e.Stage, e.InRows, e.InCols, e.OutRows, e.OutCols, e.Threshold)
}

// InvalidConfigError rejects a parameter before any work begins.
type InvalidConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Param, e.Value, e.Reason)
}
