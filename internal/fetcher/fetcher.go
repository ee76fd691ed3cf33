// Package fetcher retrieves every catalog series from a provider, isolating failures per series.
package fetcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/macropanel/internal/logger"
	"github.com/rewired-gh/macropanel/internal/models"
)

// Provider returns the observations of one series.
type Provider interface {
	FetchSeries(ctx context.Context, seriesID, frequency, aggregation string) ([]models.Observation, error)
}

// Options controls a fetch run.
type Options struct {
	Frequency   string
	Aggregation string
	// Workers above 1 fetch concurrently. Request spacing stays with the provider.
	Workers int
}

// Fetcher runs one provider request per catalog entry.
type Fetcher struct {
	provider Provider
	opts     Options
}

// New creates a fetcher.
func New(provider Provider, opts Options) *Fetcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Fetcher{provider: provider, opts: opts}
}

// FetchAll requests every entry. The i-th result belongs to entries[i]. A failed
// series is logged and recorded in the report; only context cancellation returns an error.
func (f *Fetcher) FetchAll(ctx context.Context, entries []models.SeriesSpec) ([]models.FetchResult, models.FetchReport, error) {
	report := models.FetchReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Requested: len(entries),
	}
	logger.Info("Fetch run %s started for %d series", report.RunID, len(entries))

	results := make([]models.FetchResult, len(entries))
	var err error
	if f.opts.Workers == 1 {
		err = f.fetchSequential(ctx, entries, results)
	} else {
		err = f.fetchConcurrent(ctx, entries, results)
	}
	if err != nil {
		return nil, report, err
	}

	for _, r := range results {
		if r.OK() {
			report.Succeeded++
			continue
		}
		report.Failures = append(report.Failures, models.FetchFailure{
			SeriesID:    r.Spec.ID,
			DisplayName: r.Spec.DisplayName,
			Reason:      r.Err.Error(),
		})
	}
	report.FinishedAt = time.Now().UTC()

	logger.Info("Fetch run %s finished: %d/%d series in %v",
		report.RunID, report.Succeeded, report.Requested, report.Duration().Round(time.Millisecond))
	return results, report, nil
}

func (f *Fetcher) fetchSequential(ctx context.Context, entries []models.SeriesSpec, results []models.FetchResult) error {
	for i, spec := range entries {
		results[i] = f.fetchOne(ctx, spec)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fetcher) fetchConcurrent(ctx context.Context, entries []models.SeriesSpec, results []models.FetchResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)

	for i, spec := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = f.fetchOne(gctx, spec)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (f *Fetcher) fetchOne(ctx context.Context, spec models.SeriesSpec) models.FetchResult {
	obs, err := f.provider.FetchSeries(ctx, spec.ID, f.opts.Frequency, f.opts.Aggregation)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Failed to fetch %s (%s): %v", spec.ID, spec.DisplayName, err)
		}
		return models.FetchResult{
			Spec: spec,
			Err:  &models.FetchError{SeriesID: spec.ID, DisplayName: spec.DisplayName, Err: err},
		}
	}
	logger.Debug("Fetched %s (%s): %d observations", spec.ID, spec.DisplayName, len(obs))
	return models.FetchResult{Spec: spec, Observations: obs}
}
