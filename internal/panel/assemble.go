package panel

import (
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/macropanel/internal/models"
)

// Assemble merges successful fetch results into one date-indexed panel.
// Columns follow declared catalog position, not arrival order; failed results are skipped.
// Dates are the union over all series; a date a series lacks is missing in its column.
func Assemble(results []models.FetchResult) (*Panel, error) {
	ordered := make([]models.FetchResult, 0, len(results))
	for _, r := range results {
		if r.OK() {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Spec.Position < ordered[j].Spec.Position
	})

	seen := make(map[string]struct{})
	for _, r := range ordered {
		for _, o := range r.Observations {
			seen[o.Date.Format(DateLayout)] = struct{}{}
		}
	}
	index := make([]string, 0, len(seen))
	for d := range seen {
		index = append(index, d)
	}
	sort.Strings(index)

	row := make(map[string]int, len(index))
	for i, d := range index {
		row[d] = i
	}

	p := New(index)
	for _, r := range ordered {
		values := make([]float64, len(index))
		for i := range values {
			values[i] = math.NaN()
		}
		for _, o := range r.Observations {
			values[row[o.Date.Format(DateLayout)]] = o.Value
		}
		if err := p.AddNumeric(r.Spec.DisplayName, values); err != nil {
			return nil, fmt.Errorf("failed to add series %s: %w", r.Spec.ID, err)
		}
	}
	return p, nil
}
