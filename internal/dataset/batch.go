package dataset

import (
	"iter"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rewired-gh/macropanel/internal/models"
)

// BatchSource yields fixed-size row batches over one partition. The final batch
// of a pass may be shorter. Shuffled sources draw a new row order on every pass.
type BatchSource struct {
	data      *mat.Dense
	batchSize int
	shuffle   bool
	rng       *rand.Rand
}

// NewBatchSource wraps data. A zero seed seeds the shuffler from the clock.
func NewBatchSource(data *mat.Dense, batchSize int, shuffle bool, seed uint64) (*BatchSource, error) {
	if batchSize <= 0 {
		return nil, &models.InvalidConfigError{Param: "batch_size", Value: batchSize, Reason: "must be positive"}
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &BatchSource{
		data:      data,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Len returns the number of rows.
func (b *BatchSource) Len() int {
	r, _ := b.data.Dims()
	return r
}

// Dims returns the partition shape.
func (b *BatchSource) Dims() (rows, cols int) {
	return b.data.Dims()
}

// BatchSize returns the configured batch size.
func (b *BatchSource) BatchSize() int {
	return b.batchSize
}

// NumBatches returns the number of batches per pass.
func (b *BatchSource) NumBatches() int {
	return (b.Len() + b.batchSize - 1) / b.batchSize
}

// Shuffled reports whether row order is randomized per pass.
func (b *BatchSource) Shuffled() bool {
	return b.shuffle
}

// Data exposes the partition. Callers must not modify it.
func (b *BatchSource) Data() mat.Matrix {
	return b.data
}

func (b *BatchSource) order() []int {
	n := b.Len()
	if b.shuffle {
		return b.rng.Perm(n)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// Batches returns one pass over the partition. Each range over the returned
// sequence is a new pass.
func (b *BatchSource) Batches() iter.Seq[*mat.Dense] {
	return func(yield func(*mat.Dense) bool) {
		order := b.order()
		_, cols := b.data.Dims()
		for start := 0; start < len(order); start += b.batchSize {
			end := min(start+b.batchSize, len(order))
			batch := mat.NewDense(end-start, cols, nil)
			for i, r := range order[start:end] {
				batch.SetRow(i, b.data.RawRowView(r))
			}
			if !yield(batch) {
				return
			}
		}
	}
}
