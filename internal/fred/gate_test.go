package fred

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/macropanel/internal/models"
)

func TestNewGateRejectsShortInterval(t *testing.T) {
	_, err := NewGate(100 * time.Millisecond)
	var invalid *models.InvalidConfigError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "request_interval", invalid.Param)
}

func TestGateSpacesRequests(t *testing.T) {
	g, err := NewGate(MinRequestInterval)
	require.NoError(t, err)
	assert.Equal(t, MinRequestInterval, g.Interval())

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, g.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 2*MinRequestInterval-20*time.Millisecond)
}

func TestGateHonorsContext(t *testing.T) {
	g, err := NewGate(time.Hour)
	require.NoError(t, err)
	require.NoError(t, g.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, g.Wait(ctx))
}
