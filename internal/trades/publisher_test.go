package trades

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanyu/matching-engine/internal/domain"
)

func TestRecorder_EmissionOrder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Publish(ctx, &domain.Trade{ID: strconv.Itoa(i), Quantity: int64(i + 1)}))
	}

	trades := r.Trades()
	require.Len(t, trades, 3)
	assert.Equal(t, "0", trades[0].ID)
	assert.Equal(t, "2", trades[2].ID)
	assert.Equal(t, uint64(3), r.Total())
}

func TestRecorder_RingRotation(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	for i := 0; i < recorderCapacity+10; i++ {
		require.NoError(t, r.Publish(ctx, &domain.Trade{ID: strconv.Itoa(i)}))
	}

	trades := r.Trades()
	require.Len(t, trades, recorderCapacity)
	// Oldest surviving trade is the 11th published
	assert.Equal(t, "10", trades[0].ID)
	assert.Equal(t, uint64(recorderCapacity+10), r.Total())
}
