package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumgrade/entropyval/internal/domain/model"
)

func testWindow() model.Window {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.Window{Start: start, End: start.Add(time.Hour)}
}

func TestPlanChunks(t *testing.T) {
	t.Parallel()

	t.Run("no boundaries yields a single chunk spanning the window", func(t *testing.T) {
		t.Parallel()

		window := testWindow()
		plan, err := PlanChunks(window, nil)

		require.NoError(t, err)
		require.Equal(t, 1, plan.TotalChunks())
		assert.Equal(t, 0, plan.Chunks[0].Index)
		assert.Nil(t, plan.Chunks[0].From)
		assert.Nil(t, plan.Chunks[0].To)
	})

	t.Run("boundaries split the stream into contiguous chunks", func(t *testing.T) {
		t.Parallel()

		window := testWindow()
		boundaries := []model.EventCursor{
			{ReceivedAt: window.Start.Add(20 * time.Minute), Sequence: 1000},
			{ReceivedAt: window.Start.Add(40 * time.Minute), Sequence: 2000},
		}

		plan, err := PlanChunks(window, boundaries)

		require.NoError(t, err)
		require.Equal(t, 3, plan.TotalChunks())

		// Chunks must tile the stream exactly: each starts where the previous
		// ended, the first at the window start, the last runs to the end.
		var prev *model.EventCursor
		for i, chunk := range plan.Chunks {
			assert.Equal(t, i, chunk.Index)
			assert.Equal(t, prev, chunk.From)
			prev = chunk.To
		}
		assert.Nil(t, plan.Chunks[len(plan.Chunks)-1].To)
		require.NotNil(t, plan.Chunks[0].To)
		assert.Equal(t, boundaries[0], *plan.Chunks[0].To)
	})

	t.Run("splits between events sharing one reception timestamp", func(t *testing.T) {
		t.Parallel()

		// A bursty gateway flush can stamp a whole group of events with the
		// same server_received_at; sequence numbers keep the cursors distinct
		// so the chunk size bound still holds.
		window := testWindow()
		tied := window.Start.Add(30 * time.Minute)
		boundaries := []model.EventCursor{
			{ReceivedAt: tied, Sequence: 100},
			{ReceivedAt: tied, Sequence: 200},
			{ReceivedAt: tied, Sequence: 300},
		}

		plan, err := PlanChunks(window, boundaries)

		require.NoError(t, err)
		require.Equal(t, 4, plan.TotalChunks())
		assert.Equal(t, int64(100), plan.Chunks[0].To.Sequence)
		assert.Equal(t, int64(200), plan.Chunks[1].To.Sequence)
		assert.Equal(t, int64(300), plan.Chunks[2].To.Sequence)
		assert.Equal(t, int64(300), plan.Chunks[3].From.Sequence)
	})

	t.Run("allows a boundary at the window start timestamp", func(t *testing.T) {
		t.Parallel()

		// When the whole stride-sized group shares the first timestamp of the
		// window, the split point legitimately carries that timestamp.
		window := testWindow()
		boundaries := []model.EventCursor{
			{ReceivedAt: window.Start, Sequence: 512},
		}

		plan, err := PlanChunks(window, boundaries)

		require.NoError(t, err)
		require.Equal(t, 2, plan.TotalChunks())
	})

	t.Run("rejects boundaries outside the window", func(t *testing.T) {
		t.Parallel()

		window := testWindow()

		_, err := PlanChunks(window, []model.EventCursor{{ReceivedAt: window.End, Sequence: 1}})
		require.Error(t, err)

		_, err = PlanChunks(window, []model.EventCursor{{ReceivedAt: window.Start.Add(-time.Minute), Sequence: 1}})
		require.Error(t, err)
	})

	t.Run("rejects non-increasing boundaries", func(t *testing.T) {
		t.Parallel()

		window := testWindow()
		b := model.EventCursor{ReceivedAt: window.Start.Add(30 * time.Minute), Sequence: 10}

		_, err := PlanChunks(window, []model.EventCursor{b, b})
		require.Error(t, err)

		earlier := model.EventCursor{ReceivedAt: b.ReceivedAt, Sequence: 9}
		_, err = PlanChunks(window, []model.EventCursor{b, earlier})
		require.Error(t, err)
	})

	t.Run("rejects an invalid window", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		_, err := PlanChunks(model.Window{Start: start, End: start}, nil)
		require.Error(t, err)

		_, err = PlanChunks(model.Window{}, nil)
		require.Error(t, err)
	})
}

func TestEventCursor_Before(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, model.EventCursor{ReceivedAt: at, Sequence: 1}.
		Before(model.EventCursor{ReceivedAt: at, Sequence: 2}))
	assert.True(t, model.EventCursor{ReceivedAt: at, Sequence: 9}.
		Before(model.EventCursor{ReceivedAt: at.Add(time.Millisecond), Sequence: 1}))
	assert.False(t, model.EventCursor{ReceivedAt: at, Sequence: 2}.
		Before(model.EventCursor{ReceivedAt: at, Sequence: 2}))
	assert.False(t, model.EventCursor{ReceivedAt: at, Sequence: 3}.
		Before(model.EventCursor{ReceivedAt: at, Sequence: 2}))
}

func TestBoundaryStride(t *testing.T) {
	t.Parallel()

	stride, err := BoundaryStride(100000)
	require.NoError(t, err)
	assert.Equal(t, 100000, stride)

	_, err = BoundaryStride(0)
	require.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = BoundaryStride(-5)
	require.ErrorIs(t, err, ErrInvalidChunkSize)
}
