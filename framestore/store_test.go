package framestore

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/clipper/capture"
)

func labeled(seq uint64) capture.Frame {
	return capture.Frame{Pix: []byte{byte(seq), 0, 0, 0}, Width: 1, Height: 1, Seq: seq}
}

func seqs(frames []capture.Frame) []uint64 {
	out := make([]uint64, len(frames))
	for i, f := range frames {
		out[i] = f.Seq
	}
	return out
}

func TestSlidingWindowKeepsNewest(t *testing.T) {
	// window_seconds=1, fps=3 -> capacity 3; A..E -> C, D, E.
	s, err := New(SlidingWindow(1, 3))
	require.NoError(t, err)
	require.Equal(t, 3, s.Cap())

	for seq := uint64(1); seq <= 5; seq++ {
		evicted, err := s.Append(labeled(seq))
		require.NoError(t, err)
		assert.Equal(t, seq > 3, evicted, "frame %d", seq)
		assert.LessOrEqual(t, s.Len(), s.Cap())
	}
	assert.Equal(t, 2, s.Evicted())

	frames, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4, 5}, seqs(frames))
}

func TestSlidingBoundHoldsForAllInsertCounts(t *testing.T) {
	for capacity := 1; capacity <= 5; capacity++ {
		for inserts := 0; inserts <= 3*capacity+1; inserts++ {
			s, err := New(Sliding(capacity))
			require.NoError(t, err)
			for seq := 1; seq <= inserts; seq++ {
				_, err := s.Append(labeled(uint64(seq)))
				require.NoError(t, err)
				require.LessOrEqual(t, s.Len(), capacity)
			}

			frames, err := s.Snapshot()
			require.NoError(t, err)
			want := []uint64{}
			for seq := max(1, inserts-capacity+1); seq <= inserts; seq++ {
				want = append(want, uint64(seq))
			}
			assert.Equal(t, want, seqs(frames), "capacity=%d inserts=%d", capacity, inserts)
		}
	}
}

func TestSlidingHugeWindowDoesNotPreallocate(t *testing.T) {
	s, err := New(SlidingWindow(100_000_000, 15))
	require.NoError(t, err)
	assert.Equal(t, 1_500_000_000, s.Cap())
	assert.LessOrEqual(t, cap(s.frames), maxPresize)

	for i := uint64(1); i <= 3; i++ {
		evicted, err := s.Append(labeled(i))
		require.NoError(t, err)
		assert.False(t, evicted)
	}
	out, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, seqs(out))
}

func TestSlidingGrowsPastPresizeBeforeEvicting(t *testing.T) {
	capacity := maxPresize + 2
	s, err := New(Sliding(capacity))
	require.NoError(t, err)

	total := capacity + 3
	evictions := 0
	for i := 1; i <= total; i++ {
		evicted, err := s.Append(labeled(uint64(i)))
		require.NoError(t, err)
		if evicted {
			evictions++
		}
	}
	assert.Equal(t, 3, evictions)
	assert.Equal(t, capacity, s.Len())

	out, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, out, capacity)
	assert.Equal(t, uint64(4), out[0].Seq)
	assert.Equal(t, uint64(total), out[len(out)-1].Seq)
}

func TestFixedIsUnbounded(t *testing.T) {
	s, err := New(Fixed(2))
	require.NoError(t, err)
	for seq := uint64(1); seq <= 10; seq++ {
		evicted, err := s.Append(labeled(seq))
		require.NoError(t, err)
		assert.False(t, evicted)
	}
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, 0, s.Cap())

	frames, err := s.Snapshot()
	require.NoError(t, err)
	assert.Len(t, frames, 10)
	assert.Equal(t, uint64(1), frames[0].Seq)
}

func TestSnapshotFreezes(t *testing.T) {
	s, err := New(Sliding(2))
	require.NoError(t, err)
	_, _ = s.Append(labeled(1))

	frames, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, s.Frozen())
	assert.Equal(t, 0, s.Len())

	_, err = s.Append(labeled(2))
	require.ErrorIs(t, err, ErrFrozen)
	_, err = s.Snapshot()
	require.ErrorIs(t, err, ErrFrozen)
	assert.Equal(t, uint64(1), frames[0].Seq)
}

func TestSnapshotRacesWithAppend(t *testing.T) {
	s, err := New(Sliding(8))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	appended := 0
	go func() {
		defer wg.Done()
		for seq := uint64(1); ; seq++ {
			if _, err := s.Append(labeled(seq)); err != nil {
				return
			}
			appended++
		}
	}()
	for s.Len() < 8 {
		runtime.Gosched()
	}
	frames, err := s.Snapshot()
	require.NoError(t, err)
	wg.Wait()

	require.Len(t, frames, 8)
	for i := 1; i < len(frames); i++ {
		assert.Equal(t, frames[i-1].Seq+1, frames[i].Seq)
	}
	assert.Equal(t, uint64(appended), frames[len(frames)-1].Seq)
}

func TestNewRejectsBadPolicy(t *testing.T) {
	_, err := New(Sliding(0))
	require.Error(t, err)
	_, err = New(Fixed(-1))
	require.Error(t, err)
	_, err = New(Policy{Kind: Kind(7)})
	require.Error(t, err)
}
