package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxLatestValueWins(t *testing.T) {
	m := NewMailbox()

	_, ok := m.TryRecv()
	require.False(t, ok)

	m.Put(encoding(0.1))
	m.Put(encoding(0.5))
	m.Put(encoding(0.9))

	s, ok := m.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 0.9, s.Progress)
	assert.Equal(t, uint64(2), m.Drops())

	_, ok = m.TryRecv()
	assert.False(t, ok, "a value is delivered once")
}

func TestMailboxNotifyCoalesces(t *testing.T) {
	m := NewMailbox()
	m.Put(recording())
	m.Put(encoding(0))

	select {
	case <-m.Notify():
	default:
		t.Fatal("expected a notification")
	}
	select {
	case <-m.Notify():
		t.Fatal("notifications should coalesce")
	default:
	}
}

func TestMailboxConcurrentPut(t *testing.T) {
	m := NewMailbox()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Put(countdown(j))
				m.TryRecv()
			}
		}()
	}
	wg.Wait()
}

func TestObserverKeepsLastState(t *testing.T) {
	m := NewMailbox()
	o := NewObserver(m)

	s, changed := o.Poll()
	assert.False(t, changed)
	assert.Equal(t, PhaseIdle, s.Phase)

	m.Put(countdown(2))
	s, changed = o.Poll()
	assert.True(t, changed)
	assert.Equal(t, 2, s.Remaining)

	s, changed = o.Poll()
	assert.False(t, changed)
	assert.Equal(t, PhaseCountdown, s.Phase)
	assert.Equal(t, s, o.Current())
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{idle(nil), "Idle"},
		{idle(errors.New("disk full")), "Idle (failed: disk full)"},
		{countdown(3), "Recording in 3..."},
		{recording(), "Recording..."},
		{converting(0.5), "Converting (this may take a while)...  50%"},
		{encoding(1), "Encoding (this may take a while)... 100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
	assert.False(t, idle(nil).Busy())
	assert.True(t, recording().Busy())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
