package session

import (
	"sync"
	"sync/atomic"
)

// Mailbox is a single-slot, latest-value channel from a session to the
// shell. Put never blocks: an unread value is overwritten and counted as a
// drop. Intermediate progress values may therefore be skipped, but the most
// recent state is always delivered.
type Mailbox struct {
	mu     sync.Mutex
	value  State
	fresh  bool
	notify chan struct{}

	drops atomic.Uint64
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Put stores s, replacing any unread value.
func (m *Mailbox) Put(s State) {
	m.mu.Lock()
	if m.fresh {
		m.drops.Add(1)
	}
	m.value = s
	m.fresh = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// TryRecv returns the unread value, if any. It never blocks.
func (m *Mailbox) TryRecv() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.fresh {
		return State{}, false
	}
	m.fresh = false
	return m.value, true
}

// Notify is signalled after Put. Signals coalesce, so a receiver must drain
// with TryRecv after waking.
func (m *Mailbox) Notify() <-chan struct{} {
	return m.notify
}

// Drops counts values that were overwritten before being read.
func (m *Mailbox) Drops() uint64 {
	return m.drops.Load()
}

// Observer remembers the last state read from a mailbox so a polling shell
// always has something to render.
type Observer struct {
	mailbox *Mailbox
	current State
}

// NewObserver starts observing m from the Idle state.
func NewObserver(m *Mailbox) *Observer {
	return &Observer{mailbox: m}
}

// Poll returns the newest state, falling back to the last one seen. changed
// reports whether a new value was read.
func (o *Observer) Poll() (state State, changed bool) {
	if s, ok := o.mailbox.TryRecv(); ok {
		o.current = s
		return s, true
	}
	return o.current, false
}

// Current returns the last state seen without polling.
func (o *Observer) Current() State {
	return o.current
}
