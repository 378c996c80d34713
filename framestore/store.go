// Package framestore holds the raw frames of one recording session.
//
// A Store runs under one of two admission policies. Fixed stores grow without
// bound for the length of a time-boxed recording; sliding stores keep only
// the most recent Cap frames and evict the oldest on overflow. Snapshot moves
// the frames out and freezes the store in one step, so a capture loop racing
// with the snapshot can neither add to nor evict from the captured sequence.
package framestore

import (
	"errors"
	"fmt"
	"sync"

	"go2tv.app/clipper/capture"
)

// ErrFrozen is returned by Append and Snapshot once Snapshot has been taken.
var ErrFrozen = errors.New("frame store is frozen")

// Kind names an admission policy.
type Kind int

const (
	KindFixed Kind = iota
	KindSliding
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindSliding:
		return "sliding"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Policy bounds a Store.
type Policy struct {
	Kind Kind
	// Capacity is a hard bound for sliding stores and a pre-size hint for
	// fixed stores.
	Capacity int
}

// Fixed returns an unbounded policy pre-sized for hint frames.
func Fixed(hint int) Policy {
	return Policy{Kind: KindFixed, Capacity: hint}
}

// Sliding returns a policy retaining the newest capacity frames.
func Sliding(capacity int) Policy {
	return Policy{Kind: KindSliding, Capacity: capacity}
}

// SlidingWindow sizes a sliding policy as seconds × fps.
func SlidingWindow(seconds, fps int) Policy {
	return Sliding(seconds * fps)
}

// Store is safe for one writer and any number of concurrent readers.
type Store struct {
	policy Policy

	mu      sync.Mutex
	frames  []capture.Frame
	head    int
	evicted int
	frozen  bool
}

// New returns an empty store. Sliding policies need a positive capacity.
func New(policy Policy) (*Store, error) {
	if policy.Capacity < 0 {
		return nil, fmt.Errorf("frame store capacity %d is negative", policy.Capacity)
	}
	if policy.Kind == KindSliding && policy.Capacity == 0 {
		return nil, errors.New("sliding frame store needs a positive capacity")
	}
	s := &Store{policy: policy}
	switch policy.Kind {
	case KindSliding, KindFixed:
		s.frames = make([]capture.Frame, 0, min(policy.Capacity, maxPresize))
	default:
		return nil, fmt.Errorf("unknown frame store policy %v", policy.Kind)
	}
	return s, nil
}

// maxPresize caps the initial allocation. Sliding stores grow by append up to
// Capacity before the ring starts overwriting.
const maxPresize = 4096

// Append admits f. For sliding stores it reports whether the oldest frame
// was evicted to make room.
func (s *Store) Append(f capture.Frame) (evicted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return false, ErrFrozen
	}
	if s.policy.Kind == KindSliding && len(s.frames) == s.policy.Capacity {
		// Ring buffer: overwrite the oldest slot and advance head.
		s.frames[s.head] = f
		s.head = (s.head + 1) % s.policy.Capacity
		s.evicted++
		return true, nil
	}
	s.frames = append(s.frames, f)
	return false, nil
}

// Len returns the number of frames currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Cap returns the sliding capacity, or 0 for fixed stores.
func (s *Store) Cap() int {
	if s.policy.Kind == KindSliding {
		return s.policy.Capacity
	}
	return 0
}

// Evicted returns how many frames the sliding window has dropped.
func (s *Store) Evicted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evicted
}

func (s *Store) Policy() Policy {
	return s.policy
}

// Frozen reports whether Snapshot has been taken.
func (s *Store) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

// Snapshot freezes the store and moves its frames out in capture order. The
// store keeps no reference to the returned slice. A second call returns
// ErrFrozen.
func (s *Store) Snapshot() ([]capture.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return nil, ErrFrozen
	}
	s.frozen = true

	out := make([]capture.Frame, 0, len(s.frames))
	out = append(out, s.frames[s.head:]...)
	out = append(out, s.frames[:s.head]...)
	s.frames = nil
	s.head = 0
	return out, nil
}
