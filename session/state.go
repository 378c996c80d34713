package session

import "fmt"

// Phase is the externally visible stage of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseRecording
	PhaseConverting
	PhaseEncoding
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseRecording:
		return "recording"
	case PhaseConverting:
		return "converting"
	case PhaseEncoding:
		return "encoding"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is one progress report. Remaining is set for PhaseCountdown,
// Progress (0..1) for PhaseConverting and PhaseEncoding, and Err only on the
// Idle that ends a failed session.
type State struct {
	Phase     Phase
	Remaining int
	Progress  float64
	Err       error
}

func idle(err error) State {
	return State{Phase: PhaseIdle, Err: err}
}

func countdown(remaining int) State {
	return State{Phase: PhaseCountdown, Remaining: remaining}
}

func recording() State {
	return State{Phase: PhaseRecording}
}

func converting(progress float64) State {
	return State{Phase: PhaseConverting, Progress: progress}
}

func encoding(progress float64) State {
	return State{Phase: PhaseEncoding, Progress: progress}
}

// Busy reports whether a session is in flight.
func (s State) Busy() bool {
	return s.Phase != PhaseIdle
}

// String renders the status line shown by the shell.
func (s State) String() string {
	switch s.Phase {
	case PhaseIdle:
		if s.Err != nil {
			return fmt.Sprintf("Idle (failed: %v)", s.Err)
		}
		return "Idle"
	case PhaseCountdown:
		return fmt.Sprintf("Recording in %d...", s.Remaining)
	case PhaseRecording:
		return "Recording..."
	case PhaseConverting:
		return fmt.Sprintf("Converting (this may take a while)... %3.0f%%", s.Progress*100)
	case PhaseEncoding:
		return fmt.Sprintf("Encoding (this may take a while)... %3.0f%%", s.Progress*100)
	default:
		return s.Phase.String()
	}
}
