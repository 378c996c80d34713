package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"

	"go2tv.app/clipper/session"
)

const shellTick = 50 * time.Millisecond

// shell drives one session from the terminal. It polls the controller's
// mailbox and never blocks the session goroutine.
type shell struct {
	ctrl *session.Controller
	out  io.Writer
	tty  bool
	tick time.Duration
}

func newShell(ctrl *session.Controller, out io.Writer, tty bool) *shell {
	return &shell{ctrl: ctrl, out: out, tty: tty, tick: shellTick}
}

// run starts req and renders state until the session ends. Enter or the
// first interrupt stops a recording; an interrupt outside recording, or a
// second one, cancels.
func (s *shell) run(req session.Request, enter <-chan struct{}, interrupts <-chan os.Signal) (session.Result, error) {
	if err := s.ctrl.Start(req); err != nil {
		return session.Result{}, err
	}
	observer := session.NewObserver(s.ctrl.Mailbox())
	done := s.ctrl.Done()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	interrupted := false
	lastPhase := session.Phase(-1)
	render := func() {
		state, changed := observer.Poll()
		if !changed {
			return
		}
		switch {
		case s.tty:
			fmt.Fprintf(s.out, "\r\033[K%s", state)
		case state.Phase != lastPhase:
			fmt.Fprintln(s.out, state)
		}
		lastPhase = state.Phase
	}

	for {
		select {
		case <-done:
			render()
			if s.tty {
				fmt.Fprintln(s.out)
			}
			return s.ctrl.LastResult(), nil
		case <-ticker.C:
			render()
		case <-enter:
			s.ctrl.Stop()
		case <-interrupts:
			if interrupted || !s.ctrl.Stop() {
				s.ctrl.Cancel()
			}
			interrupted = true
		}
	}
}

// watchEnter signals once per line read from r. EOF closes nothing, so a
// non-interactive stdin never stops a session.
func watchEnter(r io.Reader) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		reader := bufio.NewReader(r)
		for {
			if _, err := reader.ReadString('\n'); err != nil {
				return
			}
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	return ch
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func summaryFields(res session.Result) []field {
	status := "saved"
	if res.Err != nil {
		status = "failed: " + res.Err.Error()
	}
	return []field{
		{"Session", res.ID},
		{"Mode", res.Mode.String()},
		{"Output", res.Path},
		{"Status", status},
		{"Frames", fmt.Sprintf("%d written, %d captured, %d dropped", res.Encoded, res.Captured, res.Evicted)},
		{"Size", strconv.Itoa(res.Width) + "x" + strconv.Itoa(res.Height)},
		{"Frame delay", res.Delay.String()},
		{"Recorded", res.Elapsed.Round(time.Millisecond).String()},
	}
}
