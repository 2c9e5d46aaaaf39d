// Owns the engine subprocess: spawns it, speaks the UCI handshake, forwards
// commands to stdin, streams decoded output events, and restarts after a
// crash. Nothing else in the app touches the process directly.

package app

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// procHandles abstracts the spawned process so tests can script engine
// output through pipes instead of a real binary.
type procHandles struct {
	in   io.WriteCloser
	out  io.Reader
	wait func() error
	kill func() error
}

type launchFunc func() (*procHandles, error)

// Supervisor state machine: starting -> ready -> crashed -> (backoff) ->
// starting, or ready -> stopped on Close. A restart is a fresh start; queued
// work is never replayed.
type Supervisor struct {
	launch  launchFunc
	backoff time.Duration
	log     zerolog.Logger

	events chan engineEvent

	// set once before Start; invoked without the lock held
	onReady      func()
	onTerminated func()

	mu     sync.Mutex
	in     *bufio.Writer
	kill   func() error
	ready  bool
	closed bool
	gen    int // bumped on every exit so stale loops can't double-fire
}

func NewSupervisor(path string, backoff time.Duration, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		launch:  launchProcess(path),
		backoff: backoff,
		log:     logger.With().Str("component", "supervisor").Logger(),
		events:  make(chan engineEvent, 256),
	}
}

// SetHooks registers the queue's ready/terminated notifications. Must be
// called before Start.
func (s *Supervisor) SetHooks(onReady, onTerminated func()) {
	s.onReady = onReady
	s.onTerminated = onTerminated
}

// Events is the stream of decoded post-handshake engine output. Strictly
// ordered as the engine produced it.
func (s *Supervisor) Events() <-chan engineEvent {
	return s.events
}

func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Start spawns the engine and completes the protocol handshake. A failure
// here is surfaced to the caller; only crashes after a successful start are
// retried automatically.
func (s *Supervisor) Start() error {
	return s.spawn()
}

// Write sends command lines to the engine. Immediate local failure when the
// engine is not ready; never silently dropped.
func (s *Supervisor) Write(lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return ErrEngineUnavailable
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(s.in, line); err != nil {
			return fmt.Errorf("write to engine: %w", err)
		}
	}
	return s.in.Flush()
}

// Close shuts the engine down for good. Sends quit, then kills after a short
// grace period. No restart follows.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.ready {
		_, _ = fmt.Fprintln(s.in, "quit")
		_ = s.in.Flush()
	}
	s.ready = false
	kill := s.kill
	s.mu.Unlock()

	if kill != nil {
		time.Sleep(200 * time.Millisecond)
		_ = kill()
	}
	return nil
}

func (s *Supervisor) spawn() error {
	h, err := s.launch()
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	in := bufio.NewWriter(h.in)
	out := bufio.NewScanner(h.out)
	out.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Handshake: "uci" -> "uciok", then "isready" -> "readyok".
	if err := sendLine(in, encodeHandshake()); err != nil {
		_ = h.kill()
		_ = h.wait()
		return err
	}
	if !scanUntil(out, eventUCIOk) {
		_ = h.kill()
		_ = h.wait()
		return fmt.Errorf("engine exited before uciok: %w", ErrProtocol)
	}
	if err := sendLine(in, encodeReadyProbe()); err != nil {
		_ = h.kill()
		_ = h.wait()
		return err
	}
	if !scanUntil(out, eventReadyOk) {
		_ = h.kill()
		_ = h.wait()
		return fmt.Errorf("engine exited before readyok: %w", ErrProtocol)
	}
	// fresh process, fresh search state
	if err := sendLine(in, encodeNewGame()); err != nil {
		_ = h.kill()
		_ = h.wait()
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = h.kill()
		_ = h.wait()
		return ErrEngineUnavailable
	}
	s.in = in
	s.kill = h.kill
	s.ready = true
	gen := s.gen
	s.mu.Unlock()

	s.log.Info().Msg("engine ready")
	go s.readLoop(out, h.wait, gen)

	if s.onReady != nil {
		s.onReady()
	}
	return nil
}

// readLoop drains the subprocess output continuously so handshake and stray
// lines are never lost. EOF means the process is gone.
func (s *Supervisor) readLoop(out *bufio.Scanner, wait func() error, gen int) {
	for out.Scan() {
		ev := decodeLine(out.Text())
		if ev.Kind == eventUnknown {
			continue
		}
		select {
		case s.events <- ev:
		default:
			// nobody is waiting for this conversation anymore
			s.log.Debug().Str("move", ev.Move).Msg("dropping stale engine event")
		}
	}
	err := wait()
	s.handleExit(gen, err)
}

func (s *Supervisor) handleExit(gen int, err error) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.ready = false
	s.mu.Unlock()

	s.log.Warn().Err(err).Msg("engine process terminated, scheduling restart")
	if s.onTerminated != nil {
		s.onTerminated()
	}
	go s.restartLoop()
}

func (s *Supervisor) restartLoop() {
	for {
		time.Sleep(s.backoff)

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		err := s.spawn()
		if err == nil {
			return
		}
		s.log.Error().Err(err).Dur("backoff", s.backoff).Msg("engine restart failed, retrying")
	}
}

func sendLine(in *bufio.Writer, line string) error {
	if _, err := fmt.Fprintln(in, line); err != nil {
		return fmt.Errorf("write to engine: %w", err)
	}
	return in.Flush()
}

func scanUntil(out *bufio.Scanner, kind eventKind) bool {
	for out.Scan() {
		if decodeLine(out.Text()).Kind == kind {
			return true
		}
	}
	return false
}

func launchProcess(path string) launchFunc {
	return func() (*procHandles, error) {
		cmd := exec.Command(path)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		cmd.Stderr = io.Discard
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return &procHandles{
			in:   stdin,
			out:  stdout,
			wait: cmd.Wait,
			kill: func() error {
				if cmd.Process == nil {
					return nil
				}
				return cmd.Process.Kill()
			},
		}, nil
	}
}
