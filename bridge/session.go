package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"midi-bridge/debug"
	"midi-bridge/mapping"
	"midi-bridge/midi"
)

var (
	ErrTransport    = errors.New("midi transport failure")
	ErrPersist      = errors.New("persist settings")
	ErrNotConnected = errors.New("session not connected")
	ErrBusy         = errors.New("session is running")
)

// State of a bridge session
type State int

const (
	Idle State = iota
	Connected
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "idle"
	}
}

// Opener opens ports by name; *midi.Transport is one
type Opener interface {
	OpenInput(name string) (midi.InputPort, error)
	OpenOutput(name string) (midi.OutputPort, error)
}

// Stats counts what a session has done since it was created
type Stats struct {
	Received  uint64
	Forwarded uint64
	Dropped   uint64
}

// Session owns one input/output pair and the loop between them.
//
// The mapping is fixed for the length of a Run; SetMapping between runs
// swaps in a new snapshot. Only the running flag and the port handles are
// touched from outside the loop goroutine.
type Session struct {
	opener  Opener
	report  Reporter
	persist Persister

	mu       sync.Mutex
	state    State
	mapping  *mapping.Config
	in       midi.InputPort
	out      midi.OutputPort
	inName   string
	outName  string
	abortErr error

	running   atomic.Bool
	received  atomic.Uint64
	forwarded atomic.Uint64
	dropped   atomic.Uint64
}

// NewSession creates an idle session. A nil reporter discards everything.
func NewSession(opener Opener, cfg *mapping.Config, report Reporter) *Session {
	if report == nil {
		report = nopReporter{}
	}
	if cfg == nil {
		cfg = mapping.Default()
	}
	return &Session{
		opener:  opener,
		report:  report,
		mapping: cfg,
	}
}

// SetPersister sets what is called with the port names when a session ends
func (s *Session) SetPersister(p Persister) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = p
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ports returns the names of the connected ports, or the last ones used
func (s *Session) Ports() (input, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inName, s.outName
}

func (s *Session) Mapping() *mapping.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapping
}

// SetMapping swaps the snapshot used by the next Run
func (s *Session) SetMapping(cfg *mapping.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running || s.state == Stopping {
		return ErrBusy
	}
	s.mapping = cfg
	return nil
}

func (s *Session) Stats() Stats {
	return Stats{
		Received:  s.received.Load(),
		Forwarded: s.forwarded.Load(),
		Dropped:   s.dropped.Load(),
	}
}

// Connect opens both ports. Reconnecting while connected replaces the old
// pair; if either open fails nothing stays open and the session is idle.
func (s *Session) Connect(input, output string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Running, Stopping:
		return ErrBusy
	case Connected:
		s.closePortsLocked()
		s.state = Idle
	}

	in, err := s.opener.OpenInput(input)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	out, err := s.opener.OpenOutput(output)
	if err != nil {
		in.Close()
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	s.in, s.out = in, out
	s.inName, s.outName = input, output
	s.state = Connected
	debug.Log("bridge", "connected %q -> %q", input, output)
	s.report.Status(fmt.Sprintf("connected %s -> %s", input, output))
	return nil
}

// Disconnect closes the ports of a connected, not running session
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Running, Stopping:
		return ErrBusy
	case Connected:
		s.closePortsLocked()
		s.state = Idle
		s.report.Status("disconnected")
	}
	return nil
}

func (s *Session) closePortsLocked() {
	if s.in != nil {
		s.in.Close()
	}
	if s.out != nil {
		s.out.Close()
	}
	s.in, s.out = nil, nil
}

// Run forwards messages until Stop, Abort, ctx cancellation or a transport
// failure. It blocks; call it on its own goroutine. A clean stop returns nil.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Connected {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (%s)", ErrNotConnected, state)
	}
	in, out, cfg := s.in, s.out, s.mapping
	s.state = Running
	s.abortErr = nil
	s.running.Store(true)
	s.mu.Unlock()

	stopOnCancel := context.AfterFunc(ctx, s.Stop)
	defer stopOnCancel()

	debug.Log("bridge", "running %q -> %q with %d ranges", in.Name(), out.Name(), cfg.Len())
	s.report.Status(fmt.Sprintf("bridging %s -> %s", in.Name(), out.Name()))

	err := s.loop(in, out, cfg)
	s.finish(in, out)

	if err != nil {
		debug.Log("bridge", "session ended: %v", err)
		s.report.Error(err)
		s.report.Status("stopped: " + err.Error())
		return err
	}
	s.report.Status("stopped")
	return nil
}

func (s *Session) loop(in midi.InputPort, out midi.OutputPort, cfg *mapping.Config) error {
	for s.running.Load() {
		msg, err := in.Receive()
		if err != nil {
			if !s.running.Load() {
				break
			}
			return fmt.Errorf("%w: receive: %w", ErrTransport, err)
		}
		if !s.running.Load() {
			// stop was requested while we were blocked
			debug.Log("bridge", "discarding %s received after stop", midi.Describe(msg))
			break
		}

		s.received.Add(1)
		s.report.Received(msg)

		fwd, err := Transform(msg, cfg)
		if err != nil {
			s.dropped.Add(1)
			s.report.Error(err)
			continue
		}

		if err := out.Send(fwd); err != nil {
			if !s.running.Load() {
				break
			}
			return fmt.Errorf("%w: send: %w", ErrTransport, err)
		}
		s.forwarded.Add(1)
		s.report.Forwarded(msg, fwd)
		debug.LogEvery(100, "bridge", "forwarded %d", s.forwarded.Load())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abortErr
}

// finish closes both ports whatever happened and saves the port names
func (s *Session) finish(in midi.InputPort, out midi.OutputPort) {
	s.running.Store(false)
	in.Close()
	out.Close()

	s.mu.Lock()
	s.in, s.out = nil, nil
	s.state = Idle
	persist := s.persist
	inName, outName := s.inName, s.outName
	s.mu.Unlock()

	if persist != nil {
		if err := persist(inName, outName); err != nil {
			s.report.Error(fmt.Errorf("%w: %w", ErrPersist, err))
		}
	}
}

// RequestStop clears the running flag only. The loop notices on its next
// iteration, so a loop blocked in Receive keeps waiting for one more message,
// which is then discarded.
func (s *Session) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		s.state = Stopping
	}
	s.running.Store(false)
}

// Stop clears the running flag and closes the ports, which unblocks a pending
// Receive. On a connected session that never ran it just disconnects.
// Safe to call repeatedly and from any goroutine.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Running, Stopping:
		s.state = Stopping
		s.running.Store(false)
		// the loop goroutine owns the final cleanup; closing here only unblocks it
		if s.in != nil {
			s.in.Close()
		}
		if s.out != nil {
			s.out.Close()
		}
	case Connected:
		s.closePortsLocked()
		s.state = Idle
		s.report.Status("disconnected")
	}
}

// Abort ends a running session with err, e.g. when a port disappears.
// Run returns an error wrapping both ErrTransport and err.
func (s *Session) Abort(err error) {
	s.mu.Lock()
	if s.state == Running && s.abortErr == nil {
		s.abortErr = fmt.Errorf("%w: %w", ErrTransport, err)
	}
	connected := s.state == Connected
	s.mu.Unlock()

	if connected {
		s.report.Error(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	s.Stop()
}

// PortEvent aborts the session if ev removes one of its ports.
// Reports whether it did.
func (s *Session) PortEvent(ev midi.PortEvent) bool {
	if ev.Type != midi.PortRemoved {
		return false
	}
	s.mu.Lock()
	active := s.state == Running || s.state == Connected
	ours := (ev.Dir == midi.DirInput && ev.Name == s.inName) || (ev.Dir == midi.DirOutput && ev.Name == s.outName)
	s.mu.Unlock()
	if !active || !ours {
		return false
	}
	debug.Log("bridge", "%s port %q removed", ev.Dir, ev.Name)
	s.Abort(fmt.Errorf("%w: %s %q disappeared", midi.ErrPortNotFound, ev.Dir, ev.Name))
	return true
}
