package midi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"midi-bridge/debug"
)

var (
	ErrNoDriver     = errors.New("no midi driver registered")
	ErrPortNotFound = errors.New("midi port not found")
	ErrPortClosed   = errors.New("midi port closed")
	ErrScanTimeout  = errors.New("midi port scan timed out")
)

// InputPort is an open MIDI input. Receive blocks until a message arrives
// or the port is closed.
type InputPort interface {
	Name() string
	Receive() (gomidi.Message, error)
	Close() error
}

// OutputPort is an open MIDI output
type OutputPort interface {
	Name() string
	Send(msg gomidi.Message) error
	Close() error
}

// Transport lists and opens ports on a gomidi driver
type Transport struct {
	drv         drivers.Driver
	scanTimeout time.Duration

	mu   sync.Mutex
	scan *portScan // driver scan still running, shared by all callers
}

type portScan struct {
	done chan struct{}
	ins  []drivers.In
	outs []drivers.Out
	err  error
}

// NewTransport wraps a driver
func NewTransport(drv drivers.Driver) *Transport {
	return &Transport{drv: drv, scanTimeout: 3 * time.Second}
}

// DefaultTransport uses the first registered driver (import rtmididrv to register one)
func DefaultTransport() (*Transport, error) {
	drv := drivers.Get()
	if drv == nil {
		return nil, ErrNoDriver
	}
	return NewTransport(drv), nil
}

func (t *Transport) String() string {
	return t.drv.String()
}

// Ports returns input and output port names. The scan runs with a timeout
// because CoreMIDI can hang. While a hung scan is still running, later calls
// wait on it instead of starting another.
func (t *Transport) Ports() (ins, outs []string, err error) {
	t.mu.Lock()
	sc := t.scan
	if sc == nil {
		sc = &portScan{done: make(chan struct{})}
		t.scan = sc
		go t.runScan(sc)
	}
	t.mu.Unlock()

	select {
	case <-sc.done:
		if sc.err != nil {
			return nil, nil, sc.err
		}
		for _, p := range sc.ins {
			ins = append(ins, p.String())
		}
		for _, p := range sc.outs {
			outs = append(outs, p.String())
		}
		return ins, outs, nil
	case <-time.After(t.scanTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		debug.Log("midi", "port scan still running after %s", t.scanTimeout)
		return nil, nil, ErrScanTimeout
	}
}

func (t *Transport) runScan(sc *portScan) {
	sc.ins, sc.err = t.drv.Ins()
	if sc.err == nil {
		sc.outs, sc.err = t.drv.Outs()
	}

	t.mu.Lock()
	t.scan = nil
	t.mu.Unlock()
	close(sc.done)
}

// InputPorts lists input port names
func (t *Transport) InputPorts() ([]string, error) {
	ins, _, err := t.Ports()
	return ins, err
}

// OutputPorts lists output port names
func (t *Transport) OutputPorts() ([]string, error) {
	_, outs, err := t.Ports()
	return outs, err
}

// OpenInput opens the input port with the exact name
func (t *Transport) OpenInput(name string) (InputPort, error) {
	ins, err := t.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	for _, p := range ins {
		if p.String() == name {
			return newInput(p)
		}
	}
	return nil, fmt.Errorf("%w: input %q", ErrPortNotFound, name)
}

// OpenOutput opens the output port with the exact name
func (t *Transport) OpenOutput(name string) (OutputPort, error) {
	outs, err := t.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	for _, p := range outs {
		if p.String() == name {
			return newOutput(p)
		}
	}
	return nil, fmt.Errorf("%w: output %q", ErrPortNotFound, name)
}

// Input turns gomidi's callback delivery into a blocking Receive.
// The hand-off channel is unbuffered so order is kept and nothing is dropped;
// Close releases both a waiting Receive and a waiting driver callback.
type Input struct {
	port drivers.In
	stop func()

	msgs chan gomidi.Message
	errs chan error
	done chan struct{}

	closeOnce sync.Once
}

func newInput(port drivers.In) (*Input, error) {
	in := &Input{
		port: port,
		msgs: make(chan gomidi.Message),
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}

	stop, err := gomidi.ListenTo(port, in.deliver, gomidi.UseSysEx(), gomidi.UseTimeCode(), gomidi.HandleError(in.fail))
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", port.String(), err)
	}
	in.stop = stop
	debug.Log("midi", "opened input %q", port.String())
	return in, nil
}

func (in *Input) Name() string {
	return in.port.String()
}

func (in *Input) deliver(msg gomidi.Message, timestampms int32) {
	m := make(gomidi.Message, len(msg))
	copy(m, msg)
	select {
	case in.msgs <- m:
	case <-in.done:
	}
}

func (in *Input) fail(err error) {
	select {
	case in.errs <- fmt.Errorf("input %q: %w", in.Name(), err):
	default:
	}
}

// Receive blocks for the next message. After Close it returns ErrPortClosed.
func (in *Input) Receive() (gomidi.Message, error) {
	select {
	case <-in.done:
		return nil, ErrPortClosed
	default:
	}

	select {
	case m := <-in.msgs:
		return m, nil
	case err := <-in.errs:
		return nil, err
	case <-in.done:
		return nil, ErrPortClosed
	}
}

// Close is safe to call more than once and from any goroutine
func (in *Input) Close() error {
	var err error
	in.closeOnce.Do(func() {
		close(in.done)
		if in.stop != nil {
			in.stop()
		}
		err = in.port.Close()
		debug.Log("midi", "closed input %q", in.Name())
	})
	return err
}

// Output serialises sends to one port
type Output struct {
	port drivers.Out
	send func(msg gomidi.Message) error

	mu     sync.Mutex
	closed bool
}

func newOutput(port drivers.Out) (*Output, error) {
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", port.String(), err)
	}
	debug.Log("midi", "opened output %q", port.String())
	return &Output{port: port, send: send}, nil
}

func (o *Output) Name() string {
	return o.port.String()
}

func (o *Output) Send(msg gomidi.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrPortClosed
	}
	if err := o.send(msg); err != nil {
		return fmt.Errorf("send to %q: %w", o.Name(), err)
	}
	return nil
}

// Close is safe to call more than once
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	debug.Log("midi", "closed output %q", o.Name())
	return o.port.Close()
}
