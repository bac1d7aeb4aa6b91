package bridge

import (
	"errors"
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-bridge/midi"
)

type fakeInput struct {
	name string
	msgs chan gomidi.Message
	errs chan error

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	// ignoreClose keeps Receive blocked after Close, like a driver that
	// cannot be interrupted
	ignoreClose bool
}

func newFakeInput(name string) *fakeInput {
	return &fakeInput{
		name: name,
		msgs: make(chan gomidi.Message),
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}
}

func (f *fakeInput) Name() string { return f.name }

func (f *fakeInput) Receive() (gomidi.Message, error) {
	done := f.done
	if f.ignoreClose {
		done = nil
	}
	select {
	case m := <-f.msgs:
		return m, nil
	case err := <-f.errs:
		return nil, err
	case <-done:
		return nil, midi.ErrPortClosed
	}
}

func (f *fakeInput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

func (f *fakeInput) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeOutput struct {
	name string

	mu      sync.Mutex
	closed  bool
	sent    []gomidi.Message
	sendErr error
}

func (f *fakeOutput) Name() string { return f.name }

func (f *fakeOutput) Send(msg gomidi.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return midi.ErrPortClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeOutput) messages() []gomidi.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gomidi.Message(nil), f.sent...)
}

func (f *fakeOutput) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeOpener struct {
	in     *fakeInput
	out    *fakeOutput
	inErr  error
	outErr error
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		in:  newFakeInput("Controller"),
		out: &fakeOutput{name: "Host"},
	}
}

func (o *fakeOpener) OpenInput(name string) (midi.InputPort, error) {
	if o.inErr != nil {
		return nil, o.inErr
	}
	if name != o.in.name {
		return nil, fmt.Errorf("%w: %q", midi.ErrPortNotFound, name)
	}
	return o.in, nil
}

func (o *fakeOpener) OpenOutput(name string) (midi.OutputPort, error) {
	if o.outErr != nil {
		return nil, o.outErr
	}
	if name != o.out.name {
		return nil, fmt.Errorf("%w: %q", midi.ErrPortNotFound, name)
	}
	return o.out, nil
}

// recorder is a Reporter that keeps every call in order
type recorder struct {
	mu     sync.Mutex
	events []string
	errs   []error
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) Received(msg gomidi.Message) {
	r.add("recv " + midi.Describe(msg))
}

func (r *recorder) Forwarded(before, after gomidi.Message) {
	r.add("fwd " + midi.Describe(after))
}

func (r *recorder) Error(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.add("error")
}

func (r *recorder) Status(text string) {
	r.add("status " + text)
}

func (r *recorder) snapshot() ([]string, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...), append([]error(nil), r.errs...)
}

// traffic keeps only recv/fwd/error lines
func (r *recorder) traffic() []string {
	events, _ := r.snapshot()
	var out []string
	for _, e := range events {
		if len(e) >= 6 && e[:6] == "status" {
			continue
		}
		out = append(out, e)
	}
	return out
}

var errUnplugged = errors.New("device unplugged")
