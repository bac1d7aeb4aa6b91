package tui

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-bridge/midi"
)

type fakeLister struct {
	ins, outs []string
	err       error
}

func (l fakeLister) Ports() ([]string, []string, error) { return l.ins, l.outs, l.err }

type fakeIn struct {
	name string
	msgs chan gomidi.Message

	once sync.Once
	done chan struct{}
}

func (f *fakeIn) Name() string { return f.name }

func (f *fakeIn) Receive() (gomidi.Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-f.done:
		return nil, midi.ErrPortClosed
	}
}

func (f *fakeIn) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

type fakeOut struct{ name string }

func (f *fakeOut) Name() string                  { return f.name }
func (f *fakeOut) Send(msg gomidi.Message) error { return nil }
func (f *fakeOut) Close() error                  { return nil }

// fakeOpener hands out fresh ports for any name it knows
type fakeOpener struct {
	known map[string]bool
}

func (o fakeOpener) OpenInput(name string) (midi.InputPort, error) {
	if !o.known[name] {
		return nil, fmt.Errorf("%w: %q", midi.ErrPortNotFound, name)
	}
	return &fakeIn{name: name, msgs: make(chan gomidi.Message), done: make(chan struct{})}, nil
}

func (o fakeOpener) OpenOutput(name string) (midi.OutputPort, error) {
	if !o.known[name] {
		return nil, fmt.Errorf("%w: %q", midi.ErrPortNotFound, name)
	}
	return &fakeOut{name: name}, nil
}
