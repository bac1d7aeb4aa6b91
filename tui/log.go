package tui

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-bridge/bridge"
	"midi-bridge/midi"
	"midi-bridge/theme"
)

// LogKind says what a log line is about
type LogKind int

const (
	KindStatus LogKind = iota
	KindReceived
	KindForwarded
	KindDropped
	KindError
)

// LogEntry is one line of bridge activity
type LogEntry struct {
	Kind LogKind
	Text string
	At   time.Time
}

// Line renders the entry with its symbol, without styling
func (e LogEntry) Line(sym theme.Symbols) string {
	var r rune
	switch e.Kind {
	case KindReceived:
		r = sym.Received
	case KindForwarded:
		r = sym.Forwarded
	case KindDropped, KindError:
		r = sym.Error
	default:
		r = sym.Status
	}
	return fmt.Sprintf("%c %s", r, e.Text)
}

func receivedEntry(msg gomidi.Message) LogEntry {
	return LogEntry{Kind: KindReceived, Text: "Received: " + midi.Describe(msg), At: time.Now()}
}

func forwardedEntry(before, after gomidi.Message) LogEntry {
	return LogEntry{Kind: KindForwarded, Text: "Transformed: " + midi.DescribeChange(before, after), At: time.Now()}
}

func errorEntry(err error) LogEntry {
	if errors.Is(err, bridge.ErrTransform) {
		return LogEntry{Kind: KindDropped, Text: "Dropped: " + err.Error(), At: time.Now()}
	}
	return LogEntry{Kind: KindError, Text: "Error: " + err.Error(), At: time.Now()}
}

func statusEntry(text string) LogEntry {
	return LogEntry{Kind: KindStatus, Text: text, At: time.Now()}
}

// Sink is a bridge.Reporter feeding the TUI. Traffic and error lines wait
// briefly for room in a full buffer before they are counted as dropped.
// Status lines never wait: they are reported under the session lock,
// sometimes from the UI goroutine that drains the sink.
type Sink struct {
	ch      chan LogEntry
	wait    time.Duration
	dropped atomic.Uint64
}

var _ bridge.Reporter = (*Sink)(nil)

func NewSink(size int) *Sink {
	return &Sink{ch: make(chan LogEntry, size), wait: 100 * time.Millisecond}
}

func (s *Sink) Received(msg gomidi.Message)            { s.send(receivedEntry(msg)) }
func (s *Sink) Forwarded(before, after gomidi.Message) { s.send(forwardedEntry(before, after)) }
func (s *Sink) Error(err error)                        { s.send(errorEntry(err)) }
func (s *Sink) Status(text string)                     { s.push(statusEntry(text)) }

// push never blocks
func (s *Sink) push(e LogEntry) {
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
}

// send blocks for at most s.wait
func (s *Sink) send(e LogEntry) {
	select {
	case s.ch <- e:
		return
	default:
	}

	timer := time.NewTimer(s.wait)
	defer timer.Stop()
	select {
	case s.ch <- e:
	case <-timer.C:
		s.dropped.Add(1)
	}
}

// Entries is the channel the UI drains
func (s *Sink) Entries() <-chan LogEntry {
	return s.ch
}

// Dropped counts lines lost to a full buffer
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

type LogMsg LogEntry

func ListenForLog(sink *Sink) tea.Cmd {
	return func() tea.Msg {
		return LogMsg(<-sink.Entries())
	}
}
