package midi

import (
	"context"
	"sort"
	"sync"
	"time"

	"midi-bridge/debug"
)

// PortDir says whether a port is an input or an output
type PortDir int

const (
	DirInput PortDir = iota
	DirOutput
)

func (d PortDir) String() string {
	if d == DirOutput {
		return "output"
	}
	return "input"
}

// PortEvent is emitted when a port appears or disappears
type PortEvent struct {
	Type PortEventType
	Dir  PortDir
	Name string
}

type PortEventType int

const (
	PortAdded PortEventType = iota
	PortRemoved
)

func (t PortEventType) String() string {
	if t == PortRemoved {
		return "removed"
	}
	return "added"
}

// Lister is anything that can enumerate ports; *Transport is one
type Lister interface {
	Ports() (ins, outs []string, err error)
}

type portKey struct {
	dir  PortDir
	name string
}

// PortWatcher handles hot-plug detection by polling the port lists
type PortWatcher struct {
	lister   Lister
	known    map[portKey]bool
	mu       sync.RWMutex
	events   chan PortEvent
	pollRate time.Duration
}

// NewPortWatcher creates a watcher polling once a second
func NewPortWatcher(l Lister) *PortWatcher {
	return &PortWatcher{
		lister:   l,
		known:    make(map[portKey]bool),
		events:   make(chan PortEvent, 16),
		pollRate: time.Second,
	}
}

// SetPollRate changes the polling interval; call before Run
func (w *PortWatcher) SetPollRate(d time.Duration) {
	w.pollRate = d
}

// Events returns a channel of port add/remove events. It is closed when Run returns.
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Snapshot returns the ports seen by the last scan, sorted
func (w *PortWatcher) Snapshot() (ins, outs []string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for k := range w.known {
		if k.dir == DirInput {
			ins = append(ins, k.name)
		} else {
			outs = append(outs, k.name)
		}
	}
	sort.Strings(ins)
	sort.Strings(outs)
	return ins, outs
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	// Initial scan
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *PortWatcher) scan(ctx context.Context) {
	ins, outs, err := w.lister.Ports()
	if err != nil {
		// a hung or failing driver skips this round
		debug.Log("watch", "scan: %v", err)
		return
	}

	seen := make(map[portKey]bool, len(ins)+len(outs))
	for _, n := range ins {
		seen[portKey{DirInput, n}] = true
	}
	for _, n := range outs {
		seen[portKey{DirOutput, n}] = true
	}

	var events []PortEvent

	w.mu.Lock()
	for k := range seen {
		if !w.known[k] {
			events = append(events, PortEvent{Type: PortAdded, Dir: k.dir, Name: k.name})
		}
	}
	for k := range w.known {
		if !seen[k] {
			events = append(events, PortEvent{Type: PortRemoved, Dir: k.dir, Name: k.name})
		}
	}
	w.known = seen
	w.mu.Unlock()

	sort.Slice(events, func(i, j int) bool {
		if events[i].Type != events[j].Type {
			return events[i].Type > events[j].Type // removals first
		}
		if events[i].Dir != events[j].Dir {
			return events[i].Dir < events[j].Dir
		}
		return events[i].Name < events[j].Name
	})

	for _, ev := range events {
		debug.Log("watch", "%s %s %q", ev.Type, ev.Dir, ev.Name)
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

