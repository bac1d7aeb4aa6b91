package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-bridge/bridge"
	"midi-bridge/theme"
)

// Printer is the headless bridge.Reporter: one styled line per event
type Printer struct {
	mu  sync.Mutex
	w   io.Writer
	sym theme.Symbols

	normal lipgloss.Style
	dim    lipgloss.Style
	status lipgloss.Style
	fail   lipgloss.Style
}

var _ bridge.Reporter = (*Printer)(nil)

func NewPrinter(w io.Writer, th *theme.Theme) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		sym:    th.Symbols,
		normal: r.NewStyle().Foreground(th.FG()),
		dim:    r.NewStyle().Foreground(th.Muted()),
		status: r.NewStyle().Foreground(th.Accent()),
		fail:   r.NewStyle().Foreground(th.Warning()),
	}
}

func (p *Printer) Received(msg gomidi.Message)            { p.print(receivedEntry(msg)) }
func (p *Printer) Forwarded(before, after gomidi.Message) { p.print(forwardedEntry(before, after)) }
func (p *Printer) Error(err error)                        { p.print(errorEntry(err)) }
func (p *Printer) Status(text string)                     { p.print(statusEntry(text)) }

func (p *Printer) print(e LogEntry) {
	style := p.normal
	switch e.Kind {
	case KindDropped:
		style = p.dim
	case KindError:
		style = p.fail
	case KindStatus:
		style = p.status
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s %s\n", e.At.Format("15:04:05.000"), style.Render(e.Line(p.sym)))
}
