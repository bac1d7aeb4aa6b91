package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"midi-bridge/bridge"
	"midi-bridge/config"
	"midi-bridge/debug"
	"midi-bridge/mapping"
	"midi-bridge/midi"
	"midi-bridge/theme"
	"midi-bridge/widgets"
)

type focus int

const (
	focusInput focus = iota
	focusOutput
	focusMapping
	numFocus
)

// Model is the bridge control panel: two port pickers, the mapping table and
// the traffic log.
type Model struct {
	Lister    midi.Lister
	Session   *bridge.Session
	Sink      *Sink
	Watcher   *midi.PortWatcher // optional
	Theme     *theme.Theme
	Settings  *config.Settings
	ConfigDir string

	ins, outs     []string
	inSel, outSel int
	rangeSel      int
	focus         focus
	loaded        bool // first port scan done, settings applied

	log     []LogEntry
	running chan struct{} // closed when the current Run returns; nil when idle

	width, height int
	showHelp      bool
	quitting      bool
}

// PortsMsg carries the result of a port scan
type PortsMsg struct {
	Ins, Outs []string
	Err       error
}

type PortEventMsg midi.PortEvent

// BridgeStoppedMsg is sent when a session Run returns
type BridgeStoppedMsg struct {
	Err error
}

func NewModel(lister midi.Lister, session *bridge.Session, sink *Sink, th *theme.Theme, settings *config.Settings, dir string) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return Model{
		Lister:    lister,
		Session:   session,
		Sink:      sink,
		Theme:     th,
		Settings:  settings,
		ConfigDir: dir,
		inSel:     -1,
		outSel:    -1,
	}
}

func RefreshPorts(l midi.Lister) tea.Cmd {
	return func() tea.Msg {
		ins, outs, err := l.Ports()
		return PortsMsg{Ins: ins, Outs: outs, Err: err}
	}
}

func ListenForPorts(w *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-w.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(ev)
	}
}

// RunBridge runs the session until it stops; done is closed afterwards
func RunBridge(s *bridge.Session, done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		defer close(done)
		return BridgeStoppedMsg{Err: s.Run(context.Background())}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{RefreshPorts(m.Lister), ListenForLog(m.Sink)}
	if m.Watcher != nil {
		cmds = append(cmds, ListenForPorts(m.Watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case PortsMsg:
		if msg.Err != nil {
			m.addLog(errorEntry(fmt.Errorf("list ports: %w", msg.Err)))
			return m, nil
		}
		m.setPorts(msg.Ins, msg.Outs)

	case PortEventMsg:
		ev := midi.PortEvent(msg)
		m.addLog(statusEntry(fmt.Sprintf("%s port %s: %s", ev.Dir, ev.Type, ev.Name)))
		m.Session.PortEvent(ev)
		return m, tea.Batch(RefreshPorts(m.Lister), ListenForPorts(m.Watcher))

	case LogMsg:
		m.addLog(LogEntry(msg))
		return m, ListenForLog(m.Sink)

	case BridgeStoppedMsg:
		m.running = nil
		debug.Log("tui", "bridge stopped: %v", msg.Err)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.quit()
		return m, tea.Quit

	case "r":
		return m, RefreshPorts(m.Lister)

	case "tab":
		m.focus = (m.focus + 1) % numFocus

	case "shift+tab":
		m.focus = (m.focus + numFocus - 1) % numFocus

	case "up", "k":
		m.move(-1)

	case "down", "j":
		m.move(1)

	case "[":
		m.rangeSel = clamp(m.rangeSel-1, m.Session.Mapping().Len())

	case "]":
		m.rangeSel = clamp(m.rangeSel+1, m.Session.Mapping().Len())

	case "+", "=":
		m.adjustOffset(1)

	case "-", "_":
		m.adjustOffset(-1)

	case "c":
		m.connect()

	case " ", "s":
		return m.toggle()

	case "x":
		m.log = nil

	case "?":
		m.showHelp = !m.showHelp

	case "w":
		m.save()
	}
	return m, nil
}

func (m *Model) quit() {
	if m.running != nil {
		m.Session.Stop()
		select {
		case <-m.running:
		case <-time.After(2 * time.Second):
			debug.Log("tui", "bridge did not stop before quit")
		}
		return
	}
	m.Session.Stop()
	if in, out := m.selected(); in != "" || out != "" {
		if err := config.SavePorts(m.ConfigDir, in, out); err != nil {
			debug.Log("tui", "save ports on quit: %v", err)
		}
	}
}

func (m *Model) setPorts(ins, outs []string) {
	prevIn, prevOut := m.selected()
	if !m.loaded {
		prevIn, prevOut = m.Settings.InputPort, m.Settings.OutputPort
		m.loaded = true
	}
	m.ins, m.outs = ins, outs
	m.inSel = indexOf(config.PickPort(prevIn, ins), ins)
	m.outSel = indexOf(config.PickPort(prevOut, outs), outs)
	if m.inSel < 0 && len(ins) > 0 {
		m.inSel = 0
	}
	if m.outSel < 0 && len(outs) > 0 {
		m.outSel = 0
	}
}

func (m Model) selected() (in, out string) {
	if m.inSel >= 0 && m.inSel < len(m.ins) {
		in = m.ins[m.inSel]
	}
	if m.outSel >= 0 && m.outSel < len(m.outs) {
		out = m.outs[m.outSel]
	}
	return in, out
}

func (m *Model) move(d int) {
	switch m.focus {
	case focusInput:
		m.inSel = clamp(m.inSel+d, len(m.ins))
	case focusOutput:
		m.outSel = clamp(m.outSel+d, len(m.outs))
	case focusMapping:
		m.rangeSel = clamp(m.rangeSel+d, m.Session.Mapping().Len())
	}
}

func (m *Model) connect() bool {
	in, out := m.selected()
	if in == "" || out == "" {
		m.addLog(errorEntry(errors.New("select an input and an output port first")))
		return false
	}
	if err := m.Session.Connect(in, out); err != nil {
		m.addLog(errorEntry(err))
		return false
	}
	return true
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	if m.running != nil {
		m.Session.Stop()
		return m, nil
	}
	if m.Session.State() != bridge.Connected && !m.connect() {
		return m, nil
	}
	m.running = make(chan struct{})
	return m, RunBridge(m.Session, m.running)
}

func (m *Model) adjustOffset(d int) {
	cfg := m.Session.Mapping()
	ranges := cfg.Ranges()
	if len(ranges) == 0 {
		return
	}
	r := ranges[clamp(m.rangeSel, len(ranges))]
	r.Offset += d

	next, err := cfg.With(r)
	if err != nil {
		m.addLog(errorEntry(err))
		return
	}
	if err := m.Session.SetMapping(next); err != nil {
		m.addLog(errorEntry(fmt.Errorf("stop the bridge to edit the mapping: %w", err)))
		return
	}
	m.addLog(statusEntry("mapping " + r.String()))
}

func (m *Model) save() {
	path := m.Settings.MappingPath(m.ConfigDir)
	if err := mapping.Save(m.Session.Mapping(), path); err != nil {
		m.addLog(errorEntry(err))
		return
	}
	in, out := m.selected()
	if err := config.SavePorts(m.ConfigDir, in, out); err != nil {
		m.addLog(errorEntry(err))
		return
	}
	m.addLog(statusEntry("saved " + path))
}

func (m *Model) addLog(e LogEntry) {
	m.log = append(m.log, e)
	if limit := m.Settings.UI.LogLines; limit > 0 && len(m.log) > limit {
		m.log = append([]LogEntry(nil), m.log[len(m.log)-limit:]...)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.BG()).Background(m.Theme.Cursor()).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	okStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())

	// Header
	state := m.Session.State()
	mark, stateStyle := m.Theme.Symbols.Stopped, headerStyle
	if state == bridge.Running {
		mark, stateStyle = m.Theme.Symbols.Running, headerStyle.Foreground(m.Theme.Active())
	}
	in, out := m.Session.Ports()
	stats := m.Session.Stats()
	header := stateStyle.Render(fmt.Sprintf("midi-bridge  %c %-9s %s -> %s  rx:%d fwd:%d drop:%d",
		mark, state, orDash(in), orDash(out), stats.Received, stats.Forwarded, stats.Dropped))

	// Port pickers
	inList := widgets.List{Title: "Input", Items: m.ins, Selected: m.inSel, Focused: m.focus == focusInput,
		Cursor: m.Theme.Symbols.Cursor, Empty: "(no ports)", Width: 32}
	outList := widgets.List{Title: "Output", Items: m.outs, Selected: m.outSel, Focused: m.focus == focusOutput,
		Cursor: m.Theme.Symbols.Cursor, Empty: "(no ports)", Width: 32}
	pickers := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(36).Render(inList.Render(headerStyle, cursorStyle, fgStyle)),
		outList.Render(headerStyle, cursorStyle, fgStyle),
	)

	// Mapping table
	cfg := m.Session.Mapping()
	var rows [][]string
	for i, r := range cfg.Ranges() {
		marker := " "
		if i == m.rangeSel {
			marker = string(m.Theme.Symbols.Cursor)
		}
		rows = append(rows, []string{
			marker + " " + r.Name,
			fmt.Sprintf("%d-%d", r.Start, r.End),
			fmt.Sprintf("%+d", r.Offset),
			fmt.Sprintf("%d-%d", r.HostStart(), r.HostEnd()),
		})
	}
	table := widgets.RenderTable([]string{"  range", "device", "offset", "host"}, rows, dimStyle, fgStyle)
	if m.focus == focusMapping {
		table = headerStyle.Render("Mapping") + "\n" + table
	} else {
		table = dimStyle.Render("Mapping") + "\n" + table
	}
	for _, o := range cfg.Overlaps() {
		table += "\n" + warnStyle.Render("  overlap: "+o.String())
	}

	// Log
	var lines []string
	for _, e := range m.tail(m.logHeight()) {
		line := e.Line(m.Theme.Symbols)
		switch e.Kind {
		case KindDropped:
			line = dimStyle.Render(line)
		case KindError:
			line = warnStyle.Render(line)
		case KindForwarded:
			line = okStyle.Render(line)
		default:
			line = fgStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if n := m.Sink.Dropped(); n > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("(%d log lines skipped)", n)))
	}

	body := strings.Join(lines, "\n")
	if m.showHelp {
		body = fgStyle.Render(widgets.RenderKeyHelp(helpSections))
	}
	help := dimStyle.Background(m.Theme.Surface()).Render(widgets.RenderKeyLine(helpLine))

	return "\n" + header + "\n\n" + pickers + "\n\n" + table + "\n\n" + body + "\n\n" + help
}

var helpLine = []widgets.KeyBinding{
	{Key: "tab", Desc: "focus"},
	{Key: "c", Desc: "connect"},
	{Key: "space", Desc: "start/stop"},
	{Key: "+/-", Desc: "offset"},
	{Key: "?", Desc: "help"},
	{Key: "q", Desc: "quit"},
}

var helpSections = []widgets.KeySection{
	{Title: "Ports", Keys: []widgets.KeyBinding{
		{Key: "tab", Desc: "switch between input, output and mapping"},
		{Key: "j/k", Desc: "move the selection"},
		{Key: "r", Desc: "rescan ports"},
		{Key: "c", Desc: "connect the selected pair"},
	}},
	{Title: "Bridge", Keys: []widgets.KeyBinding{
		{Key: "space / s", Desc: "start or stop forwarding"},
		{Key: "x", Desc: "clear the log"},
	}},
	{Title: "Mapping", Keys: []widgets.KeyBinding{
		{Key: "[ / ]", Desc: "select a range"},
		{Key: "+ / -", Desc: "shift its offset (bridge stopped)"},
		{Key: "w", Desc: "save mapping and ports"},
	}},
	{Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "toggle this help"},
		{Key: "q", Desc: "quit"},
	}},
}

func (m Model) logHeight() int {
	if m.height == 0 {
		return 12
	}
	// header, pickers, table and help take roughly this much
	used := 12 + max(len(m.ins), len(m.outs)) + m.Session.Mapping().Len()
	return max(m.height-used, 3)
}

func (m Model) tail(n int) []LogEntry {
	if len(m.log) <= n {
		return m.log
	}
	return m.log[len(m.log)-n:]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func indexOf(s string, list []string) int {
	if s == "" {
		return -1
	}
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func clamp(i, n int) int {
	if n == 0 {
		return -1
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
