package widgets

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

var plain = lipgloss.NewStyle()

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Ports", Keys: []KeyBinding{{"r", "refresh"}, {"c", "connect"}}},
	})
	assert.Equal(t, "Ports\n  r            refresh\n  c            connect", out)
}

func TestRenderKeyLine(t *testing.T) {
	out := RenderKeyLine([]KeyBinding{{"r", "refresh"}, {"q", "quit"}})
	assert.Equal(t, "r:refresh  q:quit", out)
}

func TestListRender(t *testing.T) {
	l := List{Title: "Input", Items: []string{"Pad", "Keys"}, Selected: 1, Focused: true, Cursor: '>'}
	assert.Equal(t, "Input\n  Pad\n> Keys", l.Render(plain, plain, plain))

	l.Focused = false
	assert.Equal(t, "Input\n  Pad\n  Keys", l.Render(plain, plain, plain))

	empty := List{Title: "Output", Selected: -1, Empty: "(no ports)"}
	assert.Equal(t, "Output\n  (no ports)", empty.Render(plain, plain, plain))
}

func TestListTruncates(t *testing.T) {
	l := List{Title: "In", Items: []string{"abcdefgh"}, Selected: -1, Width: 5}
	assert.Equal(t, "In\n  abcd…", l.Render(plain, plain, plain))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"name", "device"},
		[][]string{{"faders", "1-8"}, {"b", "33-40"}},
		plain, plain,
	)
	assert.Equal(t, "name    device\nfaders  1-8\nb       33-40", out)
}
