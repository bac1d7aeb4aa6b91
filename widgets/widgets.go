package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyLine packs bindings onto one line: "r:refresh  c:connect"
func RenderKeyLine(keys []KeyBinding) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Key + ":" + k.Desc
	}
	return strings.Join(parts, "  ")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// List is a titled picker. Selected is an index into Items, -1 for none.
type List struct {
	Title    string
	Items    []string
	Selected int
	Focused  bool
	Cursor   rune
	Empty    string // shown when Items is empty
	Width    int
}

// Render draws the list; the selected row gets the cursor and the style
func (l List) Render(title, selected, normal lipgloss.Style) string {
	var lines []string
	lines = append(lines, title.Render(l.Title))

	if len(l.Items) == 0 {
		lines = append(lines, normal.Render("  "+l.Empty))
	}
	for i, item := range l.Items {
		if l.Width > 0 && len(item) > l.Width {
			item = item[:l.Width-1] + "…"
		}
		if i == l.Selected {
			marker := " "
			if l.Focused {
				marker = string(l.Cursor)
			}
			lines = append(lines, selected.Render(marker+" "+item))
			continue
		}
		lines = append(lines, normal.Render("  "+item))
	}
	return strings.Join(lines, "\n")
}

// RenderTable lays rows out in left-aligned columns
func RenderTable(header []string, rows [][]string, headerStyle, rowStyle lipgloss.Style) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	format := func(cells []string) string {
		var b strings.Builder
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
			}
		}
		return b.String()
	}

	lines := []string{headerStyle.Render(format(header))}
	for _, row := range rows {
		lines = append(lines, rowStyle.Render(format(row)))
	}
	return strings.Join(lines, "\n")
}
