package theme

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Log pane
	Received  rune // › message in from the controller
	Forwarded rune // » message out to the host
	Error     rune // ✗ dropped message or session error
	Status    rune // · status line

	// Header
	Running rune // ● bridge running
	Stopped rune // ○ bridge idle

	// Pickers
	Cursor rune // ▸ focused row
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Received:  '›',
			Forwarded: '»',
			Error:     '✗',
			Status:    '·',

			Running: '●',
			Stopped: '○',

			Cursor: '▸',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleSurface = 0.1 // dark purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleCursor  = 0.6 // rose pink
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

func (t *Theme) role(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

func (t *Theme) BG() lipgloss.Color      { return t.role(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.role(RoleSurface) }
func (t *Theme) FG() lipgloss.Color      { return t.role(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.role(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.role(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.role(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.role(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.role(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.role(RoleSuccess) }

// Color returns the palette color at any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return t.role(norm)
}
