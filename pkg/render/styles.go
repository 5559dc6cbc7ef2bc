// Package render turns command output into terminal text: outcome and prompt
// styles, pretty-printed JSON, aligned tables and markdown help.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color modes accepted by configuration.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

// Styles holds every style the shell prints with. The zero value renders
// plain text.
type Styles struct {
	Prompt     lipgloss.Style
	SideEffect lipgloss.Style
	Failed     lipgloss.Style
	NoProgress lipgloss.Style
	Usage      lipgloss.Style
	NotFound   lipgloss.Style
	Notice     lipgloss.Style

	color bool
}

// ColorEnabled resolves a color mode against the writer the shell prints to.
// "auto" honours NO_COLOR / CLICOLOR_FORCE and falls back to plain text when w
// is not a terminal.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return termenv.NewOutput(w).EnvColorProfile() != termenv.Ascii
}

// NewStyles builds the style set bound to w.
func NewStyles(w io.Writer, color bool) Styles {
	r := lipgloss.NewRenderer(w)
	switch {
	case !color:
		r.SetColorProfile(termenv.Ascii)
	case r.ColorProfile() == termenv.Ascii:
		// forced color on a non-terminal writer
		r.SetColorProfile(termenv.ANSI256)
	}

	return Styles{
		Prompt:     r.NewStyle().Bold(true).Faint(true),
		SideEffect: r.NewStyle().Bold(true).Foreground(colorGreen),
		Failed:     r.NewStyle().Bold(true).Foreground(colorRed),
		NoProgress: r.NewStyle().Foreground(colorBlue),
		Usage:      r.NewStyle().Foreground(colorYellow),
		NotFound:   r.NewStyle().Foreground(colorDim),
		Notice:     r.NewStyle().Foreground(colorCyan),
		color:      color,
	}
}

// Color reports whether the styles emit ANSI sequences.
func (s Styles) Color() bool {
	return s.color
}
