package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown converts help markdown to terminal output. Without color the
// "notty" style is used so the text is still reflowed. Falls back to the raw
// input if glamour fails.
func Markdown(md string, width int, color bool) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	style := glamour.WithAutoStyle()
	if !color {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
