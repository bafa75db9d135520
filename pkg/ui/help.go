package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
)

const helpIntro = `# chartpin

Move the pointer along the scatter points. The tooltip follows it until a
point is **selected**; from then on it stays on that point, whatever the
pointer does, until the selection is cleared. Selecting another point moves
the tooltip to the new one.

Exports (png/svg) show the same tooltip the screen shows.
`

// helpMarkdown renders the intro plus a key table for km.
func helpMarkdown(km keyMap) string {
	var b strings.Builder
	b.WriteString(helpIntro)
	b.WriteString("\n## Keys\n\n| Key | Action |\n|---|---|\n")
	for _, group := range km.FullHelp() {
		for _, k := range group {
			writeHelpRow(&b, k)
		}
	}
	return b.String()
}

func writeHelpRow(b *strings.Builder, k key.Binding) {
	h := k.Help()
	b.WriteString("| `")
	b.WriteString(h.Key)
	b.WriteString("` | ")
	b.WriteString(h.Desc)
	b.WriteString(" |\n")
}

// renderHelp renders the help markdown for the given width. Rendering
// errors fall back to the raw markdown.
func renderHelp(km keyMap, width int) string {
	md := helpMarkdown(km)
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
