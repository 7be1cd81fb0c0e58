package preview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	statStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Render returns the diff followed by the stat block, colored when color is
// set.
func (p *Preview) Render(color bool) string {
	if !color {
		return p.Text() + p.Stat()
	}
	return Colorize(p.Text()) + statStyle.Render(strings.TrimSuffix(p.Stat(), "\n")) + "\n"
}

// Colorize styles each line of a unified diff by its marker.
func Colorize(diff string) string {
	if diff == "" {
		return ""
	}

	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		sb.WriteString(styleFor(line).Render(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

func styleFor(line string) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return headerStyle
	case strings.HasPrefix(line, "@@"):
		return hunkStyle
	case strings.HasPrefix(line, "+"):
		return addedStyle
	case strings.HasPrefix(line, "-"):
		return removedStyle
	default:
		return contextStyle
	}
}
