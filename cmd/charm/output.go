package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	ipStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666"))

	mnemonicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	declStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	commentStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#666666"))
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorEnabled reports whether output goes to a terminal and color was
// not disabled by flag, config or NO_COLOR.
func (a *app) colorEnabled() bool {
	if a.v.GetBool("no-color") || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := a.out.(*os.File)
	return ok && isTerminal(f)
}

// highlight colors rendered class text line by line: instruction pointers
// and mnemonics in disassembly lines, declarations and the source comment.
func highlight(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = highlightLine(line)
	}
	return strings.Join(lines, "\n")
}

func highlightLine(line string) string {
	body := strings.TrimLeft(line, " ")
	if body == "" || body == "}" {
		return line
	}
	indent := line[:len(line)-len(body)]

	switch {
	case strings.HasPrefix(body, "#"):
		fields := strings.Fields(body)
		ip := fields[0]
		rest := body[len(ip):]
		if len(fields) > 1 {
			rest = strings.Replace(rest, fields[1], mnemonicStyle.Render(fields[1]), 1)
		}
		return indent + ipStyle.Render(ip) + rest
	case strings.HasPrefix(body, "/**"):
		return indent + commentStyle.Render(body)
	default:
		return indent + declStyle.Render(body)
	}
}
