package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/charm"
	"github.com/wippyai/charm/ast"
	charmerrors "github.com/wippyai/charm/errors"
	"github.com/wippyai/charm/printer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <class-or-file>",
		Short: "Browse a class's members and method bodies interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return charmerrors.InvalidInput(charmerrors.PhaseLoad, "browse requires a terminal")
			}
			l := a.loader()
			defer l.close()
			load := func() (*ast.Class, error) {
				data, err := l.load(args[0])
				if err != nil {
					return nil, err
				}
				return charm.DecodeBytes(data)
			}
			p := tea.NewProgram(newBrowseModel(args[0], load), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
}

type browseState int

const (
	stateSelectMember browseState = iota
	stateFilter
	stateShowCode
)

// member is one selectable row: a field declaration or a method whose
// body is shown in the viewport.
type member struct {
	label string
	body  string
}

type browseModel struct {
	err      error
	load     func() (*ast.Class, error)
	class    *ast.Class
	name     string
	members  []member
	visible  []int
	filter   textinput.Model
	code     viewport.Model
	selected int
	state    browseState
}

type classLoadedMsg struct {
	err   error
	class *ast.Class
}

func newBrowseModel(name string, load func() (*ast.Class, error)) *browseModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter members"
	ti.Width = 40
	return &browseModel{
		name:   name,
		load:   load,
		filter: ti,
		code:   viewport.New(80, 20),
		state:  stateSelectMember,
	}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadClass
}

func (m *browseModel) loadClass() tea.Msg {
	cls, err := m.load()
	return classLoadedMsg{class: cls, err: err}
}

func classMembers(c *ast.Class) []member {
	var out []member
	for _, f := range c.Fields {
		decl := printer.FieldDeclaration(f)
		out = append(out, member{label: decl, body: decl})
	}
	for _, meth := range c.Methods {
		out = append(out, member{label: printer.Signature(meth), body: printer.Method(meth)})
	}
	return out
}

// applyFilter keeps the members whose label contains the filter text,
// ignoring case.
func (m *browseModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, mem := range m.members {
		if q == "" || strings.Contains(strings.ToLower(mem.label), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case classLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.class = msg.class
		m.members = classMembers(msg.class)
		m.applyFilter()
		return m, nil

	case tea.WindowSizeMsg:
		m.code.Width = msg.Width
		m.code.Height = max(msg.Height-4, 1)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateFilter:
			return m.updateFilter(msg)
		case stateShowCode:
			return m.updateCode(msg)
		}
		return m.updateSelect(msg)
	}
	return m, nil
}

func (m *browseModel) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.visible)-1 {
			m.selected++
		}
	case "/":
		if m.class != nil {
			m.state = stateFilter
			return m, m.filter.Focus()
		}
	case "enter":
		if len(m.visible) > 0 {
			m.state = stateShowCode
			m.code.SetContent(m.members[m.visible[m.selected]].body)
			m.code.GotoTop()
		}
	}
	return m, nil
}

func (m *browseModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.SetValue("")
		m.filter.Blur()
		m.applyFilter()
		m.state = stateSelectMember
		return m, nil
	case "enter":
		m.filter.Blur()
		m.state = stateSelectMember
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *browseModel) updateCode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "enter", "backspace":
		m.state = stateSelectMember
		return m, nil
	}
	var cmd tea.Cmd
	m.code, cmd = m.code.Update(msg)
	return m, cmd
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.class == nil {
		return "Loading " + m.name + "..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("charm"))
	b.WriteString(" ")
	b.WriteString(printer.Declaration(m.class, m.class.QualifiedName()))
	b.WriteString("\n\n")

	switch m.state {
	case stateShowCode:
		b.WriteString(m.code.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))

	default:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no members"))
			b.WriteString("\n")
		}
		for i, idx := range m.visible {
			label := m.members[idx].label
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + label))
			} else {
				b.WriteString("  " + label)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(helpStyle.Render("type to filter • enter keep • esc clear"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter show • / filter • q quit"))
		}
	}
	return b.String()
}
