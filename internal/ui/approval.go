package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles for approval UI
var (
	approvalTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("5")).
				MarginBottom(1)

	approvalSummaryStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("3")).
				MarginTop(1)

	yesButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Background(lipgloss.Color("0")).
			Padding(0, 1).
			MarginRight(1)

	noButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Background(lipgloss.Color("0")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// chromeHeight is the number of lines around the scrollable body.
const chromeHeight = 8

type keyMap struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Submit key.Binding
	Cancel key.Binding
}

var defaultKeys = keyMap{
	Yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "apply")),
	No:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "skip")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab"), key.WithHelp("←/→", "select")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Cancel: key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

func (k keyMap) help() string {
	parts := make([]string, 0, 5)
	for _, b := range []key.Binding{k.Yes, k.No, k.Toggle, k.Submit, k.Cancel} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// ApprovalModel asks whether a patch should be applied. The body, usually
// the rendered preview, scrolls once the terminal size is known.
type ApprovalModel struct {
	Title    string
	Summary  string
	Body     string
	Approved bool // current selection, defaults to no
	Done     bool // set once the user has decided

	keys     keyMap
	viewport viewport.Model
	ready    bool
}

// NewApprovalModel creates a new approval model
func NewApprovalModel(title, summary, body string) ApprovalModel {
	return ApprovalModel{
		Title:   title,
		Summary: summary,
		Body:    body,
		keys:    defaultKeys,
	}
}

// Init initializes the model
func (m ApprovalModel) Init() tea.Cmd {
	return nil
}

// Update handles updates to the model
func (m ApprovalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - chromeHeight
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.Body)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.Done = true
			m.Approved = false
			return m, tea.Quit
		case key.Matches(msg, m.keys.Yes):
			m.Done = true
			m.Approved = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.No):
			m.Done = true
			m.Approved = false
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.Approved = !m.Approved
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			m.Done = true
			return m, tea.Quit
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the model
func (m ApprovalModel) View() string {
	var sb strings.Builder

	sb.WriteString(approvalTitleStyle.Render(m.Title))
	sb.WriteString("\n")

	if m.ready {
		sb.WriteString(m.viewport.View())
	} else {
		sb.WriteString(strings.TrimSuffix(m.Body, "\n"))
	}
	sb.WriteString("\n")

	if m.Summary != "" {
		sb.WriteString(approvalSummaryStyle.Render(m.Summary))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	yes, no := "Apply", "Skip"
	if m.Approved {
		yes = selectedStyle.Render(yes)
	} else {
		no = selectedStyle.Render(no)
	}
	sb.WriteString(fmt.Sprintf("%s %s", yesButtonStyle.Render(yes), noButtonStyle.Render(no)))
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render(m.keys.help()))

	return sb.String()
}

// GetApproval runs the approval UI on in and out and returns the decision.
// Cancelling ctx aborts the prompt with an error.
func GetApproval(ctx context.Context, model ApprovalModel, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	result, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("error running approval UI: %w", err)
	}

	finalModel, ok := result.(ApprovalModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type: %T", result)
	}

	return finalModel.Done && finalModel.Approved, nil
}
