package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/elidholm/sb-cli/internal/ui"
)

var choiceStyle = lipgloss.NewStyle().Bold(true).Underline(true)

var errAborted = errors.New("aborted")

// stdinIsTerminal decides whether prompts may be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptModel reads one line of text. hint, when set, renders a dim line
// below the input derived from the current value.
type promptModel struct {
	input    textinput.Model
	question string
	validate func(string) error
	hint     func(string) string
	problem  string
	finished bool
	aborted  bool
}

func newPromptModel(question, placeholder string, validate func(string) error, hint func(string) string) promptModel {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 200
	in.Focus()
	return promptModel{input: in, question: question, validate: validate, hint: hint}
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.validate != nil {
				if err := m.validate(m.input.Value()); err != nil {
					m.problem = err.Error()
					return m, nil
				}
			}
			m.finished = true
			return m, tea.Quit
		}
	}
	m.problem = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.finished {
		return ""
	}
	lines := []string{ui.Heading.Render(m.question), m.input.View()}
	if m.hint != nil && strings.TrimSpace(m.input.Value()) != "" {
		lines = append(lines, ui.Dim.Render(m.hint(m.input.Value())))
	}
	if m.problem != "" {
		lines = append(lines, ui.Error.Render(m.problem))
	}
	return strings.Join(lines, "\n") + "\n"
}

// confirmModel asks a yes/no question. Enter accepts the highlighted answer.
type confirmModel struct {
	question string
	yes      bool
	finished bool
	aborted  bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
	case "enter":
		m.finished = true
	case "y", "Y":
		m.yes, m.finished = true, true
	case "n", "N":
		m.yes, m.finished = false, true
	case "left", "right", "tab", "h", "l":
		m.yes = !m.yes
		return m, nil
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m confirmModel) View() string {
	if m.finished {
		return ""
	}
	yes, no := " Yes ", " No "
	if m.yes {
		yes = choiceStyle.Render(yes)
	} else {
		no = choiceStyle.Render(no)
	}
	return fmt.Sprintf("%s %s / %s\n", ui.Heading.Render(m.question), yes, no)
}

// promptInput shows a text prompt on stderr and returns the trimmed answer.
func promptInput(question, placeholder string, validate func(string) error, hint func(string) string) (string, error) {
	result, err := tea.NewProgram(newPromptModel(question, placeholder, validate, hint), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", err
	}
	m := result.(promptModel)
	if m.aborted {
		return "", errAborted
	}
	return strings.TrimSpace(m.input.Value()), nil
}

// promptConfirm asks question on stderr. The default answer is yes.
func promptConfirm(question string) (bool, error) {
	result, err := tea.NewProgram(confirmModel{question: question, yes: true}, tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return false, err
	}
	m := result.(confirmModel)
	if m.aborted {
		return false, errAborted
	}
	return m.yes, nil
}
