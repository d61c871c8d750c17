package ui

import (
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Prompt is a single-line input with a styled prefix
type Prompt struct {
	input textinput.Model
}

// NewPasswordPrompt creates a prompt that masks what is typed
func NewPasswordPrompt(placeholder string) Prompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 60
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'

	return Prompt{input: ti}
}

// Focus sets focus on the prompt
func (p *Prompt) Focus() tea.Cmd {
	return p.input.Focus()
}

// Value returns the current input value
func (p *Prompt) Value() string {
	return p.input.Value()
}

// Reset clears the input
func (p *Prompt) Reset() {
	p.input.Reset()
}

// Update handles input events
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View renders the prompt
func (p *Prompt) View() string {
	return PromptStyle.Render(SymbolPrompt) + " " + p.input.View()
}

type passwordModel struct {
	title     string
	prompt    Prompt
	done      bool
	cancelled bool
}

func newPasswordModel(title string) passwordModel {
	m := passwordModel{title: title, prompt: NewPasswordPrompt("password")}
	m.prompt.Focus()
	return m
}

func (m passwordModel) Init() tea.Cmd { return textinput.Blink }

func (m passwordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			m.prompt.Reset()
			return m, tea.Quit
		}
	}
	_, cmd := m.prompt.Update(msg)
	return m, cmd
}

func (m passwordModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return HelpStyle.Render(m.title) + "\n" + m.prompt.View() + "\n"
}

// ReadPassword prompts for a secret without echoing it.
func ReadPassword(in io.Reader, out io.Writer, title string) (string, error) {
	p := tea.NewProgram(newPasswordModel(title), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(passwordModel)
	if !ok || m.cancelled {
		return "", ErrCancelled
	}
	return m.prompt.Value(), nil
}
