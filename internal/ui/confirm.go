package ui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user backs out of an interactive prompt.
var ErrCancelled = errors.New("cancelled by user")

const (
	choiceSign   = "sign"
	choiceCancel = "cancel"
)

// confirmModel shows what is about to be signed above a sign/cancel selector.
type confirmModel struct {
	details  string
	selector Selector
}

func newConfirmModel(title, details string) confirmModel {
	return confirmModel{
		details: details,
		selector: NewSelector(title, []SelectorItem{
			{ID: choiceSign, Label: "Sign", Description: "produce the signature", Key: "y"},
			{ID: choiceCancel, Label: "Cancel", Description: "exit without signing", Key: "n", Current: true},
		}),
	}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyCtrlC {
		m.selector.Cancel()
		return m, tea.Quit
	}
	m.selector.Update(msg)
	if !m.selector.Active() {
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if !m.selector.Active() {
		return ""
	}
	return m.details + "\n\n" + m.selector.View()
}

func (m confirmModel) confirmed() bool {
	return m.selector.Selected() == choiceSign
}

// Confirm asks the user to approve a signature. It returns false when the
// user picks cancel or presses esc/ctrl+c.
func Confirm(in io.Reader, out io.Writer, title, details string) (bool, error) {
	p := tea.NewProgram(newConfirmModel(title, details), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(confirmModel)
	return ok && m.confirmed(), nil
}
