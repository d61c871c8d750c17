package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SelectorItem is one choice in a Selector. Key, when set, picks the item
// directly.
type SelectorItem struct {
	ID          string
	Label       string
	Description string
	Key         string
	Current     bool
}

// Selector is a vertical list of choices driven by the arrow keys
type Selector struct {
	title    string
	items    []SelectorItem
	cursor   int
	selected int
	active   bool
}

// NewSelector creates a selector with the cursor on the current item
func NewSelector(title string, items []SelectorItem) Selector {
	cursor := 0
	for i, item := range items {
		if item.Current {
			cursor = i
			break
		}
	}
	return Selector{title: title, items: items, cursor: cursor, selected: -1, active: true}
}

// Active reports whether the selector is still waiting for a choice
func (s *Selector) Active() bool {
	return s.active
}

// Selected returns the chosen item ID, or empty if nothing was chosen
func (s *Selector) Selected() string {
	if s.active || s.selected < 0 || s.selected >= len(s.items) {
		return ""
	}
	return s.items[s.selected].ID
}

// Cancelled reports whether the selector was closed without a choice
func (s *Selector) Cancelled() bool {
	return !s.active && s.selected == -1
}

// Cancel closes the selector without a choice
func (s *Selector) Cancel() {
	s.selected = -1
	s.active = false
}

func (s *Selector) choose(i int) {
	s.cursor = i
	s.selected = i
	s.active = false
}

// Update handles selector input
func (s *Selector) Update(msg tea.Msg) (*Selector, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !s.active || !ok {
		return s, nil
	}

	switch k := keyMsg.String(); k {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case "enter":
		s.choose(s.cursor)
	case "esc", "q":
		s.Cancel()
	default:
		for i, item := range s.items {
			if item.Key != "" && item.Key == k {
				s.choose(i)
				break
			}
		}
	}
	return s, nil
}

// View renders the selector
func (s *Selector) View() string {
	if !s.active {
		return ""
	}

	var b strings.Builder
	b.WriteString(HelpStyle.Render(s.title + "  ↑/↓ move · enter choose · esc cancel"))
	b.WriteString("\n\n")

	for i, item := range s.items {
		label := item.Label
		if label == "" {
			label = item.ID
		}
		if item.Key != "" {
			label = fmt.Sprintf("[%s] %s", item.Key, label)
		}
		label = fmt.Sprintf("%-20s", label)

		if i == s.cursor {
			b.WriteString(SelectorCursor.Render(SymbolArrow) + " " + SelectorActive.Render(label))
		} else {
			b.WriteString("  " + SelectorItemStyle.Render(label))
		}
		if item.Description != "" {
			b.WriteString(SelectorDim.Render(item.Description))
		}
		b.WriteString("\n")
	}
	return b.String()
}
