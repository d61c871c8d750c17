package ui

import (
	"bytes"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRenderKV(t *testing.T) {
	out := Render(0, KVBlock("", "digest", "0x77915d20", "v", "27"))
	assert.Equal(t, "digest  0x77915d20\nv       27", out)
}

func TestRenderKV_Truncates(t *testing.T) {
	out := RenderKV(12, &KV{Items: []KVItem{{Key: "k", Value: "0123456789abcdef"}}})
	assert.Equal(t, "k  012345...", out)
}

func TestRenderTable(t *testing.T) {
	t.Run("aligns columns", func(t *testing.T) {
		out := RenderTable(0, &Table{
			Headers: []string{"field", "type"},
			Rows: [][]string{
				{"to", "address"},
				{"tokenId", "uint256"},
			},
		})
		want := "field   | type\n" +
			"-----------------\n" +
			"to      | address\n" +
			"tokenId | uint256"
		assert.Equal(t, want, out)
	})

	t.Run("shrinks the last columns to fit", func(t *testing.T) {
		out := RenderTable(20, &Table{
			Headers: []string{"a", "b"},
			Rows:    [][]string{{"short", strings.Repeat("x", 40)}},
		})
		for _, line := range strings.Split(out, "\n") {
			assert.LessOrEqual(t, len(line), 20)
		}
		assert.Contains(t, out, "...")
	})

	t.Run("missing cells render empty", func(t *testing.T) {
		out := RenderTable(0, &Table{Headers: []string{"a", "b"}, Rows: [][]string{{"1"}}})
		assert.True(t, strings.HasSuffix(out, "\n1 |"))
	})

	t.Run("no headers renders nothing", func(t *testing.T) {
		assert.Equal(t, "", RenderTable(0, &Table{}))
	})
}

func TestRender_SkipsEmptyBlocks(t *testing.T) {
	assert.Equal(t, "", Render(80))
	out := Render(0, Block{Kind: "unknown"}, KVBlock("", "a", "b"))
	assert.Contains(t, out, "a  b")
}

func TestSelector(t *testing.T) {
	items := []SelectorItem{{ID: "one"}, {ID: "two", Current: true}, {ID: "three"}}

	t.Run("starts on the current item", func(t *testing.T) {
		s := NewSelector("pick", items)
		s.Update(key("enter"))
		assert.False(t, s.Active())
		assert.Equal(t, "two", s.Selected())
		assert.False(t, s.Cancelled())
	})

	t.Run("moves within bounds", func(t *testing.T) {
		s := NewSelector("pick", items)
		s.Update(key("down"))
		s.Update(key("j"))
		s.Update(key("enter"))
		assert.Equal(t, "three", s.Selected())

		s = NewSelector("pick", items)
		s.Update(key("up"))
		s.Update(key("k"))
		s.Update(key("enter"))
		assert.Equal(t, "one", s.Selected())
	})

	t.Run("esc cancels", func(t *testing.T) {
		s := NewSelector("pick", items)
		s.Update(key("esc"))
		assert.True(t, s.Cancelled())
		assert.Equal(t, "", s.Selected())
		assert.Equal(t, "", s.View())
	})

	t.Run("view marks the cursor", func(t *testing.T) {
		s := NewSelector("pick", items)
		view := s.View()
		assert.Contains(t, view, "pick")
		assert.Contains(t, view, SymbolArrow)
		assert.Contains(t, view, "three")
	})
}

func TestConfirmModel(t *testing.T) {
	t.Run("defaults to cancel", func(t *testing.T) {
		m := newConfirmModel("Sign?", "digest 0x01")
		next, cmd := m.Update(key("enter"))
		assert.NotNil(t, cmd)
		assert.False(t, next.(confirmModel).confirmed())
	})

	t.Run("moving up selects sign", func(t *testing.T) {
		var m tea.Model = newConfirmModel("Sign?", "digest 0x01")
		assert.Contains(t, m.View(), "digest 0x01")

		m, _ = m.Update(key("up"))
		m, _ = m.Update(key("enter"))
		assert.True(t, m.(confirmModel).confirmed())
		assert.Equal(t, "", m.View())
	})

	t.Run("shortcut keys choose directly", func(t *testing.T) {
		var m tea.Model = newConfirmModel("Sign?", "")
		assert.Contains(t, m.View(), "[y] Sign")

		m, cmd := m.Update(key("y"))
		assert.NotNil(t, cmd)
		assert.True(t, m.(confirmModel).confirmed())

		m = newConfirmModel("Sign?", "")
		m, _ = m.Update(key("n"))
		assert.False(t, m.(confirmModel).confirmed())
	})

	t.Run("ctrl+c cancels", func(t *testing.T) {
		var m tea.Model = newConfirmModel("Sign?", "")
		m, _ = m.Update(key("up"))
		m, cmd := m.Update(key("ctrl+c"))
		assert.NotNil(t, cmd)
		assert.False(t, m.(confirmModel).confirmed())
	})
}

func TestConfirm(t *testing.T) {
	t.Run("approves", func(t *testing.T) {
		ok, err := Confirm(strings.NewReader("k\r"), io.Discard, "Sign?", "details")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("declines", func(t *testing.T) {
		ok, err := Confirm(strings.NewReader("q"), io.Discard, "Sign?", "details")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPasswordModel(t *testing.T) {
	t.Run("collects typed runes", func(t *testing.T) {
		var m tea.Model = newPasswordModel("Keystore password")
		m, _ = m.Update(key("s3cret"))
		assert.NotContains(t, m.View(), "s3cret")

		m, cmd := m.Update(key("enter"))
		assert.NotNil(t, cmd)
		pm := m.(passwordModel)
		assert.True(t, pm.done)
		assert.Equal(t, "s3cret", pm.prompt.Value())
	})

	t.Run("esc cancels and clears", func(t *testing.T) {
		var m tea.Model = newPasswordModel("Keystore password")
		m, _ = m.Update(key("abc"))
		m, _ = m.Update(key("esc"))
		pm := m.(passwordModel)
		assert.True(t, pm.cancelled)
		assert.Equal(t, "", pm.prompt.Value())
	})
}

func TestReadPassword(t *testing.T) {
	var out bytes.Buffer
	pw, err := ReadPassword(strings.NewReader("hunter2\r"), &out, "Keystore password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)
}
