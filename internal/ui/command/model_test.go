package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	got, ok := Parse("  Export  ~/backup.json ")
	require.True(t, ok)
	assert.Equal(t, CommandMsg{Name: "export", Args: []string{"~/backup.json"}}, got)

	_, ok = Parse("   ")
	assert.False(t, ok)
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	for _, r := range "month" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: "month", Args: []string{}}, cmd())
	assert.Empty(t, m.input.Value())
}
