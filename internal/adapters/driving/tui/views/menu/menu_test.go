package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles())

	require.NotNil(t, view)
	assert.Len(t, view.items, 4)
	assert.Equal(t, 0, view.Selected())
	assert.Equal(t, 80, view.width)
	assert.Equal(t, 24, view.height)
	assert.Nil(t, view.Init())
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil)

	assert.NotNil(t, view.styles)
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
}

func TestView_Update_Navigate(t *testing.T) {
	view := NewView(nil)

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.selected)

	down := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	view.Update(down)
	view.Update(down)
	view.Update(down)
	assert.Equal(t, 3, view.selected, "stops at the last item")

	up := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	view.Update(up)
	view.Update(up)
	view.Update(up)
	assert.Equal(t, 0, view.selected, "stops at the first item")
}

func TestView_Update_Enter(t *testing.T) {
	tests := []struct {
		selected int
		want     messages.ViewType
	}{
		{0, messages.ViewChat},
		{1, messages.ViewSearch},
		{2, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			view := NewView(nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			changed, ok := cmd().(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, tt.want, changed.View)
		})
	}
}

func TestView_Update_Quit(t *testing.T) {
	view := NewView(nil)
	view.selected = 3

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
}

func TestView_View(t *testing.T) {
	view := NewView(nil)
	assert.Contains(t, view.View(), "Initialising")

	view.SetDimensions(80, 24)
	output := view.View()

	assert.Contains(t, output, "Promethean Light")
	assert.Contains(t, output, "Chat")
	assert.Contains(t, output, "Search")
	assert.Contains(t, output, "Quit")
	assert.Contains(t, output, ">")
	assert.NotContains(t, output, "documents")
}

func TestView_View_WithStats(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 24)

	view.SetStats(&domain.Stats{Documents: 12, Chunks: 40, Tags: 7})

	assert.Contains(t, view.View(), "12 documents · 40 chunks · 7 tags")
}
