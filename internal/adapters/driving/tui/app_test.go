package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(&Ports{Chat: &MockChatService{}, Search: &MockSearchService{}})
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func typeInto(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Chat: &MockChatService{}})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingChatService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(&Ports{Chat: &MockChatService{}})

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_WithChat(t *testing.T) {
	app, _ := NewApp(&Ports{Chat: &MockChatService{}})

	app.WithChat("s-42")

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, "s-42", app.Session())
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(&Ports{Chat: &MockChatService{}})

	assert.NotNil(t, app.Init())
}

func TestApp_Init_LoadsStats(t *testing.T) {
	search := &MockSearchService{StatsFunc: func(context.Context) (*domain.Stats, error) {
		return &domain.Stats{Documents: 3, Chunks: 9, Tags: 2}, nil
	}}
	app, err := NewApp(&Ports{Chat: &MockChatService{}, Search: search})
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	msg := app.loadStats()()
	app.Update(msg)

	assert.Contains(t, app.View(), "3 documents")
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, _ := NewApp(&Ports{Chat: &MockChatService{}})

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_Update_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_Update_QuitMessage(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
}

func TestApp_MenuToChatAndAsk(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())
	require.Equal(t, messages.ViewChat, app.CurrentView())

	typeInto(app, "what is due?")
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	app.Update(cmd())

	assert.Equal(t, "session", app.Session())
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "answer")
}

func TestApp_ChatErrorSurfaces(t *testing.T) {
	app, err := NewApp(&Ports{Chat: &MockChatService{
		AskFunc: func(context.Context, string, string) (*domain.ChatReply, error) {
			return nil, domain.ErrLLMUnavailable
		},
	}})
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	app.WithChat("")

	typeInto(app, "hello")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app.Update(cmd())

	assert.ErrorIs(t, app.Err(), domain.ErrLLMUnavailable)
}

func TestApp_SearchFlow(t *testing.T) {
	search := &MockSearchService{SearchFunc: func(_ context.Context, q string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
		return []domain.SearchResult{{Document: domain.Document{ID: "d1", Source: "notes/" + q + ".md"}, Score: 0.7}}, nil
	}}
	app, err := NewApp(&Ports{Chat: &MockChatService{}, Search: search})
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	app.Update(messages.ViewChanged{View: messages.ViewSearch})
	typeInto(app, "budget")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Contains(t, app.View(), "notes/budget.md")
}

func TestApp_EscReturnsToMenu(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewChat})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	assert.Contains(t, app.View(), "ctrl+n")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.ErrorOccurred{Err: domain.ErrVectorIndexUnavailable})

	assert.ErrorIs(t, app.Err(), domain.ErrVectorIndexUnavailable)
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := NewApp(&Ports{Chat: &MockChatService{}})

	assert.Equal(t, "Initialising...", app.View())
}
