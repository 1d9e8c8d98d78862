// Package chat provides the conversational view for the TUI.
// Answers are grounded on the knowledge base and list the chunks they cite.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/promethean-light/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// ErrNoChatService indicates that no chat service was provided.
var ErrNoChatService = errors.New("chat service is required")

const (
	historyLimit = 50

	// chromeHeight is the space used by the title, input and status bar.
	chromeHeight = 8
)

// Chatter answers questions. driving.ChatService satisfies it.
type Chatter interface {
	Ask(ctx context.Context, sessionID, message string) (*domain.ChatReply, error)
	History(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}

// Entry is one rendered turn of the transcript.
type Entry struct {
	Role    domain.ChatRole
	Content string
	Sources []domain.SearchResult
}

// View is the chat transcript with a message box below it.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.Input
	transcript viewport.Model
	statusbar  *status.Bar

	chat Chatter
	ctx  context.Context

	session string
	entries []Entry
	waiting bool
	err     error

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat Chatter) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetState(status.StateChat)

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewChatInput(s),
		transcript: viewport.New(80, 24-chromeHeight),
		statusbar:  bar,
		chat:       chat,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSession resumes an existing session. Init loads its history.
func (v *View) SetSession(id string) {
	v.session = id
	v.statusbar.SetSession(id)
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	if v.session == "" || v.chat == nil {
		return v.input.Init()
	}
	return tea.Batch(v.input.Init(), v.loadHistory(v.session))
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ReplyReceived:
		v.handleReply(msg)
		return v, nil

	case messages.HistoryLoaded:
		v.handleHistory(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.waiting = false
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(keyStr, v.keymap.NewSession):
		v.Reset()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollUp), keymap.Matches(keyStr, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case msg.Type == tea.KeyEnter:
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed message unless a reply is still pending.
func (v *View) submit() tea.Cmd {
	if v.waiting {
		return nil
	}
	text := strings.TrimSpace(v.input.Value())
	if text == "" {
		return nil
	}

	v.input.Reset()
	v.err = nil
	v.waiting = true
	v.entries = append(v.entries, Entry{Role: domain.ChatRoleUser, Content: text})
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return v.ask(text)
}

func (v *View) ask(text string) tea.Cmd {
	ctx, chat, session := v.ctx, v.chat, v.session
	return func() tea.Msg {
		if chat == nil {
			return messages.ErrorOccurred{Err: ErrNoChatService}
		}
		reply, err := chat.Ask(ctx, session, text)
		return messages.ReplyReceived{Reply: reply, Err: err}
	}
}

func (v *View) loadHistory(session string) tea.Cmd {
	ctx, chat := v.ctx, v.chat
	return func() tea.Msg {
		history, err := chat.History(ctx, session, historyLimit)
		return messages.HistoryLoaded{Messages: history, Err: err}
	}
}

func (v *View) handleReply(msg messages.ReplyReceived) {
	v.waiting = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Reply == nil {
		v.statusbar.SetState(status.StateChat)
		return
	}

	v.SetSession(msg.Reply.SessionID)
	v.entries = append(v.entries, Entry{
		Role:    domain.ChatRoleAssistant,
		Content: msg.Reply.Answer,
		Sources: msg.Reply.Sources,
	})
	v.statusbar.SetState(status.StateChat)
	v.refresh()
}

func (v *View) handleHistory(msg messages.HistoryLoaded) {
	if msg.Err != nil {
		v.setError(fmt.Errorf("loading history: %w", msg.Err))
		return
	}
	v.entries = v.entries[:0]
	for _, m := range msg.Messages {
		if m.Role == domain.ChatRoleSystem {
			continue
		}
		v.entries = append(v.entries, Entry{Role: m.Role, Content: m.Content})
	}
	v.refresh()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// refresh re-renders the transcript and scrolls to the newest turn.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render("Ask a question about your notes, files and mail.")
	}

	wrap := lipgloss.NewStyle().Width(v.contentWidth())
	blocks := make([]string, 0, len(v.entries)+1)
	for _, e := range v.entries {
		var label string
		if e.Role == domain.ChatRoleUser {
			label = v.styles.UserMessage.Render("You")
		} else {
			label = v.styles.AssistantMessage.Render("Promethean")
		}

		block := label + "\n" + wrap.Render(e.Content)
		for i, src := range e.Sources {
			block += "\n" + v.styles.Source.Render(fmt.Sprintf("  [%d] %s (%.2f)", i+1, src.Document.Source, src.Score))
		}
		blocks = append(blocks, block)
	}
	if v.waiting {
		blocks = append(blocks, v.styles.Muted.Render("..."))
	}
	return strings.Join(blocks, "\n\n")
}

func (v *View) contentWidth() int {
	if v.width-2 < 20 {
		return 20
	}
	return v.width - 2
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Promethean Light")+v.styles.Muted.Render("  chat"),
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.transcript.Width = width
	v.transcript.Height = height - chromeHeight
	if v.transcript.Height < 3 {
		v.transcript.Height = 3
	}
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Reset clears the transcript and starts a new session on the next message.
func (v *View) Reset() {
	v.SetSession("")
	v.entries = nil
	v.waiting = false
	v.err = nil
	v.input.Reset()
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateChat)
	v.refresh()
}

// Session returns the active session ID, empty before the first reply.
func (v *View) Session() string {
	return v.session
}

// Entries returns the transcript.
func (v *View) Entries() []Entry {
	return v.entries
}

// Draft returns the unsent message.
func (v *View) Draft() string {
	return v.input.Value()
}

// Waiting reports whether a reply is pending.
func (v *View) Waiting() bool {
	return v.waiting
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
