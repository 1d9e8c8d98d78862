// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// SearchRequested is a command to perform a search.
type SearchRequested struct {
	Query   string
	Options domain.SearchOptions
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Results []domain.SearchResult
	Err     error
}

// AskRequested is a command to send a chat message.
type AskRequested struct {
	Message string
}

// ReplyReceived carries the assistant's answer back to the chat view.
type ReplyReceived struct {
	Reply *domain.ChatReply
	Err   error
}

// HistoryLoaded carries the stored turns of a resumed session.
type HistoryLoaded struct {
	Messages []domain.ChatMessage
	Err      error
}

// StatsLoaded carries corpus counts for the menu header.
type StatsLoaded struct {
	Stats *domain.Stats
	Err   error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the conversational view.
	ViewChat
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
