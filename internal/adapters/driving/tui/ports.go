// Package tui provides the interactive terminal interface for promethean.
// It is a driving adapter over the chat and search ports.
package tui

import (
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Search powers the search view and the menu counts. Optional.
	Search driving.SearchService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
