package mcp

import (
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Search provides search and corpus views.
	Search driving.SearchService

	// Ingestion enables the add_text tool. Optional.
	Ingestion driving.IngestionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
