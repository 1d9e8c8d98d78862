package api

import (
	"errors"

	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// ErrMissingPort is returned when a required service is not provided.
var ErrMissingPort = errors.New("api: search and ingestion services are required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Search    driving.SearchService
	Ingestion driving.IngestionService

	// Email, Chat and Projects are optional; their routes answer 503 when unset.
	Email    driving.EmailAccountService
	Chat     driving.ChatService
	Projects driving.ProjectService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil || p.Ingestion == nil {
		return ErrMissingPort
	}
	return nil
}
