package app

import (
	"fmt"

	"github.com/custodia-labs/promethean-light/internal/adapters/driving/api"
	"github.com/custodia-labs/promethean-light/internal/adapters/driving/mcp"
	"github.com/custodia-labs/promethean-light/internal/connectors/applemail"
	"github.com/custodia-labs/promethean-light/internal/connectors/filesystem"
	"github.com/custodia-labs/promethean-light/internal/connectors/imap"
	"github.com/custodia-labs/promethean-light/internal/core/services"
)

// APIServer builds the HTTP API over this database.
func (a *App) APIServer() (*api.Server, error) {
	return api.NewServer(&api.Ports{
		Search:    a.Search,
		Ingestion: a.Ingestion,
		Email:     a.Email,
		Chat:      a.Chat,
		Projects:  a.Projects,
	}, a.Settings.API.Addr)
}

// MCPServer builds the MCP server over this database. It serves stdio
// until an address is set.
func (a *App) MCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{Search: a.Search, Ingestion: a.Ingestion})
}

// Daemon assembles the background components enabled in settings.
func (a *App) Daemon() (*services.Daemon, error) {
	d := services.NewDaemon(services.DefaultShutdownTimeout)

	if a.Settings.API.Enabled {
		server, err := a.APIServer()
		if err != nil {
			return nil, fmt.Errorf("build api: %w", err)
		}
		d.Add(server)
	}

	if a.Settings.MCP.Enabled {
		server, err := a.MCPServer()
		if err != nil {
			return nil, fmt.Errorf("build mcp: %w", err)
		}
		server.SetAddr(a.Settings.MCP.Addr)
		d.Add(server)
	}

	if len(a.Settings.Watch.Directories) > 0 {
		d.Add(filesystem.NewWatcher(a.Ingestion, a.Settings.Watch))
	}

	d.Add(imap.NewPoller(a.Email, a.Ingestion, a.Settings.Email))

	if a.Settings.Email.AppleMail && applemail.Supported() {
		d.Add(applemail.NewPoller(a.Ingestion, a.Settings.Email))
	}

	d.Add(a.Scheduler)
	return d, nil
}
