package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds the graceful stop of the HTTP transport.
const shutdownTimeout = 3 * time.Second

// Server exposes search and note-taking to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server
	addr   string
}

// NewServer creates an MCP server over ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "promethean-light",
			Version: Version,
		}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// SetAddr sets the HTTP address used when the server runs as a daemon
// component.
func (s *Server) SetAddr(addr string) {
	s.addr = addr
}

// Name identifies the server as a daemon component.
func (s *Server) Name() string {
	return "mcp"
}

// Run serves over HTTP when an address is set and over stdio otherwise.
// It blocks until ctx is cancelled or the transport fails.
func (s *Server) Run(ctx context.Context) error {
	if s.addr != "" {
		return s.RunHTTP(ctx, s.addr)
	}
	return s.RunStdio(ctx)
}

// RunStdio serves JSON-RPC over stdin and stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("mcp: shutdown: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
