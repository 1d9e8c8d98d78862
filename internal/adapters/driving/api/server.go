// Package api serves the knowledge base over a local JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultAddr is the loopback address the API listens on.
const DefaultAddr = "127.0.0.1:8765"

const (
	// maxUploadBytes caps POST /add/file bodies.
	maxUploadBytes = 32 << 20

	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP API daemon component.
type Server struct {
	ports  *Ports
	addr   string
	engine *gin.Engine
}

// NewServer builds the router for the given ports.
func NewServer(ports *Ports, addr string) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{ports: ports, addr: addr}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.MaxMultipartMemory = maxUploadBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "promethean-light"})
	})

	r.POST("/add", s.addText)
	r.POST("/add/file", s.addFile)
	r.POST("/search", s.search)
	r.GET("/stats", s.stats)
	r.GET("/tags", s.tags)
	r.GET("/recent", s.recent)
	r.GET("/summary/:name", s.summary)
	r.GET("/documents/:id", s.document)
	r.POST("/reconcile", s.reconcile)

	r.POST("/email/add", s.addEmailAccount)
	r.GET("/email/accounts", s.listEmailAccounts)

	r.POST("/chat", s.chat)
	r.GET("/chat/:session", s.chatHistory)

	projects := r.Group("/projects")
	projects.GET("", s.listProjects)
	projects.POST("", s.createProject)
	projects.GET("/:id", s.getProject)
	projects.DELETE("/:id", s.deleteProject)
	projects.GET("/:id/items", s.listItems)
	projects.POST("/:id/items", s.addItem)
	projects.PATCH("/:id/items/:item", s.updateItem)

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Name identifies the server as a daemon component.
func (s *Server) Name() string {
	return "api"
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("api: shutdown: %v", err)
		}
	}()

	log.Printf("api: listening on %s", ln.Addr())
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// requestLogger logs one line per request in the daemon log format.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("api: %s %s %d %s", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
