package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultShutdownTimeout bounds how long the daemon waits for components.
const DefaultShutdownTimeout = 5 * time.Second

// ErrShutdownTimeout is returned when components outlive the shutdown timeout.
var ErrShutdownTimeout = errors.New("daemon shutdown timed out")

// Component is a long-running part of the daemon: the API server, a
// watcher or the scheduler. Run blocks until ctx is cancelled.
type Component interface {
	Name() string
	Run(ctx context.Context) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc struct {
	ComponentName string
	Fn            func(ctx context.Context) error
}

// Name returns the component name.
func (c ComponentFunc) Name() string { return c.ComponentName }

// Run calls the function.
func (c ComponentFunc) Run(ctx context.Context) error { return c.Fn(ctx) }

// Daemon runs components concurrently. A failing component is logged and
// does not stop the others.
type Daemon struct {
	components      []Component
	shutdownTimeout time.Duration
}

// NewDaemon creates a daemon. A non-positive timeout uses DefaultShutdownTimeout.
func NewDaemon(shutdownTimeout time.Duration, components ...Component) *Daemon {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Daemon{components: components, shutdownTimeout: shutdownTimeout}
}

// Add registers a component. It must be called before Run.
func (d *Daemon) Add(c Component) {
	if c != nil {
		d.components = append(d.components, c)
	}
}

// Components returns the registered component names.
func (d *Daemon) Components() []string {
	names := make([]string, len(d.components))
	for i, c := range d.components {
		names[i] = c.Name()
	}
	return names
}

// Run starts every component and blocks until ctx is cancelled. It then
// waits up to the shutdown timeout for components to return.
func (d *Daemon) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, c := range d.components {
		wg.Add(1)
		go func(c Component) {
			defer wg.Done()
			d.runComponent(runCtx, c)
		}(c)
	}
	log.Printf("daemon: started %d components", len(d.components))

	<-ctx.Done()
	log.Printf("daemon: shutting down")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("daemon: stopped")
		return nil
	case <-time.After(d.shutdownTimeout):
		log.Printf("daemon: components still running after %s, abandoning", d.shutdownTimeout)
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, d.shutdownTimeout)
	}
}

func (d *Daemon) runComponent(ctx context.Context, c Component) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("daemon: %s panicked: %v\n%s", c.Name(), r, debug.Stack())
		}
	}()

	log.Printf("daemon: starting %s", c.Name())
	err := c.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Printf("daemon: %s stopped", c.Name())
	default:
		log.Printf("daemon: %s failed: %v", c.Name(), err)
	}
}
