// Package applemail polls the Mail.app inbox through AppleScript. It only
// runs on macOS; elsewhere the poller fails with ErrUnsupportedPlatform.
package applemail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// ErrUnsupportedPlatform is returned outside macOS.
var ErrUnsupportedPlatform = fmt.Errorf("%w: apple mail requires macOS", domain.ErrUnsupportedPlatform)

const (
	// DefaultPollInterval is used when settings leave the interval unset.
	DefaultPollInterval = 2 * time.Minute

	// defaultWindow bounds how many of the newest messages a poll inspects.
	defaultWindow = 200
)

// Runner executes an AppleScript and returns its result.
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// Poller ingests new Mail.app inbox messages. Progress is kept in memory;
// after a restart already-ingested messages are caught by deduplication.
type Poller struct {
	ingester driving.EmailIngester
	runner   Runner
	interval time.Duration
	backfill int
	location *time.Location

	lastID int64
	primed bool
}

// NewPoller creates a poller. The first poll ingests at most backfill of
// the newest messages.
func NewPoller(ingester driving.EmailIngester, settings domain.EmailSettings) *Poller {
	interval := settings.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		ingester: ingester,
		runner:   osascriptRunner{},
		interval: interval,
		backfill: settings.Backfill,
		location: time.Local,
	}
}

// SetRunner replaces the script runner.
func (p *Poller) SetRunner(r Runner) {
	p.runner = r
}

// Name identifies the poller as a daemon component.
func (p *Poller) Name() string {
	return "applemail"
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.PollOnce(ctx); err != nil {
			if errors.Is(err, ErrUnsupportedPlatform) {
				return err
			}
			log.Printf("applemail: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce ingests messages newer than the last seen id and returns how
// many documents were created.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	window := defaultWindow
	if !p.primed && p.backfill > 0 {
		window = p.backfill
	}

	out, err := p.runner.Run(ctx, buildScript(window, p.lastID))
	if err != nil {
		return 0, err
	}
	msgs, err := ParseOutput(out, p.location)
	if err != nil {
		return 0, fmt.Errorf("parse inbox: %w", err)
	}
	p.primed = true
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })

	created := 0
	for _, m := range msgs {
		if m.ID <= p.lastID {
			continue
		}
		res, err := p.ingester.IngestEmail(ctx, m.Email())
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				log.Printf("applemail: skipping message %d: %v", m.ID, err)
				p.lastID = m.ID
				continue
			}
			return created, fmt.Errorf("ingest message %d: %w", m.ID, err)
		}
		if res.Status == domain.IngestCreated {
			created++
		}
		p.lastID = m.ID
	}
	if created > 0 {
		log.Printf("applemail: ingested %d messages", created)
	}
	return created, nil
}
