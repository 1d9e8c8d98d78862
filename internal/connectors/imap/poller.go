// Package imap polls IMAP mailboxes and ingests new messages. Progress is
// tracked per account by the highest ingested UID.
package imap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
	"github.com/custodia-labs/promethean-light/internal/normalisers/eml"
)

const (
	// DefaultPollInterval is used when settings leave the interval unset.
	DefaultPollInterval = 2 * time.Minute

	fetchBatch = 25
)

// Poller periodically ingests new mail from every stored account.
type Poller struct {
	accounts driving.EmailAccountService
	ingester driving.EmailIngester
	dial     Dialer
	interval time.Duration
	backfill int
}

// NewPoller creates a poller. Backfill limits how many of the newest
// messages are ingested the first time an account is polled; zero or less
// ingests the whole mailbox.
func NewPoller(accounts driving.EmailAccountService, ingester driving.EmailIngester, settings domain.EmailSettings) *Poller {
	interval := settings.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		accounts: accounts,
		ingester: ingester,
		dial:     Dial,
		interval: interval,
		backfill: settings.Backfill,
	}
}

// SetDialer replaces the IMAP dialer.
func (p *Poller) SetDialer(d Dialer) {
	p.dial = d
}

// Name identifies the poller as a daemon component.
func (p *Poller) Name() string {
	return "imap"
}

// Run polls immediately and then on every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.PollOnce(ctx); err != nil {
			log.Printf("imap: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce checks every account once. Per-account failures are joined and
// the remaining accounts still run, except when the store is locked.
func (p *Poller) PollOnce(ctx context.Context) error {
	accounts, err := p.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	var errs []error
	for i := range accounts {
		if ctx.Err() != nil {
			break
		}
		n, err := p.PollAccount(ctx, &accounts[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", accounts[i].Address, err))
			if errors.Is(err, domain.ErrLocked) {
				break
			}
			continue
		}
		if n > 0 {
			log.Printf("imap: %s: ingested %d messages", accounts[i].Address, n)
		}
	}
	return errors.Join(errs...)
}

// PollAccount ingests messages newer than the account's last UID and
// advances it after each batch.
func (p *Poller) PollAccount(ctx context.Context, cred *domain.EmailCredential) (int, error) {
	password, err := p.accounts.Password(cred)
	if err != nil {
		return 0, err
	}

	mb, err := p.dial(ctx, *cred, password)
	if err != nil {
		return 0, err
	}
	defer mb.Close()

	uids, err := mb.UIDs(cred.LastUID + 1)
	if err != nil {
		return 0, err
	}
	if cred.LastUID == 0 && p.backfill > 0 && len(uids) > p.backfill {
		uids = uids[len(uids)-p.backfill:]
	}

	ingested := 0
	for start := 0; start < len(uids); start += fetchBatch {
		if ctx.Err() != nil {
			return ingested, ctx.Err()
		}
		end := min(start+fetchBatch, len(uids))

		msgs, err := mb.Fetch(uids[start:end])
		if err != nil {
			return ingested, err
		}

		highest := cred.LastUID
		for _, raw := range msgs {
			created, err := p.ingest(ctx, cred, raw)
			if err != nil {
				p.markSeen(ctx, cred, highest)
				return ingested, err
			}
			if created {
				ingested++
			}
			highest = max(highest, raw.UID)
		}
		// Messages that vanished between search and fetch are not retried.
		highest = max(highest, uids[end-1])
		p.markSeen(ctx, cred, highest)
	}
	return ingested, nil
}

// ingest reports whether a new document was created. Unparseable messages
// are logged and skipped so they do not block the mailbox.
func (p *Poller) ingest(ctx context.Context, cred *domain.EmailCredential, raw RawMessage) (bool, error) {
	source := messageSource(cred, raw.UID)
	msg, err := eml.Parse(raw.Body, source)
	if err != nil {
		log.Printf("imap: skipping %s: %v", source, err)
		return false, nil
	}

	res, err := p.ingester.IngestEmail(ctx, msg)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			log.Printf("imap: skipping %s: %v", source, err)
			return false, nil
		}
		return false, fmt.Errorf("ingest %s: %w", source, err)
	}
	return res.Status == domain.IngestCreated, nil
}

func (p *Poller) markSeen(ctx context.Context, cred *domain.EmailCredential, uid uint32) {
	if uid <= cred.LastUID {
		return
	}
	if err := p.accounts.MarkSeen(ctx, cred.ID, uid); err != nil {
		log.Printf("imap: %s: record uid %d: %v", cred.Address, uid, err)
		return
	}
	cred.LastUID = uid
}

// messageSource renders imap://user@host/mailbox/uid.
func messageSource(cred *domain.EmailCredential, uid uint32) string {
	mailbox := cred.Mailbox
	if mailbox == "" {
		mailbox = domain.DefaultMailbox
	}
	u := url.URL{
		Scheme: "imap",
		User:   url.User(loginName(*cred)),
		Host:   cred.Server,
		Path:   "/" + mailbox + "/" + strconv.FormatUint(uint64(uid), 10),
	}
	return u.String()
}
