package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// DefaultTimeout bounds every IMAP command.
const DefaultTimeout = 60 * time.Second

// RawMessage is one fetched RFC 5322 message.
type RawMessage struct {
	UID  uint32
	Body []byte
}

// Mailbox is a logged-in session with one mailbox selected.
type Mailbox interface {
	// UIDs returns the UIDs at or above from, ascending.
	UIDs(from uint32) ([]uint32, error)

	// Fetch downloads full messages without setting the \Seen flag.
	Fetch(uids []uint32) ([]RawMessage, error)

	Close() error
}

// Dialer opens a Mailbox for an account.
type Dialer func(ctx context.Context, cred domain.EmailCredential, password string) (Mailbox, error)

// Dial connects, logs in and selects the account's mailbox read-only.
func Dial(ctx context.Context, cred domain.EmailCredential, password string) (Mailbox, error) {
	addr := net.JoinHostPort(cred.Server, strconv.Itoa(cred.Port))

	var conn net.Conn
	var err error
	if cred.UseTLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: cred.Server, MinVersion: tls.VersionTLS12}}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	c, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("imap greeting %s: %w", addr, err)
	}
	c.Timeout = DefaultTimeout

	if err := c.Login(loginName(cred), password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("login %s: %w", cred.Address, err)
	}

	mailbox := cred.Mailbox
	if mailbox == "" {
		mailbox = domain.DefaultMailbox
	}
	if _, err := c.Select(mailbox, true); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select %s: %w", mailbox, err)
	}

	return &session{c: c}, nil
}

type session struct {
	c *client.Client
}

func (s *session) UIDs(from uint32) ([]uint32, error) {
	if from == 0 {
		from = 1
	}
	set := new(goimap.SeqSet)
	set.AddRange(from, 0)
	criteria := goimap.NewSearchCriteria()
	criteria.Uid = set

	found, err := s.c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("uid search: %w", err)
	}

	// "n:*" matches the newest message even when its UID is below n.
	uids := found[:0]
	for _, uid := range found {
		if uid >= from {
			uids = append(uids, uid)
		}
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

func (s *session) Fetch(uids []uint32) ([]RawMessage, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	set := new(goimap.SeqSet)
	set.AddNum(uids...)

	section := &goimap.BodySectionName{Peek: true}
	items := []goimap.FetchItem{goimap.FetchUid, section.FetchItem()}

	ch := make(chan *goimap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.c.UidFetch(set, items, ch)
	}()

	var out []RawMessage
	for msg := range ch {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		data, err := io.ReadAll(body)
		if err != nil {
			continue
		}
		out = append(out, RawMessage{UID: msg.Uid, Body: data})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("uid fetch: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (s *session) Close() error {
	return s.c.Logout()
}

func loginName(cred domain.EmailCredential) string {
	if cred.Username != "" {
		return cred.Username
	}
	return cred.Address
}
