package applemail

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// Separators emitted by the inbox script between fields and records.
const (
	fieldSep   = "\x1f"
	recordSep  = "\x1e"
	fieldCount = 6
)

// dateLayout matches AppleScript's «class isot» string, local time.
const dateLayout = "2006-01-02T15:04:05"

// Message is one inbox entry reported by Mail.app.
type Message struct {
	ID        int64
	MessageID string
	From      string
	Subject   string
	Date      time.Time
	Body      string
}

// Email converts the entry to an ingestable message.
func (m Message) Email() domain.EmailMessage {
	return domain.EmailMessage{
		Source:    "applemail://inbox/" + strconv.FormatInt(m.ID, 10),
		MessageID: strings.Trim(m.MessageID, "<>"),
		From:      m.From,
		Subject:   m.Subject,
		Date:      m.Date,
		Body:      strings.TrimSpace(m.Body),
	}
}

// ParseOutput splits script output into messages, ordered as emitted.
// Records with a malformed id are rejected; a bad date is left zero.
func ParseOutput(out string, loc *time.Location) ([]Message, error) {
	if loc == nil {
		loc = time.Local
	}
	var msgs []Message
	for _, record := range strings.Split(out, recordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, fieldCount)
		if len(fields) != fieldCount {
			return nil, fmt.Errorf("malformed record: %d fields", len(fields))
		}

		id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed message id %q: %w", fields[0], err)
		}
		msg := Message{
			ID:        id,
			MessageID: strings.TrimSpace(fields[1]),
			From:      strings.TrimSpace(fields[2]),
			Subject:   strings.TrimSpace(fields[3]),
			Body:      fields[5],
		}
		if date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(fields[4]), loc); err == nil {
			msg.Date = date
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
