package domain

import "time"

// EmailCredential is a stored mailbox account. The password is encrypted.
type EmailCredential struct {
	ID                string
	Address           string
	Server            string
	Port              int
	Username          string
	EncryptedPassword string
	Mailbox           string
	UseTLS            bool
	LastUID           uint32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DefaultMailbox is polled when none is configured.
const DefaultMailbox = "INBOX"

// EmailAccountInput is the plaintext form used to add an account.
type EmailAccountInput struct {
	Address  string
	Server   string
	Port     int
	Username string
	Password string
	Mailbox  string
	UseTLS   bool
}

// Validate checks required fields.
func (in EmailAccountInput) Validate() error {
	if in.Address == "" || in.Server == "" || in.Password == "" {
		return ErrInvalidInput
	}
	if in.Port < 0 || in.Port > 65535 {
		return ErrInvalidInput
	}
	return nil
}

// EmailMessage is a parsed message ready for ingestion.
type EmailMessage struct {
	// Source identifies the message, e.g. imap://user@host/INBOX/42.
	Source    string
	MessageID string
	From      string
	To        string
	Subject   string
	Date      time.Time
	Body      string
}

// Text renders the message as the document content.
func (m EmailMessage) Text() string {
	var out string
	if m.From != "" {
		out += "From: " + m.From + "\n"
	}
	if m.To != "" {
		out += "To: " + m.To + "\n"
	}
	if !m.Date.IsZero() {
		out += "Date: " + m.Date.Format(time.RFC1123Z) + "\n"
	}
	if m.Subject != "" {
		out += "Subject: " + m.Subject + "\n"
	}
	if out != "" {
		out += "\n"
	}
	return out + m.Body
}
