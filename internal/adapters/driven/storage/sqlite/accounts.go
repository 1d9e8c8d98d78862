package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// ==================== Email Credential Store ====================

type credentialStore struct {
	store *Store
}

var _ driven.EmailCredentialStore = (*credentialStore)(nil)

const credentialColumns = `id, address, server, port, username, password, mailbox, use_tls,
	last_uid, created_at, updated_at`

// SaveCredential stores or updates an account.
func (s *credentialStore) SaveCredential(ctx context.Context, cred *domain.EmailCredential) error {
	if cred == nil || cred.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO email_credentials (`+credentialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			address = excluded.address,
			server = excluded.server,
			port = excluded.port,
			username = excluded.username,
			password = excluded.password,
			mailbox = excluded.mailbox,
			use_tls = excluded.use_tls,
			last_uid = excluded.last_uid,
			updated_at = excluded.updated_at
	`, cred.ID, cred.Address, cred.Server, cred.Port, cred.Username, cred.EncryptedPassword,
		cred.Mailbox, boolToInt(cred.UseTLS), int64(cred.LastUID), cred.CreatedAt, cred.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("saving email credential: %w", domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("saving email credential: %w", err)
	}
	return nil
}

// GetCredential retrieves an account by ID.
func (s *credentialStore) GetCredential(ctx context.Context, id string) (*domain.EmailCredential, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM email_credentials WHERE id = ?
	`, id)
	return scanCredential(row)
}

// ListCredentials returns all accounts.
func (s *credentialStore) ListCredentials(ctx context.Context) ([]domain.EmailCredential, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+credentialColumns+` FROM email_credentials ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying email credentials: %w", err)
	}
	defer rows.Close()

	var creds []domain.EmailCredential //nolint:prealloc // size unknown from query
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating email credentials: %w", err)
	}

	return creds, nil
}

// UpdateLastUID records the highest ingested UID.
func (s *credentialStore) UpdateLastUID(ctx context.Context, id string, uid uint32) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE email_credentials SET last_uid = ?, updated_at = ? WHERE id = ?
	`, int64(uid), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating last uid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteCredential removes an account.
func (s *credentialStore) DeleteCredential(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM email_credentials WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting email credential: %w", err)
	}
	return nil
}

func scanCredential(row rowScanner) (*domain.EmailCredential, error) {
	var cred domain.EmailCredential
	var useTLS int
	var lastUID int64
	if err := row.Scan(&cred.ID, &cred.Address, &cred.Server, &cred.Port, &cred.Username,
		&cred.EncryptedPassword, &cred.Mailbox, &useTLS, &lastUID,
		&cred.CreatedAt, &cred.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning email credential: %w", err)
	}
	cred.UseTLS = useTLS == 1
	cred.LastUID = uint32(lastUID) //nolint:gosec // stored from a uint32
	return &cred, nil
}
