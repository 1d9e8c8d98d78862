package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// Ensure EmailAccountService implements the interface.
var _ driving.EmailAccountService = (*EmailAccountService)(nil)

// defaultIMAPPort is the IMAPS port used when none is given.
const defaultIMAPPort = 993

// EmailAccountService stores mailbox accounts with encrypted passwords.
type EmailAccountService struct {
	store  driven.EmailCredentialStore
	cipher driven.Cipher
}

// NewEmailAccountService creates an account service.
func NewEmailAccountService(store driven.EmailCredentialStore, cipher driven.Cipher) *EmailAccountService {
	return &EmailAccountService{store: store, cipher: cipher}
}

// Add encrypts the password and stores the account.
func (s *EmailAccountService) Add(ctx context.Context, in domain.EmailAccountInput) (*domain.EmailCredential, error) {
	in.Address = strings.TrimSpace(in.Address)
	in.Server = strings.TrimSpace(in.Server)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sealed, err := s.cipher.EncryptString(in.Password)
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	cred := &domain.EmailCredential{
		ID:                uuid.New().String(),
		Address:           in.Address,
		Server:            in.Server,
		Port:              in.Port,
		Username:          in.Username,
		EncryptedPassword: sealed,
		Mailbox:           in.Mailbox,
		UseTLS:            in.UseTLS || in.Port == 0 || in.Port == defaultIMAPPort,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if cred.Port == 0 {
		cred.Port = defaultIMAPPort
	}
	if cred.Username == "" {
		cred.Username = cred.Address
	}
	if cred.Mailbox == "" {
		cred.Mailbox = domain.DefaultMailbox
	}

	if err := s.store.SaveCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return cred, nil
}

// List returns all accounts.
func (s *EmailAccountService) List(ctx context.Context) ([]domain.EmailCredential, error) {
	return s.store.ListCredentials(ctx)
}

// Password decrypts the stored password of an account.
func (s *EmailAccountService) Password(cred *domain.EmailCredential) (string, error) {
	if cred == nil {
		return "", domain.ErrInvalidInput
	}
	return s.cipher.DecryptString(cred.EncryptedPassword)
}

// MarkSeen records the highest ingested UID.
func (s *EmailAccountService) MarkSeen(ctx context.Context, id string, uid uint32) error {
	return s.store.UpdateLastUID(ctx, id, uid)
}

// Remove deletes an account.
func (s *EmailAccountService) Remove(ctx context.Context, id string) error {
	return s.store.DeleteCredential(ctx, id)
}
