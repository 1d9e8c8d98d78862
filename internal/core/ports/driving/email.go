package driving

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// EmailAccountService manages stored mailbox accounts.
type EmailAccountService interface {
	// Add encrypts the password and stores the account.
	Add(ctx context.Context, in domain.EmailAccountInput) (*domain.EmailCredential, error)

	// List returns all accounts.
	List(ctx context.Context) ([]domain.EmailCredential, error)

	// Password decrypts the stored password of an account.
	Password(cred *domain.EmailCredential) (string, error)

	// MarkSeen records the highest ingested UID.
	MarkSeen(ctx context.Context, id string, uid uint32) error

	// Remove deletes an account.
	Remove(ctx context.Context, id string) error
}
