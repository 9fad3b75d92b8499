package login

import "context"

// AccountStore persists accounts. Lookups that match nothing return
// ErrAccountNotFound, Save returns ErrConflict when the email is taken.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByResetToken(ctx context.Context, token string) (*Account, error)
	// Save inserts the account when it is new and updates it otherwise
	Save(ctx context.Context, account *Account) error
}
