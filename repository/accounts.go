package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-login"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRepository stores accounts with bun. It implements
// login.AccountStore.
type AccountRepository struct {
	repository.Repository[*login.Account]
	db  *bun.DB
	now func() time.Time
}

var _ login.AccountStore = (*AccountRepository)(nil)

type AccountRepositoryOption func(*AccountRepository)

// WithRepositoryClock sets the clock used to stamp saved records
func WithRepositoryClock(now func() time.Time) AccountRepositoryOption {
	return func(r *AccountRepository) {
		if now != nil {
			r.now = now
		}
	}
}

func NewAccountRepository(db *bun.DB, opts ...AccountRepositoryOption) *AccountRepository {
	repo := repository.NewRepository[*login.Account](db, repository.ModelHandlers[*login.Account]{
		NewRecord: func() *login.Account { return &login.Account{} },
		GetID: func(a *login.Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *login.Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	r := &AccountRepository{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*login.Account, error) {
	return r.FindByEmailTx(ctx, r.db, email)
}

func (r *AccountRepository) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*login.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, login.ErrAccountNotFound
	}
	return r.findOne(ctx, tx, "email", email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*login.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, login.ErrAccountNotFound
	}

	account, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, login.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) FindByResetToken(ctx context.Context, token string) (*login.Account, error) {
	if token == "" {
		return nil, login.ErrAccountNotFound
	}
	return r.findOne(ctx, r.db, "password_reset_token", token)
}

// Save inserts new accounts and rewrites every mutable column of existing
// ones, including cleared tokens.
func (r *AccountRepository) Save(ctx context.Context, account *login.Account) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return r.SaveTx(ctx, tx, account)
	})
}

func (r *AccountRepository) SaveTx(ctx context.Context, tx bun.IDB, account *login.Account) error {
	if account == nil {
		return errors.New("account is required")
	}

	now := r.now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	exists, err := tx.NewSelect().
		Model((*login.Account)(nil)).
		Where("?TableAlias.id = ?", account.ID).
		Exists(ctx)
	if err != nil {
		return err
	}

	if !exists {
		return r.insert(ctx, tx, account)
	}

	_, err = tx.NewUpdate().
		Model(account).
		Column(
			"name",
			"email",
			"password_hash",
			"avatar_url",
			"email_verified",
			"email_verification_token",
			"password_reset_token",
			"role",
			"updated_at",
		).
		WherePK().
		Exec(ctx)
	if err != nil {
		if login.IsUniqueViolation(err) {
			return login.ErrConflict
		}
		return err
	}

	return nil
}

func (r *AccountRepository) insert(ctx context.Context, tx bun.IDB, account *login.Account) error {
	taken, err := tx.NewSelect().
		Model((*login.Account)(nil)).
		Where("?TableAlias.email = ?", account.Email).
		Exists(ctx)
	if err != nil {
		return err
	}
	if taken {
		return login.ErrConflict
	}

	if _, err := r.Repository.CreateTx(ctx, tx, account); err != nil {
		if login.IsUniqueViolation(err) {
			return login.ErrConflict
		}
		return err
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, tx bun.IDB, column, value string) (*login.Account, error) {
	record := &login.Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, login.ErrAccountNotFound
		}
		return nil, err
	}
	return record, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}
