package repository

import (
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager owns the database handle and the repositories built on it
type Manager struct {
	db       *bun.DB
	accounts *AccountRepository
}

func NewManager(db *bun.DB, opts ...AccountRepositoryOption) *Manager {
	return &Manager{
		db:       db,
		accounts: NewAccountRepository(db, opts...),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database")
	}

	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) Accounts() *AccountRepository {
	return m.accounts
}
