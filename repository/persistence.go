package repository

import (
	"context"
	"database/sql"
	"io/fs"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	login "github.com/goliatone/go-login"
)

// DefaultPingTimeout bounds the connection check done by Open.
const DefaultPingTimeout = 5 * time.Second

// PersistenceConfig holds the settings the persistence client reads.
type PersistenceConfig struct {
	Debug          bool
	Driver         string
	Server         string
	PingTimeout    time.Duration
	OtelIdentifier string
}

func (c PersistenceConfig) GetDebug() bool { return c.Debug }

func (c PersistenceConfig) GetDriver() string { return c.Driver }

func (c PersistenceConfig) GetServer() string { return c.Server }

func (c PersistenceConfig) GetOtelIdentifier() string { return c.OtelIdentifier }

func (c PersistenceConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return DefaultPingTimeout
	}
	return c.PingTimeout
}

var registerModels sync.Once

// Open builds a bun handle on sqldb through the persistence client and
// applies every pending migration from migrations.
func Open(ctx context.Context, cfg PersistenceConfig, sqldb *sql.DB, dialect schema.Dialect, migrations fs.FS) (*bun.DB, error) {
	registerModels.Do(func() {
		persistence.RegisterModel((*login.Account)(nil))
	})

	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create persistence client")
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets(dialect.Name().String()),
	)

	if err := client.Migrate(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to run migrations")
	}

	return client.DB(), nil
}
