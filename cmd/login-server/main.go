package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"

	login "github.com/goliatone/go-login"
	"github.com/goliatone/go-login/activitymap"
	"github.com/goliatone/go-login/mailer"
	"github.com/goliatone/go-login/repository"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		addr       = flag.String("addr", ":8572", "listen address")
		dsn        = flag.String("dsn", "file:login.db?cache=shared", "sqlite DSN")
		debug      = flag.Bool("debug", false, "development logging and error payloads")
	)
	flag.Parse()

	zlog := newZap(*debug)
	defer zlog.Sync()

	logger := login.NewZapLogger(zlog)

	cfg, err := login.LoadConfig(login.WithConfigFile(*configPath))
	if err != nil {
		zlog.Fatal("failed to load config", zap.Error(err))
	}

	if *debug {
		zlog.Debug("config loaded", zap.String("config", print.MaybePrettyJSON(cfg)))
	}

	ctx := context.Background()

	db, err := openDB(ctx, *dsn, *debug)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	repos := repository.NewManager(db)
	repos.MustValidate()

	m, err := mailer.New(ctx, cfg.MailerOptions(logger))
	if err != nil {
		zlog.Fatal("failed to build mailer", zap.Error(err))
	}

	service, err := login.NewService(cfg, repos.Accounts(), m,
		login.WithLogger(logger),
		login.WithActivitySink(activitymap.NewSink(func(ctx context.Context, r activitymap.Record) error {
			zlog.Info("activity",
				zap.String("verb", r.Verb),
				zap.String("actor", r.ActorID),
				zap.String("object", r.ObjectID),
				zap.Any("metadata", r.Metadata),
			)
			return nil
		}, activitymap.WithMaskedEmails())),
	)
	if err != nil {
		zlog.Fatal("failed to build service", zap.Error(err))
	}

	controller := login.NewAccountController(cfg, service, service.Gate(),
		login.WithControllerDebug(*debug),
		login.WithControllerLogger(logger),
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			UnescapePath:          true,
			DisableStartupMessage: !*debug,
		})
	})

	login.RegisterAccountRoutes(srv.Router(), controller)

	go func() {
		zlog.Info("listening", zap.String("addr", *addr))
		if err := srv.Serve(*addr); err != nil {
			zlog.Error("server stopped", zap.Error(err))
		}
	}()

	WaitExitSignal()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown failed", zap.Error(err))
	}

	service.Wait()
}

func newZap(debug bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l
}

func openDB(ctx context.Context, dsn string, debug bool) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	db, err := repository.Open(ctx, repository.PersistenceConfig{
		Debug:  debug,
		Driver: sqliteshim.ShimName,
		Server: dsn,
	}, sqldb, sqlitedialect.New(), login.GetMigrationsFS())
	if err != nil {
		sqldb.Close()
		return nil, err
	}

	return db, nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
