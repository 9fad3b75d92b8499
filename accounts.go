package login

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-login/mailer"
)

// dependencies is shared by every command handler of a Service
type dependencies struct {
	config   Config
	store    AccountStore
	hasher   PasswordHasher
	tokens   TokenService
	notifier *Notifier
	machine  *AccountStateMachine
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

func (d *dependencies) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now()
	}
	if err := d.activity.Record(ctx, event); err != nil {
		d.logger.Warn("activity sink failed", "event", event.EventType, "error", err)
	}
}

func accountActor(account *Account) ActorRef {
	return ActorRef{ID: account.ID.String(), Type: "account"}
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger for the service and its components
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		s.deps.logger = normalizeLogger(logger)
	}
}

// WithActivitySink sets the sink receiving audit events
func WithActivitySink(sink ActivitySink) Option {
	return func(s *Service) {
		s.deps.activity = normalizeActivitySink(sink)
	}
}

// WithHasher replaces the bcrypt hasher
func WithHasher(hasher PasswordHasher) Option {
	return func(s *Service) {
		if hasher != nil {
			s.deps.hasher = hasher
		}
	}
}

// WithTokenService replaces the JWT token service built from the config
func WithTokenService(tokens TokenService) Option {
	return func(s *Service) {
		if tokens != nil {
			s.deps.tokens = tokens
		}
	}
}

// WithClock replaces time.Now for tokens, timestamps and audit events
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.deps.now = now
		}
	}
}

// Service exposes the account operations. It holds no global state, build
// one per configuration with NewService.
type Service struct {
	deps       *dependencies
	background sync.WaitGroup

	auth               *Authenticator
	register           *RegisterAccountHandler
	verify             *VerifyEmailHandler
	resendVerification *ResendVerificationHandler
	requestReset       *InitializePasswordResetHandler
	changePassword     *FinalizePasswordResetHandler
}

// NewService validates cfg and wires the service. It fails with ErrConfig
// when cfg is incomplete.
func NewService(cfg Config, store AccountStore, m mailer.Mailer, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if store == nil || m == nil {
		return nil, ErrConfig.Clone().WithMetadata(map[string]any{
			"reason": "account store and mailer are required",
		})
	}

	s := &Service{
		deps: &dependencies{
			config:   cfg,
			store:    store,
			hasher:   Hasher{},
			activity: noopActivitySink{},
			logger:   defLogger{},
			now:      time.Now,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	d := s.deps
	if d.tokens == nil {
		d.tokens = NewTokenService(cfg, WithTokenClock(d.now), WithTokenLogger(d.logger))
	}
	d.notifier = NewNotifier(cfg, m, d.logger)
	d.machine = NewAccountStateMachine(
		WithStateMachineClock(d.now),
		WithStateMachineActivitySink(d.activity),
		WithStateMachineLogger(d.logger),
	)

	s.auth = newAuthenticator(d)
	s.register = &RegisterAccountHandler{deps: d, background: &s.background}
	s.verify = &VerifyEmailHandler{deps: d}
	s.resendVerification = &ResendVerificationHandler{deps: d}
	s.requestReset = &InitializePasswordResetHandler{deps: d}
	s.changePassword = &FinalizePasswordResetHandler{deps: d}

	return s, nil
}

// Config returns the configuration the service was built with
func (s *Service) Config() Config {
	return s.deps.config
}

// Authenticator returns the component used by Login and the gate
func (s *Service) Authenticator() *Authenticator {
	return s.auth
}

// Register creates an unverified account and emails a verification link.
// The email is sent in the background, see Wait.
func (s *Service) Register(ctx context.Context, name, email, password string) (*PublicAccount, error) {
	var out *PublicAccount
	err := s.register.Execute(ctx, RegisterAccountMessage{
		Name:     name,
		Email:    email,
		Password: password,
		OnResponse: func(account *PublicAccount) {
			out = account
		},
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Verify consumes a verification token
func (s *Service) Verify(ctx context.Context, token string) (*PublicAccount, error) {
	var out *PublicAccount
	err := s.verify.Execute(ctx, VerifyEmailMessage{
		Token: token,
		OnResponse: func(account *PublicAccount) {
			out = account
		},
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResendVerification replaces the verification token and emails it again
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	return s.resendVerification.Execute(ctx, ResendVerificationMessage{Email: email})
}

// Login returns a session token for valid credentials
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	select {
	case <-ctx.Done():
		return "", goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return s.auth.Login(ctx, email, password)
	}
}

// ResetPassword stores a reset token and emails it
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	return s.requestReset.Execute(ctx, InitializePasswordResetMessage{Email: email})
}

// ChangePassword consumes a reset token and sets a new password
func (s *Service) ChangePassword(ctx context.Context, token, password string) (string, error) {
	var out string
	err := s.changePassword.Execute(ctx, FinalizePasswordResetMessage{
		Token:    token,
		Password: password,
		OnResponse: func(message string) {
			out = message
		},
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// GetAccount loads the public view of an account
func (s *Service) GetAccount(ctx context.Context, id string) (*PublicAccount, error) {
	account, err := s.deps.store.FindByID(ctx, id)
	if err != nil {
		if IsKind(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, internalError(err, "failed to load account")
	}
	return account.Public(), nil
}

// Wait blocks until background emails have finished
func (s *Service) Wait() {
	s.background.Wait()
}
