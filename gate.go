package login

import (
	"context"
	"net/http"

	"github.com/goliatone/go-router"

	"github.com/goliatone/go-login/middleware/sessionware"
)

// DefaultGateContextKey is the router locals key holding the account
const DefaultGateContextKey = "account"

// SessionResolver resolves a session token to an account
type SessionResolver interface {
	AccountFromSession(ctx context.Context, token string) (*PublicAccount, error)
}

// Gate admits requests carrying a valid session token. It never changes
// stored state.
type Gate struct {
	resolver    SessionResolver
	extractors  []sessionware.Extractor
	tokenLookup string
	authScheme  string
	contextKey  string
	logger      Logger
}

// NewGate builds a gate reading tokens as configured by cfg
func NewGate(cfg Config, resolver SessionResolver, logger Logger) *Gate {
	return &Gate{
		resolver:    resolver,
		extractors:  sessionware.GetExtractors(cfg.GetTokenLookup(), cfg.GetAuthScheme()),
		tokenLookup: cfg.GetTokenLookup(),
		authScheme:  cfg.GetAuthScheme(),
		contextKey:  DefaultGateContextKey,
		logger:      normalizeLogger(logger),
	}
}

// Gate returns a gate backed by the service authenticator
func (s *Service) Gate() *Gate {
	return NewGate(s.deps.config, s.auth, s.deps.logger)
}

// Authenticate extracts the session token from c and resolves it. Every
// failure is ErrUnauthenticated.
func (g *Gate) Authenticate(ctx context.Context, c sessionware.Carrier) (*PublicAccount, error) {
	token, err := sessionware.ExtractToken(c, g.extractors)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return g.resolve(ctx, token)
}

func (g *Gate) resolve(ctx context.Context, token string) (*PublicAccount, error) {
	account, err := g.resolver.AccountFromSession(ctx, token)
	if err != nil || account == nil {
		g.logger.Debug("session rejected", "reason", TextCode(err))
		return nil, ErrUnauthenticated
	}
	return account, nil
}

// Middleware protects routes. Rejected requests are answered through
// errorHandler, or with a 401 JSON body when it is nil.
func (g *Gate) Middleware(errorHandler router.ErrorHandler) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = func(c router.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, errorResponse(ErrUnauthenticated))
		}
	}

	return sessionware.New(sessionware.Config{
		ErrorHandler: func(c router.Context, err error) error {
			return errorHandler(c, ErrUnauthenticated)
		},
		Resolver: func(ctx context.Context, token string) (any, error) {
			return g.resolve(ctx, token)
		},
		ContextKey:  g.contextKey,
		TokenLookup: g.tokenLookup,
		AuthScheme:  g.authScheme,
		ContextEnricher: func(ctx context.Context, value any) context.Context {
			account, _ := value.(*PublicAccount)
			return WithAccountContext(ctx, account)
		},
	})
}
