// Package sessionware extracts a session token from a request and resolves
// it before the next handler runs.
package sessionware

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "cookie:session,header:" + router.HeaderAuthorization

	// ErrSessionMissing is returned when no extractor found a token
	ErrSessionMissing = goerrors.New("missing or malformed session token", goerrors.CategoryAuth).
				WithTextCode("UNAUTHENTICATED").
				WithCode(goerrors.CodeUnauthorized)
)

// Carrier is the part of router.Context extractors read from
type Carrier interface {
	Cookies(key string, defaultValue ...string) string
	GetString(key string, def string) string
	Query(key string, defaultValue ...string) string
	Param(key string, defaultValue ...string) string
}

// Resolver turns a raw token into the value stored for the request
type Resolver func(ctx context.Context, token string) (any, error)

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	// Resolver is required
	Resolver    Resolver
	ContextKey  string
	TokenLookup string
	AuthScheme  string
	// ContextEnricher propagates the resolved value to the standard context
	ContextEnricher func(c context.Context, value any) context.Context
}

func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return next(ctx)
			}

			raw, err := ExtractToken(ctx, extractors)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			value, err := cfg.Resolver(ctx.Context(), raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, value)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), value))
			}

			if cfg.SuccessHandler != nil {
				return cfg.SuccessHandler(ctx)
			}
			return next(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.JSON(router.StatusUnauthorized, map[string]any{
				"error": ErrSessionMissing.Message,
			})
		}
	}

	if cfg.Resolver == nil {
		panic("LOGIN: session middleware configuration: Resolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "account"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []Extractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// ExtractToken returns the first token found by extractors
func ExtractToken(c Carrier, extractors []Extractor) (string, error) {
	for _, extractor := range extractors {
		raw, err := extractor(c)
		if raw != "" && err == nil {
			return raw, nil
		}
	}
	return "", ErrSessionMissing
}

type Extractor func(c Carrier) (string, error)

// GetExtractors parses a lookup such as "cookie:session,header:Authorization"
func GetExtractors(tokenLookup string, authSchemes ...string) []Extractor {
	extractors := make([]Extractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && authSchemes[0] != "" {
		authScheme = authSchemes[0]
	}

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source, key := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}

		switch source {
		case "header":
			extractors = append(extractors, fromHeader(key, authScheme))
		case "query":
			extractors = append(extractors, fromQuery(key))
		case "param":
			extractors = append(extractors, fromParam(key))
		case "cookie":
			extractors = append(extractors, fromCookie(key))
		}
	}

	return extractors
}

// fromHeader expects "<scheme> <token>", the scheme is matched case-insensitively
func fromHeader(header string, authScheme string) Extractor {
	authScheme = strings.TrimSpace(authScheme)
	return func(c Carrier) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			if token := strings.TrimSpace(a[l:]); token != "" {
				return token, nil
			}
		}
		return "", ErrSessionMissing
	}
}

func fromQuery(param string) Extractor {
	return func(c Carrier) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrSessionMissing
		}
		return token, nil
	}
}

func fromParam(param string) Extractor {
	return func(c Carrier) (string, error) {
		token := c.Param(param, "")
		if token == "" {
			return "", ErrSessionMissing
		}
		return token, nil
	}
}

func fromCookie(name string) Extractor {
	return func(c Carrier) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrSessionMissing
		}
		return token, nil
	}
}
