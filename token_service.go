package login

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and checks purpose scoped tokens
type TokenService interface {
	Issue(purpose Purpose, accountID string) (string, error)
	Verify(purpose Purpose, token string) (string, error)
}

type purposeKey struct {
	secret     []byte
	expiration time.Duration
}

// JWTTokenService signs HS256 tokens with one secret and lifetime per purpose
type JWTTokenService struct {
	keys   map[Purpose]purposeKey
	issuer string
	now    func() time.Time
	logger Logger
}

// TokenServiceOption configures a JWTTokenService
type TokenServiceOption func(*JWTTokenService)

// WithTokenClock replaces time.Now, mostly for tests
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *JWTTokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger used to report rejected tokens
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *JWTTokenService) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService derives secrets and lifetimes for every purpose from cfg.
// Verification falls back to the session secret and lifetime when unset.
func NewTokenService(cfg Config, opts ...TokenServiceOption) *JWTTokenService {
	ts := &JWTTokenService{
		keys: map[Purpose]purposeKey{
			PurposeSession: {
				secret:     []byte(cfg.SessionSecret),
				expiration: cfg.SessionExpiration(),
			},
			PurposeVerification: {
				secret:     []byte(cfg.VerificationSigningKey()),
				expiration: cfg.VerificationExpiration(),
			},
			PurposeReset: {
				secret:     []byte(cfg.ResetSecret),
				expiration: cfg.ResetExpiration(),
			},
		},
		issuer: cfg.Issuer,
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		opt(ts)
	}

	return ts
}

// Expiration returns the lifetime of tokens issued for purpose
func (ts *JWTTokenService) Expiration(purpose Purpose) time.Duration {
	return ts.keys[purpose].expiration
}

// Issue signs a token binding accountID to purpose
func (ts *JWTTokenService) Issue(purpose Purpose, accountID string) (string, error) {
	key, ok := ts.keys[purpose]
	if !ok {
		return "", internalError(fmt.Errorf("unknown token purpose %q", purpose), "failed to issue token")
	}

	if strings.TrimSpace(accountID) == "" {
		return "", internalError(fmt.Errorf("empty account id"), "failed to issue token")
	}

	now := ts.now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.expiration)),
		},
		UID:     accountID,
		Purpose: purpose,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(key.secret)
	if err != nil {
		return "", internalError(err, "failed to sign token")
	}

	return signed, nil
}

// Verify returns the account id a token was issued for. Every rejection is
// reported as ErrTokenInvalid, the detailed reason is only logged.
func (ts *JWTTokenService) Verify(purpose Purpose, token string) (string, error) {
	claims, err := ts.parse(purpose, token)
	if err != nil {
		ts.logger.Debug("token rejected", "purpose", purpose, "reason", TextCode(err))
		return "", ErrTokenInvalid
	}
	return claims.AccountID(), nil
}

func (ts *JWTTokenService) parse(purpose Purpose, token string) (*TokenClaims, error) {
	key, ok := ts.keys[purpose]
	if !ok || token == "" {
		return nil, ErrTokenMalformed
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key.secret, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Purpose != purpose || claims.AccountID() == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
