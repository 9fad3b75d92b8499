package login

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose scopes a token to the one operation it may be used for
type Purpose string

const (
	PurposeSession      Purpose = "session"
	PurposeVerification Purpose = "verification"
	PurposeReset        Purpose = "reset"
)

func (p Purpose) String() string {
	return string(p)
}

// Valid reports whether p is one of the known purposes
func (p Purpose) Valid() bool {
	switch p {
	case PurposeSession, PurposeVerification, PurposeReset:
		return true
	}
	return false
}

// TokenClaims is the payload carried by every token we issue
type TokenClaims struct {
	jwt.RegisteredClaims
	UID     string  `json:"uid,omitempty"`
	Purpose Purpose `json:"pur"`
}

// AccountID returns the account the token was issued for
func (c *TokenClaims) AccountID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil || claims.ID != "" {
		return
	}
	claims.ID = uuid.NewString()
}
