package login

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the account role
type Role string

const (
	// RoleUser is assigned on registration
	RoleUser Role = "USER"
	// RoleAdmin is granted out of band
	RoleAdmin Role = "ADMIN"
)

// Account is the persisted account record
type Account struct {
	bun.BaseModel          `bun:"table:accounts,alias:acc"`
	ID                     uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name                   string    `bun:"name,notnull" json:"name"`
	Email                  string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash           string    `bun:"password_hash,notnull" json:"-"`
	AvatarURL              string    `bun:"avatar_url" json:"avatar"`
	EmailVerified          bool      `bun:"email_verified,notnull" json:"email_verified"`
	EmailVerificationToken string    `bun:"email_verification_token" json:"-"`
	PasswordResetToken     string    `bun:"password_reset_token" json:"-"`
	Role                   Role      `bun:"role,notnull" json:"role"`
	CreatedAt              time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt              time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// PublicAccount is the projection returned to callers. It never carries
// the password hash or any stored token.
type PublicAccount struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Avatar        string    `json:"avatar"`
	EmailVerified bool      `json:"email_verified"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public returns the public projection of the account
func (a *Account) Public() *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		ID:            a.ID.String(),
		Name:          a.Name,
		Email:         a.Email,
		Avatar:        a.AvatarURL,
		EmailVerified: a.EmailVerified,
		Role:          a.Role,
		CreatedAt:     a.CreatedAt,
	}
}

// NewAccount builds an unverified account with a fresh id and avatar
func NewAccount(name, email, passwordHash string, deterministicID bool) (*Account, error) {
	id := uuid.New()
	if deterministicID {
		var err error
		if id, err = hashid.NewUUID(email); err != nil {
			return nil, internalError(err, "failed to derive account id")
		}
	}

	return &Account{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		AvatarURL:    GravatarURL(email),
		Role:         RoleUser,
	}, nil
}

// GravatarURL returns the avatar for email: 200px, pg rated, mystery man fallback
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=200&r=pg&d=mm", hex.EncodeToString(sum[:]))
}
