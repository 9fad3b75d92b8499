package login

import (
	"context"
	"strings"
	"sync"
)

// Authenticator exchanges credentials for session tokens and resolves
// session tokens back to accounts.
type Authenticator struct {
	deps *dependencies

	decoyOnce sync.Once
	decoy     string
}

func newAuthenticator(deps *dependencies) *Authenticator {
	return &Authenticator{deps: deps}
}

// Login returns a session token. Unknown emails and wrong passwords both
// yield ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, a.deps.config.StoreTimeout())
	defer cancel()

	account, err := a.deps.store.FindByEmail(ctx, email)
	if err != nil {
		if IsKind(err, ErrAccountNotFound) {
			// spend the same bcrypt work as a real comparison
			a.deps.hasher.Verify(password, a.decoyHash())
			a.recordFailure(ctx, "", email, "unknown email")
			return "", ErrInvalidCredentials
		}
		a.deps.logger.Error("login lookup failed", "email", email, "error", err)
		return "", internalError(err, "failed to look up account")
	}

	if !a.deps.hasher.Verify(password, account.PasswordHash) {
		a.recordFailure(ctx, account.ID.String(), email, "password mismatch")
		return "", ErrInvalidCredentials
	}

	token, err := a.deps.tokens.Issue(PurposeSession, account.ID.String())
	if err != nil {
		return "", internalError(err, "failed to issue session token")
	}

	a.deps.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     accountActor(account),
		AccountID: account.ID.String(),
	})

	return token, nil
}

// AccountFromSession resolves a session token to the account it was
// issued for. Any failure is ErrUnauthenticated.
func (a *Authenticator) AccountFromSession(ctx context.Context, token string) (*PublicAccount, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	accountID, err := a.deps.tokens.Verify(PurposeSession, token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	account, err := a.deps.store.FindByID(ctx, accountID)
	if err != nil {
		if !IsKind(err, ErrAccountNotFound) {
			a.deps.logger.Error("session account lookup failed", "account", accountID, "error", err)
		}
		return nil, ErrUnauthenticated
	}

	return account.Public(), nil
}

func (a *Authenticator) decoyHash() string {
	a.decoyOnce.Do(func() {
		hash, err := a.deps.hasher.Hash("login-decoy-password")
		if err != nil {
			a.deps.logger.Warn("failed to build decoy hash", "error", err)
		}
		a.decoy = hash
	})
	return a.decoy
}

func (a *Authenticator) recordFailure(ctx context.Context, accountID, email, reason string) {
	a.deps.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     ActorRef{ID: accountID, Type: "account"},
		AccountID: accountID,
		Metadata: map[string]any{
			"email":  email,
			"reason": reason,
		},
	})
}
