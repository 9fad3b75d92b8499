package login

import (
	"context"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// PasswordChangedMessage is returned once a reset token has been consumed
const PasswordChangedMessage = "Your password has been reset. Please login with your new password."

type FinalizePasswordResetMessage struct {
	Token      string `json:"token" doc:"Reset password token"`
	Password   string `json:"password" example:"some_secret_word" doc:"Password"`
	OnResponse func(message string)
}

func (p FinalizePasswordResetMessage) Type() string { return "account.password_change" }

// FinalizePasswordResetHandler consumes reset tokens. Lookup and save run
// under a lock so a token is consumed once even by concurrent callers.
type FinalizePasswordResetHandler struct {
	deps *dependencies
	mu   sync.Mutex
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	token := strings.TrimSpace(event.Token)
	if token == "" || event.Password == "" {
		return ErrAuthRequired
	}

	if len(event.Password) < h.deps.config.PasswordLength {
		return ErrPasswordTooShort
	}

	if len(event.Password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	accountID, err := h.deps.tokens.Verify(PurposeReset, token)
	if err != nil {
		return ErrTokenInvalid
	}

	hash, err := h.deps.hasher.Hash(event.Password)
	if err != nil {
		return internalError(err, "failed to hash password")
	}

	ctx, cancel := context.WithTimeout(ctx, h.deps.config.StoreTimeout())
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	account, err := h.deps.store.FindByResetToken(ctx, token)
	if err != nil {
		if IsKind(err, ErrAccountNotFound) {
			return ErrTokenInvalid
		}
		h.deps.logger.Error("reset token lookup failed", "account", accountID, "error", err)
		return internalError(err, "could not retrieve password reset request")
	}

	if account.ID.String() != accountID {
		h.deps.logger.Warn("reset token subject mismatch", "account", account.ID, "subject", accountID)
		return ErrTokenInvalid
	}

	consumed, err := h.deps.machine.Apply(account, Transition{
		Event:        EventConsumeReset,
		Actor:        accountActor(account),
		Token:        token,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	if err := h.deps.store.Save(ctx, account); err != nil {
		h.deps.logger.Error("failed to persist new password", "account", account.ID, "error", err)
		return internalError(err, "failed to update password")
	}
	h.deps.machine.Record(ctx, consumed)

	if event.OnResponse != nil {
		event.OnResponse(PasswordChangedMessage)
	}

	return nil
}
