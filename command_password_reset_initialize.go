package login

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email" example:"ann@example.com" doc:"Account email."`
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset" }

// InitializePasswordResetHandler stores a reset token on the account and
// emails it. Delivery failures are returned to the caller.
type InitializePasswordResetHandler struct {
	deps *dependencies
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	email := strings.TrimSpace(event.Email)
	if email == "" {
		return ErrAuthRequired
	}

	ctx, cancel := context.WithTimeout(ctx, h.deps.config.StoreTimeout())
	defer cancel()

	account, err := h.deps.store.FindByEmail(ctx, email)
	if err != nil {
		if IsKind(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		h.deps.logger.Error("password reset lookup failed", "email", email, "error", err)
		return internalError(err, "failed to retrieve account for password reset")
	}

	token, err := h.deps.tokens.Issue(PurposeReset, account.ID.String())
	if err != nil {
		return internalError(err, "failed to issue reset token")
	}

	requested, err := h.deps.machine.Apply(account, Transition{
		Event: EventRequestReset,
		Actor: accountActor(account),
		Token: token,
	})
	if err != nil {
		return err
	}

	if err := h.deps.store.Save(ctx, account); err != nil {
		h.deps.logger.Error("failed to persist reset token", "account", account.ID, "error", err)
		return internalError(err, "failed to create password reset")
	}
	h.deps.machine.Record(ctx, requested)

	note, err := h.deps.notifier.ResetNotification(account.Email, token)
	if err != nil {
		return err
	}

	return h.deps.notifier.Send(ctx, note)
}
