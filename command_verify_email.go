package login

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyEmailMessage struct {
	Token      string `json:"token" doc:"Verification token from the email link"`
	OnResponse func(account *PublicAccount)
}

func (e VerifyEmailMessage) Type() string { return "account.verify_email" }

type VerifyEmailHandler struct {
	deps *dependencies
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	token := strings.TrimSpace(event.Token)
	if token == "" {
		return ErrAuthRequired
	}

	accountID, err := h.deps.tokens.Verify(PurposeVerification, token)
	if err != nil {
		return ErrTokenInvalid
	}

	ctx, cancel := context.WithTimeout(ctx, h.deps.config.StoreTimeout())
	defer cancel()

	account, err := h.deps.store.FindByID(ctx, accountID)
	if err != nil {
		if IsKind(err, ErrAccountNotFound) {
			return ErrTokenInvalid
		}
		h.deps.logger.Error("verification lookup failed", "account", accountID, "error", err)
		return internalError(err, "failed to load account")
	}

	verified, err := h.deps.machine.Apply(account, Transition{
		Event: EventVerifyEmail,
		Actor: accountActor(account),
		Token: token,
	})
	if err != nil {
		return err
	}

	if err := h.deps.store.Save(ctx, account); err != nil {
		h.deps.logger.Error("failed to persist verification", "account", accountID, "error", err)
		return internalError(err, "failed to verify account")
	}
	h.deps.machine.Record(ctx, verified)

	if event.OnResponse != nil {
		event.OnResponse(account.Public())
	}

	return nil
}

type ResendVerificationMessage struct {
	Email string `json:"email" example:"ann@example.com" doc:"Account email."`
}

func (e ResendVerificationMessage) Type() string { return "account.resend_verification" }

// ResendVerificationHandler issues a fresh verification token, replacing
// the stored one, and sends it synchronously.
type ResendVerificationHandler struct {
	deps *dependencies
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
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
		return internalError(err, "failed to look up account")
	}

	if account.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := h.deps.tokens.Issue(PurposeVerification, account.ID.String())
	if err != nil {
		return internalError(err, "failed to issue verification token")
	}

	issued, err := h.deps.machine.Apply(account, Transition{
		Event: EventIssueVerification,
		Actor: accountActor(account),
		Token: token,
	})
	if err != nil {
		return err
	}

	if err := h.deps.store.Save(ctx, account); err != nil {
		h.deps.logger.Error("failed to persist verification token", "account", account.ID, "error", err)
		return internalError(err, "failed to store verification token")
	}
	h.deps.machine.Record(ctx, issued)

	note, err := h.deps.notifier.VerificationNotification(account.Email, token)
	if err != nil {
		return err
	}

	return h.deps.notifier.Send(ctx, note)
}
