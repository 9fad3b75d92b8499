package login

import (
	"context"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
)

type RegisterAccountMessage struct {
	Name       string `json:"name" example:"Ann" doc:"Display name."`
	Email      string `json:"email" example:"ann@example.com" doc:"Account email."`
	Password   string `json:"password" example:"some_secret_word" doc:"Password"`
	OnResponse func(account *PublicAccount)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// Validate checks the shape of the payload. Password length is only
// enforced when a password is changed.
func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.Email, validation.Required, is.EmailFormat),
		validation.Field(&e.Password, validation.Required),
	)
}

type RegisterAccountHandler struct {
	deps       *dependencies
	background *sync.WaitGroup
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	event.Name = strings.TrimSpace(event.Name)
	event.Email = strings.TrimSpace(event.Email)

	if err := event.Validate(); err != nil {
		return validationError(err).WithMetadata(FormatValidationErrorToMap(err))
	}

	if len(event.Password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	ctx, cancel := context.WithTimeout(ctx, h.deps.config.StoreTimeout())
	defer cancel()

	existing, err := h.deps.store.FindByEmail(ctx, event.Email)
	if err != nil && !IsKind(err, ErrAccountNotFound) {
		h.deps.logger.Error("registration lookup failed", "email", event.Email, "error", err)
		return internalError(err, "failed to look up account")
	}
	if existing != nil {
		return ErrConflict
	}

	hash, err := h.deps.hasher.Hash(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return richErr
		}
		return internalError(err, "failed to hash password")
	}

	account, err := NewAccount(event.Name, event.Email, hash, h.deps.config.DeterministicIDs)
	if err != nil {
		return err
	}

	now := h.deps.now()
	account.CreatedAt = now
	account.UpdatedAt = now

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
		if IsKind(err, ErrConflict) {
			return ErrConflict
		}
		h.deps.logger.Error("failed to persist account", "email", event.Email, "error", err)
		return internalError(err, "failed to create account")
	}

	h.deps.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		Actor:     accountActor(account),
		AccountID: account.ID.String(),
		ToStatus:  h.deps.machine.CurrentStatus(account),
	})
	h.deps.machine.Record(ctx, issued)

	h.sendVerification(ctx, account.Email, token)

	if event.OnResponse != nil {
		event.OnResponse(account.Public())
	}

	return nil
}

// sendVerification delivers the email in the background. Failures are
// logged and never reach the caller.
func (h *RegisterAccountHandler) sendVerification(ctx context.Context, email, token string) {
	note, err := h.deps.notifier.VerificationNotification(email, token)
	if err != nil {
		h.deps.logger.Error("failed to build verification email", "email", email, "error", err)
		return
	}

	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.deps.config.MailTimeout())

	h.background.Add(1)
	go func() {
		defer h.background.Done()
		defer cancel()

		if err := h.deps.notifier.Send(mailCtx, note); err != nil {
			h.deps.logger.Warn("verification email not delivered", "email", email, "error", err)
		}
	}()
}
