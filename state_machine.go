package login

import (
	"context"
	"crypto/subtle"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidTransition = "INVALID_ACCOUNT_STATE_TRANSITION"

// ErrInvalidTransition is returned when an event does not apply to the
// account in its current state.
var ErrInvalidTransition = goerrors.New("invalid account state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// AccountStatus is derived from the stored account fields
type AccountStatus string

const (
	AccountStatusUnverified     AccountStatus = "unverified"
	AccountStatusVerified       AccountStatus = "verified"
	AccountStatusResetRequested AccountStatus = "reset_requested"
)

// AccountEvent is an input to the account state machine
type AccountEvent string

const (
	EventIssueVerification AccountEvent = "issue_verification"
	EventVerifyEmail       AccountEvent = "verify_email"
	EventRequestReset      AccountEvent = "request_reset"
	EventConsumeReset      AccountEvent = "consume_reset"
)

// ActorRef identifies who or what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// Transition carries the event input. Token is the presented or newly
// issued token, PasswordHash the replacement hash for EventConsumeReset.
type Transition struct {
	Event        AccountEvent
	Actor        ActorRef
	Token        string
	PasswordHash string
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*AccountStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *AccountStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *AccountStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *AccountStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// AccountStateMachine applies events to an account in memory. Persisting
// the result is left to the caller.
type AccountStateMachine struct {
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

// NewAccountStateMachine returns a state machine with a noop activity sink
func NewAccountStateMachine(opts ...StateMachineOption) *AccountStateMachine {
	sm := &AccountStateMachine{
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

// CurrentStatus derives the status of account
func (sm *AccountStateMachine) CurrentStatus(account *Account) AccountStatus {
	if account == nil {
		return ""
	}
	if account.PasswordResetToken != "" {
		return AccountStatusResetRequested
	}
	if account.EmailVerified {
		return AccountStatusVerified
	}
	return AccountStatusUnverified
}

// Apply mutates account according to tr and returns the activity event
// describing the transition. On error the account is untouched. The event
// is not published, call Record once the account has been persisted.
func (sm *AccountStateMachine) Apply(account *Account, tr Transition) (ActivityEvent, error) {
	if account == nil {
		return ActivityEvent{}, ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"event":  tr.Event,
			"reason": "account is nil",
		})
	}

	from := sm.CurrentStatus(account)

	var err error
	switch tr.Event {
	case EventIssueVerification:
		err = sm.issueVerification(account, tr)
	case EventVerifyEmail:
		err = sm.verifyEmail(account, tr)
	case EventRequestReset:
		err = sm.requestReset(account, tr)
	case EventConsumeReset:
		err = sm.consumeReset(account, tr)
	default:
		err = ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"event":  tr.Event,
			"reason": "unknown event",
		})
	}

	if err != nil {
		return ActivityEvent{}, err
	}

	now := sm.now()
	account.UpdatedAt = now

	return ActivityEvent{
		EventType:  activityForEvent(tr.Event),
		Actor:      tr.Actor,
		AccountID:  account.ID.String(),
		FromStatus: from,
		ToStatus:   sm.CurrentStatus(account),
		OccurredAt: now,
	}, nil
}

func (sm *AccountStateMachine) issueVerification(account *Account, tr Transition) error {
	if account.EmailVerified {
		return ErrAlreadyVerified
	}
	if tr.Token == "" {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"event":  tr.Event,
			"reason": "token is empty",
		})
	}
	account.EmailVerificationToken = tr.Token
	return nil
}

// verifyEmail checks the verified flag before comparing tokens, the stored
// token is cleared once verified.
func (sm *AccountStateMachine) verifyEmail(account *Account, tr Transition) error {
	if account.EmailVerified {
		return ErrAlreadyVerified
	}
	if !tokensEqual(account.EmailVerificationToken, tr.Token) {
		return ErrTokenInvalid
	}
	account.EmailVerified = true
	account.EmailVerificationToken = ""
	return nil
}

func (sm *AccountStateMachine) requestReset(account *Account, tr Transition) error {
	if tr.Token == "" {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"event":  tr.Event,
			"reason": "token is empty",
		})
	}
	account.PasswordResetToken = tr.Token
	return nil
}

func (sm *AccountStateMachine) consumeReset(account *Account, tr Transition) error {
	if !tokensEqual(account.PasswordResetToken, tr.Token) {
		return ErrTokenInvalid
	}
	if tr.PasswordHash == "" {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"event":  tr.Event,
			"reason": "password hash is empty",
		})
	}
	account.PasswordHash = tr.PasswordHash
	account.PasswordResetToken = ""
	return nil
}

// Record publishes a transition event. Sink failures are logged only.
func (sm *AccountStateMachine) Record(ctx context.Context, event ActivityEvent) {
	if sm.activitySink == nil || event.EventType == "" {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	if err := sm.activitySink.Record(ctx, event); err != nil {
		sm.logger.Warn("activity sink failed", "event", event.EventType, "error", err)
	}
}

// tokensEqual never matches an empty stored token
func tokensEqual(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

func activityForEvent(event AccountEvent) ActivityEventType {
	switch event {
	case EventIssueVerification:
		return ActivityEventVerificationIssued
	case EventVerifyEmail:
		return ActivityEventEmailVerified
	case EventRequestReset:
		return ActivityEventPasswordResetRequested
	case EventConsumeReset:
		return ActivityEventPasswordResetSuccess
	}
	return ""
}
