// Package activitymap turns login activity events into flat records that
// audit stores and queues can consume without importing the login package
// types.
package activitymap

import (
	"context"
	"strings"
	"time"

	login "github.com/goliatone/go-login"
)

// Metadata keys added by Normalize
const (
	KeyActorType  = "actor_type"
	KeyFromStatus = "from_status"
	KeyToStatus   = "to_status"
)

// Record is the normalized activity shape
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes Normalize
type Option func(*settings)

type settings struct {
	channel       string
	objectType    string
	actorFallback string
	maskEmails    bool
	clock         func() time.Time
}

// WithChannel overrides the "login" channel
func WithChannel(channel string) Option {
	return func(s *settings) {
		s.channel = strings.TrimSpace(channel)
	}
}

// WithObjectType overrides the "account" object type
func WithObjectType(objectType string) Option {
	return func(s *settings) {
		s.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback is used when the event has neither actor nor account
func WithActorFallback(actorID string) Option {
	return func(s *settings) {
		s.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithMaskedEmails replaces the local part of any "email" metadata value
func WithMaskedEmails() Option {
	return func(s *settings) {
		s.maskEmails = true
	}
}

// WithClock stamps events that carry no time
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.clock = now
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		channel:       "login",
		objectType:    "account",
		actorFallback: "anonymous",
		clock:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// Normalize maps event onto a Record. The event metadata is copied, never
// modified.
func Normalize(event login.ActivityEvent, opts ...Option) Record {
	s := newSettings(opts)

	actor := strings.TrimSpace(event.Actor.ID)
	if actor == "" {
		actor = strings.TrimSpace(event.AccountID)
	}
	if actor == "" {
		actor = s.actorFallback
	}

	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock().UTC()
	}

	return Record{
		ActorID:    actor,
		Verb:       string(event.EventType),
		ObjectType: s.objectType,
		ObjectID:   strings.TrimSpace(event.AccountID),
		Channel:    s.channel,
		Metadata:   metadataFor(event, s),
		OccurredAt: occurred,
	}
}

func metadataFor(event login.ActivityEvent, s settings) map[string]any {
	out := map[string]any{}
	for k, v := range event.Metadata {
		out[k] = v
	}

	if t := strings.TrimSpace(event.Actor.Type); t != "" {
		if _, ok := out[KeyActorType]; !ok {
			out[KeyActorType] = t
		}
	}
	if event.FromStatus != "" {
		out[KeyFromStatus] = string(event.FromStatus)
	}
	if event.ToStatus != "" {
		out[KeyToStatus] = string(event.ToStatus)
	}

	if s.maskEmails {
		if email, ok := out["email"].(string); ok {
			out["email"] = maskEmail(email)
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// Sink normalizes every event and hands the record to emit. It implements
// login.ActivitySink.
type Sink struct {
	emit func(ctx context.Context, record Record) error
	opts []Option
}

var _ login.ActivitySink = (*Sink)(nil)

func NewSink(emit func(ctx context.Context, record Record) error, opts ...Option) *Sink {
	return &Sink{emit: emit, opts: opts}
}

func (s *Sink) Record(ctx context.Context, event login.ActivityEvent) error {
	if s == nil || s.emit == nil {
		return nil
	}
	return s.emit(ctx, Normalize(event, s.opts...))
}
