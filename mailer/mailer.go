// Package mailer delivers rendered emails over SMTP, AWS SES or a log sink.
package mailer

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Providers understood by New
const (
	ProviderSMTP = "smtp"
	ProviderSES  = "aws-ses"
	ProviderLog  = "log"
)

// Message is a rendered email ready for delivery
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	HTML     string
}

// Mailer delivers a single message
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Func adapts a function to the Mailer interface
type Func func(ctx context.Context, msg Message) error

// Send implements Mailer
func (f Func) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Logger is the subset of the login logger the mailers use
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options selects and configures a provider
type Options struct {
	Provider  string
	Host      string
	Port      int
	Secure    bool
	Username  string
	Password  string
	Region    string
	AccessKey string
	SecretKey string
	Logger    Logger
}

// New returns the mailer for opts.Provider, smtp when empty
func New(ctx context.Context, opts Options) (Mailer, error) {
	switch strings.ToLower(opts.Provider) {
	case "", ProviderSMTP:
		return NewSMTP(opts)
	case ProviderSES:
		return NewSES(ctx, opts)
	case ProviderLog:
		return NewLog(opts.Logger), nil
	}

	return nil, goerrors.New("unknown mail provider", goerrors.CategoryValidation).
		WithTextCode("CONFIG_ERROR").
		WithMetadata(map[string]any{"provider": opts.Provider})
}

func validateMessage(msg Message) error {
	if msg.To == "" || msg.From == "" {
		return goerrors.New("message requires sender and recipient", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"to": msg.To, "from": msg.From})
	}
	return nil
}
