package mailer

import (
	"context"
	"fmt"
)

// Log writes messages to a logger instead of sending them. Used in
// development and tests.
type Log struct {
	logger Logger
}

// NewLog returns a Log mailer, printing to stdout when logger is nil
func NewLog(logger Logger) *Log {
	if logger == nil {
		logger = stdoutLogger{}
	}
	return &Log{logger: logger}
}

// Send logs msg
func (l *Log) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := validateMessage(msg); err != nil {
		return err
	}

	l.logger.Info("email",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"html", msg.HTML,
	)
	return nil
}

type stdoutLogger struct{}

func (stdoutLogger) Info(msg string, args ...any) {
	fmt.Println(append([]any{"[INF] MAILER", msg}, args...)...)
}

func (stdoutLogger) Error(msg string, args ...any) {
	fmt.Println(append([]any{"[ERR] MAILER", msg}, args...)...)
}
