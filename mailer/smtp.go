package mailer

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

// SMTP sends messages through an authenticated SMTP relay
type SMTP struct {
	client *mail.Client
}

// NewSMTP builds an SMTP client. Secure selects implicit TLS on the
// configured port, otherwise STARTTLS is attempted opportunistically.
func NewSMTP(opts Options) (*SMTP, error) {
	options := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(opts.Username),
		mail.WithPassword(opts.Password),
	}

	if opts.Secure {
		options = append(options, mail.WithSSLPort(false))
	} else {
		options = append(options, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if opts.Port != 0 {
		options = append(options, mail.WithPort(opts.Port))
	}

	client, err := mail.NewClient(opts.Host, options...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create smtp client")
	}

	return &SMTP{client: client}, nil
}

// Send dials the relay and delivers msg
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}

	m, err := toMsg(msg)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send email").
			WithMetadata(map[string]any{"to": msg.To})
	}

	return nil
}

func toMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	var err error
	if msg.FromName != "" {
		err = m.FromFormat(msg.FromName, msg.From)
	} else {
		err = m.From(msg.From)
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid sender address")
	}

	if err := m.To(msg.To); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid recipient address")
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	return m, nil
}
