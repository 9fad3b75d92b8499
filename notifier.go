package login

import (
	"context"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-login/mailer"
)

const (
	DefaultVerifySubject = "Please Verify Your Email Address"
	DefaultResetSubject  = "Reset Password Request"
)

var verifyEmailTemplate = pongo2.Must(pongo2.FromString(`<div style="margin: auto; width: 40%; padding: 10px">
  <h2>Email Verification Request</h2>
  <p>To verify your email address so you can continue to use your account, click the following link:</p>
  {{ link|safe }}
  <p>Thanks for joining the community.</p>
</div>`))

var resetEmailTemplate = pongo2.Must(pongo2.FromString(`<div style="margin: auto; width: 40%; padding: 10px">
  <h2>Password Assistance</h2>
  <p>To authenticate, please click on the Reset Password link below. It will expire in {{ minutes }} minutes.</p>
  {{ link|safe }}
  <p>Do not share this link with anyone. We take your account security very seriously. We will never ask you to disclose or verify your password, OTP, credit card, or banking account number. If you receive a suspicious email with a link to update your account information, do not click on the link. Instead, notify us immediately and share the email with us for investigation.</p>
  <p>We hope to see you again soon.</p>
</div>`))

var linkTemplate = pongo2.Must(pongo2.FromString(`<h4><a href="{{ href }}">{{ label }}</a></h4>`))

// Notification is an email before the override policy is applied
type Notification struct {
	To             string
	Subject        string
	Heading        string
	Body           string
	DefaultSubject string
	DefaultBody    string
	Link           string
}

// Notifier renders and sends account notifications
type Notifier struct {
	config Config
	mailer mailer.Mailer
	logger Logger
}

// NewNotifier returns a Notifier delivering through m
func NewNotifier(cfg Config, m mailer.Mailer, logger Logger) *Notifier {
	return &Notifier{
		config: cfg,
		mailer: m,
		logger: normalizeLogger(logger),
	}
}

// Compose applies the override policy. Configured subject and heading win
// over the defaults, a configured body is followed by the link.
func (n *Notifier) Compose(note Notification) mailer.Message {
	msg := mailer.Message{
		From:    n.config.MailFromUser,
		To:      note.To,
		Subject: note.DefaultSubject,
		HTML:    note.DefaultBody,
	}

	if note.Subject != "" {
		msg.Subject = note.Subject
	}

	if note.Body != "" {
		msg.HTML = note.Body + "<br>" + note.Link
	}

	if note.Heading != "" {
		msg.FromName = note.Heading
	}

	return msg
}

// Send composes and delivers note
func (n *Notifier) Send(ctx context.Context, note Notification) error {
	msg := n.Compose(note)

	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.Error("failed to deliver notification", "to", msg.To, "subject", msg.Subject, "error", err)
		return internalError(err, "failed to send email")
	}

	n.logger.Debug("notification delivered", "to", msg.To, "subject", msg.Subject)
	return nil
}

// VerificationNotification builds the email carrying a verification token
func (n *Notifier) VerificationNotification(to, token string) (Notification, error) {
	link, err := renderLink(n.config.VerifyLinkBase(), token, "Verify Email Address")
	if err != nil {
		return Notification{}, err
	}

	body, err := verifyEmailTemplate.Execute(pongo2.Context{"link": link})
	if err != nil {
		return Notification{}, internalError(err, "failed to render verification email")
	}

	return Notification{
		To:             to,
		Subject:        n.config.VerifyEmailSubjectLine,
		Heading:        n.config.VerifyEmailHeading,
		Body:           n.config.VerifyEmailMessage,
		DefaultSubject: DefaultVerifySubject,
		DefaultBody:    body,
		Link:           link,
	}, nil
}

// ResetNotification builds the email carrying a reset token
func (n *Notifier) ResetNotification(to, token string) (Notification, error) {
	link, err := renderLink(n.config.ResetLinkBase(), token, "Reset Password")
	if err != nil {
		return Notification{}, err
	}

	body, err := resetEmailTemplate.Execute(pongo2.Context{
		"link":    link,
		"minutes": n.config.ResetExpirationSeconds / 60,
	})
	if err != nil {
		return Notification{}, internalError(err, "failed to render reset email")
	}

	return Notification{
		To:             to,
		Subject:        n.config.ResetEmailSubjectLine,
		Heading:        n.config.ResetEmailHeading,
		Body:           n.config.ResetEmailMessage,
		DefaultSubject: DefaultResetSubject,
		DefaultBody:    body,
		Link:           link,
	}, nil
}

func renderLink(base, token, label string) (string, error) {
	out, err := linkTemplate.Execute(pongo2.Context{
		"href":  strings.TrimRight(base, "/") + "/" + token,
		"label": label,
	})
	if err != nil {
		return "", internalError(err, "failed to render email link")
	}
	return out, nil
}
