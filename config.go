package login

import (
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-login/mailer"
)

// Mail providers understood by the mailer package
const (
	MailProviderSMTP = "smtp"
	MailProviderSES  = "aws-ses"
	MailProviderLog  = "log"
)

const (
	DefaultMailPort                 = 465
	DefaultPasswordLength           = 8
	DefaultSessionExpirationSeconds = 7200
	DefaultResetExpirationSeconds   = 900
	DefaultMailTimeoutSeconds       = 10
	DefaultStoreTimeoutSeconds      = 10
	DefaultSessionCookieName        = "session"
	DefaultAuthScheme               = "Bearer"
)

// Config enumerates every recognized option. Build it with DefaultConfig
// or LoadConfig and check it with Validate before use.
type Config struct {
	SessionSecret      string `koanf:"session_secret" json:"-"`
	ResetSecret        string `koanf:"reset_secret" json:"-"`
	VerificationSecret string `koanf:"verification_secret" json:"-"`

	MailFromUser       string `koanf:"mail_from_user" json:"mail_from_user"`
	MailFromPass       string `koanf:"mail_from_pass" json:"-"`
	MailHost           string `koanf:"mail_host" json:"mail_host"`
	MailPort           int    `koanf:"mail_port" json:"mail_port"`
	MailSecure         bool   `koanf:"mail_secure" json:"mail_secure"`
	MailProvider       string `koanf:"mail_provider" json:"mail_provider"`
	MailProviderRegion string `koanf:"mail_provider_region" json:"mail_provider_region"`
	MailTimeoutSeconds int    `koanf:"mail_timeout_seconds" json:"mail_timeout_seconds"`
	MailAccessKey      string `koanf:"mail_provider_access_key" json:"-"`
	MailSecretKey      string `koanf:"mail_provider_secret_key" json:"-"`

	StoreTimeoutSeconds int `koanf:"store_timeout_seconds" json:"store_timeout_seconds"`

	ClientBaseURL string `koanf:"client_base_url" json:"client_base_url"`

	PasswordLength                int `koanf:"password_length" json:"password_length"`
	SessionExpirationSeconds      int `koanf:"session_expiration_seconds" json:"session_expiration_seconds"`
	VerificationExpirationSeconds int `koanf:"verification_expiration_seconds" json:"verification_expiration_seconds"`
	ResetExpirationSeconds        int `koanf:"reset_expiration_seconds" json:"reset_expiration_seconds"`

	VerifyEmailHeading     string `koanf:"verify_email_heading" json:"verify_email_heading"`
	VerifyEmailSubjectLine string `koanf:"verify_email_subject_line" json:"verify_email_subject_line"`
	VerifyEmailMessage     string `koanf:"verify_email_message" json:"verify_email_message"`
	VerifyEmailRedirect    string `koanf:"verify_email_redirect" json:"verify_email_redirect"`

	ResetEmailHeading     string `koanf:"reset_email_heading" json:"reset_email_heading"`
	ResetEmailSubjectLine string `koanf:"reset_email_subject_line" json:"reset_email_subject_line"`
	ResetEmailMessage     string `koanf:"reset_email_message" json:"reset_email_message"`
	ResetEmailRedirect    string `koanf:"reset_email_redirect" json:"reset_email_redirect"`

	SessionCookieName   string `koanf:"session_cookie_name" json:"session_cookie_name"`
	SessionCookieSecure bool   `koanf:"session_cookie_secure" json:"session_cookie_secure"`
	TokenLookup         string `koanf:"token_lookup" json:"token_lookup"`
	AuthScheme          string `koanf:"auth_scheme" json:"auth_scheme"`
	Issuer              string `koanf:"issuer" json:"issuer"`

	DeterministicIDs bool `koanf:"deterministic_ids" json:"deterministic_ids"`
}

// DefaultConfig returns a Config holding every default. Required fields
// are left empty.
func DefaultConfig() Config {
	return Config{
		MailPort:                 DefaultMailPort,
		MailSecure:               true,
		MailProvider:             MailProviderSMTP,
		MailTimeoutSeconds:       DefaultMailTimeoutSeconds,
		StoreTimeoutSeconds:      DefaultStoreTimeoutSeconds,
		PasswordLength:           DefaultPasswordLength,
		SessionExpirationSeconds: DefaultSessionExpirationSeconds,
		ResetExpirationSeconds:   DefaultResetExpirationSeconds,
		SessionCookieName:        DefaultSessionCookieName,
		SessionCookieSecure:      true,
		AuthScheme:               DefaultAuthScheme,
	}
}

// Validate checks required fields and numeric bounds. Any violation is
// reported as ErrConfig with the field errors as metadata.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.SessionSecret, validation.Required),
		validation.Field(&c.ResetSecret, validation.Required),
		validation.Field(&c.MailFromUser, validation.Required),
		validation.Field(&c.MailFromPass, validation.Required),
		validation.Field(&c.MailHost, validation.Required),
		validation.Field(&c.ClientBaseURL, validation.Required, is.URL),
		validation.Field(&c.PasswordLength, validation.Required, validation.Min(1)),
		validation.Field(&c.SessionExpirationSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.ResetExpirationSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.VerificationExpirationSeconds, validation.Min(0)),
		validation.Field(&c.MailPort, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.MailTimeoutSeconds, validation.Min(0)),
		validation.Field(&c.StoreTimeoutSeconds, validation.Min(0)),
		validation.Field(&c.MailProvider, validation.In(MailProviderSMTP, MailProviderSES, MailProviderLog)),
		validation.Field(&c.MailProviderRegion, regionRules(c.MailProvider)...),
	)
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, ErrConfig.Message).
		WithTextCode(TextCodeConfig).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(FormatValidationErrorToMap(err))
}

func regionRules(provider string) []validation.Rule {
	if provider == MailProviderSES {
		return []validation.Rule{validation.Required}
	}
	return nil
}

// SessionExpiration is the session token lifetime
func (c Config) SessionExpiration() time.Duration {
	return time.Duration(c.SessionExpirationSeconds) * time.Second
}

// VerificationExpiration defaults to the session lifetime
func (c Config) VerificationExpiration() time.Duration {
	if c.VerificationExpirationSeconds > 0 {
		return time.Duration(c.VerificationExpirationSeconds) * time.Second
	}
	return c.SessionExpiration()
}

// ResetExpiration is the reset token lifetime
func (c Config) ResetExpiration() time.Duration {
	return time.Duration(c.ResetExpirationSeconds) * time.Second
}

// MailTimeout bounds each outbound email
func (c Config) MailTimeout() time.Duration {
	if c.MailTimeoutSeconds <= 0 {
		return DefaultMailTimeoutSeconds * time.Second
	}
	return time.Duration(c.MailTimeoutSeconds) * time.Second
}

// StoreTimeout bounds the store calls of a single operation
func (c Config) StoreTimeout() time.Duration {
	if c.StoreTimeoutSeconds <= 0 {
		return DefaultStoreTimeoutSeconds * time.Second
	}
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

// VerificationSigningKey falls back to the session secret
func (c Config) VerificationSigningKey() string {
	if c.VerificationSecret != "" {
		return c.VerificationSecret
	}
	return c.SessionSecret
}

// VerifyLinkBase is the URL verification tokens are appended to. A
// redirect path is resolved against ClientBaseURL.
func (c Config) VerifyLinkBase() string {
	return c.linkBase(c.VerifyEmailRedirect, "/verify-email")
}

// ResetLinkBase is the URL reset tokens are appended to
func (c Config) ResetLinkBase() string {
	return c.linkBase(c.ResetEmailRedirect, "/reset-password")
}

func (c Config) linkBase(redirect, fallback string) string {
	redirect = strings.TrimSpace(redirect)
	if redirect == "" {
		redirect = fallback
	}

	if isAbsoluteURL(redirect) {
		return strings.TrimRight(redirect, "/")
	}

	return strings.TrimRight(c.ClientBaseURL, "/") + "/" + strings.Trim(redirect, "/")
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// MailerOptions maps the mail settings onto mailer.Options
func (c Config) MailerOptions(logger Logger) mailer.Options {
	return mailer.Options{
		Provider:  c.MailProvider,
		Host:      c.MailHost,
		Port:      c.MailPort,
		Secure:    c.MailSecure,
		Username:  c.MailFromUser,
		Password:  c.MailFromPass,
		Region:    c.MailProviderRegion,
		AccessKey: c.MailAccessKey,
		SecretKey: c.MailSecretKey,
		Logger:    normalizeLogger(logger),
	}
}

// GetTokenLookup returns the session token lookup expression
func (c Config) GetTokenLookup() string {
	if c.TokenLookup != "" {
		return c.TokenLookup
	}
	return "cookie:" + c.GetSessionCookieName() + ",header:Authorization"
}

// GetSessionCookieName defaults to "session"
func (c Config) GetSessionCookieName() string {
	if c.SessionCookieName != "" {
		return c.SessionCookieName
	}
	return DefaultSessionCookieName
}

// GetAuthScheme defaults to "Bearer"
func (c Config) GetAuthScheme() string {
	if c.AuthScheme != "" {
		return c.AuthScheme
	}
	return DefaultAuthScheme
}

// FormatValidationErrorToMap flattens ozzo validation errors into field -> message
func FormatValidationErrorToMap(err error) map[string]any {
	out := map[string]any{}
	if err == nil {
		return out
	}

	errs, ok := err.(validation.Errors)
	if !ok {
		out["error"] = err.Error()
		return out
	}

	for field, fieldErr := range errs {
		if fieldErr != nil {
			out[field] = fieldErr.Error()
		}
	}
	return out
}
