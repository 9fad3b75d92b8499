package login_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	login "github.com/goliatone/go-login"
)

func TestConfig_ValidateDefaultsAreIncomplete(t *testing.T) {
	err := login.DefaultConfig().Validate()
	require.Error(t, err)
	assert.True(t, login.IsKind(err, login.ErrConfig))
}

func TestConfig_ValidateComplete(t *testing.T) {
	assert.NoError(t, testConfig().Validate())
}

func TestConfig_ValidateReportsFields(t *testing.T) {
	cfg := testConfig()
	cfg.ClientBaseURL = ""
	cfg.PasswordLength = 0

	err := cfg.Validate()
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Contains(t, richErr.Metadata, "client_base_url")
	assert.Contains(t, richErr.Metadata, "password_length")
}

func TestConfig_SESRequiresRegion(t *testing.T) {
	cfg := testConfig()
	cfg.MailProvider = login.MailProviderSES

	err := cfg.Validate()
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Contains(t, richErr.Metadata, "mail_provider_region")

	cfg.MailProviderRegion = "us-east-1"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.MailProvider = "pigeon"
	assert.True(t, login.IsKind(cfg.Validate(), login.ErrConfig))
}

func TestConfig_Derived(t *testing.T) {
	cfg := testConfig()
	cfg.SessionExpirationSeconds = 3600
	cfg.ResetExpirationSeconds = 900

	assert.Equal(t, time.Hour, cfg.SessionExpiration())
	assert.Equal(t, time.Hour, cfg.VerificationExpiration())
	assert.Equal(t, 15*time.Minute, cfg.ResetExpiration())
	assert.Equal(t, "session-secret", cfg.VerificationSigningKey())

	cfg.VerificationExpirationSeconds = 60
	cfg.VerificationSecret = "verify-secret"
	assert.Equal(t, time.Minute, cfg.VerificationExpiration())
	assert.Equal(t, "verify-secret", cfg.VerificationSigningKey())

	assert.Equal(t, "https://app.example.com/verify-email", cfg.VerifyLinkBase())
	assert.Equal(t, "https://app.example.com/reset-password", cfg.ResetLinkBase())

	cfg.VerifyEmailRedirect = "https://mail.example.com/confirm/"
	assert.Equal(t, "https://mail.example.com/confirm", cfg.VerifyLinkBase())

	cfg.VerifyEmailRedirect = "/confirm-email/"
	cfg.ResetEmailRedirect = "account/reset"
	assert.Equal(t, "https://app.example.com/confirm-email", cfg.VerifyLinkBase())
	assert.Equal(t, "https://app.example.com/account/reset", cfg.ResetLinkBase())

	assert.Equal(t, "cookie:session,header:Authorization", cfg.GetTokenLookup())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())

	cfg.MailTimeoutSeconds = 0
	assert.Equal(t, login.DefaultMailTimeoutSeconds*time.Second, cfg.MailTimeout())

	cfg.StoreTimeoutSeconds = 0
	assert.Equal(t, login.DefaultStoreTimeoutSeconds*time.Second, cfg.StoreTimeout())
	cfg.StoreTimeoutSeconds = 3
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout())
}

func TestLoadConfig_FileEnvAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.yaml")
	err := os.WriteFile(path, []byte(`
session_secret: file-session
reset_secret: file-reset
mail_from_user: noreply@example.com
mail_from_pass: secret
mail_host: smtp.example.com
client_base_url: https://app.example.com
password_length: 12
verify_email_subject_line: Welcome aboard
`), 0o600)
	require.NoError(t, err)

	t.Setenv("LOGIN_MAIL_PORT", "2525")
	t.Setenv("LOGIN_SESSION_SECRET", "env-session")

	cfg, err := login.LoadConfig(
		login.WithConfigFile(path),
		login.WithOverrides(map[string]any{"issuer": "login-test"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "env-session", cfg.SessionSecret)
	assert.Equal(t, "file-reset", cfg.ResetSecret)
	assert.Equal(t, 2525, cfg.MailPort)
	assert.Equal(t, 12, cfg.PasswordLength)
	assert.Equal(t, "Welcome aboard", cfg.VerifyEmailSubjectLine)
	assert.Equal(t, "login-test", cfg.Issuer)
	assert.Equal(t, login.DefaultSessionExpirationSeconds, cfg.SessionExpirationSeconds)
	assert.Equal(t, login.MailProviderSMTP, cfg.MailProvider)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := login.LoadConfig(login.WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
	assert.True(t, login.IsKind(err, login.ErrConfig))
}

func TestLoadConfig_InvalidResult(t *testing.T) {
	_, err := login.LoadConfig(login.WithEnvPrefix(""))
	require.Error(t, err)
	assert.True(t, login.IsKind(err, login.ErrConfig))
}
