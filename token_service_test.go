package login_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	login "github.com/goliatone/go-login"
)

func testConfig() login.Config {
	cfg := login.DefaultConfig()
	cfg.SessionSecret = "session-secret"
	cfg.ResetSecret = "reset-secret"
	cfg.MailFromUser = "noreply@example.com"
	cfg.MailFromPass = "mail-pass"
	cfg.MailHost = "smtp.example.com"
	cfg.ClientBaseURL = "https://app.example.com"
	cfg.MailProvider = login.MailProviderLog
	return cfg
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	ts := login.NewTokenService(testConfig(), login.WithTokenLogger(login.NopLogger{}))

	for _, purpose := range []login.Purpose{login.PurposeSession, login.PurposeVerification, login.PurposeReset} {
		t.Run(purpose.String(), func(t *testing.T) {
			token, err := ts.Issue(purpose, "account-1")
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)

			id, err := ts.Verify(purpose, token)
			require.NoError(t, err)
			assert.Equal(t, "account-1", id)
		})
	}
}

func TestTokenService_Claims(t *testing.T) {
	cfg := testConfig()
	cfg.Issuer = "login-test"
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	ts := login.NewTokenService(cfg, login.WithTokenClock(clock.Now))

	token, err := ts.Issue(login.PurposeReset, "account-1")
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &login.TokenClaims{}, func(*jwt.Token) (any, error) {
		return []byte(cfg.ResetSecret), nil
	}, jwt.WithTimeFunc(clock.Now))
	require.NoError(t, err)

	claims := parsed.Claims.(*login.TokenClaims)
	assert.Equal(t, "account-1", claims.AccountID())
	assert.Equal(t, "account-1", claims.Subject)
	assert.Equal(t, login.PurposeReset, claims.Purpose)
	assert.Equal(t, "login-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, clock.now, claims.IssuedAt(), 0)
	assert.WithinDuration(t, clock.now.Add(15*time.Minute), claims.Expires(), 0)
}

func TestTokenService_UniqueTokens(t *testing.T) {
	ts := login.NewTokenService(testConfig())

	first, err := ts.Issue(login.PurposeSession, "account-1")
	require.NoError(t, err)
	second, err := ts.Issue(login.PurposeSession, "account-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_PurposeIsolation(t *testing.T) {
	cfg := testConfig()
	// same secret for every purpose, the purpose claim alone must separate them
	cfg.ResetSecret = cfg.SessionSecret
	ts := login.NewTokenService(cfg, login.WithTokenLogger(login.NopLogger{}))

	session, err := ts.Issue(login.PurposeSession, "account-1")
	require.NoError(t, err)

	_, err = ts.Verify(login.PurposeReset, session)
	assert.ErrorIs(t, err, login.ErrTokenInvalid)

	_, err = ts.Verify(login.PurposeVerification, session)
	assert.ErrorIs(t, err, login.ErrTokenInvalid)

	reset, err := ts.Issue(login.PurposeReset, "account-1")
	require.NoError(t, err)

	_, err = ts.Verify(login.PurposeSession, reset)
	assert.ErrorIs(t, err, login.ErrTokenInvalid)
}

func TestTokenService_SecretsPerPurpose(t *testing.T) {
	ts := login.NewTokenService(testConfig(), login.WithTokenLogger(login.NopLogger{}))

	other := testConfig()
	other.SessionSecret = "another-secret"
	foreign := login.NewTokenService(other, login.WithTokenLogger(login.NopLogger{}))

	token, err := foreign.Issue(login.PurposeSession, "account-1")
	require.NoError(t, err)

	_, err = ts.Verify(login.PurposeSession, token)
	assert.ErrorIs(t, err, login.ErrTokenInvalid)
}

func TestTokenService_VerificationFallsBackToSession(t *testing.T) {
	cfg := testConfig()
	ts := login.NewTokenService(cfg)
	assert.Equal(t, 7200*time.Second, ts.Expiration(login.PurposeVerification))

	token, err := ts.Issue(login.PurposeVerification, "account-1")
	require.NoError(t, err)

	_, err = jwt.Parse(token, func(*jwt.Token) (any, error) {
		return []byte(cfg.SessionSecret), nil
	})
	assert.NoError(t, err)

	cfg.VerificationSecret = "verification-secret"
	cfg.VerificationExpirationSeconds = 60
	ts = login.NewTokenService(cfg)
	assert.Equal(t, time.Minute, ts.Expiration(login.PurposeVerification))

	token, err = ts.Issue(login.PurposeVerification, "account-1")
	require.NoError(t, err)

	_, err = jwt.Parse(token, func(*jwt.Token) (any, error) {
		return []byte(cfg.SessionSecret), nil
	})
	assert.Error(t, err)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	ts := login.NewTokenService(testConfig(), login.WithTokenClock(clock.Now), login.WithTokenLogger(login.NopLogger{}))

	token, err := ts.Issue(login.PurposeReset, "account-1")
	require.NoError(t, err)

	clock.Advance(14 * time.Minute)
	_, err = ts.Verify(login.PurposeReset, token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = ts.Verify(login.PurposeReset, token)
	assert.ErrorIs(t, err, login.ErrTokenInvalid)
	assert.False(t, login.IsKind(err, login.ErrTokenExpired))
}

func TestTokenService_Rejects(t *testing.T) {
	ts := login.NewTokenService(testConfig(), login.WithTokenLogger(login.NopLogger{}))

	token, err := ts.Issue(login.PurposeSession, "account-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &login.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "account-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Purpose: login.PurposeSession,
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"tampered":  tampered,
		"alg none":  unsigned,
		"truncated": parts[0] + "." + parts[1],
	}

	for name, candidate := range cases {
		t.Run(name, func(t *testing.T) {
			id, err := ts.Verify(login.PurposeSession, candidate)
			assert.ErrorIs(t, err, login.ErrTokenInvalid)
			assert.Empty(t, id)
		})
	}
}

func TestTokenService_NeverCrossesAccounts(t *testing.T) {
	ts := login.NewTokenService(testConfig())

	a, err := ts.Issue(login.PurposeSession, "account-a")
	require.NoError(t, err)
	b, err := ts.Issue(login.PurposeSession, "account-b")
	require.NoError(t, err)

	idA, err := ts.Verify(login.PurposeSession, a)
	require.NoError(t, err)
	idB, err := ts.Verify(login.PurposeSession, b)
	require.NoError(t, err)

	assert.Equal(t, "account-a", idA)
	assert.Equal(t, "account-b", idB)
}

func TestTokenService_IssueRequiresAccount(t *testing.T) {
	ts := login.NewTokenService(testConfig())

	_, err := ts.Issue(login.PurposeSession, " ")
	assert.True(t, login.IsKind(err, login.ErrInternal))

	_, err = ts.Issue(login.Purpose("other"), "account-1")
	assert.True(t, login.IsKind(err, login.ErrInternal))
}
