package login_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	login "github.com/goliatone/go-login"
)

// countingHasher wraps the bcrypt hasher and counts comparisons
type countingHasher struct {
	login.Hasher
	verifies atomic.Int32
}

func (c *countingHasher) Verify(password, hash string) bool {
	c.verifies.Add(1)
	return c.Hasher.Verify(password, hash)
}

func TestAuthenticator_UnknownEmailStillCompares(t *testing.T) {
	hasher := &countingHasher{}
	svc, _, _ := newTestService(t, login.WithHasher(hasher))

	_, err := svc.Login(context.Background(), "nobody@example.com", "password1")
	assert.ErrorIs(t, err, login.ErrInvalidCredentials)
	assert.Equal(t, int32(1), hasher.verifies.Load())
}

func TestAuthenticator_EmptyInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "", "password1")
	assert.ErrorIs(t, err, login.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "ann@example.com", "")
	assert.ErrorIs(t, err, login.ErrInvalidCredentials)
}

func TestAuthenticator_StoreFailureIsInternal(t *testing.T) {
	store := &MockAccountStore{}
	store.On("FindByEmail", mock.Anything, "ann@example.com").Return(nil, errors.New("connection reset"))

	svc, err := login.NewService(testConfig(), store, &outbox{}, login.WithLogger(login.NopLogger{}))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ann@example.com", "password1")
	require.Error(t, err)
	assert.True(t, login.IsKind(err, login.ErrInternal))
	assert.NotErrorIs(t, err, login.ErrInvalidCredentials)
}

func TestAuthenticator_SessionTokenIsNotPersisted(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "password1")
	require.NoError(t, err)
	svc.Wait()

	saves := store.saves
	token, err := svc.Login(ctx, "ann@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, saves, store.saves)

	stored := store.get("ann@example.com")
	assert.NotEqual(t, token, stored.EmailVerificationToken)
	assert.NotEqual(t, token, stored.PasswordResetToken)
}

func TestAuthenticator_AccountFromSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	auth := svc.Authenticator()

	created, err := svc.Register(ctx, "Ann", "ann@example.com", "password1")
	require.NoError(t, err)
	svc.Wait()

	token, err := svc.Login(ctx, "ann@example.com", "password1")
	require.NoError(t, err)

	account, err := auth.AccountFromSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, account.ID)

	_, err = auth.AccountFromSession(ctx, "")
	assert.ErrorIs(t, err, login.ErrUnauthenticated)

	_, err = auth.AccountFromSession(ctx, tamper(token))
	assert.ErrorIs(t, err, login.ErrUnauthenticated)

	orphan, err := login.NewTokenService(testConfig()).Issue(login.PurposeSession, uuid.NewString())
	require.NoError(t, err)
	_, err = auth.AccountFromSession(ctx, orphan)
	assert.ErrorIs(t, err, login.ErrUnauthenticated)
}
