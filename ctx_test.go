package login_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	login "github.com/goliatone/go-login"
)

func TestAccountContext(t *testing.T) {
	account := &login.PublicAccount{ID: "id-1", Email: "ann@example.com"}
	ctx := login.WithAccountContext(context.Background(), account)

	got, ok := login.AccountFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, account, got)

	_, ok = login.AccountFromContext(context.Background())
	assert.False(t, ok)

	_, ok = login.AccountFromContext(login.WithAccountContext(context.Background(), nil))
	assert.False(t, ok)
}
