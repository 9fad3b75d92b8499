package login

import (
	"context"

	"github.com/goliatone/go-router"
)

var accountCtxKey = &contextKey{"account"}

type contextKey struct {
	name string
}

// WithAccountContext sets the authenticated account in the given context
func WithAccountContext(ctx context.Context, account *PublicAccount) context.Context {
	return context.WithValue(ctx, accountCtxKey, account)
}

// AccountFromContext finds the authenticated account in the context
func AccountFromContext(ctx context.Context) (*PublicAccount, bool) {
	raw, ok := ctx.Value(accountCtxKey).(*PublicAccount)
	return raw, ok && raw != nil
}

// AccountFromRouter reads the account stored by the gate middleware
func AccountFromRouter(ctx router.Context, key string) (*PublicAccount, bool) {
	if key == "" {
		key = DefaultGateContextKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return AccountFromContext(ctx.Context())
	}
	account, ok := raw.(*PublicAccount)
	return account, ok && account != nil
}
