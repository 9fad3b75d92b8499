package sessionware_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-login/middleware/sessionware"
)

type fakeCarrier struct {
	cookies map[string]string
	headers map[string]string
	query   map[string]string
	params  map[string]string
}

func lookup(m map[string]string, key string, def []string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

func (f fakeCarrier) Cookies(key string, def ...string) string { return lookup(f.cookies, key, def) }
func (f fakeCarrier) GetString(key string, def string) string {
	return lookup(f.headers, key, []string{def})
}
func (f fakeCarrier) Query(key string, def ...string) string {
	return lookup(f.query, key, def)
}
func (f fakeCarrier) Param(key string, def ...string) string { return lookup(f.params, key, def) }

func TestExtractToken(t *testing.T) {
	extractors := sessionware.GetExtractors("cookie:session,header:Authorization", "Bearer")
	require.Len(t, extractors, 2)

	tests := []struct {
		name    string
		carrier fakeCarrier
		want    string
		wantErr bool
	}{
		{
			name:    "cookie",
			carrier: fakeCarrier{cookies: map[string]string{"session": "from-cookie"}},
			want:    "from-cookie",
		},
		{
			name:    "bearer header",
			carrier: fakeCarrier{headers: map[string]string{"Authorization": "Bearer from-header"}},
			want:    "from-header",
		},
		{
			name:    "scheme is case insensitive",
			carrier: fakeCarrier{headers: map[string]string{"Authorization": "bearer from-header"}},
			want:    "from-header",
		},
		{
			name: "cookie wins over header",
			carrier: fakeCarrier{
				cookies: map[string]string{"session": "from-cookie"},
				headers: map[string]string{"Authorization": "Bearer from-header"},
			},
			want: "from-cookie",
		},
		{
			name:    "wrong scheme",
			carrier: fakeCarrier{headers: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}},
			wantErr: true,
		},
		{
			name:    "scheme without token",
			carrier: fakeCarrier{headers: map[string]string{"Authorization": "Bearer "}},
			wantErr: true,
		},
		{
			name:    "scheme glued to token",
			carrier: fakeCarrier{headers: map[string]string{"Authorization": "Bearertoken"}},
			wantErr: true,
		},
		{
			name:    "nothing",
			carrier: fakeCarrier{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sessionware.ExtractToken(tt.carrier, extractors)
			if tt.wantErr {
				assert.ErrorIs(t, err, sessionware.ErrSessionMissing)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetExtractorsQueryAndParam(t *testing.T) {
	extractors := sessionware.GetExtractors("query:auth_token, param:token ,bogus, header:")
	require.Len(t, extractors, 2)

	got, err := sessionware.ExtractToken(fakeCarrier{query: map[string]string{"auth_token": "q"}}, extractors)
	require.NoError(t, err)
	assert.Equal(t, "q", got)

	got, err = sessionware.ExtractToken(fakeCarrier{params: map[string]string{"token": "p"}}, extractors)
	require.NoError(t, err)
	assert.Equal(t, "p", got)
}

func TestGetDefaultConfigRequiresResolver(t *testing.T) {
	assert.Panics(t, func() {
		sessionware.GetDefaultConfig(sessionware.Config{})
	})
}
