package login

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"conflict":          {ErrConflict, http.StatusConflict},
		"already verified":  {ErrAlreadyVerified, http.StatusConflict},
		"credentials":       {ErrInvalidCredentials, http.StatusUnauthorized},
		"auth required":     {ErrAuthRequired, http.StatusUnauthorized},
		"token invalid":     {ErrTokenInvalid, http.StatusUnauthorized},
		"unauthenticated":   {ErrUnauthenticated, http.StatusUnauthorized},
		"not found":         {ErrAccountNotFound, http.StatusNotFound},
		"password short":    {ErrPasswordTooShort, http.StatusBadRequest},
		"password long":     {ErrPasswordTooLong, http.StatusBadRequest},
		"validation":        {validationError(errors.New("bad")), http.StatusBadRequest},
		"internal":          {internalError(errors.New("db down"), "failed"), http.StatusInternalServerError},
		"plain error":       {errors.New("boom"), http.StatusInternalServerError},
		"cloned conflict":   {ErrConflict.Clone(), http.StatusConflict},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.status, StatusCode(tc.err))
		})
	}
}

func TestErrorResponseHidesInternals(t *testing.T) {
	resp := errorResponse(internalError(errors.New("dial tcp 10.0.0.1:5432"), "failed to load account"))
	assert.Equal(t, TextCodeInternal, resp.Code)
	assert.Equal(t, ErrInternal.Message, resp.Error)
	assert.Nil(t, resp.Metadata)

	resp = errorResponse(errors.New("plain"))
	assert.Equal(t, TextCodeInternal, resp.Code)
}

func TestInternalErrorKeepsCauseOutOfMessage(t *testing.T) {
	err := internalError(errors.New("disk full"), "failed to create account")

	assert.True(t, IsKind(err, ErrInternal))
	assert.NotContains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "failed to create account")
	assert.Equal(t, "disk full", err.Metadata["cause"])

	assert.NotContains(t, ErrInternal.Metadata, "cause")
	assert.Equal(t, "internal server error", ErrInternal.Message)
}

func TestErrorResponseDomainErrors(t *testing.T) {
	resp := errorResponse(ErrConflict)
	assert.Equal(t, TextCodeConflict, resp.Code)
	assert.Equal(t, ErrConflict.Message, resp.Error)

	resp = errorResponse(validationError(errors.New("bad")).WithMetadata(map[string]any{"email": "must be a valid email address"}))
	assert.Equal(t, TextCodeValidation, resp.Code)
	assert.Equal(t, "must be a valid email address", resp.Metadata["email"])
}

func TestPayloadValidation(t *testing.T) {
	assert.NoError(t, RegisterPayload{Name: "Ann", Email: "ann@example.com", Password: "pw"}.Validate())
	assert.Error(t, RegisterPayload{Name: "Ann", Email: "ann", Password: "pw"}.Validate())
	assert.Error(t, RegisterPayload{Email: "ann@example.com", Password: "pw"}.Validate())

	assert.NoError(t, EmailPayload{Email: "ann@example.com"}.Validate())
	assert.Error(t, EmailPayload{}.Validate())
}
