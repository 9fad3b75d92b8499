package login

import (
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorResponse is the JSON body returned for failed requests
type ErrorResponse struct {
	Error    string         `json:"error"`
	Code     string         `json:"code"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StatusCode maps an error to the HTTP status it is reported with
func StatusCode(err error) int {
	switch TextCode(err) {
	case TextCodeConflict, TextCodeAlreadyVerified:
		return http.StatusConflict
	case TextCodeInvalidCredentials, TextCodeAuthRequired, TextCodeTokenInvalid,
		TextCodeTokenExpired, TextCodeTokenMalformed, TextCodeUnauthenticated:
		return http.StatusUnauthorized
	case TextCodeNotFound:
		return http.StatusNotFound
	case TextCodePasswordTooShort, TextCodePasswordTooLong, TextCodeEmptyPassword, TextCodeValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorResponse exposes the error kind and message. Internal failures are
// reported without their cause.
func errorResponse(err error) ErrorResponse {
	code := TextCode(err)
	if StatusCode(err) == http.StatusInternalServerError {
		return ErrorResponse{Error: ErrInternal.Message, Code: TextCodeInternal}
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ErrorResponse{Error: ErrInternal.Message, Code: TextCodeInternal}
	}

	resp := ErrorResponse{Error: richErr.Message, Code: code}
	if code == TextCodeValidation {
		resp.Metadata = richErr.Metadata
	}
	return resp
}

func errorMetadata(err error) map[string]any {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Metadata
	}
	return nil
}

// sendError writes err as JSON, logging the full chain for internal failures
func sendError(c router.Context, logger Logger, debug bool, err error) error {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.OriginalURL(), "error", err, "metadata", errorMetadata(err))
	}

	if debug {
		logger.Debug("error response", "path", c.OriginalURL(), "error", print.MaybePrettyJSON(err))
	}

	return c.JSON(status, errorResponse(err))
}

func setSessionCookie(c router.Context, cfg Config, token string) {
	c.Cookie(&router.Cookie{
		Name:     cfg.GetSessionCookieName(),
		Value:    token,
		Expires:  time.Now().Add(cfg.SessionExpiration()),
		HTTPOnly: true,
		Secure:   cfg.SessionCookieSecure,
	})
}

func clearSessionCookie(c router.Context, cfg Config) {
	c.Cookie(&router.Cookie{
		Name:     cfg.GetSessionCookieName(),
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   cfg.SessionCookieSecure,
	})
}
