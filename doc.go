// Package login provides account registration, email verification, login
// and password reset for a web application.
//
// Service:
//   - NewService takes a validated Config, an AccountStore and a
//     mailer.Mailer. There is no package level state; build one Service per
//     configuration.
//   - Every operation returns a *goerrors.Error with a text code so callers
//     can map failures with IsKind or StatusCode.
//
// Tokens:
//   - Session, verification and reset tokens are HS256 JWTs carrying the
//     account id and their purpose. Each purpose has its own secret and
//     lifetime. Verification and reset tokens are also stored on the account
//     and must match the stored value to be accepted.
//
// Gate:
//   - Gate resolves a session token from a cookie or header and attaches the
//     PublicAccount to the request context. Use Gate.Middleware with
//     go-router or Gate.Authenticate directly.
//
// Storage lives in the repository package (bun), email delivery in the
// mailer package (SMTP, SES or log).
package login
