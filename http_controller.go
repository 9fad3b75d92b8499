package login

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-router"
)

// AccountService is the set of operations the HTTP controller exposes
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*PublicAccount, error)
	Verify(ctx context.Context, token string) (*PublicAccount, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (string, error)
	ResetPassword(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, token, password string) (string, error)
	GetAccount(ctx context.Context, id string) (*PublicAccount, error)
}

var _ AccountService = (*Service)(nil)

type AccountControllerRoutes struct {
	Register           string
	Verify             string
	ResendVerification string
	Login              string
	Logout             string
	Reset              string
	ChangePassword     string
	Me                 string
}

type AccountController struct {
	Debug   bool
	Logger  Logger
	Config  Config
	Service AccountService
	Gate    *Gate
	Routes  *AccountControllerRoutes
}

type AccountControllerOption func(*AccountController) *AccountController

// WithControllerDebug logs error payloads
func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Logger = normalizeLogger(logger)
		return c
	}
}

// WithControllerRoutes overrides the default route paths
func WithControllerRoutes(routes *AccountControllerRoutes) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func NewAccountController(cfg Config, service AccountService, gate *Gate, opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:  defLogger{},
		Config:  cfg,
		Service: service,
		Gate:    gate,
		Routes: &AccountControllerRoutes{
			Register:           "/api/register",
			Verify:             "/api/verify",
			ResendVerification: "/api/verify/resend",
			Login:              "/api/login",
			Logout:             "/api/logout",
			Reset:              "/api/reset",
			ChangePassword:     "/api/reset/change",
			Me:                 "/api/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing AccountService in account controller...")
	}

	if c.Gate == nil {
		panic("Missing Gate in account controller...")
	}

	return c
}

// RegisterAccountRoutes mounts the JSON API on app
func RegisterAccountRoutes[T any](app router.Router[T], controller *AccountController) {
	app.Post(controller.Routes.Register, controller.Register).
		SetName("account.register")

	app.Post(controller.Routes.Verify, controller.Verify).
		SetName("account.verify")

	app.Post(controller.Routes.ResendVerification, controller.ResendVerification).
		SetName("account.verify.resend")

	app.Post(controller.Routes.Login, controller.Login).
		SetName("account.login")

	app.Post(controller.Routes.Logout, controller.Logout).
		SetName("account.logout")

	app.Post(controller.Routes.Reset, controller.RequestReset).
		SetName("account.reset")

	app.Post(controller.Routes.ChangePassword, controller.ChangePassword).
		SetName("account.reset.change")

	app.Get(controller.Routes.Me, controller.Gate.Middleware(controller.errorHandler)(controller.Me)).
		SetName("account.me")
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenPayload carries a verification token
type TokenPayload struct {
	Token string `json:"token"`
}

// EmailPayload carries an email for resend and reset requests
type EmailPayload struct {
	Email string `json:"email"`
}

func (r EmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
	)
}

// LoginPayload is the login body
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordPayload consumes a reset token
type ChangePasswordPayload struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// MessageResponse acknowledges an operation
type MessageResponse struct {
	Message string `json:"message"`
}

func (a *AccountController) Register(ctx router.Context) error {
	payload := new(RegisterPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.errorHandler(ctx, validationError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.errorHandler(ctx, validationError(err).WithMetadata(FormatValidationErrorToMap(err)))
	}

	account, err := a.Service.Register(ctx.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, account)
}

func (a *AccountController) Verify(ctx router.Context) error {
	payload := new(TokenPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.errorHandler(ctx, validationError(err))
	}

	account, err := a.Service.Verify(ctx.Context(), payload.Token)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, account)
}

func (a *AccountController) ResendVerification(ctx router.Context) error {
	payload := new(EmailPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.errorHandler(ctx, validationError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.errorHandler(ctx, validationError(err).WithMetadata(FormatValidationErrorToMap(err)))
	}

	if err := a.Service.ResendVerification(ctx.Context(), payload.Email); err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Verification email sent."})
}

// Login sets the session cookie and also returns the token in the body
func (a *AccountController) Login(ctx router.Context) error {
	payload := new(LoginPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.errorHandler(ctx, validationError(err))
	}

	token, err := a.Service.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	setSessionCookie(ctx, a.Config, token)

	return ctx.JSON(http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": a.Config.SessionExpirationSeconds,
	})
}

func (a *AccountController) Logout(ctx router.Context) error {
	clearSessionCookie(ctx, a.Config)
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Logged out."})
}

func (a *AccountController) RequestReset(ctx router.Context) error {
	payload := new(EmailPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.errorHandler(ctx, validationError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.errorHandler(ctx, validationError(err).WithMetadata(FormatValidationErrorToMap(err)))
	}

	if err := a.Service.ResetPassword(ctx.Context(), payload.Email); err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Password reset email sent."})
}

func (a *AccountController) ChangePassword(ctx router.Context) error {
	payload := new(ChangePasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.errorHandler(ctx, validationError(err))
	}

	message, err := a.Service.ChangePassword(ctx.Context(), payload.Token, payload.Password)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, MessageResponse{Message: message})
}

// Me returns the account attached by the gate
func (a *AccountController) Me(ctx router.Context) error {
	account, ok := AccountFromRouter(ctx, DefaultGateContextKey)
	if !ok {
		return a.errorHandler(ctx, ErrUnauthenticated)
	}

	fresh, err := a.Service.GetAccount(ctx.Context(), account.ID)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, fresh)
}

func (a *AccountController) errorHandler(ctx router.Context, err error) error {
	return sendError(ctx, a.Logger, a.Debug, err)
}
