package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/busguard/internal/domain/session"
	"github.com/geocoder89/busguard/internal/http/middlewares"
	"github.com/geocoder89/busguard/internal/routeguard"
	"github.com/geocoder89/busguard/internal/sessionstore"
	"github.com/geocoder89/busguard/internal/views"
	"github.com/gin-gonic/gin"
)

// SessionService is the part of sessionstore.Store the handlers use.
type SessionService interface {
	Session(ctx context.Context, id string) (session.Session, error)
	Login(ctx context.Context, id string, creds session.Credentials) (session.Session, error)
	Logout(ctx context.Context, id string) error
	Move(ctx context.Context, from, to string) error
}

type LoginObserver interface {
	ObserveLogin(accountType, result string)
}

type AuthConfig struct {
	Policy  session.UnhandledAccountPolicy
	Cookie  middlewares.CookieOptions
	Timeout time.Duration
}

type AuthHandler struct {
	sessions SessionService
	cfg      AuthConfig
	metrics  LoginObserver
	log      *slog.Logger
}

func NewAuthHandler(sessions SessionService, cfg AuthConfig, metrics LoginObserver, log *slog.Logger) *AuthHandler {
	if cfg.Policy == "" {
		cfg.Policy = session.FoldIntoCustomer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		sessions: sessions,
		cfg:      cfg,
		metrics:  metrics,
		log:      log,
	}
}

// LoginForm is the urlencoded body of POST /login.
type LoginForm struct {
	Email       string `form:"email" json:"email" binding:"required,email"`
	Password    string `form:"password" json:"password" binding:"required"`
	AccountType string `form:"account_type" json:"account_type" binding:"required,oneof=parent admin driver"`
}

// LoginRequest is the JSON body of POST /api/session.
type LoginRequest struct {
	Identifier  string `json:"identifier" binding:"required"`
	Secret      string `json:"secret" binding:"required"`
	AccountType string `json:"accountType" binding:"required,oneof=parent admin driver"`
}

type loginFailure struct {
	status  int
	code    string
	message string
}

func classifyLoginError(err error) loginFailure {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return loginFailure{http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect."}
	case errors.Is(err, session.ErrUnknownRole):
		return loginFailure{http.StatusUnprocessableEntity, "unknown_role", "This account type cannot sign in here."}
	case errors.Is(err, session.ErrRoleSwitch):
		return loginFailure{http.StatusConflict, "role_switch", "You are signed in with a different account type. Log out first."}
	case errors.Is(err, session.ErrServiceUnavailable):
		return loginFailure{http.StatusServiceUnavailable, "service_unavailable", "Sign in is temporarily unavailable. Please try again."}
	default:
		return loginFailure{http.StatusInternalServerError, "internal_error", "Could not sign in."}
	}
}

// Login handles the login form. Success lands on the role's home page;
// failures re-render the form with a message.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginForm

	form := views.NewLoginForm()

	if _, ok := BindForm(c, &req); !ok {
		h.observe(req.AccountType, "invalid_request")
		form.Email = req.Email
		if req.AccountType != "" {
			form.AccountType = req.AccountType
		}
		form.Error = "Enter a valid email address, a password and an account type."
		RenderLogin(c, http.StatusBadRequest, form)
		return
	}

	form.Email = req.Email
	form.AccountType = req.AccountType

	_, home, err := h.login(c, req.AccountType, req.Email, req.Password)
	if err != nil {
		f := classifyLoginError(err)
		h.observe(req.AccountType, f.code)
		form.Error = f.message
		RenderLogin(c, f.status, form)
		return
	}

	h.observe(req.AccountType, "success")
	c.Redirect(http.StatusSeeOther, home)
}

// Logout handles the logout button.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.logout(c); err != nil {
		form := views.NewLoginForm()
		form.Error = "Could not sign you out. Please try again."
		RenderLogin(c, http.StatusServiceUnavailable, form)
		return
	}

	c.Redirect(http.StatusSeeOther, routeguard.LoginPath)
}

// GetSession reports the caller's session.
func (h *AuthHandler) GetSession(c *gin.Context) {
	s, _ := middlewares.SessionFromContext(c)

	c.JSON(http.StatusOK, gin.H{
		"session": s,
		"expired": middlewares.SessionExpired(c),
	})
}

// CreateSession is the JSON login.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req LoginRequest

	if !BindJSON(c, &req) {
		h.observe(req.AccountType, "invalid_request")
		return
	}

	s, home, err := h.login(c, req.AccountType, req.Identifier, req.Secret)
	if err != nil {
		f := classifyLoginError(err)
		h.observe(req.AccountType, f.code)
		RespondError(c, f.status, f.code, f.message, nil)
		return
	}

	h.observe(req.AccountType, "success")
	c.JSON(http.StatusOK, gin.H{
		"session":  s,
		"redirect": home,
	})
}

// DeleteSession is the JSON logout.
func (h *AuthHandler) DeleteSession(c *gin.Context) {
	if err := h.logout(c); err != nil {
		RespondServiceUnavailable(c, "Could not sign out.")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) login(c *gin.Context, accountType, identifier, secret string) (session.Session, string, error) {
	role, err := session.ResolveRole(session.AccountType(accountType), h.cfg.Policy)
	if err != nil {
		return session.LoggedOut(), "", err
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.Timeout)
	defer cancel()

	oldID := middlewares.SessionIDFromContext(c)

	s, err := h.sessions.Login(ctx, oldID, session.Credentials{
		Identifier:    identifier,
		Secret:        secret,
		RequestedRole: role,
	})
	if err != nil {
		if !errors.Is(err, session.ErrInvalidCredentials) && !errors.Is(err, session.ErrRoleSwitch) {
			h.log.WarnContext(c.Request.Context(), "login failed", "account_type", accountType, "err", err)
		}
		return s, "", err
	}

	h.rotate(ctx, c, oldID)
	middlewares.SetSession(c, s)

	home, _ := routeguard.HomeFor(s.Role)

	return s, home, nil
}

// rotate moves a fresh login to a new session id. Failure keeps the old id.
func (h *AuthHandler) rotate(ctx context.Context, c *gin.Context, oldID string) {
	newID := sessionstore.NewSessionID()

	if err := h.sessions.Move(ctx, oldID, newID); err != nil {
		h.log.WarnContext(ctx, "session id rotation failed", "err", err)
		return
	}

	if err := middlewares.RotateSessionID(c, newID, h.cfg.Cookie); err != nil {
		h.log.WarnContext(ctx, "session cookie rotation failed", "err", err)
		if err := h.sessions.Move(ctx, newID, oldID); err != nil {
			h.log.ErrorContext(ctx, "could not restore session after failed rotation", "err", err)
		}
	}
}

func (h *AuthHandler) logout(c *gin.Context) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.Timeout)
	defer cancel()

	if err := h.sessions.Logout(ctx, middlewares.SessionIDFromContext(c)); err != nil {
		h.log.ErrorContext(ctx, "logout failed", "err", err)
		return err
	}

	middlewares.SetSession(c, session.LoggedOut())

	return nil
}

func (h *AuthHandler) observe(accountType, result string) {
	if h.metrics != nil {
		h.metrics.ObserveLogin(accountType, result)
	}
}
