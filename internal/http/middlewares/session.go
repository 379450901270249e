package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/busguard/internal/domain/session"
	"github.com/geocoder89/busguard/internal/sessionstore"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// SessionCookieName is the signed cookie carrying the session id.
const SessionCookieName = "busguard_session"

const sidKey = "sid"

// SessionLoader reads the session state for an id.
type SessionLoader interface {
	Session(ctx context.Context, id string) (session.Session, error)
}

type CookieOptions struct {
	MaxAge   int // seconds
	Secure   bool
	SameSite string
}

// SessionMiddleware resolves the cookie to a session id, issuing a fresh id
// for new visitors, and stashes the id and session state on the context.
// Load failures are logged and treated as logged out.
func SessionMiddleware(cookies sessions.Store, loader SessionLoader, opts CookieOptions, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		cs, err := cookies.Get(c.Request, SessionCookieName)
		if err != nil {
			// tampered or signed with an old key; gorilla hands back a new session
			log.DebugContext(c.Request.Context(), "session cookie rejected", "err", err)
		}
		if cs == nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(ctxCookieSession, cs)

		sid, _ := cs.Values[sidKey].(string)
		if strings.TrimSpace(sid) == "" {
			sid = sessionstore.NewSessionID()
			cs.Values[sidKey] = sid
			applyCookieOptions(opts, cs)
			if err := cs.Save(c.Request, c.Writer); err != nil {
				log.ErrorContext(c.Request.Context(), "failed to persist session cookie", "err", err)
			}
		}

		state, err := loader.Session(c.Request.Context(), sid)
		expired := errors.Is(err, session.ErrSessionExpired)
		if err != nil && !expired {
			log.WarnContext(c.Request.Context(), "session load failed", "err", err)
		}

		c.Set(CtxSessionID, sid)
		c.Set(CtxSession, state)
		c.Set(CtxSessionExpired, expired)

		c.Next()
	}
}

func SessionFromContext(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(CtxSession)
	if !ok {
		return session.LoggedOut(), false
	}
	s, ok := v.(session.Session)
	if !ok {
		return session.LoggedOut(), false
	}
	return s, true
}

func SessionIDFromContext(c *gin.Context) string {
	return c.GetString(CtxSessionID)
}

func SessionExpired(c *gin.Context) bool {
	return c.GetBool(CtxSessionExpired)
}

// SetSession replaces the session state seen by the rest of the request.
func SetSession(c *gin.Context, s session.Session) {
	c.Set(CtxSession, s)
	c.Set(CtxSessionExpired, false)
}

// RotateSessionID points the cookie at newID.
func RotateSessionID(c *gin.Context, newID string, opts CookieOptions) error {
	v, ok := c.Get(ctxCookieSession)
	if !ok {
		return errors.New("session middleware not installed")
	}
	cs, ok := v.(*sessions.Session)
	if !ok {
		return errors.New("unexpected cookie session type")
	}

	cs.Values[sidKey] = newID
	applyCookieOptions(opts, cs)
	if err := cs.Save(c.Request, c.Writer); err != nil {
		return err
	}

	c.Set(CtxSessionID, newID)
	return nil
}

func applyCookieOptions(opts CookieOptions, cs *sessions.Session) {
	if cs.Options == nil {
		cs.Options = &sessions.Options{}
	}
	cs.Options.Path = "/"
	cs.Options.MaxAge = opts.MaxAge
	cs.Options.HttpOnly = true
	cs.Options.Secure = opts.Secure
	cs.Options.SameSite = SameSiteFromString(opts.SameSite)
}

func SameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
