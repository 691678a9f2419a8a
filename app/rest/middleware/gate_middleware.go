package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"modelhub/app/session"
)

// identityKey mirrors the key the handlers read the authenticated
// identity from.
const identityKey = "identity"

// SessionGate guards protected routes with the session store's
// authorization verdict.
type SessionGate struct {
	store  *session.Store
	logger *slog.Logger
}

// NewSessionGate creates a new session gate middleware
func NewSessionGate(store *session.Store, logger *slog.Logger) *SessionGate {
	return &SessionGate{
		store:  store,
		logger: logger.With("component", "session_gate"),
	}
}

// Protect evaluates the gate for every request on the wrapped routes.
// A resolving session answers 503 with a short Retry-After rather than
// bouncing a possibly signed-in visitor to the sign-in screen. A
// signed-out visitor gets a 303 to the sign-in path carrying the
// requested location.
func (g *SessionGate) Protect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := session.Route{
				Path:      c.Request().URL.Path,
				Protected: true,
			}

			snap := g.store.Snapshot()
			decision := session.Decide(snap, route)

			switch decision.Kind {
			case session.Loading:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"error": "session is resolving, retry shortly",
				})
			case session.Redirect:
				location := fmt.Sprintf("%s?%s=%s",
					decision.Target, session.ReturnToParam, url.QueryEscape(decision.ReturnTo))
				g.logger.Info("redirecting unauthenticated request",
					"path", route.Path)
				return c.Redirect(http.StatusSeeOther, location)
			default:
				c.Set(identityKey, snap.Identity)
				return next(c)
			}
		}
	}
}
