package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/services/metrics"
)

// sessionMiddleware loads the user of a valid session cookie into the context.
// Invalid, expired or revoked sessions are treated as anonymous and their cookie is cleared.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(ctx)
		}

		sessID, err := s.parseToken(cookie.Value)
		if err != nil {
			s.clearSessionCookie(ctx)
			return next(ctx)
		}
		usr, err := s.deps.AuthSvc.Resolve(ctx.Request().Context(), sessID)
		if err != nil {
			if errors.Cause(err) != auth.ErrSessionInvalid {
				return errors.Wrap(err, "resolving session")
			}
			s.clearSessionCookie(ctx)
			return next(ctx)
		}

		ctx.Set(contextSessionKey, sessID)
		ctx.Set(contextUserKey, usr)
		return next(ctx)
	}
}

// loginRequired redirects anonymous requests to the login page.
func loginRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := contextUser(ctx); !ok {
			return ctx.Redirect(http.StatusFound, "/login")
		}
		return next(ctx)
	}
}

// require lets through users whose role holds capability; anyone else is sent back to their dashboard.
func (s *Server) require(capability user.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, ok := contextUser(ctx)
			if !ok {
				return ctx.Redirect(http.StatusFound, "/login")
			}
			if !usr.Role.Can(capability) {
				metrics.AccessDenied.WithLabelValues(string(capability)).Inc()
				s.deps.Logger.Debug("access denied", usr, map[string]interface{}{
					"capability": string(capability),
					"path":       ctx.Request().URL.Path,
				})
				addFlash(ctx, flashError, "Access denied.")
				return ctx.Redirect(http.StatusFound, "/dashboard")
			}
			return next(ctx)
		}
	}
}

// metricsMiddleware counts handled requests by method, route and status code.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)

		code := ctx.Response().Status
		if err != nil {
			code = http.StatusInternalServerError
			if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
				code = herr.Code
			}
		}
		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(ctx.Request().Method, route, code, time.Since(start))
		return err
	}
}

// dbTimeoutMiddleware bounds the request context, hence every DB call made while handling it.
func dbTimeoutMiddleware(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if timeout <= 0 {
				return next(ctx)
			}
			c, cancel := context.WithTimeout(ctx.Request().Context(), timeout)
			defer cancel()
			ctx.SetRequest(ctx.Request().WithContext(c))
			return next(ctx)
		}
	}
}

func metricsHandler() http.Handler {
	return metrics.Handler()
}
