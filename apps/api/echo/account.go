package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/services/metrics"
)

const errInvalidCredentials = "Invalid username or password."

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.Redirect(http.StatusFound, "/login")
}

func (s *Server) loginPage(ctx echo.Context) error {
	if _, ok := contextUser(ctx); ok {
		return ctx.Redirect(http.StatusFound, "/dashboard")
	}
	return render(ctx, http.StatusOK, "login.html", "Login", loginPage{})
}

func (s *Server) login(ctx echo.Context) error {
	form := loginForm{
		Username: ctx.FormValue("username"),
		Password: ctx.FormValue("password"),
	}
	failed := func() error {
		metrics.Logins.WithLabelValues(metrics.LoginFailure).Inc()
		return render(ctx, http.StatusOK, "login.html", "Login", loginPage{Username: form.Username, Error: errInvalidCredentials})
	}
	if err := s.deps.Validate.Struct(form); err != nil {
		return failed()
	}

	sess, usr, err := s.deps.AuthSvc.Login(ctx.Request().Context(), form.Username, form.Password)
	if err != nil {
		if errors.Cause(err) == auth.ErrAuthenticationFailed {
			return failed()
		}
		return errors.Wrap(err, "logging in")
	}

	token, err := s.generateToken(sess, usr)
	if err != nil {
		return err
	}
	s.setSessionCookie(ctx, token, sess.ExpiresAt)
	metrics.Logins.WithLabelValues(metrics.LoginSuccess).Inc()
	s.deps.Logger.Info("user logged in", usr)
	return ctx.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *Server) logout(ctx echo.Context) error {
	if err := s.deps.AuthSvc.Logout(ctx.Request().Context(), contextSession(ctx)); err != nil {
		return errors.Wrap(err, "logging out")
	}
	s.clearSessionCookie(ctx)
	return ctx.Redirect(http.StatusFound, "/login")
}

// dashboard sends users to the home page of their role.
func (s *Server) dashboard(ctx echo.Context) error {
	usr, _ := contextUser(ctx)
	home, err := user.RouteByRole(usr.Role)
	if err != nil {
		addFlash(ctx, flashError, "Invalid user role.")
		return s.logout(ctx)
	}
	// a student without profile would bounce between here and their view
	if usr.IsStudent() && usr.Student == nil {
		return render(ctx, http.StatusOK, "error.html", "Dashboard", errorPage{Message: "No student profile is linked to your account."})
	}
	return ctx.Redirect(http.StatusFound, home)
}
