package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *core.Validator
		Pinger         core.Pinger
		AuthSvc        *auth.Service
		UserSvc        *user.Service
		AttendanceSvc  *attendance.Service
		AssignmentSvc  *assignment.Service
		StudentSvc     *student.Service
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	s.app.Debug = conf.Debug
	s.app.Renderer = newRenderer()
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	s.app.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctx.Set(appNameContextKey, conf.AppName)
			return next(ctx)
		}
	})
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))
	s.app.Use(metricsMiddleware)
	if !conf.Server.DisableCSRF {
		s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "form:" + csrfField,
			ContextKey:     csrfContextKey,
			CookieName:     "shule_csrf",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   conf.Server.SecureCookies,
			CookieSameSite: http.SameSiteLaxMode,
		}))
	}
	s.app.Use(dbTimeoutMiddleware(conf.Database.Timeout))
	s.app.Use(s.sessionMiddleware)

	// public
	s.app.GET("/", s.home)
	s.app.GET("/login", s.loginPage)
	s.app.POST("/login", s.login)
	s.app.GET("/logout", s.logout)
	s.app.GET("/healthz", s.healthz)
	s.app.GET("/metrics", echo.WrapHandler(metricsHandler()))

	// authenticated
	s.app.GET("/dashboard", s.dashboard, loginRequired)

	teacher := s.app.Group("/teacher")
	teacher.GET("/dashboard", s.teacherDashboard, s.require(user.CapTeacherDashboard))
	teacher.GET("/attendance", s.attendancePage, s.require(user.CapTeacherAttendance))
	teacher.POST("/attendance", s.submitAttendance, s.require(user.CapTeacherAttendance))
	teacher.GET("/attendance/export", s.exportAttendance, s.require(user.CapTeacherAttendance))
	teacher.GET("/assignments", s.assignmentsPage, s.require(user.CapTeacherAssignments))
	teacher.POST("/assignments", s.submitAssignments, s.require(user.CapTeacherAssignments))

	s.app.GET("/student/view", s.studentView, s.require(user.CapStudentView))

	librarian := s.app.Group("/librarian")
	librarian.GET("/dashboard", s.librarianDashboard, s.require(user.CapLibrarianDashboard))
	librarian.GET("/marks", s.marksPage, s.require(user.CapLibrarianMarks))
	librarian.POST("/marks", s.updateMarks, s.require(user.CapLibrarianMarks))
}

// Start listens on the configured address. Listener errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
