package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/user"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering our errors as HTML pages.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)

			var args []interface{}
			args = append(args, errors.Wrap(err, message))
			if usr, ok := contextUser(ctx); ok {
				args = append(args, usr)
			}
			args = append(args, map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Request().URL.Path,
			})
			logger.Error(message, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = render(ctx, code, "error.html", http.StatusText(code), errorPage{Message: message})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// flashErr flashes the user facing messages of validation and lookup errors.
// It returns false, flashing nothing, for any other error.
func flashErr(ctx echo.Context, err error) bool {
	switch origErr := errors.Cause(err).(type) {
	case *core.ValidationError:
		for _, msg := range origErr.Messages() {
			addFlash(ctx, flashError, msg)
		}
		return true
	default:
		switch origErr {
		case user.ErrStudentNotFound:
			addFlash(ctx, flashError, "Student profile not found.")
		case assignment.ErrNotFound:
			addFlash(ctx, flashError, "Assignment not found.")
		default:
			return false
		}
		return true
	}
}
