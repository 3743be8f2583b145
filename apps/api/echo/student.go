package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

func (s *Server) studentView(ctx echo.Context) error {
	usr, _ := contextUser(ctx)
	overview, err := s.deps.StudentSvc.Overview(ctx.Request().Context(), usr)
	if err != nil {
		if errors.Cause(err) == user.ErrStudentNotFound {
			addFlash(ctx, flashError, "Student profile not found.")
			return ctx.Redirect(http.StatusFound, "/dashboard")
		}
		return errors.Wrap(err, "building student overview")
	}
	return render(ctx, http.StatusOK, "student_view.html", "My Progress", overview)
}
