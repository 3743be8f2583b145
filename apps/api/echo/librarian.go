package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/assignment"
)

const marksPath = "/librarian/marks"

type marksPage struct {
	Assignments []assignment.Assignment
}

func (s *Server) librarianDashboard(ctx echo.Context) error {
	students, err := s.deps.UserSvc.Roster(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	return render(ctx, http.StatusOK, "librarian_dashboard.html", "Librarian Dashboard", rosterPage{Students: students})
}

func (s *Server) marksPage(ctx echo.Context) error {
	assignments, err := s.deps.AssignmentSvc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return render(ctx, http.StatusOK, "librarian_marks.html", "Marks", marksPage{Assignments: assignments})
}

func (s *Server) updateMarks(ctx echo.Context) error {
	if err := s.updateAssignmentMarks(ctx); err != nil && !flashErr(ctx, err) {
		return errors.Wrap(err, "updating marks")
	}
	return ctx.Redirect(http.StatusSeeOther, marksPath)
}
