package echoapi

import (
	"bytes"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/services/export"
	"github.com/trezcool/shule/services/metrics"
)

const (
	attendancePath  = "/teacher/attendance"
	assignmentsPath = "/teacher/assignments"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type (
	attendancePage struct {
		Date time.Time
		Rows []attendance.SheetRow
	}

	assignmentsPage struct {
		Students    []user.Student
		Assignments []assignment.Assignment
	}
)

func (s *Server) teacherDashboard(ctx echo.Context) error {
	students, err := s.deps.UserSvc.Roster(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	return render(ctx, http.StatusOK, "teacher_dashboard.html", "Teacher Dashboard", rosterPage{Students: students})
}

func (s *Server) attendancePage(ctx echo.Context) error {
	date, err := parseDateField("date", ctx.QueryParam("date"))
	if err != nil {
		flashErr(ctx, err)
		return ctx.Redirect(http.StatusFound, attendancePath)
	}
	if date.IsZero() {
		date = s.deps.AttendanceSvc.Today()
	}

	rows, err := s.deps.AttendanceSvc.DailySheet(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "building daily sheet")
	}
	return render(ctx, http.StatusOK, "teacher_attendance.html", "Attendance", attendancePage{Date: date, Rows: rows})
}

func (s *Server) submitAttendance(ctx echo.Context) error {
	form, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	date, err := parseDateField("date", form.Get("date"))
	if err != nil {
		flashErr(ctx, err)
		return ctx.Redirect(http.StatusSeeOther, attendancePath)
	}
	if date.IsZero() {
		date = s.deps.AttendanceSvc.Today()
	}

	n, err := s.deps.AttendanceSvc.SubmitRoster(ctx.Request().Context(), date, parsePresentIDs(form))
	if err != nil {
		if flashErr(ctx, err) {
			return ctx.Redirect(http.StatusSeeOther, attendancePath)
		}
		return errors.Wrap(err, "submitting attendance")
	}
	metrics.AttendanceUpserted.Add(float64(n))

	addFlash(ctx, flashSuccess, "Attendance updated successfully.")
	q := make(url.Values)
	q.Set("date", date.Format(core.DateLayout))
	return ctx.Redirect(http.StatusSeeOther, attendancePath+"?"+q.Encode())
}

func (s *Server) exportAttendance(ctx echo.Context) error {
	from, err := parseDateField("from", ctx.QueryParam("from"))
	if err != nil {
		flashErr(ctx, err)
		return ctx.Redirect(http.StatusFound, attendancePath)
	}
	to, err := parseDateField("to", ctx.QueryParam("to"))
	if err != nil {
		flashErr(ctx, err)
		return ctx.Redirect(http.StatusFound, attendancePath)
	}

	rows, err := s.deps.AttendanceSvc.Export(ctx.Request().Context(), from, to)
	if err != nil {
		if flashErr(ctx, err) {
			return ctx.Redirect(http.StatusFound, attendancePath)
		}
		return errors.Wrap(err, "exporting attendance")
	}

	var buf bytes.Buffer
	if err = export.WriteAttendance(&buf, rows); err != nil {
		return errors.Wrap(err, "writing attendance workbook")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.AttendanceFilename(from, to)+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) assignmentsPage(ctx echo.Context) error {
	c := ctx.Request().Context()
	students, err := s.deps.UserSvc.Roster(c)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	assignments, err := s.deps.AssignmentSvc.Query(c)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return render(ctx, http.StatusOK, "teacher_assignments.html", "Assignments", assignmentsPage{
		Students:    students,
		Assignments: assignments,
	})
}

// submitAssignments dispatches on the `action` field. Unknown actions only redirect.
func (s *Server) submitAssignments(ctx echo.Context) error {
	var err error
	switch ctx.FormValue("action") {
	case "create":
		err = s.createAssignments(ctx)
	case "update_marks":
		err = s.updateAssignmentMarks(ctx)
	case "update_status":
		err = s.updateCompletionStatus(ctx)
	}
	if err != nil && !flashErr(ctx, err) {
		return errors.Wrap(err, "handling assignments action")
	}
	return ctx.Redirect(http.StatusSeeOther, assignmentsPath)
}

func (s *Server) createAssignments(ctx echo.Context) error {
	na := assignment.NewAssignment{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		DueDate:     ctx.FormValue("due_date"),
		MaxMarks:    ctx.FormValue("max_marks"),
	}
	if err := echo.FormFieldBinder(ctx).Int64s("students", &na.StudentIDs).BindError(); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "students", Error: "invalid student id"})
	}

	created, err := s.deps.AssignmentSvc.Create(ctx.Request().Context(), na)
	if err != nil {
		return err
	}
	metrics.AssignmentsCreated.Add(float64(len(created)))
	addFlash(ctx, flashSuccess, "Assignment created successfully.")
	return nil
}

func (s *Server) updateAssignmentMarks(ctx echo.Context) error {
	changed, err := s.deps.AssignmentSvc.UpdateMarks(ctx.Request().Context(), parseID(ctx.FormValue("assignment_id")), ctx.FormValue("marks"))
	if err != nil {
		return err
	}
	if changed {
		addFlash(ctx, flashSuccess, "Marks updated successfully.")
	}
	return nil
}

func (s *Server) updateCompletionStatus(ctx echo.Context) error {
	completed := ctx.FormValue("completion_status") == "on"
	if _, err := s.deps.AssignmentSvc.UpdateCompletionStatus(ctx.Request().Context(), parseID(ctx.FormValue("assignment_id")), completed); err != nil {
		return err
	}
	addFlash(ctx, flashSuccess, "Completion status updated successfully.")
	return nil
}
