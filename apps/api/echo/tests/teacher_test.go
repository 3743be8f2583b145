package tests

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func Test_teacherDashboard(t *testing.T) {
	a := setup(t)
	testutil.CreateStudent(t, a.svc.Repos.Users, "alice", "ST001")
	testutil.CreateStudent(t, a.svc.Repos.Users, "bob", "ST002")
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)

	rec := c.Get("/teacher/dashboard")
	checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{"Students (2)", "ST001", "Alice", "ST002", "Bob"}}, rec)
}

func Test_attendance(t *testing.T) {
	a := setup(t)
	alice := testutil.CreateStudent(t, a.svc.Repos.Users, "alice", "ST001")
	bob := testutil.CreateStudent(t, a.svc.Repos.Users, "bob", "ST002")
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	presence := func() map[int64]bool {
		rows, err := a.svc.Attendance.DailySheet(ctx, date)
		require.NoError(t, err)
		got := make(map[int64]bool, len(rows))
		for _, row := range rows {
			require.True(t, row.Recorded)
			got[row.Student.ID] = row.Present
		}
		return got
	}

	// sheet of a day without records
	rec := c.Get("/teacher/attendance?date=2024-01-15")
	checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{`value="2024-01-15"`, "ST001", "ST002"}}, rec)
	assert.NotContains(t, rec.Body.String(), "checked")

	// alice present, bob absent
	rec = c.PostForm("/teacher/attendance", url.Values{
		"date":                    {"2024-01-15"},
		"present_" + itoa(alice.ID): {"on"},
	})
	checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/teacher/attendance?date=2024-01-15"}, rec)
	assert.Equal(t, map[int64]bool{alice.ID: true, bob.ID: false}, presence())

	rec = c.Follow(rec)
	checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{
		"Attendance updated successfully.",
		`name="present_` + itoa(alice.ID) + `" checked`,
	}}, rec)

	// resubmitting overwrites the day
	rec = c.PostForm("/teacher/attendance", url.Values{
		"date":                  {"2024-01-15"},
		"present_" + itoa(bob.ID): {"on"},
		"present_" + itoa(alice.ID): {"off"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, map[int64]bool{alice.ID: false, bob.ID: true}, presence())

	sum, err := a.svc.Attendance.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total, "one record per student and day")
}

func Test_attendance_invalidDate(t *testing.T) {
	a := setup(t)
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)

	for _, tt := range []httpTest{
		{name: "sheet", path: "/teacher/attendance?date=15/01/2024", wantCode: http.StatusFound, wantLocation: "/teacher/attendance"},
		{
			name: "submit", method: http.MethodPost, path: "/teacher/attendance", form: url.Values{"date": {"yesterday"}},
			wantCode: http.StatusSeeOther, wantLocation: "/teacher/attendance",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.do(c)
			checkResponse(t, tt, rec)
			rec = c.Follow(rec)
			assert.Contains(t, rec.Body.String(), "date: must be a date formatted as YYYY-MM-DD")
		})
	}
}

func Test_attendance_defaultsToToday(t *testing.T) {
	a := setup(t)
	st := testutil.CreateStudent(t, a.svc.Repos.Users, "alice", "ST001")
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)
	today := a.svc.Attendance.Today().Format(core.DateLayout)

	rec := c.Get("/teacher/attendance")
	checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{`value="` + today + `"`}}, rec)

	rec = c.PostForm("/teacher/attendance", url.Values{"present_" + itoa(st.ID): {"on"}})
	checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/teacher/attendance?date=" + today}, rec)
}

func Test_attendanceExport(t *testing.T) {
	a := setup(t)
	alice := testutil.CreateStudent(t, a.svc.Repos.Users, "alice", "ST001")
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)
	ctx := context.Background()

	for day, present := range []bool{true, false, true} {
		date := time.Date(2024, 1, 15+day, 0, 0, 0, 0, time.UTC)
		_, err := a.svc.Attendance.SubmitRoster(ctx, date, map[int64]bool{alice.ID: present})
		require.NoError(t, err)
	}

	rec := c.Get("/teacher/attendance/export?from=2024-01-16&to=2024-01-17")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_from_2024-01-16_to_2024-01-17.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header + 2 records")
	assert.Equal(t, []string{"ST001", "Alice", "alice", "2024-01-16", "Absent"}, rows[1])
	assert.Equal(t, []string{"ST001", "Alice", "alice", "2024-01-17", "Present"}, rows[2])

	// to before from
	rec = c.Get("/teacher/attendance/export?from=2024-01-17&to=2024-01-16")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, c.Follow(rec).Body.String(), "to: must not be before from")
}

func Test_assignments_create(t *testing.T) {
	a := setup(t)
	alice := testutil.CreateStudent(t, a.svc.Repos.Users, "alice", "ST001")
	bob := testutil.CreateStudent(t, a.svc.Repos.Users, "bob", "ST002")
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)
	ctx := context.Background()

	count := func() int {
		asgs, err := a.svc.Assignment.Query(ctx)
		require.NoError(t, err)
		return len(asgs)
	}
	form := func(title string, students ...string) url.Values {
		return url.Values{"action": {"create"}, "title": {title}, "due_date": {"2024-02-01"}, "students": students}
	}

	tests := []struct {
		httpTest
		wantCount int
	}{
		{
			httpTest: httpTest{
				name: "Two students", form: form("Essay", itoa(alice.ID), itoa(bob.ID), itoa(alice.ID)),
				wantBody: []string{"Assignment created successfully."},
			},
			wantCount: 2,
		},
		{
			httpTest:  httpTest{name: "No students", form: form("Nobody"), wantBody: []string{"Assignment created successfully."}},
			wantCount: 2,
		},
		{
			httpTest: httpTest{
				name: "Unknown student", form: form("Ghost", itoa(alice.ID), "9999"),
				wantBody: []string{"Student profile not found."},
			},
			wantCount: 2,
		},
		{
			httpTest:  httpTest{name: "Malformed student id", form: form("Bad", "abc"), wantBody: []string{"students: invalid student id"}},
			wantCount: 2,
		},
		{
			httpTest:  httpTest{name: "Missing title", form: form("", itoa(alice.ID)), wantBody: []string{"title: "}},
			wantCount: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.PostForm("/teacher/assignments", tt.form)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/teacher/assignments", rec.Header().Get("Location"))
			checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: tt.wantBody}, c.Follow(rec))
			assert.Equal(t, tt.wantCount, count())
		})
	}

	asgs, err := a.svc.Assignment.ListByStudent(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, asgs, 1)
	assert.Equal(t, "Essay", asgs[0].Title)
	assert.Equal(t, "100.00", asgs[0].MaxMarksString())
	assert.Equal(t, "2024-02-01", asgs[0].DueDate.Time.Format(core.DateLayout))
}

func Test_assignments_update(t *testing.T) {
	a := setup(t)
	st := testutil.CreateStudent(t, a.svc.Repos.Users, "alice", "ST001")
	asg := testutil.CreateAssignment(t, a.svc.Repos.Assignments, st.ID, "Essay")
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)
	ctx := context.Background()

	get := func() assignment.Assignment {
		got, err := a.svc.Assignment.Get(ctx, asg.ID)
		require.NoError(t, err)
		return got
	}
	id := itoa(asg.ID)

	tests := []struct {
		name       string
		form       url.Values
		wantFlash  string
		wantMarks  string
		wantStatus bool
	}{
		{name: "Marks", form: url.Values{"action": {"update_marks"}, "assignment_id": {id}, "marks": {"85.5"}}, wantFlash: "Marks updated successfully.", wantMarks: "85.50"},
		{name: "Blank marks", form: url.Values{"action": {"update_marks"}, "assignment_id": {id}, "marks": {"  "}}, wantMarks: "85.50"},
		{name: "Invalid marks", form: url.Values{"action": {"update_marks"}, "assignment_id": {id}, "marks": {"abc"}}, wantFlash: "marks: ", wantMarks: "85.50"},
		{name: "Above max marks", form: url.Values{"action": {"update_marks"}, "assignment_id": {id}, "marks": {"120"}}, wantFlash: "Marks updated successfully.", wantMarks: "120.00"},
		{name: "Unknown assignment", form: url.Values{"action": {"update_marks"}, "assignment_id": {"9999"}, "marks": {"10"}}, wantFlash: "Assignment not found.", wantMarks: "120.00"},
		{name: "Completed", form: url.Values{"action": {"update_status"}, "assignment_id": {id}, "completion_status": {"on"}}, wantFlash: "Completion status updated successfully.", wantMarks: "120.00", wantStatus: true},
		{name: "Unknown action", form: url.Values{"action": {"delete"}, "assignment_id": {id}}, wantMarks: "120.00", wantStatus: true},
		{name: "Not completed", form: url.Values{"action": {"update_status"}, "assignment_id": {id}}, wantFlash: "Completion status updated successfully.", wantMarks: "120.00"},
		{name: "Status of unknown assignment", form: url.Values{"action": {"update_status"}, "assignment_id": {"x"}}, wantFlash: "Assignment not found.", wantMarks: "120.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.PostForm("/teacher/assignments", tt.form)
			assert.Equal(t, http.StatusSeeOther, rec.Code)

			body := c.Follow(rec).Body.String()
			if tt.wantFlash != "" {
				assert.Contains(t, body, tt.wantFlash)
			} else {
				assert.NotContains(t, body, "alert-")
			}

			got := get()
			assert.Equal(t, tt.wantMarks, got.MarksString())
			assert.Equal(t, tt.wantStatus, got.CompletionStatus)
		})
	}
}
