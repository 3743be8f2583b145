//go:build integration

package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database"
	testutil "github.com/trezcool/shule/tests"
)

var ctx = context.Background()

func jan(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

func TestRepositories(t *testing.T) {
	db := testutil.PrepareDB(t)
	svc := testutil.NewServices(database.NewSQLRepositories(db), testutil.NewConfig())

	run := func(name string, fn func(t *testing.T, svc *testutil.Services)) {
		t.Run(name, func(t *testing.T) {
			testutil.ResetDB(t, db)
			fn(t, svc)
		})
	}

	run("users", testUsers)
	run("sessions", testSessions)
	run("attendance", testAttendance)
	run("assignments", testAssignments)
	run("delete cascades", testDeleteCascades)

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, svc.Repos.Pinger.PingContext(ctx))
	})
}

func testUsers(t *testing.T, svc *testutil.Services) {
	usr, err := svc.Users.Create(ctx, user.NewUser{
		Username: "student1", Email: "student1@school.com", Role: user.RoleStudent,
		Password: "student123", PasswordConfirm: "student123",
		StudentID: "ST001", DateOfBirth: "2010-05-04",
	})
	require.NoError(t, err)
	require.NotNil(t, usr.Student)

	got, err := svc.Users.GetByUsername(ctx, "STUDENT1")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	require.NotNil(t, got.Student)
	assert.Equal(t, "ST001", got.Student.StudentID.String)
	assert.Equal(t, "2010-05-04", got.Student.DateOfBirth.Time.Format(core.DateLayout))

	_, err = svc.Users.Create(ctx, user.NewUser{
		Username: "student2", Role: user.RoleStudent,
		Password: "student123", PasswordConfirm: "student123", StudentID: "ST001",
	})
	assert.True(t, core.IsValidationError(err))

	teacher := testutil.CreateUser(t, svc.Repos.Users, "teacher1", user.RoleTeacher, true)
	users, err := svc.Users.Query(ctx, &user.QueryFilter{Search: "TEACH"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, teacher.ID, users[0].ID)
	assert.Nil(t, users[0].Student)

	users, err = svc.Users.Query(ctx, &user.QueryFilter{Role: user.RoleStudent})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotNil(t, users[0].Student)

	roster, err := svc.Users.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "student1", roster[0].Username)

	_, err = svc.Users.GetStudent(ctx, 999)
	assert.Equal(t, user.ErrStudentNotFound, errors.Cause(err))
	_, err = svc.Users.GetByID(ctx, 999)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func testSessions(t *testing.T, svc *testutil.Services) {
	testutil.CreateUser(t, svc.Repos.Users, "librarian1", user.RoleLibrarian, true)

	sess, usr, err := svc.Auth.Login(ctx, "librarian1", testutil.Password)
	require.NoError(t, err)
	assert.True(t, usr.LastLogin.Valid)

	got, err := svc.Auth.Resolve(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	n, err := svc.Repos.Sessions.DeleteExpiredSessions(ctx, sess.ExpiresAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = svc.Repos.Sessions.GetSession(ctx, sess.ID)
	assert.Equal(t, auth.ErrSessionNotFound, errors.Cause(err))
}

func testAttendance(t *testing.T, svc *testutil.Services) {
	alice := testutil.CreateStudent(t, svc.Repos.Users, "alice", "ST001")
	bob := testutil.CreateStudent(t, svc.Repos.Users, "bob", "ST002")

	n, err := svc.Attendance.SubmitRoster(ctx, jan(15), map[int64]bool{alice.ID: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// overwrite
	_, err = svc.Attendance.SubmitRoster(ctx, jan(15), map[int64]bool{bob.ID: true})
	require.NoError(t, err)

	rows, err := svc.Attendance.DailySheet(ctx, jan(15))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Present)
	assert.True(t, rows[1].Present)

	_, err = svc.Attendance.UpsertDaily(ctx, jan(16), []attendance.Entry{{StudentID: alice.ID, Present: true}, {StudentID: 999}})
	assert.Equal(t, user.ErrStudentNotFound, errors.Cause(err))
	records, err := svc.Repos.Attendance.QueryRecords(ctx, attendance.QueryFilter{From: jan(16)})
	require.NoError(t, err)
	assert.Empty(t, records)

	for day := 1; day <= 10; day++ {
		_, err := svc.Attendance.UpsertDaily(ctx, time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC),
			[]attendance.Entry{{StudentID: alice.ID, Present: day <= 7}})
		require.NoError(t, err)
	}
	sum, err := svc.Attendance.SummaryWindow(ctx, alice.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Total)
	assert.Equal(t, float64(70), sum.Percentage)

	export, err := svc.Attendance.Export(ctx, jan(15), jan(15))
	require.NoError(t, err)
	require.Len(t, export, 2)
	assert.Equal(t, "ST001", export[0].Student.Code())
	assert.True(t, export[0].Record.Date.Equal(jan(15)))
}

func testAssignments(t *testing.T, svc *testutil.Services) {
	alice := testutil.CreateStudent(t, svc.Repos.Users, "alice", "ST001")
	bob := testutil.CreateStudent(t, svc.Repos.Users, "bob", "")

	created, err := svc.Assignment.Create(ctx, assignment.NewAssignment{
		Title: "Essay", MaxMarks: "50", DueDate: "2024-02-01", StudentIDs: []int64{alice.ID, bob.ID, bob.ID},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "50.00", created[0].MaxMarksString())

	_, err = svc.Assignment.Create(ctx, assignment.NewAssignment{Title: "Quiz", StudentIDs: []int64{alice.ID, 999}})
	assert.Equal(t, user.ErrStudentNotFound, errors.Cause(err))

	changed, err := svc.Assignment.UpdateMarks(ctx, created[0].ID, "45.5")
	require.NoError(t, err)
	assert.True(t, changed)
	_, err = svc.Assignment.UpdateCompletionStatus(ctx, created[0].ID, true)
	require.NoError(t, err)

	got, err := svc.Assignment.Get(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "45.50", got.MarksString())
	assert.True(t, got.CompletionStatus)
	assert.Equal(t, "Alice", got.StudentName)
	assert.Equal(t, "ST001", got.StudentCode.String)
	assert.Equal(t, "2024-02-01", got.DueDate.Time.Format(core.DateLayout))

	asgs, err := svc.Assignment.Query(ctx)
	require.NoError(t, err)
	assert.Len(t, asgs, 2)

	_, err = svc.Assignment.Get(ctx, 999)
	assert.Equal(t, assignment.ErrNotFound, errors.Cause(err))
}

func testDeleteCascades(t *testing.T, svc *testutil.Services) {
	alice := testutil.CreateStudent(t, svc.Repos.Users, "alice", "ST001")
	testutil.CreateAssignment(t, svc.Repos.Assignments, alice.ID, "Essay")
	_, err := svc.Attendance.UpsertDaily(ctx, jan(15), []attendance.Entry{{StudentID: alice.ID, Present: true}})
	require.NoError(t, err)

	require.NoError(t, svc.Users.Delete(ctx, alice.UserID))

	asgs, err := svc.Assignment.Query(ctx)
	require.NoError(t, err)
	assert.Empty(t, asgs)
	records, err := svc.Repos.Attendance.QueryRecords(ctx, attendance.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}
