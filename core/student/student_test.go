package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database"
	testutil "github.com/trezcool/shule/tests"
)

func TestService_Overview(t *testing.T) {
	ctx := context.Background()
	svc := testutil.NewServices(database.NewMemoryRepositories(), testutil.NewConfig())
	alice := testutil.CreateStudent(t, svc.Repos.Users, "alice", "ST001")
	bob := testutil.CreateStudent(t, svc.Repos.Users, "bob", "ST002")

	for day := 1; day <= 4; day++ {
		_, err := svc.Attendance.UpsertDaily(ctx, time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC), []attendance.Entry{
			{StudentID: alice.ID, Present: day != 2},
			{StudentID: bob.ID, Present: false},
		})
		require.NoError(t, err)
	}
	first := testutil.CreateAssignment(t, svc.Repos.Assignments, alice.ID, "Essay")
	second := testutil.CreateAssignment(t, svc.Repos.Assignments, alice.ID, "Quiz")
	testutil.CreateAssignment(t, svc.Repos.Assignments, bob.ID, "Essay")

	usr, err := svc.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	ov, err := svc.Student.Overview(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, ov.Student.ID)
	assert.Equal(t, 4, ov.Attendance.Total)
	assert.Equal(t, 3, ov.Attendance.PresentCount)
	assert.Equal(t, float64(75), ov.Attendance.Percentage)
	require.Len(t, ov.Assignments, 2)
	assert.Equal(t, second.ID, ov.Assignments[0].ID)
	assert.Equal(t, first.ID, ov.Assignments[1].ID)

	t.Run("no student profile", func(t *testing.T) {
		teacher := testutil.CreateUser(t, svc.Repos.Users, "teacher1", user.RoleTeacher, true)
		_, err := svc.Student.Overview(ctx, teacher)
		assert.Equal(t, user.ErrStudentNotFound, err)
	})

	t.Run("deleted profile", func(t *testing.T) {
		usr := usr
		usr.Student = &user.StudentProfile{ID: 999}
		_, err := svc.Student.Overview(ctx, usr)
		assert.Equal(t, user.ErrStudentNotFound, err)
	})
}
