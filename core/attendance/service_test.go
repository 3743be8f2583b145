package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database"
	testutil "github.com/trezcool/shule/tests"
)

var (
	ctx = context.Background()
	jan = func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
)

func setup(t *testing.T) (*testutil.Services, user.Student, user.Student) {
	t.Helper()
	svc := testutil.NewServices(database.NewMemoryRepositories(), testutil.NewConfig())
	alice := testutil.CreateStudent(t, svc.Repos.Users, "alice", "ST001")
	bob := testutil.CreateStudent(t, svc.Repos.Users, "bob", "ST002")
	return svc, alice, bob
}

func TestService_UpsertDaily(t *testing.T) {
	svc, alice, bob := setup(t)

	n, err := svc.Attendance.UpsertDaily(ctx, jan(15), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = svc.Attendance.UpsertDaily(ctx, jan(15), []attendance.Entry{
		{StudentID: alice.ID, Present: true},
		{StudentID: bob.ID, Present: true},
		{StudentID: bob.ID, Present: false}, // last one wins
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := svc.Attendance.DailySheet(ctx, jan(15))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Present)
	assert.False(t, rows[1].Present)
	assert.True(t, rows[1].Recorded)

	t.Run("overwrites the day", func(t *testing.T) {
		_, err := svc.Attendance.UpsertDaily(ctx, jan(15), []attendance.Entry{{StudentID: alice.ID, Present: false}})
		require.NoError(t, err)

		records, err := svc.Repos.Attendance.QueryRecords(ctx, attendance.QueryFilter{StudentID: alice.ID})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.False(t, records[0].Present)
	})

	t.Run("time of day is dropped", func(t *testing.T) {
		_, err := svc.Attendance.UpsertDaily(ctx, jan(15).Add(15*time.Hour), []attendance.Entry{{StudentID: alice.ID, Present: true}})
		require.NoError(t, err)

		records, err := svc.Repos.Attendance.QueryRecords(ctx, attendance.QueryFilter{StudentID: alice.ID})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Present)
		assert.True(t, records[0].Date.Equal(jan(15)))
	})

	t.Run("unknown student writes nothing", func(t *testing.T) {
		_, err := svc.Attendance.UpsertDaily(ctx, jan(16), []attendance.Entry{
			{StudentID: alice.ID, Present: true},
			{StudentID: 999, Present: true},
		})
		assert.Equal(t, user.ErrStudentNotFound, errors.Cause(err))

		records, err := svc.Repos.Attendance.QueryRecords(ctx, attendance.QueryFilter{From: jan(16), To: jan(16)})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestService_SubmitRoster(t *testing.T) {
	svc, alice, bob := setup(t)

	n, err := svc.Attendance.SubmitRoster(ctx, jan(15), map[int64]bool{bob.ID: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := svc.Attendance.DailySheet(ctx, jan(15))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, alice.ID, rows[0].Student.ID)
	assert.False(t, rows[0].Present)
	assert.True(t, rows[0].Recorded)
	assert.Equal(t, bob.ID, rows[1].Student.ID)
	assert.True(t, rows[1].Present)

	// nothing recorded the next day
	rows, err = svc.Attendance.DailySheet(ctx, jan(16))
	require.NoError(t, err)
	for _, row := range rows {
		assert.False(t, row.Recorded)
		assert.False(t, row.Present)
	}
}

func TestService_Summary(t *testing.T) {
	svc, alice, bob := setup(t)

	sum, err := svc.Attendance.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total)
	assert.Equal(t, float64(0), sum.Percentage)

	for day := 1; day <= 10; day++ {
		_, err := svc.Attendance.UpsertDaily(ctx, jan(day), []attendance.Entry{
			{StudentID: alice.ID, Present: day <= 7},
			{StudentID: bob.ID, Present: true},
		})
		require.NoError(t, err)
	}

	sum, err = svc.Attendance.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Total)
	assert.Equal(t, 7, sum.PresentCount)
	assert.Equal(t, float64(70), sum.Percentage)
	require.Len(t, sum.Records, 10)
	assert.True(t, sum.Records[0].Date.Equal(jan(10)), "newest first")

	// only the most recent records count
	sum, err = svc.Attendance.SummaryWindow(ctx, alice.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 1, sum.PresentCount)
	assert.Equal(t, float64(25), sum.Percentage)
}

func TestService_Export(t *testing.T) {
	svc, alice, bob := setup(t)

	_, err := svc.Attendance.UpsertDaily(ctx, jan(16), []attendance.Entry{{StudentID: alice.ID}, {StudentID: bob.ID, Present: true}})
	require.NoError(t, err)
	_, err = svc.Attendance.UpsertDaily(ctx, jan(15), []attendance.Entry{{StudentID: alice.ID, Present: true}})
	require.NoError(t, err)
	_, err = svc.Attendance.UpsertDaily(ctx, jan(20), []attendance.Entry{{StudentID: bob.ID}})
	require.NoError(t, err)

	line := func(row attendance.ExportRow) string {
		return row.Student.Code() + " " + row.Record.Date.Format(core.DateLayout)
	}

	tests := []struct {
		name     string
		from, to time.Time
		want     []string
		wantErr  bool
	}{
		{name: "everything", want: []string{"ST001 2024-01-15", "ST001 2024-01-16", "ST002 2024-01-16", "ST002 2024-01-20"}},
		{name: "from", from: jan(16), want: []string{"ST001 2024-01-16", "ST002 2024-01-16", "ST002 2024-01-20"}},
		{name: "to", to: jan(15), want: []string{"ST001 2024-01-15"}},
		{name: "single day", from: jan(16), to: jan(16), want: []string{"ST001 2024-01-16", "ST002 2024-01-16"}},
		{name: "empty range", from: jan(17), to: jan(19), want: []string{}},
		{name: "to before from", from: jan(16), to: jan(15), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := svc.Attendance.Export(ctx, tt.from, tt.to)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			got := make([]string, 0, len(rows))
			for _, row := range rows {
				got = append(got, line(row))
			}
			if diff := testutil.Diff(tt.want, got); diff != "" {
				t.Errorf("Export() mismatch:\n%s", diff)
			}
		})
	}
}
