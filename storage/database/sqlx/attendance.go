package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
)

type attendanceRepository struct {
	db core.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db core.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// checkStudents fails with user.ErrStudentNotFound unless every id names a student profile.
func checkStudents(ctx context.Context, exec core.DBExecutor, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := in("SELECT COUNT(*) FROM student_profiles WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building student check query")
	}
	var found int
	if err = exec.GetContext(ctx, &found, q, args...); err != nil {
		return errors.Wrap(err, "checking students")
	}
	if found != len(ids) {
		return user.ErrStudentNotFound
	}
	return nil
}

func (repo attendanceRepository) UpsertDaily(ctx context.Context, date time.Time, entries []attendance.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	day := date.Format(core.DateLayout)
	now := time.Now().UTC()

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.StudentID)
	}

	var written int
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := checkStudents(ctx, tx, ids); err != nil {
			return err
		}
		q := rebind(`INSERT INTO attendance (student_id, date, present, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT (student_id, date) DO UPDATE SET present = EXCLUDED.present`)
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, q, e.StudentID, day, e.Present, now); err != nil {
				if code, _ := pgError(err); code == pgForeignKeyViolation {
					return user.ErrStudentNotFound
				}
				return errors.Wrap(err, "upserting attendance")
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	var where []string
	var args []interface{}
	if filter.StudentID != 0 {
		where = append(where, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if !filter.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.From.Format(core.DateLayout))
	}
	if !filter.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.To.Format(core.DateLayout))
	}

	q := "SELECT id, student_id, date, present, created_at FROM attendance"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date DESC, id DESC"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	records := make([]attendance.Record, 0)
	if err := repo.db.SelectContext(ctx, &records, rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	for i := range records {
		records[i].Date = core.Date(records[i].Date)
	}
	return records, nil
}
