package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/user"
)

const assignmentSelect = `SELECT a.id, a.title, a.description, a.student_id, a.assigned_date, a.due_date,
       a.marks, a.max_marks, a.completion_status, a.created_at,
       COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.username) AS student_name,
       sp.student_id AS student_code
  FROM assignments a
  JOIN student_profiles sp ON sp.id = a.student_id
  JOIN users u ON u.id = sp.user_id`

const assignmentOrdering = " ORDER BY a.assigned_date DESC, a.id DESC"

type assignmentRepository struct {
	db core.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db core.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func normalizeAssignments(asgs []assignment.Assignment) {
	for i := range asgs {
		asgs[i].AssignedDate = core.Date(asgs[i].AssignedDate)
		if asgs[i].DueDate.Valid {
			asgs[i].DueDate.Time = core.Date(asgs[i].DueDate.Time)
		}
	}
}

func (repo assignmentRepository) CreateAssignments(ctx context.Context, tmpl assignment.Assignment, studentIDs []int64) ([]assignment.Assignment, error) {
	if len(studentIDs) == 0 {
		return []assignment.Assignment{}, nil
	}

	created := make([]assignment.Assignment, 0, len(studentIDs))
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := checkStudents(ctx, tx, studentIDs); err != nil {
			return err
		}

		q := rebind(`INSERT INTO assignments (title, description, student_id, assigned_date, due_date, max_marks, completion_status, created_at)
VALUES (?, ?, ?, ?, ?, ?, FALSE, ?) RETURNING id`)
		ids := make([]int64, 0, len(studentIDs))
		for _, studentID := range studentIDs {
			var id int64
			err := tx.QueryRowxContext(ctx, q,
				tmpl.Title, tmpl.Description, studentID, tmpl.AssignedDate.Format(core.DateLayout),
				dateArg(tmpl.DueDate), tmpl.MaxMarks, tmpl.CreatedAt.UTC(),
			).Scan(&id)
			if err != nil {
				if code, _ := pgError(err); code == pgForeignKeyViolation {
					return user.ErrStudentNotFound
				}
				return errors.Wrap(err, "inserting assignment")
			}
			ids = append(ids, id)
		}

		sq, args, err := in(assignmentSelect+" WHERE a.id IN (?) ORDER BY a.id", ids)
		if err != nil {
			return errors.Wrap(err, "building assignments query")
		}
		return errors.Wrap(tx.SelectContext(ctx, &created, sq, args...), "reading created assignments")
	})
	if err != nil {
		return nil, err
	}
	normalizeAssignments(created)
	return created, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id int64) (assignment.Assignment, error) {
	var asg assignment.Assignment
	if err := repo.db.GetContext(ctx, &asg, rebind(assignmentSelect+" WHERE a.id = ?"), id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "finding assignment")
	}
	asgs := []assignment.Assignment{asg}
	normalizeAssignments(asgs)
	return asgs[0], nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var where []string
	var args []interface{}
	if filter.StudentID != 0 {
		where = append(where, "a.student_id = ?")
		args = append(args, filter.StudentID)
	}

	q := assignmentSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += assignmentOrdering

	asgs := make([]assignment.Assignment, 0)
	if err := repo.db.SelectContext(ctx, &asgs, rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	normalizeAssignments(asgs)
	return asgs, nil
}

func (repo assignmentRepository) update(ctx context.Context, id int64, set string, arg interface{}) (assignment.Assignment, error) {
	res, err := repo.db.ExecContext(ctx, rebind("UPDATE assignments SET "+set+" = ? WHERE id = ?"), arg, id)
	if err != nil {
		return assignment.Assignment{}, errors.Wrapf(err, "updating assignment %s", set)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return repo.GetAssignment(ctx, id)
}

func (repo assignmentRepository) UpdateMarks(ctx context.Context, id int64, marks types.NullDecimal) (assignment.Assignment, error) {
	return repo.update(ctx, id, "marks", marks)
}

func (repo assignmentRepository) UpdateCompletionStatus(ctx context.Context, id int64, completed bool) (assignment.Assignment, error) {
	return repo.update(ctx, id, "completion_status", completed)
}
