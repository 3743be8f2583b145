package inmemdb

import (
	"context"
	"sort"

	"github.com/ericlagergren/decimal"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/user"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func copyBig(d *decimal.Big) *decimal.Big {
	if d == nil {
		return nil
	}
	return new(decimal.Big).Copy(d)
}

// view must be called with a lock held. It detaches decimals and fills the student identity.
func (repo *assignmentRepository) view(asg assignment.Assignment) assignment.Assignment {
	asg.Marks = types.NewNullDecimal(copyBig(asg.Marks.Big))
	asg.MaxMarks = types.NewDecimal(copyBig(asg.MaxMarks.Big))
	if st, ok := repo.db.student(asg.StudentID); ok {
		asg.StudentName = st.DisplayName()
		asg.StudentCode = st.StudentID
	} else {
		asg.StudentName = ""
		asg.StudentCode = null.String{}
	}
	return asg
}

func (repo *assignmentRepository) CreateAssignments(_ context.Context, tmpl assignment.Assignment, studentIDs []int64) ([]assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range studentIDs {
		if _, ok := repo.db.profiles[id]; !ok {
			return nil, user.ErrStudentNotFound
		}
	}

	created := make([]assignment.Assignment, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		asg := tmpl
		asg.ID = repo.db.nextID("assignments")
		asg.StudentID = studentID
		asg.Marks = types.NewNullDecimal(nil)
		asg.MaxMarks = types.NewDecimal(copyBig(tmpl.MaxMarks.Big))
		asg.CompletionStatus = false
		repo.db.assignments[asg.ID] = asg
		created = append(created, repo.view(asg))
	}
	return created, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id int64) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return repo.view(asg), nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	asgs := make([]assignment.Assignment, 0)
	for _, asg := range repo.db.assignments {
		if filter.StudentID != 0 && asg.StudentID != filter.StudentID {
			continue
		}
		asgs = append(asgs, repo.view(asg))
	}
	sort.Slice(asgs, func(i, j int) bool {
		if !asgs[i].AssignedDate.Equal(asgs[j].AssignedDate) {
			return asgs[i].AssignedDate.After(asgs[j].AssignedDate)
		}
		return asgs[i].ID > asgs[j].ID
	})
	return asgs, nil
}

func (repo *assignmentRepository) update(id int64, fn func(asg *assignment.Assignment)) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	asg, ok := repo.db.assignments[id]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	fn(&asg)
	repo.db.assignments[id] = asg
	return repo.view(asg), nil
}

func (repo *assignmentRepository) UpdateMarks(_ context.Context, id int64, marks types.NullDecimal) (assignment.Assignment, error) {
	return repo.update(id, func(asg *assignment.Assignment) {
		asg.Marks = types.NewNullDecimal(copyBig(marks.Big))
	})
}

func (repo *assignmentRepository) UpdateCompletionStatus(_ context.Context, id int64, completed bool) (assignment.Assignment, error) {
	return repo.update(id, func(asg *assignment.Assignment) {
		asg.CompletionStatus = completed
	})
}
