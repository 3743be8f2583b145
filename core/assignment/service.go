package assignment

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var ErrNotFound = errors.New("assignment not found")

type (
	Repository interface {
		// CreateAssignments inserts one copy of tmpl per student id in one transaction.
		// It fails with user.ErrStudentNotFound, writing nothing, when a student id is unknown.
		CreateAssignments(ctx context.Context, tmpl Assignment, studentIDs []int64) ([]Assignment, error)
		// GetAssignment returns ErrNotFound for unknown ids.
		GetAssignment(ctx context.Context, id int64) (Assignment, error)
		// QueryAssignments orders by assigned date then id, both descending.
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateMarks(ctx context.Context, id int64, marks types.NullDecimal) (Assignment, error)
		UpdateCompletionStatus(ctx context.Context, id int64, completed bool) (Assignment, error)
	}

	Service struct {
		repo     Repository
		validate *core.Validator
		loc      *time.Location
	}
)

func NewService(repo Repository, validate *core.Validator, loc *time.Location) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, validate: validate, loc: loc}
}

// Create assigns the same work to every distinct selected student, dated today.
func (svc *Service) Create(ctx context.Context, na NewAssignment) ([]Assignment, error) {
	na.clean()
	if err := svc.validate.Struct(na); err != nil {
		return nil, err
	}
	maxMarks, ok := ParseMarks(na.MaxMarks)
	if !ok {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "max_marks", Error: "invalid decimal"})
	}

	tmpl := Assignment{
		Title:        na.Title,
		Description:  na.Description,
		AssignedDate: core.Today(svc.loc),
		MaxMarks:     types.NewDecimal(maxMarks),
		CreatedAt:    time.Now().UTC(),
	}
	if na.DueDate != "" {
		due, err := core.ParseDate(na.DueDate)
		if err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: "due_date", Error: err.Error()})
		}
		tmpl.DueDate = null.TimeFrom(due)
	}

	seen := make(map[int64]bool, len(na.StudentIDs))
	ids := make([]int64, 0, len(na.StudentIDs))
	for _, id := range na.StudentIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []Assignment{}, nil
	}

	created, err := svc.repo.CreateAssignments(ctx, tmpl, ids)
	if err != nil {
		if errors.Cause(err) == user.ErrStudentNotFound {
			return nil, err
		}
		return nil, errors.Wrap(err, "creating assignments")
	}
	return created, nil
}

func (svc *Service) Get(ctx context.Context, id int64) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

// UpdateMarks grades the assignment. Blank marks leave it untouched and report changed = false.
// Marks above max marks are accepted.
func (svc *Service) UpdateMarks(ctx context.Context, id int64, marks string) (bool, error) {
	if _, err := svc.repo.GetAssignment(ctx, id); err != nil {
		return false, err
	}
	marks = core.CleanString(marks)
	if marks == "" {
		return false, nil
	}
	if err := svc.validate.Var("marks", marks, "marks"); err != nil {
		return false, err
	}
	d, ok := ParseMarks(marks)
	if !ok {
		return false, core.NewValidationError(nil, core.FieldError{Field: "marks", Error: "invalid decimal"})
	}
	if _, err := svc.repo.UpdateMarks(ctx, id, types.NewNullDecimal(d)); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, err
		}
		return false, errors.Wrap(err, "updating marks")
	}
	return true, nil
}

func (svc *Service) UpdateCompletionStatus(ctx context.Context, id int64, completed bool) (Assignment, error) {
	asg, err := svc.repo.UpdateCompletionStatus(ctx, id, completed)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Assignment{}, err
		}
		return Assignment{}, errors.Wrap(err, "updating completion status")
	}
	return asg, nil
}

// Query lists every assignment, newest first.
func (svc *Service) Query(ctx context.Context) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, QueryFilter{})
}

func (svc *Service) ListByStudent(ctx context.Context, studentID int64) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, QueryFilter{StudentID: studentID})
}
