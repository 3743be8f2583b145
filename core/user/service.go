package user

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrStudentNotFound = errors.New("student profile not found")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrUsernameExists  = errors.New("a user with this username already exists")
	ErrStudentIDExists = errors.New("a student with this student id already exists")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists, ErrEmailExists or ErrStudentIDExists on conflict.
		// Empty email and studentID are never checked.
		CheckUniqueness(ctx context.Context, username, email, studentID string) error
		// CreateUser inserts usr and, when set, its student profile in one transaction.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on username, email, first or last name.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		// UpdateUser saves every mutable field of usr. The role is never written.
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...int64) error
		// QueryStudents returns the roster: every student profile, ordered by profile id.
		QueryStudents(ctx context.Context) ([]Student, error)
		GetStudent(ctx context.Context, profileID int64) (Student, error)
	}

	Service struct {
		repo     Repository
		validate *core.Validator
	}
)

func NewService(repo Repository, validate *core.Validator) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email, studentID string) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, studentID); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		case ErrStudentIDExists:
			field = "student_id"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Create validates nu and persists the new user, with a student profile when the role is student.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email, nu.StudentID); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Role:      nu.Role,
		IsStaff:   nu.IsStaff,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	if usr.Role == RoleStudent {
		profile := &StudentProfile{
			StudentID: null.NewString(nu.StudentID, nu.StudentID != ""),
			CreatedAt: now,
		}
		if nu.DateOfBirth != "" {
			dob, err := core.ParseDate(nu.DateOfBirth)
			if err != nil {
				return User{}, core.NewValidationError(err, core.FieldError{Field: "date_of_birth", Error: err.Error()})
			}
			profile.DateOfBirth = null.TimeFrom(dob)
		}
		usr.Student = profile
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]User, error) {
	if filter != nil {
		filter.Clean()
		if filter.IsEmpty() {
			filter = nil
		}
	}
	return svc.repo.QueryUsers(ctx, filter, []core.DBOrdering{{Field: "id", Ascending: true}})
}

func (svc *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Username: uname})
}

// Roster lists every student, ordered by profile id.
func (svc *Service) Roster(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *Service) GetStudent(ctx context.Context, profileID int64) (Student, error) {
	return svc.repo.GetStudent(ctx, profileID)
}

// StudentOf returns the roster entry linked to usr, or ErrStudentNotFound.
func (svc *Service) StudentOf(ctx context.Context, usr User) (Student, error) {
	if usr.Student == nil {
		return Student{}, ErrStudentNotFound
	}
	return svc.repo.GetStudent(ctx, usr.Student.ID)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User, at time.Time) (User, error) {
	usr.LastLogin = null.TimeFrom(at.UTC())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetActive(ctx context.Context, usr User, active bool) (User, error) {
	usr.IsActive = active
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) ResetPassword(ctx context.Context, pr PasswordReset) (User, error) {
	pr.Username = core.CleanString(pr.Username, true /* lower */)
	if err := svc.validate.Struct(pr); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{Username: pr.Username})
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pr.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Delete removes users together with their student profiles, attendance and assignments.
func (svc *Service) Delete(ctx context.Context, ids ...int64) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}
