package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"
	"github.com/volatiletech/strmangle"
	"go.uber.org/zap"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/user"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
)

// Password is the password of every user created by CreateUser and CreateStudent.
const Password = "secret-pwd1"

// NewConfig returns the configuration used by tests: memory engine, no CSRF, UTC.
func NewConfig() *core.Config {
	return &core.Config{
		TestMode:               true,
		AppName:                "Shule",
		Env:                    "TEST",
		Build:                  "test",
		SecretKey:              "test-secret-key",
		SessionExpirationDelta: time.Hour,
		AttendanceWindow:       attendance.DefaultWindow,
		Location:               time.UTC,
		LogLevel:               "error",
		Server:                 core.ServerConfig{DisableCSRF: true},
		Database:               core.DatabaseConfig{Engine: "memory", Timeout: 5 * time.Second},
	}
}

// NewLogger returns a core.Logger discarding everything.
func NewLogger() core.Logger {
	return logsvc.NewZapLogger(zap.NewNop())
}

// Services bundles every domain service over one set of repositories.
type Services struct {
	Repos      *database.Repositories
	Validate   *core.Validator
	Users      *user.Service
	Auth       *auth.Service
	Attendance *attendance.Service
	Assignment *assignment.Service
	Student    *student.Service
}

func NewServices(repos *database.Repositories, conf *core.Config) *Services {
	validate := core.NewValidator()
	user.RegisterValidators(validate)

	usrSvc := user.NewService(repos.Users, validate)
	attSvc := attendance.NewService(repos.Attendance, usrSvc, conf.Location, conf.AttendanceWindow)
	asgSvc := assignment.NewService(repos.Assignments, validate, conf.Location)
	return &Services{
		Repos:      repos,
		Validate:   validate,
		Users:      usrSvc,
		Auth:       auth.NewService(repos.Sessions, usrSvc, conf.SessionExpirationDelta),
		Attendance: attSvc,
		Assignment: asgSvc,
		Student:    student.NewService(usrSvc, attSvc, asgSvc),
	}
}

func CreateUser(t *testing.T, repo user.Repository, uname string, role user.Role, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Username:  uname,
		Email:     uname + "@test.cd",
		FirstName: strmangle.TitleCase(uname),
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if role == user.RoleStudent {
		usr.Student = &user.StudentProfile{CreatedAt: now}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateStudent creates an active student user and returns its roster entry.
func CreateStudent(t *testing.T, repo user.Repository, uname, studentID string) user.Student {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Username:  uname,
		Email:     uname + "@test.cd",
		FirstName: strmangle.TitleCase(uname),
		Role:      user.RoleStudent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Student: &user.StudentProfile{
			StudentID: null.NewString(studentID, studentID != ""),
			CreatedAt: now,
		},
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	st, err := repo.GetStudent(context.Background(), usr.Student.ID)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

// CreateAssignment creates an ungraded assignment out of 100, assigned today (UTC).
func CreateAssignment(t *testing.T, repo assignment.Repository, studentID int64, title string) assignment.Assignment {
	t.Helper()

	maxMarks, _ := new(decimal.Big).SetString(assignment.DefaultMaxMarks)
	tmpl := assignment.Assignment{
		Title:        title,
		AssignedDate: core.Today(time.UTC),
		MaxMarks:     types.NewDecimal(maxMarks.Quantize(2)),
		CreatedAt:    time.Now().UTC(),
	}
	created, err := repo.CreateAssignments(context.Background(), tmpl, []int64{studentID})
	if err != nil || len(created) != 1 {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return created[0]
}

// Diff returns a unified diff of want and got, one item per line; empty when equal.
func Diff(want, got []string) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(want, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(got, "\n") + "\n"),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	return diff
}
