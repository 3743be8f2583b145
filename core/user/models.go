package user

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         Role      `db:"role" json:"role"`
	IsStaff      bool      `db:"is_staff" json:"is_staff"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"` // UTC
	LastLogin    null.Time `db:"last_login" json:"last_login"` // UTC

	// Student is only set for users with RoleStudent.
	Student *StudentProfile `db:"-" json:"student,omitempty"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name, or the username when no name was given.
func (u User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Username
}

func (u User) IsTeacher() bool   { return u.Role == RoleTeacher }
func (u User) IsStudent() bool   { return u.Role == RoleStudent }
func (u User) IsLibrarian() bool { return u.Role == RoleLibrarian }

type StudentProfile struct {
	ID          int64       `db:"id" json:"id"`
	UserID      int64       `db:"user_id" json:"user_id"`
	StudentID   null.String `db:"student_id" json:"student_id"`
	DateOfBirth null.Time   `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// Student is a StudentProfile joined with its user's identity, as listed on rosters.
type Student struct {
	StudentProfile
	Username  string `db:"username" json:"username"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s Student) DisplayName() string {
	if name := s.FullName(); name != "" {
		return name
	}
	return s.Username
}

// Code is the school-issued student id, empty when none was given.
func (s Student) Code() string {
	return s.StudentID.String
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `form:"username" json:"username" validate:"required,max=150,alphanum_"`
	Email           string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	FirstName       string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName        string `form:"last_name" json:"last_name" validate:"max=150"`
	Role            Role   `form:"role" json:"role" validate:"required,role"`
	IsStaff         bool   `form:"is_staff" json:"is_staff"`
	Password        string `form:"password" json:"password" validate:"required"`
	PasswordConfirm string `form:"password_confirm" json:"password_confirm" validate:"required,eqfield=Password"`
	StudentID       string `form:"student_id" json:"student_id" validate:"omitempty,max=50,printascii"`
	DateOfBirth     string `form:"date_of_birth" json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

func (nu *NewUser) clean() {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))
	nu.StudentID = core.CleanString(nu.StudentID)
	nu.DateOfBirth = core.CleanString(nu.DateOfBirth)
}

// PasswordReset carries a new password for an existing user.
type PasswordReset struct {
	Username        string `form:"username" json:"username" validate:"required"`
	Password        string `form:"password" json:"password" validate:"required"`
	PasswordConfirm string `form:"password_confirm" json:"password_confirm" validate:"required,eqfield=Password"`
}

// GetFilter selects one user; the first non-zero field wins.
type GetFilter struct {
	ID       int64
	Username string
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     Role   `query:"role"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = Role(core.CleanString(string(qf.Role), true /* lower */))
}
