package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const (
	userColumns    = "id, username, email, first_name, last_name, role, is_staff, is_active, password_hash, created_at, updated_at, last_login"
	profileColumns = "id, user_id, student_id, date_of_birth, created_at"
	studentSelect  = `SELECT sp.id, sp.user_id, sp.student_id, sp.date_of_birth, sp.created_at,
       u.username, u.email, u.first_name, u.last_name
  FROM student_profiles sp
  JOIN users u ON u.id = sp.user_id`
)

var userOrderings = map[string]string{
	"id":         "id",
	"username":   "username",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) exists(ctx context.Context, q string, args ...interface{}) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, rebind("SELECT EXISTS("+q+")"), args...)
	return exists, err
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email, studentID string) error {
	exists, err := repo.exists(ctx, "SELECT 1 FROM users WHERE username = ?", username)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return user.ErrUsernameExists
	}

	if email != "" {
		if exists, err = repo.exists(ctx, "SELECT 1 FROM users WHERE email = ?", email); err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		if exists {
			return user.ErrEmailExists
		}
	}

	if studentID != "" {
		if exists, err = repo.exists(ctx, "SELECT 1 FROM student_profiles WHERE student_id = ?", studentID); err != nil {
			return errors.Wrap(err, "checking student id uniqueness")
		}
		if exists {
			return user.ErrStudentIDExists
		}
	}
	return nil
}

// trapUniqueErr maps unique constraint violations raised by concurrent inserts to the user errors.
func trapUniqueErr(err error, msg string) error {
	if code, constraint := pgError(err); code == pgUniqueViolation {
		switch {
		case strings.Contains(constraint, "username"):
			return user.ErrUsernameExists
		case strings.Contains(constraint, "student_id"):
			return user.ErrStudentIDExists
		}
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := rebind(`INSERT INTO users (username, email, first_name, last_name, role, is_staff, is_active, password_hash, created_at, updated_at, last_login)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		err := tx.QueryRowxContext(ctx, q,
			usr.Username, usr.Email, usr.FirstName, usr.LastName, string(usr.Role), usr.IsStaff, usr.IsActive,
			usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), usr.LastLogin,
		).Scan(&usr.ID)
		if err != nil {
			return trapUniqueErr(err, "inserting user")
		}

		if usr.Student == nil {
			return nil
		}
		profile := *usr.Student
		profile.UserID = usr.ID
		q = rebind(`INSERT INTO student_profiles (user_id, student_id, date_of_birth, created_at) VALUES (?, ?, ?, ?) RETURNING id`)
		err = tx.QueryRowxContext(ctx, q,
			profile.UserID, profile.StudentID, dateArg(profile.DateOfBirth), profile.CreatedAt.UTC(),
		).Scan(&profile.ID)
		if err != nil {
			return trapUniqueErr(err, "inserting student profile")
		}
		usr.Student = &profile
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) loadProfile(ctx context.Context, usr *user.User) error {
	var profile user.StudentProfile
	err := repo.db.GetContext(ctx, &profile, rebind("SELECT "+profileColumns+" FROM student_profiles WHERE user_id = ?"), usr.ID)
	if err != nil {
		err = trapNoRowsErr(err, user.ErrStudentNotFound, "finding student profile")
		if err == user.ErrStudentNotFound {
			return nil
		}
		return err
	}
	profile.DateOfBirth.Time = core.Date(profile.DateOfBirth.Time)
	usr.Student = &profile
	return nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var q string
	var arg interface{}
	switch {
	case filter.ID != 0:
		q, arg = "SELECT "+userColumns+" FROM users WHERE id = ?", filter.ID
	case filter.Username != "":
		q, arg = "SELECT "+userColumns+" FROM users WHERE username = ?", filter.Username
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, rebind(q), arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	if err := repo.loadProfile(ctx, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var where []string
	var args []interface{}

	if filter != nil {
		// users with username, email or names matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, "(username ILIKE ? OR email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?)")
			args = append(args, val, val, val, val)
		}
		if filter.Role != "" {
			where = append(where, "role = ?")
			args = append(args, string(filter.Role))
		}
		if filter.IsActive != nil {
			where = append(where, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
	}

	q := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, userOrderings, "id ASC")

	users := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &users, rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	if err := repo.loadProfiles(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (repo userRepository) loadProfiles(ctx context.Context, users []user.User) error {
	ids := make([]int64, 0, len(users))
	for _, usr := range users {
		if usr.IsStudent() {
			ids = append(ids, usr.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	q, args, err := in("SELECT "+profileColumns+" FROM student_profiles WHERE user_id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building student profiles query")
	}
	var profiles []user.StudentProfile
	if err = repo.db.SelectContext(ctx, &profiles, q, args...); err != nil {
		return errors.Wrap(err, "querying student profiles")
	}
	byUser := make(map[int64]user.StudentProfile, len(profiles))
	for _, p := range profiles {
		p.DateOfBirth.Time = core.Date(p.DateOfBirth.Time)
		byUser[p.UserID] = p
	}
	for i := range users {
		if p, ok := byUser[users[i].ID]; ok {
			users[i].Student = &p
		}
	}
	return nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := rebind(`UPDATE users
   SET email = ?, first_name = ?, last_name = ?, is_staff = ?, is_active = ?,
       password_hash = ?, updated_at = ?, last_login = ?
 WHERE id = ?
RETURNING ` + userColumns)

	var updated user.User
	err := repo.db.GetContext(ctx, &updated, q,
		usr.Email, usr.FirstName, usr.LastName, usr.IsStaff, usr.IsActive,
		usr.PasswordHash, usr.UpdatedAt.UTC(), usr.LastLogin, usr.ID,
	)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	updated.Student = usr.Student
	return updated, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := in("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = repo.db.ExecContext(ctx, q, args...)
	return errors.Wrap(err, "deleting users")
}

func normalizeStudents(students []user.Student) {
	for i := range students {
		students[i].DateOfBirth.Time = core.Date(students[i].DateOfBirth.Time)
	}
}

func (repo userRepository) QueryStudents(ctx context.Context) ([]user.Student, error) {
	students := make([]user.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, studentSelect+" ORDER BY sp.id"); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	normalizeStudents(students)
	return students, nil
}

func (repo userRepository) GetStudent(ctx context.Context, profileID int64) (user.Student, error) {
	var st user.Student
	if err := repo.db.GetContext(ctx, &st, rebind(studentSelect+" WHERE sp.id = ?"), profileID); err != nil {
		return user.Student{}, trapNoRowsErr(err, user.ErrStudentNotFound, "finding student")
	}
	st.DateOfBirth.Time = core.Date(st.DateOfBirth.Time)
	return st, nil
}
