package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// withProfile must be called with a lock held.
func (repo *userRepository) withProfile(usr user.User) user.User {
	for _, p := range repo.db.profiles {
		if p.UserID == usr.ID {
			profile := p
			usr.Student = &profile
			break
		}
	}
	return usr
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email, studentID string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	if studentID != "" {
		for _, p := range repo.db.profiles {
			if p.StudentID.Valid && p.StudentID.String == studentID {
				return user.ErrStudentIDExists
			}
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.users {
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
	}
	if usr.Student != nil && usr.Student.StudentID.Valid {
		for _, p := range repo.db.profiles {
			if p.StudentID.Valid && p.StudentID.String == usr.Student.StudentID.String {
				return user.User{}, user.ErrStudentIDExists
			}
		}
	}

	usr.ID = repo.db.nextID("users")
	profile := usr.Student
	usr.Student = nil
	repo.db.users[usr.ID] = usr

	if profile != nil {
		p := *profile
		p.ID = repo.db.nextID("student_profiles")
		p.UserID = usr.ID
		repo.db.profiles[p.ID] = p
		usr.Student = &p
	}
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch {
	case filter.ID != 0:
		if usr, ok := repo.db.users[filter.ID]; ok {
			return repo.withProfile(usr), nil
		}
	case filter.Username != "":
		for _, usr := range repo.db.users {
			if usr.Username == filter.Username {
				return repo.withProfile(usr), nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter != nil && !matches(usr, filter) {
			continue
		}
		users = append(users, repo.withProfile(usr))
	}

	desc := len(ordering) > 0 && ordering[0].Field == "id" && !ordering[0].Ascending
	sort.Slice(users, func(i, j int) bool {
		if desc {
			return users[i].ID > users[j].ID
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func matches(usr user.User, filter *user.QueryFilter) bool {
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(usr.Username), kw) &&
			!strings.Contains(strings.ToLower(usr.Email), kw) &&
			!strings.Contains(strings.ToLower(usr.FirstName), kw) &&
			!strings.Contains(strings.ToLower(usr.LastName), kw) {
			return false
		}
	}
	if filter.Role != "" && usr.Role != filter.Role {
		return false
	}
	if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	orig.Email = usr.Email
	orig.FirstName = usr.FirstName
	orig.LastName = usr.LastName
	orig.IsStaff = usr.IsStaff
	orig.IsActive = usr.IsActive
	orig.PasswordHash = usr.PasswordHash
	orig.UpdatedAt = usr.UpdatedAt
	orig.LastLogin = usr.LastLogin
	repo.db.users[usr.ID] = orig

	orig.Student = usr.Student
	return orig, nil
}

// DeleteUsersByID cascades like the SQL schema: profiles, then their attendance and assignments, then sessions.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)
		for pid, p := range repo.db.profiles {
			if p.UserID != id {
				continue
			}
			delete(repo.db.profiles, pid)
			for rid, rec := range repo.db.attendance {
				if rec.StudentID == pid {
					delete(repo.db.attendance, rid)
				}
			}
			for aid, asg := range repo.db.assignments {
				if asg.StudentID == pid {
					delete(repo.db.assignments, aid)
				}
			}
		}
		for sid, sess := range repo.db.sessions {
			if sess.UserID == id {
				delete(repo.db.sessions, sid)
			}
		}
	}
	return nil
}

func (repo *userRepository) QueryStudents(_ context.Context) ([]user.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]user.Student, 0, len(repo.db.profiles))
	for pid := range repo.db.profiles {
		st, _ := repo.db.student(pid)
		students = append(students, st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *userRepository) GetStudent(_ context.Context, profileID int64) (user.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.student(profileID); ok {
		return st, nil
	}
	return user.Student{}, user.ErrStudentNotFound
}
