// Package inmemdb implements the repositories on process memory.
// It backs the `memory` engine and the service and HTTP tests.
package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/user"
)

// DB holds every table behind a single lock, so multi-table writes are atomic.
type DB struct {
	mutex sync.RWMutex
	seq   map[string]int64

	users       map[int64]user.User
	profiles    map[int64]user.StudentProfile
	sessions    map[string]auth.Session
	attendance  map[int64]attendance.Record
	assignments map[int64]assignment.Assignment
}

func NewDB() *DB {
	return &DB{
		seq:         make(map[string]int64),
		users:       make(map[int64]user.User),
		profiles:    make(map[int64]user.StudentProfile),
		sessions:    make(map[string]auth.Session),
		attendance:  make(map[int64]attendance.Record),
		assignments: make(map[int64]assignment.Assignment),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int64 {
	db.seq[table]++
	return db.seq[table]
}

func (db *DB) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// student must be called with a lock held.
func (db *DB) student(profileID int64) (user.Student, bool) {
	p, ok := db.profiles[profileID]
	if !ok {
		return user.Student{}, false
	}
	u := db.users[p.UserID]
	return user.Student{
		StudentProfile: p,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
	}, true
}
