package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

// Repositories bundles the repository implementations of one storage engine.
type Repositories struct {
	Users       user.Repository
	Sessions    auth.Repository
	Attendance  attendance.Repository
	Assignments assignment.Repository
	Pinger      core.Pinger

	// SQL is nil for the memory engine.
	SQL *sqlx.DB
}

func (r *Repositories) Close() error {
	if r.SQL == nil {
		return nil
	}
	return r.SQL.Close()
}

// NewMemoryRepositories returns empty in-memory repositories sharing one store.
func NewMemoryRepositories() *Repositories {
	db := inmemdb.NewDB()
	return &Repositories{
		Users:       inmemdb.NewUserRepository(db),
		Sessions:    inmemdb.NewSessionRepository(db),
		Attendance:  inmemdb.NewAttendanceRepository(db),
		Assignments: inmemdb.NewAssignmentRepository(db),
		Pinger:      db,
	}
}

// NewSQLRepositories returns PostgreSQL repositories over db.
func NewSQLRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:       sqlxrepos.NewUserRepository(db),
		Sessions:    sqlxrepos.NewSessionRepository(db),
		Attendance:  sqlxrepos.NewAttendanceRepository(db),
		Assignments: sqlxrepos.NewAssignmentRepository(db),
		Pinger:      db,
		SQL:         db,
	}
}

// Connect prepares the configured engine: for SQL engines it creates the database when
// missing (and an admin user is configured), opens it and applies the migrations.
func Connect(conf *core.Config) (*Repositories, error) {
	if conf.Database.InMemory() {
		return NewMemoryRepositories(), nil
	}

	if conf.Database.AdminUser != "" {
		if err := CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
	}
	db, err := Open(conf)
	if err != nil {
		return nil, err
	}
	if err = Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLRepositories(db), nil
}
