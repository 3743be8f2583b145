//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/trezcool/shule/storage/database"
)

// PrepareDB starts a throwaway PostgreSQL container, applies the migrations and returns a connection to it.
// Everything is torn down when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("shule"),
		postgres.WithUsername("shule"),
		postgres.WithPassword("shule"),
	)
	if err != nil {
		t.Fatalf("PrepareDB() starting container: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = pg.Terminate(ctx)
	})

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("PrepareDB() building DSN: %v", err)
	}
	db, err := sqlx.Open("postgres", uri)
	if err != nil {
		t.Fatalf("PrepareDB() opening DB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = waitReady(ctx, db); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() migrating: %v", err)
	}
	return db
}

func waitReady(ctx context.Context, db *sqlx.DB) error {
	var err error
	for attempts := 1; attempts <= 20; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return err
}

// ResetDB empties every table, keeping the schema.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE users, student_profiles, attendance, assignments, sessions RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}
