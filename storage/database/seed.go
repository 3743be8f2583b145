package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

// SeedUsers are the demo accounts created by Seed.
var SeedUsers = []user.NewUser{
	{Username: "teacher1", Email: "teacher1@school.com", Role: user.RoleTeacher, IsStaff: true, Password: "teacher123"},
	{Username: "librarian1", Email: "librarian1@school.com", Role: user.RoleLibrarian, IsStaff: true, Password: "librarian123"},
	{Username: "student1", Email: "student1@school.com", Role: user.RoleStudent, Password: "student123", StudentID: "ST001"},
	{Username: "student2", Email: "student2@school.com", Role: user.RoleStudent, Password: "student123", StudentID: "ST002"},
	{Username: "student3", Email: "student3@school.com", Role: user.RoleStudent, Password: "student123", StudentID: "ST003"},
}

type SeedResult struct {
	Created  []string
	Existing []string
}

// Seed creates the demo accounts that do not exist yet. Existing usernames are left untouched.
func Seed(ctx context.Context, users *user.Service) (SeedResult, error) {
	var res SeedResult
	for _, nu := range SeedUsers {
		_, err := users.GetByUsername(ctx, nu.Username)
		if err == nil {
			res.Existing = append(res.Existing, nu.Username)
			continue
		}
		if errors.Cause(err) != user.ErrNotFound {
			return res, errors.Wrapf(err, "finding user %q", nu.Username)
		}

		nu.PasswordConfirm = nu.Password
		if _, err = users.Create(ctx, nu); err != nil {
			return res, errors.Wrapf(err, "creating user %q", nu.Username)
		}
		res.Created = append(res.Created, nu.Username)
	}
	return res, nil
}
