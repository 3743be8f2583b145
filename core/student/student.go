// Package student assembles the self-service view of a logged-in student.
package student

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
)

type Overview struct {
	Student     user.Student
	Attendance  attendance.Summary
	Assignments []assignment.Assignment // newest first
}

type Service struct {
	users       *user.Service
	attendance  *attendance.Service
	assignments *assignment.Service
}

func NewService(users *user.Service, att *attendance.Service, asg *assignment.Service) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(att, "attendance"),
		vala.IsNotNil(asg, "assignments"),
	).CheckAndPanic()
	return &Service{users: users, attendance: att, assignments: asg}
}

// Overview returns usr's profile, recent attendance and assignments.
// It fails with user.ErrStudentNotFound when usr has no student profile.
func (svc *Service) Overview(ctx context.Context, usr user.User) (Overview, error) {
	st, err := svc.users.StudentOf(ctx, usr)
	if err != nil {
		if errors.Cause(err) == user.ErrStudentNotFound {
			return Overview{}, user.ErrStudentNotFound
		}
		return Overview{}, errors.Wrap(err, "finding student profile")
	}

	sum, err := svc.attendance.Summary(ctx, st.ID)
	if err != nil {
		return Overview{}, err
	}
	asgs, err := svc.assignments.ListByStudent(ctx, st.ID)
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying assignments")
	}
	return Overview{Student: st, Attendance: sum, Assignments: asgs}, nil
}
