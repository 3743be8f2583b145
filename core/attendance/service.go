package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type (
	Repository interface {
		// UpsertDaily creates or overwrites the (student, date) record of every entry in one transaction.
		// It fails with user.ErrStudentNotFound, writing nothing, when an entry names an unknown student.
		UpsertDaily(ctx context.Context, date time.Time, entries []Entry) (int, error)
		// QueryRecords returns matching records ordered by date then id, both descending.
		QueryRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
	}

	Service struct {
		repo   Repository
		users  *user.Service
		loc    *time.Location
		window int
	}
)

func NewService(repo Repository, users *user.Service, loc *time.Location, window int) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
	).CheckAndPanic()
	if loc == nil {
		loc = time.UTC
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{repo: repo, users: users, loc: loc, window: window}
}

// Today is the current calendar day in the school's timezone.
func (svc *Service) Today() time.Time {
	return core.Today(svc.loc)
}

// UpsertDaily writes the entries for date atomically and returns how many rows were written.
// When a student appears more than once the last entry wins.
func (svc *Service) UpsertDaily(ctx context.Context, date time.Time, entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	byStudent := make(map[int64]bool, len(entries))
	for _, e := range entries {
		byStudent[e.StudentID] = e.Present
	}
	clean := make([]Entry, 0, len(byStudent))
	for id, present := range byStudent {
		clean = append(clean, Entry{StudentID: id, Present: present})
	}
	sort.Slice(clean, func(i, j int) bool { return clean[i].StudentID < clean[j].StudentID })

	n, err := svc.repo.UpsertDaily(ctx, core.Date(date), clean)
	if err != nil {
		if errors.Cause(err) == user.ErrStudentNotFound {
			return 0, err
		}
		return 0, errors.Wrap(err, "upserting attendance")
	}
	return n, nil
}

// SubmitRoster records every roster student for date, present when listed in presentIDs.
func (svc *Service) SubmitRoster(ctx context.Context, date time.Time, presentIDs map[int64]bool) (int, error) {
	roster, err := svc.users.Roster(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying roster")
	}
	return svc.UpsertDaily(ctx, date, RosterEntries(roster, presentIDs))
}

// DailySheet lists the roster with each student's presence on date (absent when not recorded).
func (svc *Service) DailySheet(ctx context.Context, date time.Time) ([]SheetRow, error) {
	date = core.Date(date)
	roster, err := svc.users.Roster(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	records, err := svc.repo.QueryRecords(ctx, QueryFilter{From: date, To: date})
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	byStudent := make(map[int64]Record, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec
	}

	rows := make([]SheetRow, 0, len(roster))
	for _, st := range roster {
		rec, ok := byStudent[st.ID]
		rows = append(rows, SheetRow{Student: st, Present: ok && rec.Present, Recorded: ok})
	}
	return rows, nil
}

// Summary aggregates the most recent records of a student over the configured window.
func (svc *Service) Summary(ctx context.Context, studentID int64) (Summary, error) {
	return svc.SummaryWindow(ctx, studentID, svc.window)
}

func (svc *Service) SummaryWindow(ctx context.Context, studentID int64, window int) (Summary, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	records, err := svc.repo.QueryRecords(ctx, QueryFilter{StudentID: studentID, Limit: window})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying attendance")
	}
	sum := Summary{Records: records, Total: len(records)}
	for _, rec := range records {
		if rec.Present {
			sum.PresentCount++
		}
	}
	sum.Percentage = percentage(sum.PresentCount, sum.Total)
	return sum, nil
}

// Export lists records between from and to (inclusive, zero means unbounded), oldest first, with student identity.
func (svc *Service) Export(ctx context.Context, from, to time.Time) ([]ExportRow, error) {
	filter := QueryFilter{}
	if !from.IsZero() {
		filter.From = core.Date(from)
	}
	if !to.IsZero() {
		filter.To = core.Date(to)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "to", Error: "must not be before from"})
	}

	roster, err := svc.users.Roster(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	students := make(map[int64]user.Student, len(roster))
	for _, st := range roster {
		students[st.ID] = st
	}
	records, err := svc.repo.QueryRecords(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}

	rows := make([]ExportRow, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		rows = append(rows, ExportRow{Student: students[rec.StudentID], Record: rec})
	}
	return rows, nil
}
