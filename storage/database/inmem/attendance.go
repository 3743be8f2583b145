package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// UpsertDaily validates every entry before writing any, which makes the batch all-or-nothing.
func (repo *attendanceRepository) UpsertDaily(_ context.Context, date time.Time, entries []attendance.Entry) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, e := range entries {
		if _, ok := repo.db.profiles[e.StudentID]; !ok {
			return 0, user.ErrStudentNotFound
		}
	}

	date = core.Date(date)
	existing := make(map[int64]int64) // student id -> record id
	for id, rec := range repo.db.attendance {
		if rec.Date.Equal(date) {
			existing[rec.StudentID] = id
		}
	}

	now := time.Now().UTC()
	for _, e := range entries {
		if id, ok := existing[e.StudentID]; ok {
			rec := repo.db.attendance[id]
			rec.Present = e.Present
			repo.db.attendance[id] = rec
			continue
		}
		rec := attendance.Record{
			ID:        repo.db.nextID("attendance"),
			StudentID: e.StudentID,
			Date:      date,
			Present:   e.Present,
			CreatedAt: now,
		}
		repo.db.attendance[rec.ID] = rec
		existing[e.StudentID] = rec.ID
	}
	return len(entries), nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if filter.StudentID != 0 && rec.StudentID != filter.StudentID {
			continue
		}
		if !filter.From.IsZero() && rec.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && rec.Date.After(filter.To) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID > records[j].ID
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}
