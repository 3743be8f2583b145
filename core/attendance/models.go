// Package attendance records daily student presence and aggregates it.
package attendance

import (
	"math"
	"time"

	"github.com/trezcool/shule/core/user"
)

// DefaultWindow is how many of the most recent records a Summary covers.
const DefaultWindow = 30

// Record is the presence of one student on one day. (StudentID, Date) is unique.
type Record struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Date      time.Time `db:"date" json:"date"` // UTC midnight
	Present   bool      `db:"present" json:"present"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
}

// Entry is one line of a daily submission.
type Entry struct {
	StudentID int64
	Present   bool
}

// SheetRow is a roster line of the daily attendance form.
type SheetRow struct {
	Student  user.Student
	Present  bool
	Recorded bool
}

type Summary struct {
	Records      []Record // newest first
	PresentCount int
	Total        int
	Percentage   float64
}

// ExportRow is a record with its student's identity, as written to spreadsheets.
type ExportRow struct {
	Student user.Student
	Record  Record
}

// QueryFilter narrows QueryRecords. Zero fields are ignored.
type QueryFilter struct {
	StudentID int64
	From      time.Time
	To        time.Time
	Limit     int
}

// Percentage is present/total x 100 rounded to 2 decimals, 0 when records is empty.
func Percentage(records []Record) float64 {
	var present int
	for _, rec := range records {
		if rec.Present {
			present++
		}
	}
	return percentage(present, len(records))
}

func percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*100*100) / 100
}

// RosterEntries builds one entry per roster student. Students absent from presentIDs are marked absent.
func RosterEntries(roster []user.Student, presentIDs map[int64]bool) []Entry {
	entries := make([]Entry, 0, len(roster))
	for _, st := range roster {
		entries = append(entries, Entry{StudentID: st.ID, Present: presentIDs[st.ID]})
	}
	return entries
}
