// Package assignment manages per-student assignments and their marks.
package assignment

import (
	"strings"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/shule/core"
)

// DefaultMaxMarks applies when an assignment is created without max marks.
const DefaultMaxMarks = "100"

type Assignment struct {
	ID               int64             `db:"id" json:"id"`
	Title            string            `db:"title" json:"title"`
	Description      string            `db:"description" json:"description"`
	StudentID        int64             `db:"student_id" json:"student_id"`
	AssignedDate     time.Time         `db:"assigned_date" json:"assigned_date"` // UTC midnight
	DueDate          null.Time         `db:"due_date" json:"due_date"`           // UTC midnight
	Marks            types.NullDecimal `db:"marks" json:"marks"`
	MaxMarks         types.Decimal     `db:"max_marks" json:"max_marks"`
	CompletionStatus bool              `db:"completion_status" json:"completion_status"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"` // UTC

	// student identity, filled on reads
	StudentName string      `db:"student_name" json:"student_name"`
	StudentCode null.String `db:"student_code" json:"student_code"`
}

// HasMarks reports whether the assignment was graded.
func (a Assignment) HasMarks() bool {
	return a.Marks.Big != nil
}

// MarksString renders the marks with 2 decimals, empty when not graded.
func (a Assignment) MarksString() string {
	return FormatMarks(a.Marks.Big)
}

func (a Assignment) MaxMarksString() string {
	return FormatMarks(a.MaxMarks.Big)
}

// NewAssignment is the creation form: one assignment per selected student.
type NewAssignment struct {
	Title       string  `form:"title" json:"title" validate:"required,max=200"`
	Description string  `form:"description" json:"description"`
	DueDate     string  `form:"due_date" json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	MaxMarks    string  `form:"max_marks" json:"max_marks" validate:"omitempty,marks"`
	StudentIDs  []int64 `form:"students" json:"students"`
}

func (na *NewAssignment) clean() {
	na.Title = core.CleanString(na.Title)
	na.Description = strings.TrimSpace(na.Description)
	na.DueDate = core.CleanString(na.DueDate)
	na.MaxMarks = core.CleanString(na.MaxMarks)
	if na.MaxMarks == "" {
		na.MaxMarks = DefaultMaxMarks
	}
}

// QueryFilter narrows QueryAssignments. Zero fields are ignored.
type QueryFilter struct {
	StudentID int64
}

// ParseMarks converts a validated marks string to a decimal with 2 places.
func ParseMarks(s string) (*decimal.Big, bool) {
	d, ok := new(decimal.Big).SetString(s)
	if !ok || d.Sign() < 0 {
		return nil, false
	}
	return d.Quantize(2), true
}

func FormatMarks(d *decimal.Big) string {
	if d == nil {
		return ""
	}
	return new(decimal.Big).Copy(d).Quantize(2).String()
}
