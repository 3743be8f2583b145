// Package export renders records as xlsx workbooks.
package export

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

const (
	attendanceSheet = "Attendance"
	defaultSheet    = "Sheet1"
)

var attendanceHeader = []string{"Student ID", "Student", "Username", "Date", "Status"}

// AttendanceWorkbook builds a single sheet workbook with one row per record.
func AttendanceWorkbook(rows []attendance.ExportRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, attendanceSheet); err != nil {
		return nil, errors.Wrap(err, "renaming sheet")
	}

	for col, h := range attendanceHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellStr(attendanceSheet, cell, h); err != nil {
			return nil, errors.Wrapf(err, "setting cell %s", cell)
		}
	}
	for r, row := range rows {
		status := "Absent"
		if row.Record.Present {
			status = "Present"
		}
		values := []string{
			row.Student.Code(),
			row.Student.DisplayName(),
			row.Student.Username,
			row.Record.Date.Format(core.DateLayout),
			status,
		}
		for c, val := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(attendanceSheet, cell, val); err != nil {
				return nil, errors.Wrapf(err, "setting cell %s", cell)
			}
		}
	}

	if err := applyHeaderFormatting(f, attendanceSheet, len(attendanceHeader)); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteAttendance streams the attendance workbook to w.
func WriteAttendance(w io.Writer, rows []attendance.ExportRow) error {
	f, err := AttendanceWorkbook(rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return errors.Wrap(f.Write(w), "writing workbook")
}

// AttendanceFilename names the export after its date range.
func AttendanceFilename(from, to time.Time) string {
	name := "attendance"
	if !from.IsZero() {
		name += "_from_" + from.Format(core.DateLayout)
	}
	if !to.IsZero() {
		name += "_to_" + to.Format(core.DateLayout)
	}
	return name + ".xlsx"
}

// applyHeaderFormatting makes row 1 bold, filterable and sizes the columns to their content.
func applyHeaderFormatting(f *excelize.File, sheet string, cols int) error {
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return errors.Wrap(err, "naming last column")
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last+"1", style)
	}
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)

	rows, err := f.GetRows(sheet)
	if err != nil {
		return errors.Wrap(err, "reading rows")
	}
	for c := 0; c < cols; c++ {
		width := 12.0
		for _, row := range rows {
			if c < len(row) {
				if w := float64(len([]rune(row[c]))) * 1.1; w > width {
					width = w
				}
			}
		}
		if width > 40 {
			width = 40
		}
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, col, col, width)
	}
	return nil
}
