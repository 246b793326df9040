package timesheet

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF produces a one-page weekly timesheet report.
func RenderPDF(ts *Timesheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Weekly Timesheet")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", ts.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Week: %s to %s",
		ts.WeekStart.Format("2006-01-02"), SundayOf(ts.WeekStart).Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", ts.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 8, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, "Clock In", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, "Clock Out", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Hours", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, e := range ts.Entries {
		pdf.CellFormat(40, 8, e.EntryDate.Format("Mon 2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, FormatTime12h(e.ClockIn), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, FormatTime12h(e.ClockOut), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.1f", e.Hours), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(110, 8, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%.1f", ts.TotalHours), "1", 1, "R", false, 0, "")

	if ts.ReviewerName != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 8, fmt.Sprintf("Reviewed by: %s", ts.ReviewerName))
		if ts.ReviewNote != "" {
			pdf.Ln(6)
			pdf.Cell(0, 8, fmt.Sprintf("Note: %s", ts.ReviewNote))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
