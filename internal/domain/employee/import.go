package employee

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// importColumns is the required CSV header, in order. startDate and reportsTo
// (manager email) are optional trailing columns.
var importColumns = []string{"firstName", "lastName", "email", "jobTitle", "department"}

// ImportCSV bulk-creates employees from a CSV stream. Rows that fail
// validation are reported and skipped; valid rows still import.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ruleErr("the file is empty or not valid CSV")
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, ImportError{Line: line, Message: "malformed row"})
			continue
		}

		input, err := recordToInput(ctx, s, cols, record)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, ImportError{Line: line, Message: err.Error()})
			continue
		}
		if _, err := s.Create(ctx, *input); err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, ImportError{Line: line, Message: err.Error()})
			continue
		}
		report.Created++
	}
	return report, nil
}

func mapHeader(header []string) (map[string]int, error) {
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range importColumns {
		if _, ok := cols[required]; !ok {
			return nil, ruleErr(fmt.Sprintf("missing required column %q", required))
		}
	}
	return cols, nil
}

func recordToInput(ctx context.Context, s *Service, cols map[string]int, record []string) (*CreateInput, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	input := &CreateInput{
		FirstName:  get("firstName"),
		LastName:   get("lastName"),
		Email:      get("email"),
		JobTitle:   get("jobTitle"),
		Department: get("department"),
		Location:   get("location"),
		Phone:      get("phone"),
	}
	if raw := get("startDate"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid startDate %q, expected YYYY-MM-DD", raw)
		}
		input.StartDate = &d
	}
	if managerEmail := get("reportsTo"); managerEmail != "" {
		manager, err := s.Store.ByEmail(ctx, managerEmail)
		if err != nil {
			return nil, err
		}
		if manager == nil {
			return nil, fmt.Errorf("manager %q not found", managerEmail)
		}
		input.ReportsTo = manager.ID
	}
	return input, nil
}

const exportBatchSize = 500

// ExportCSV streams the directory as CSV, applying the same column layout
// the importer accepts.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	writer := csv.NewWriter(w)
	header := []string{"firstName", "lastName", "email", "jobTitle", "department", "location", "phone", "startDate", "status"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for offset := 0; ; offset += exportBatchSize {
		result, err := s.Store.List(ctx, ListFilter{Limit: exportBatchSize, Offset: offset})
		if err != nil {
			return err
		}
		for _, e := range result.Items {
			startDate := ""
			if e.StartDate != nil {
				startDate = e.StartDate.Format("2006-01-02")
			}
			row := []string{
				sanitizeCell(e.FirstName),
				sanitizeCell(e.LastName),
				sanitizeCell(e.Email),
				sanitizeCell(e.JobTitle),
				sanitizeCell(e.Department),
				sanitizeCell(e.Location),
				sanitizeCell(e.Phone),
				startDate,
				e.Status,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		if len(result.Items) < exportBatchSize {
			break
		}
	}
	writer.Flush()
	return writer.Error()
}

// sanitizeCell neutralizes spreadsheet formula injection: a leading =, +, -
// or @ would otherwise execute when the export is opened in Excel.
func sanitizeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@':
		return "'" + value
	}
	return value
}
