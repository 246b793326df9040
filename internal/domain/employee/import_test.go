package employee

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestSanitizeCell(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain text", value: "Ana", want: "Ana"},
		{name: "empty", value: "", want: ""},
		{name: "formula equals", value: "=1+2", want: "'=1+2"},
		{name: "formula plus", value: "+55 11 99999", want: "'+55 11 99999"},
		{name: "formula minus", value: "-cmd", want: "'-cmd"},
		{name: "formula at", value: "@SUM(A1)", want: "'@SUM(A1)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitizeCell(tc.value); got != tc.want {
				t.Fatalf("sanitizeCell(%q) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestExportCSVGuardsAgainstFormulaInjection(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	if _, err := svc.Create(context.Background(), CreateInput{
		FirstName: "=HYPERLINK", LastName: "Silva", Email: "eve@example.com",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "'=HYPERLINK") {
		t.Fatalf("expected sanitized first name in export, got %q", out)
	}
	if !strings.HasPrefix(out, "firstName,lastName,email") {
		t.Fatalf("expected header row, got %q", out)
	}
}
