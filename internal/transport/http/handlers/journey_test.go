package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bonarda/internal/app/server"
	"bonarda/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// TestEmployeeTimeOffAndTimesheetJourney walks the main workflows end to end
// against a real database: admin onboards an employee, the employee requests
// time off and files a timesheet, and the admin approves both.
func TestEmployeeTimeOffAndTimesheetJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		DataEncryptionKey:  "0123456789abcdef0123456789abcdef",
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		AttachmentDir:      t.TempDir(),
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	employeeEmail := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	employeePassword := "Journey123!"
	employeeID := createEmployee(t, client, ts.URL, adminToken, employeeEmail, employeePassword)

	assignRole(t, client, ts.URL, adminToken, "Employee", employeeID)
	employeeToken := login(t, client, ts.URL, employeeEmail, employeePassword)

	typeID := createTimeOffType(t, client, ts.URL, adminToken)

	start := nextMonday(time.Now())
	end := start.AddDate(0, 0, 2)
	requestID := createTimeOffRequest(t, client, ts.URL, employeeToken, typeID, start, end)

	reviewed := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/time-off/requests/"+requestID+"/review",
		adminToken, map[string]string{"decision": "APPROVED"})
	var reviewedRequest struct {
		Status       string  `json:"status"`
		BusinessDays float64 `json:"businessDays"`
	}
	mustDecode(t, reviewed, &reviewedRequest)
	if reviewedRequest.Status != "APPROVED" {
		t.Fatalf("expected approved request, got %s", reviewedRequest.Status)
	}
	if reviewedRequest.BusinessDays != 3 {
		t.Fatalf("expected 3 business days, got %.1f", reviewedRequest.BusinessDays)
	}

	balances := doJSON(t, client, http.MethodGet,
		fmt.Sprintf("%s/api/v1/time-off/balances?year=%d", ts.URL, start.Year()), employeeToken, nil)
	var balanceRows []struct {
		TypeID string  `json:"typeId"`
		Used   float64 `json:"used"`
	}
	mustDecode(t, balances, &balanceRows)
	found := false
	for _, row := range balanceRows {
		if row.TypeID == typeID {
			found = true
			if row.Used != 3 {
				t.Fatalf("expected 3 used days after approval, got %.1f", row.Used)
			}
		}
	}
	if !found {
		t.Fatal("expected a balance row for the requested type")
	}

	runTimesheetFlow(t, client, ts.URL, employeeToken, adminToken)
}

func runTimesheetFlow(t *testing.T, client *http.Client, baseURL, employeeToken, adminToken string) {
	t.Helper()

	weekStart := mondayOf(time.Now())
	created := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/timesheets",
		employeeToken, map[string]string{"weekStart": weekStart.Format("2006-01-02")})
	var sheet struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	mustDecode(t, created, &sheet)
	if sheet.Status != "DRAFT" {
		t.Fatalf("expected draft timesheet, got %s", sheet.Status)
	}

	entries := map[string]any{
		"entries": []map[string]string{
			{
				"entryDate": weekStart.Format("2006-01-02"),
				"clockIn":   "09:00",
				"clockOut":  "17:30",
			},
		},
	}
	updated := doJSON(t, client, http.MethodPut, baseURL+"/api/v1/timesheets/"+sheet.ID+"/entries",
		employeeToken, entries)
	var withEntries struct {
		TotalHours float64 `json:"totalHours"`
	}
	mustDecode(t, updated, &withEntries)
	if withEntries.TotalHours != 8.5 {
		t.Fatalf("expected 8.5 total hours, got %.1f", withEntries.TotalHours)
	}

	submitted := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/timesheets/"+sheet.ID+"/submit",
		employeeToken, map[string]string{})
	mustDecode(t, submitted, &sheet)
	if sheet.Status != "SUBMITTED" {
		t.Fatalf("expected submitted timesheet, got %s", sheet.Status)
	}

	// PDF export is reserved for approved sheets.
	if status, _ := doRaw(t, client, baseURL+"/api/v1/timesheets/"+sheet.ID+"/export", employeeToken); status != http.StatusBadRequest {
		t.Fatalf("expected 400 exporting an unapproved timesheet, got %d", status)
	}

	approved := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/timesheets/"+sheet.ID+"/review",
		adminToken, map[string]string{"decision": "APPROVED"})
	mustDecode(t, approved, &sheet)
	if sheet.Status != "APPROVED" {
		t.Fatalf("expected approved timesheet, got %s", sheet.Status)
	}

	status, contentType := doRaw(t, client, baseURL+"/api/v1/timesheets/"+sheet.ID+"/export", employeeToken)
	if status != http.StatusOK || contentType != "application/pdf" {
		t.Fatalf("expected a pdf export of the approved timesheet, got status %d type %s", status, contentType)
	}
}

func doRaw(t *testing.T, client *http.Client, url, token string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return res.StatusCode, res.Header.Get("Content-Type")
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	data := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login",
		"", map[string]string{"email": email, "password": password})
	var result struct {
		Token string `json:"token"`
	}
	mustDecode(t, data, &result)
	if result.Token == "" {
		t.Fatal("expected a token from login")
	}
	return result.Token
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, email, password string) string {
	t.Helper()
	data := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/employees", token, map[string]string{
		"firstName": "Journey",
		"lastName":  "Tester",
		"email":     email,
		"jobTitle":  "QA Engineer",
		"password":  password,
	})
	var employee struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	mustDecode(t, data, &employee)
	if employee.Status != "ACTIVE" {
		t.Fatalf("employee created with password should be active, got %s", employee.Status)
	}
	return employee.ID
}

func assignRole(t *testing.T, client *http.Client, baseURL, token, roleName, employeeID string) {
	t.Helper()
	data := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/admin/roles", token, nil)
	var roles []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	mustDecode(t, data, &roles)
	roleID := ""
	for _, role := range roles {
		if role.Name == roleName {
			roleID = role.ID
		}
	}
	if roleID == "" {
		t.Fatalf("seeded role %q not found", roleName)
	}
	doJSON(t, client, http.MethodPost, baseURL+"/api/v1/admin/roles/"+roleID+"/assign",
		token, map[string]string{"employeeId": employeeID})
}

func createTimeOffType(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	data := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/time-off/types", token, map[string]any{
		"name":              fmt.Sprintf("Vacation %d", time.Now().UnixNano()),
		"defaultAllocation": 20,
	})
	var created struct {
		ID string `json:"id"`
	}
	mustDecode(t, data, &created)
	return created.ID
}

func createTimeOffRequest(t *testing.T, client *http.Client, baseURL, token, typeID string, start, end time.Time) string {
	t.Helper()
	data := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/time-off/requests", token, map[string]string{
		"typeId":    typeID,
		"startDate": start.Format("2006-01-02"),
		"endDate":   end.Format("2006-01-02"),
		"reason":    "family visit",
	})
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	mustDecode(t, data, &created)
	if created.Status != "PENDING" {
		t.Fatalf("expected pending request, got %s", created.Status)
	}
	return created.ID
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, payload any) json.RawMessage {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, url, err)
	}
	if res.StatusCode >= 400 || !env.Success {
		code, message := "", ""
		if env.Error != nil {
			code, message = env.Error.Code, env.Error.Message
		}
		t.Fatalf("%s %s: status %d code=%s message=%s", method, url, res.StatusCode, code, message)
	}
	return env.Data
}

func mustDecode(t *testing.T, raw json.RawMessage, target any) {
	t.Helper()
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func mondayOf(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func nextMonday(now time.Time) time.Time {
	return mondayOf(now).AddDate(0, 0, 7)
}
