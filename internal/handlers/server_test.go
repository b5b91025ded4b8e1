package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attendance-pulse/internal/models"
	"attendance-pulse/internal/repository"
	"attendance-pulse/internal/services"
)

func newTestServer() *Server {
	users := repository.NewMemoryUserRepository()
	attendance := repository.NewMemoryAttendanceRepository()
	notifications := repository.NewMemoryNotificationRepository()

	auth := services.NewAuthService(users, "test-secret", time.Hour)
	attendanceSvc := services.NewAttendanceService(attendance, nil)
	notificationSvc := services.NewNotificationService(users, attendance, notifications, nil, 50)

	return NewServer(auth, attendanceSvc, notificationSvc, users)
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

// registerAndLogin creates an account through the API and returns its token
// and user id.
func registerAndLogin(t *testing.T, s *Server, email, role string) (string, string) {
	t.Helper()
	rr := doJSON(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      email,
		"password":   "secret123",
		"fullName":   "Test " + role,
		"role":       role,
		"employeeId": "EMP-" + email,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"uid"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return resp.Token, resp.User.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	rr := doJSON(t, s, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("health returned %d, want 200", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{name: "no token", method: http.MethodPost, path: "/api/attendance", token: ""},
		{name: "garbage token", method: http.MethodGet, path: "/api/attendance/today", token: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, s, tt.method, tt.path, tt.token, nil)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("%s %s returned %d, want 401", tt.method, tt.path, rr.Code)
			}
		})
	}
}

func TestMarkAttendanceFlow(t *testing.T) {
	s := newTestServer()
	token, _ := registerAndLogin(t, s, "client@example.com", "client")

	rr := doJSON(t, s, http.MethodGet, "/api/attendance/today", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("today returned %d: %s", rr.Code, rr.Body.String())
	}
	var today struct {
		Marked bool `json:"marked"`
	}
	json.Unmarshal(rr.Body.Bytes(), &today)
	if today.Marked {
		t.Fatal("today reports marked before any mark")
	}

	rr = doJSON(t, s, http.MethodPost, "/api/attendance", token, map[string]string{})
	if rr.Code != http.StatusCreated {
		t.Fatalf("mark returned %d: %s", rr.Code, rr.Body.String())
	}

	// Second mark on the same day conflicts.
	rr = doJSON(t, s, http.MethodPost, "/api/attendance", token, map[string]string{})
	if rr.Code != http.StatusConflict {
		t.Errorf("second mark returned %d, want 409", rr.Code)
	}

	rr = doJSON(t, s, http.MethodGet, "/api/attendance/today", token, nil)
	json.Unmarshal(rr.Body.Bytes(), &today)
	if !today.Marked {
		t.Error("today does not report the new mark")
	}
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newTestServer()
	clientToken, _ := registerAndLogin(t, s, "client@example.com", "client")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/attendance"},
		{http.MethodGet, "/api/attendance/date/2026-03-10"},
		{http.MethodPost, "/api/attendance/manual"},
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/reports/summary?from=2026-03-01&to=2026-03-31"},
	}
	for _, p := range paths {
		rr := doJSON(t, s, p.method, p.path, clientToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s %s returned %d for client, want 403", p.method, p.path, rr.Code)
		}
	}
}

func TestManualAttendanceBackfill(t *testing.T) {
	s := newTestServer()
	adminToken, _ := registerAndLogin(t, s, "admin@example.com", "admin")
	_, clientID := registerAndLogin(t, s, "client@example.com", "client")

	rr := doJSON(t, s, http.MethodPost, "/api/attendance/manual", adminToken, map[string]string{
		"userId": clientID,
		"date":   "2026-03-01",
		"status": "leave",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("manual returned %d: %s", rr.Code, rr.Body.String())
	}
	var rec models.AttendanceRecord
	json.Unmarshal(rr.Body.Bytes(), &rec)
	if rec.ID != clientID+"_2026-03-01" {
		t.Errorf("record ID = %v, want %v", rec.ID, clientID+"_2026-03-01")
	}

	// Backfilling the same day again conflicts like a normal mark.
	rr = doJSON(t, s, http.MethodPost, "/api/attendance/manual", adminToken, map[string]string{
		"userId": clientID,
		"date":   "2026-03-01",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate manual returned %d, want 409", rr.Code)
	}

	rr = doJSON(t, s, http.MethodGet, "/api/attendance/date/2026-03-01", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("by date returned %d", rr.Code)
	}
	var records []models.AttendanceRecord
	json.Unmarshal(rr.Body.Bytes(), &records)
	if len(records) != 1 {
		t.Errorf("by date returned %d records, want 1", len(records))
	}
}

func TestUpdateAttendanceStatus(t *testing.T) {
	s := newTestServer()
	adminToken, _ := registerAndLogin(t, s, "admin@example.com", "admin")
	clientToken, clientID := registerAndLogin(t, s, "client@example.com", "client")

	if rr := doJSON(t, s, http.MethodPost, "/api/attendance", clientToken, map[string]string{}); rr.Code != http.StatusCreated {
		t.Fatalf("mark returned %d", rr.Code)
	}
	recordID := fmt.Sprintf("%s_%s", clientID, models.DateString(time.Now()))

	rr := doJSON(t, s, http.MethodPatch, "/api/attendance/"+recordID+"/status", adminToken, map[string]string{
		"status": "late",
	})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status update returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, s, http.MethodPatch, "/api/attendance/"+recordID+"/status", adminToken, map[string]string{
		"status": "holiday",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid status returned %d, want 400", rr.Code)
	}
}

func TestDeleteAttendanceOwnership(t *testing.T) {
	s := newTestServer()
	firstToken, firstID := registerAndLogin(t, s, "first@example.com", "client")
	secondToken, _ := registerAndLogin(t, s, "second@example.com", "client")

	if rr := doJSON(t, s, http.MethodPost, "/api/attendance", firstToken, map[string]string{}); rr.Code != http.StatusCreated {
		t.Fatalf("mark returned %d", rr.Code)
	}
	recordID := fmt.Sprintf("%s_%s", firstID, models.DateString(time.Now()))

	// Another client cannot delete it.
	rr := doJSON(t, s, http.MethodDelete, "/api/attendance/"+recordID, secondToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("foreign delete returned %d, want 403", rr.Code)
	}

	// The owner can.
	rr = doJSON(t, s, http.MethodDelete, "/api/attendance/"+recordID, firstToken, nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("own delete returned %d, want 204", rr.Code)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	s := newTestServer()
	adminToken, _ := registerAndLogin(t, s, "admin@example.com", "admin")
	clientToken, clientID := registerAndLogin(t, s, "client@example.com", "client")

	// Admin sends a directed message.
	rr := doJSON(t, s, http.MethodPost, "/api/notifications", adminToken, map[string]string{
		"recipientId": clientID,
		"title":       "Schedule",
		"message":     "Shift moved to 9am",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("send returned %d: %s", rr.Code, rr.Body.String())
	}
	var sent models.Notification
	json.Unmarshal(rr.Body.Bytes(), &sent)

	// Clients cannot send.
	rr = doJSON(t, s, http.MethodPost, "/api/notifications", clientToken, map[string]string{
		"recipientId": clientID,
		"title":       "x",
		"message":     "y",
	})
	if rr.Code != http.StatusForbidden {
		t.Errorf("client send returned %d, want 403", rr.Code)
	}

	// Recipient sees one unread message.
	rr = doJSON(t, s, http.MethodGet, "/api/notifications", clientToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("feed returned %d", rr.Code)
	}
	var feed services.Feed
	json.Unmarshal(rr.Body.Bytes(), &feed)
	if feed.UnreadCount != 1 || len(feed.Items) != 1 {
		t.Fatalf("client feed = %d items / %d unread, want 1/1", len(feed.Items), feed.UnreadCount)
	}

	// Checking does not clear a client's unread count.
	if rr := doJSON(t, s, http.MethodPost, "/api/notifications/checked", clientToken, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("checked returned %d", rr.Code)
	}
	rr = doJSON(t, s, http.MethodGet, "/api/notifications", clientToken, nil)
	json.Unmarshal(rr.Body.Bytes(), &feed)
	if feed.UnreadCount != 1 {
		t.Errorf("unread after checked = %d, want 1", feed.UnreadCount)
	}

	// Reading the message does.
	if rr := doJSON(t, s, http.MethodPost, "/api/notifications/"+sent.ID+"/read", clientToken, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("read returned %d", rr.Code)
	}
	rr = doJSON(t, s, http.MethodGet, "/api/notifications", clientToken, nil)
	json.Unmarshal(rr.Body.Bytes(), &feed)
	if feed.UnreadCount != 0 {
		t.Errorf("unread after read = %d, want 0", feed.UnreadCount)
	}

	// The admin variant: attendance events count until checked.
	if rr := doJSON(t, s, http.MethodPost, "/api/attendance", clientToken, map[string]string{}); rr.Code != http.StatusCreated {
		t.Fatalf("mark returned %d", rr.Code)
	}
	rr = doJSON(t, s, http.MethodGet, "/api/notifications", adminToken, nil)
	json.Unmarshal(rr.Body.Bytes(), &feed)
	if feed.UnreadCount != 1 {
		t.Fatalf("admin unread = %d, want 1", feed.UnreadCount)
	}
	if rr := doJSON(t, s, http.MethodPost, "/api/notifications/checked", adminToken, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("admin checked returned %d", rr.Code)
	}
	rr = doJSON(t, s, http.MethodGet, "/api/notifications", adminToken, nil)
	json.Unmarshal(rr.Body.Bytes(), &feed)
	if feed.UnreadCount != 0 {
		t.Errorf("admin unread after checked = %d, want 0", feed.UnreadCount)
	}
}

func TestUserManagement(t *testing.T) {
	s := newTestServer()
	adminToken, _ := registerAndLogin(t, s, "admin@example.com", "admin")
	clientToken, clientID := registerAndLogin(t, s, "client@example.com", "client")

	rr := doJSON(t, s, http.MethodGet, "/api/users", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list users returned %d", rr.Code)
	}
	var users []models.User
	json.Unmarshal(rr.Body.Bytes(), &users)
	if len(users) != 2 {
		t.Errorf("list returned %d users, want 2", len(users))
	}

	rr = doJSON(t, s, http.MethodPut, "/api/users/"+clientID, adminToken, map[string]interface{}{
		"assignedArea": "North Zone",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update user returned %d: %s", rr.Code, rr.Body.String())
	}
	var updated models.User
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.AssignedArea != "North Zone" {
		t.Errorf("assignedArea = %v, want North Zone", updated.AssignedArea)
	}
	if updated.FullName == "" {
		t.Error("update cleared fields that were not in the request")
	}

	// Deactivated accounts lose access.
	inactive := false
	rr = doJSON(t, s, http.MethodPut, "/api/users/"+clientID, adminToken, map[string]interface{}{
		"isActive": &inactive,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("deactivate returned %d", rr.Code)
	}
	rr = doJSON(t, s, http.MethodGet, "/api/attendance/today", clientToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("deactivated user request returned %d, want 403", rr.Code)
	}
}

func TestSummaryReport(t *testing.T) {
	s := newTestServer()
	adminToken, _ := registerAndLogin(t, s, "admin@example.com", "admin")
	_, clientID := registerAndLogin(t, s, "client@example.com", "client")

	for _, day := range []string{"2026-03-01", "2026-03-02"} {
		rr := doJSON(t, s, http.MethodPost, "/api/attendance/manual", adminToken, map[string]string{
			"userId": clientID,
			"date":   day,
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("manual(%s) returned %d", day, rr.Code)
		}
	}

	rr := doJSON(t, s, http.MethodGet, "/api/reports/summary?from=2026-03-01&to=2026-03-31", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary returned %d: %s", rr.Code, rr.Body.String())
	}
	var summaries []services.UserSummary
	json.Unmarshal(rr.Body.Bytes(), &summaries)
	if len(summaries) != 1 || summaries[0].Total != 2 {
		t.Errorf("summary = %+v, want one user with total 2", summaries)
	}

	if rr := doJSON(t, s, http.MethodGet, "/api/reports/summary", adminToken, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("summary without range returned %d, want 400", rr.Code)
	}
}
