// Package repository provides PocketBase REST API implementations
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"attendance-pulse/internal/models"
)

const requestTimeout = 10 * time.Second

// pbTime parses the timestamp formats PocketBase emits.
func pbTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.000Z", "2006-01-02 15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func isUniqueViolation(body []byte) bool {
	var errResp struct {
		Data map[string]struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return false
	}
	for _, fieldErr := range errResp.Data {
		if fieldErr.Code == "validation_not_unique" {
			return true
		}
	}
	return false
}

// User repository

type pbUserItem struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	FullName              string `json:"full_name"`
	Role                  string `json:"role"`
	EmployeeID            string `json:"employee_id"`
	HomeAddress           string `json:"home_address"`
	Contact               string `json:"contact"`
	Gender                string `json:"gender"`
	AssignedArea          string `json:"assigned_area"`
	IsActive              bool   `json:"is_active"`
	TelegramChatID        int64  `json:"telegram_chat_id"`
	LastNotificationCheck string `json:"last_notification_check"`
	Created               string `json:"created"`
}

func (it pbUserItem) toModel() *models.User {
	usr := &models.User{
		ID:             it.ID,
		Email:          it.Email,
		FullName:       it.FullName,
		Role:           it.Role,
		EmployeeID:     it.EmployeeID,
		HomeAddress:    it.HomeAddress,
		Contact:        it.Contact,
		Gender:         it.Gender,
		AssignedArea:   it.AssignedArea,
		IsActive:       it.IsActive,
		TelegramChatID: it.TelegramChatID,
		CreatedAt:      pbTime(it.Created),
	}
	if it.LastNotificationCheck != "" {
		t := pbTime(it.LastNotificationCheck)
		usr.LastNotificationCheck = &t
	}
	return usr
}

// PocketBaseRESTUserRepository implements UserRepository
type PocketBaseRESTUserRepository struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewPocketBaseRESTUserRepository creates repository
func NewPocketBaseRESTUserRepository(baseURL, authToken string) *PocketBaseRESTUserRepository {
	return &PocketBaseRESTUserRepository{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (r *PocketBaseRESTUserRepository) addAuthHeader(req *http.Request) {
	if r.authToken != "" {
		req.Header.Set("Authorization", r.authToken)
	}
}

func (r *PocketBaseRESTUserRepository) Create(ctx context.Context, user *models.User, password string) error {
	apiURL := fmt.Sprintf("%s/api/collections/users/records", r.baseURL)

	data := map[string]interface{}{
		"email":           user.Email,
		"password":        password,
		"passwordConfirm": password,
		"full_name":       user.FullName,
		"role":            user.Role,
		"employee_id":     user.EmployeeID,
		"home_address":    user.HomeAddress,
		"contact":         user.Contact,
		"gender":          user.Gender,
		"assigned_area":   user.AssignedArea,
		"is_active":       user.IsActive,
	}

	jsonData, _ := json.Marshal(data)
	req, _ := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	r.addAuthHeader(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if resp.StatusCode == http.StatusBadRequest && isUniqueViolation(body) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %s - %s", resp.Status, string(body))
	}

	var item pbUserItem
	if err := json.Unmarshal(body, &item); err != nil {
		return err
	}
	user.ID = item.ID
	user.CreatedAt = pbTime(item.Created)
	return nil
}

func (r *PocketBaseRESTUserRepository) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	apiURL := fmt.Sprintf("%s/api/collections/users/auth-with-password", r.baseURL)

	data := map[string]interface{}{
		"identity": email,
		"password": password,
	}

	jsonData, _ := json.Marshal(data)
	req, _ := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidCredentials
	}

	var result struct {
		Record pbUserItem `json:"record"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Record.toModel(), nil
}

func (r *PocketBaseRESTUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	apiURL := fmt.Sprintf("%s/api/collections/users/records/%s", r.baseURL, url.PathEscape(id))

	req, _ := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	r.addAuthHeader(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user: %s", resp.Status)
	}

	var item pbUserItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}
	return item.toModel(), nil
}

func (r *PocketBaseRESTUserRepository) getOne(ctx context.Context, filter string) (*models.User, error) {
	apiURL := fmt.Sprintf("%s/api/collections/users/records?filter=%s&limit=1", r.baseURL, url.QueryEscape(filter))

	req, _ := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	r.addAuthHeader(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to query users: %s", resp.Status)
	}

	var result struct {
		Items []pbUserItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}
	return result.Items[0].toModel(), nil
}

func (r *PocketBaseRESTUserRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*models.User, error) {
	return r.getOne(ctx, fmt.Sprintf("employee_id='%s'", employeeID))
}

func (r *PocketBaseRESTUserRepository) GetByTelegramChat(ctx context.Context, chatID int64) (*models.User, error) {
	return r.getOne(ctx, fmt.Sprintf("telegram_chat_id=%d && is_active=true", chatID))
}

func (r *PocketBaseRESTUserRepository) List(ctx context.Context) ([]models.User, error) {
	apiURL := fmt.Sprintf("%s/api/collections/users/records?perPage=500&sort=-created", r.baseURL)

	req, _ := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	r.addAuthHeader(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list users: %s", resp.Status)
	}

	var result struct {
		Items []pbUserItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(result.Items))
	for _, item := range result.Items {
		users = append(users, *item.toModel())
	}
	return users, nil
}

func (r *PocketBaseRESTUserRepository) patch(ctx context.Context, id string, data map[string]interface{}) error {
	apiURL := fmt.Sprintf("%s/api/collections/users/records/%s", r.baseURL, url.PathEscape(id))

	jsonData, _ := json.Marshal(data)
	req, _ := http.NewRequestWithContext(ctx, "PATCH", apiURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	r.addAuthHeader(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to update user: %s - %s", resp.Status, string(body))
	}
	return nil
}

func (r *PocketBaseRESTUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.patch(ctx, user.ID, map[string]interface{}{
		"full_name":     user.FullName,
		"role":          user.Role,
		"employee_id":   user.EmployeeID,
		"home_address":  user.HomeAddress,
		"contact":       user.Contact,
		"gender":        user.Gender,
		"assigned_area": user.AssignedArea,
		"is_active":     user.IsActive,
	})
}

func (r *PocketBaseRESTUserRepository) Delete(ctx context.Context, id string) error {
	apiURL := fmt.Sprintf("%s/api/collections/users/records/%s", r.baseURL, url.PathEscape(id))

	req, _ := http.NewRequestWithContext(ctx, "DELETE", apiURL, nil)
	r.addAuthHeader(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to delete user: %s", resp.Status)
	}
	return nil
}

func (r *PocketBaseRESTUserRepository) SetLastNotificationCheck(ctx context.Context, userID string, at time.Time) error {
	return r.patch(ctx, userID, map[string]interface{}{
		"last_notification_check": at.UTC().Format(time.RFC3339),
	})
}

func (r *PocketBaseRESTUserRepository) SetTelegramChat(ctx context.Context, userID string, chatID int64) error {
	return r.patch(ctx, userID, map[string]interface{}{
		"telegram_chat_id": chatID,
	})
}

// Attendance repository

type pbAttendanceItem struct {
	ID          string `json:"id"`
	RecordKey   string `json:"record_key"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Status      string `json:"status"`
	Date        string `json:"date"`
	CheckInTime string `json:"check_in_time"`
	Timestamp   string `json:"timestamp"`
	UpdatedAt   string `json:"updated_at"`
	UpdatedBy   string `json:"updated_by"`
	Created     string `json:"created"`
}

func (it pbAttendanceItem) toModel() models.AttendanceRecord {
	rec := models.AttendanceRecord{
		ID:          it.RecordKey,
		UserID:      it.UserID,
		UserName:    it.UserName,
		Status:      it.Status,
		Date:        it.Date,
		CheckInTime: it.CheckInTime,
		Timestamp:   pbTime(it.Timestamp),
		CreatedAt:   pbTime(it.Created),
		UpdatedBy:   it.UpdatedBy,
	}
	if it.UpdatedAt != "" {
		t := pbTime(it.UpdatedAt)
		rec.UpdatedAt = &t
	}
	return rec
}

// PocketBaseRESTAttendanceRepository implements AttendanceRepository.
// Records are addressed by their composite record_key; the PocketBase-internal
// id stays an implementation detail of this repository.
type PocketBaseRESTAttendanceRepository struct {
	baseURL      string
	authToken    string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewPocketBaseRESTAttendanceRepository creates repository
func NewPocketBaseRESTAttendanceRepository(baseURL, authToken string, pollInterval time.Duration) *PocketBaseRESTAttendanceRepository {
	return &PocketBaseRESTAttendanceRepository{
		baseURL:      strings.TrimRight(baseURL, "/"),
		authToken:    authToken,
		httpClient:   &http.Client{Timeout: requestTimeout},
		pollInterval: pollInterval,
	}
}

func (r *PocketBaseRESTAttendanceRepository) addAuthHeader(req *http.Request) {
	if r.authToken != "" {
		req.Header.Set("Authorization", r.authToken)
	}
}

// CreateIfAbsent relies on the unique index on record_key: a duplicate create
// comes back as a single conflicting write, not a racy check-then-create.
func (r *PocketBaseRESTAttendanceRepository) CreateIfAbsent(ctx context.Context, rec *models.AttendanceRecord) error {
	apiURL := fmt.Sprintf("%s/api/collections/attendance/records", r.baseURL)

	data := map[string]interface{}{
		"record_key":    rec.ID,
		"user_id":       rec.UserID,
		"user_name":     rec.UserName,
		"status":        rec.Status,
		"date":          rec.Date,
		"check_in_time": rec.CheckInTime,
		"timestamp":     rec.Timestamp.UTC().Format(time.RFC3339),
	}

	jsonData, _ := json.Marshal(data)
	req, _ := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	r.addAuthHeader(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if resp.StatusCode == http.StatusBadRequest && isUniqueViolation(body) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create attendance: %s - %s", resp.Status, string(body))
	}

	var item pbAttendanceItem
	if err := json.Unmarshal(body, &item); err != nil {
		return err
	}
	rec.CreatedAt = pbTime(item.Created)
	return nil
}

func (r *PocketBaseRESTAttendanceRepository) query(ctx context.Context, params string) ([]models.AttendanceRecord, error) {
	apiURL := fmt.Sprintf("%s/api/collections/attendance/records?%s", r.baseURL, params)

	req, _ := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	r.addAuthHeader(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to query attendance: %s - %s", resp.Status, string(body))
	}

	var result struct {
		Items []pbAttendanceItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	records := make([]models.AttendanceRecord, 0, len(result.Items))
	for _, item := range result.Items {
		records = append(records, item.toModel())
	}
	return records, nil
}

func (r *PocketBaseRESTAttendanceRepository) GetByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	filter := url.QueryEscape(fmt.Sprintf("record_key='%s'", id))
	records, err := r.query(ctx, fmt.Sprintf("filter=%s&limit=1", filter))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

func (r *PocketBaseRESTAttendanceRepository) ListByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	filter := url.QueryEscape(fmt.Sprintf("user_id='%s'", userID))
	return r.query(ctx, fmt.Sprintf("filter=%s&perPage=500", filter))
}

func (r *PocketBaseRESTAttendanceRepository) ListAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	return r.query(ctx, "sort=-date&perPage=500")
}

func (r *PocketBaseRESTAttendanceRepository) ListByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	filter := url.QueryEscape(fmt.Sprintf("date='%s'", date))
	return r.query(ctx, fmt.Sprintf("filter=%s&perPage=500", filter))
}

func (r *PocketBaseRESTAttendanceRepository) ListRecent(ctx context.Context, limit int) ([]models.AttendanceRecord, error) {
	return r.query(ctx, fmt.Sprintf("sort=-created&perPage=%d", limit))
}

// resolveInternalID maps a composite record_key to the PocketBase record id.
func (r *PocketBaseRESTAttendanceRepository) resolveInternalID(ctx context.Context, id string) (string, error) {
	filter := url.QueryEscape(fmt.Sprintf("record_key='%s'", id))
	apiURL := fmt.Sprintf("%s/api/collections/attendance/records?filter=%s&limit=1", r.baseURL, filter)

	req, _ := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	r.addAuthHeader(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", ErrNotFound
	}
	return result.Items[0].ID, nil
}

func (r *PocketBaseRESTAttendanceRepository) UpdateStatus(ctx context.Context, id, status, editorID string, at time.Time) error {
	internalID, err := r.resolveInternalID(ctx, id)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"status":     status,
		"updated_at": at.UTC().Format(time.RFC3339),
		"updated_by": editorID,
	}

	jsonData, _ := json.Marshal(data)
	apiURL := fmt.Sprintf("%s/api/collections/attendance/records/%s", r.baseURL, internalID)
	req, _ := http.NewRequestWithContext(ctx, "PATCH", apiURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	r.addAuthHeader(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to update attendance: %s - %s", resp.Status, string(body))
	}
	return nil
}

func (r *PocketBaseRESTAttendanceRepository) Delete(ctx context.Context, id string) error {
	internalID, err := r.resolveInternalID(ctx, id)
	if err != nil {
		return err
	}

	apiURL := fmt.Sprintf("%s/api/collections/attendance/records/%s", r.baseURL, internalID)
	req, _ := http.NewRequestWithContext(ctx, "DELETE", apiURL, nil)
	r.addAuthHeader(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to delete attendance: %s", resp.Status)
	}
	return nil
}

// SubscribeRecent polls the collection and emits the current top-N window
// whenever it changes. PocketBase's SSE realtime API would avoid the polling,
// but snapshot semantics keep the consumer identical for both stores.
func (r *PocketBaseRESTAttendanceRepository) SubscribeRecent(ctx context.Context, limit int) (<-chan []models.AttendanceRecord, error) {
	initial, err := r.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	ch := make(chan []models.AttendanceRecord, 1)
	ch <- initial

	go func() {
		defer close(ch)
		last := initial
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				records, err := r.ListRecent(ctx, limit)
				if err != nil {
					log.Printf("attendance subscription poll error: %v", err)
					continue
				}
				if reflect.DeepEqual(records, last) {
					continue
				}
				last = records
				select {
				case ch <- records:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// Notification repository

type pbNotificationItem struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	From        string `json:"from_name"`
	FromID      string `json:"from_id"`
	IsRead      bool   `json:"is_read"`
	Created     string `json:"created"`
}

func (it pbNotificationItem) toModel() models.Notification {
	return models.Notification{
		ID:          it.ID,
		RecipientID: it.RecipientID,
		Type:        it.Type,
		Title:       it.Title,
		Message:     it.Message,
		From:        it.From,
		FromID:      it.FromID,
		IsRead:      it.IsRead,
		CreatedAt:   pbTime(it.Created),
	}
}

// PocketBaseRESTNotificationRepository implements NotificationRepository
type PocketBaseRESTNotificationRepository struct {
	baseURL      string
	authToken    string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewPocketBaseRESTNotificationRepository creates repository
func NewPocketBaseRESTNotificationRepository(baseURL, authToken string, pollInterval time.Duration) *PocketBaseRESTNotificationRepository {
	return &PocketBaseRESTNotificationRepository{
		baseURL:      strings.TrimRight(baseURL, "/"),
		authToken:    authToken,
		httpClient:   &http.Client{Timeout: requestTimeout},
		pollInterval: pollInterval,
	}
}

func (r *PocketBaseRESTNotificationRepository) addAuthHeader(req *http.Request) {
	if r.authToken != "" {
		req.Header.Set("Authorization", r.authToken)
	}
}

func (r *PocketBaseRESTNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	apiURL := fmt.Sprintf("%s/api/collections/notifications/records", r.baseURL)

	data := map[string]interface{}{
		"recipient_id": n.RecipientID,
		"type":         n.Type,
		"title":        n.Title,
		"message":      n.Message,
		"from_name":    n.From,
		"from_id":      n.FromID,
		"is_read":      n.IsRead,
	}

	jsonData, _ := json.Marshal(data)
	req, _ := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	r.addAuthHeader(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to create notification: %s - %s", resp.Status, string(body))
	}

	var item pbNotificationItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return err
	}
	n.ID = item.ID
	n.CreatedAt = pbTime(item.Created)
	return nil
}

func (r *PocketBaseRESTNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	apiURL := fmt.Sprintf("%s/api/collections/notifications/records/%s", r.baseURL, url.PathEscape(id))

	req, _ := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	r.addAuthHeader(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get notification: %s", resp.Status)
	}

	var item pbNotificationItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}
	n := item.toModel()
	return &n, nil
}

// ListByRecipient filters by recipient only; ordering happens after receipt so
// the collection needs no compound index.
func (r *PocketBaseRESTNotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	filter := url.QueryEscape(fmt.Sprintf("recipient_id='%s'", recipientID))
	apiURL := fmt.Sprintf("%s/api/collections/notifications/records?filter=%s&perPage=500", r.baseURL, filter)

	req, _ := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	r.addAuthHeader(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list notifications: %s", resp.Status)
	}

	var result struct {
		Items []pbNotificationItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	notifications := make([]models.Notification, 0, len(result.Items))
	for _, item := range result.Items {
		notifications = append(notifications, item.toModel())
	}
	return notifications, nil
}

func (r *PocketBaseRESTNotificationRepository) MarkRead(ctx context.Context, id string) error {
	apiURL := fmt.Sprintf("%s/api/collections/notifications/records/%s", r.baseURL, url.PathEscape(id))

	jsonData, _ := json.Marshal(map[string]interface{}{"is_read": true})
	req, _ := http.NewRequestWithContext(ctx, "PATCH", apiURL, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	r.addAuthHeader(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to mark notification read: %s - %s", resp.Status, string(body))
	}
	return nil
}

func (r *PocketBaseRESTNotificationRepository) SubscribeByRecipient(ctx context.Context, recipientID string) (<-chan []models.Notification, error) {
	initial, err := r.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	ch := make(chan []models.Notification, 1)
	ch <- initial

	go func() {
		defer close(ch)
		last := initial
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				notifications, err := r.ListByRecipient(ctx, recipientID)
				if err != nil {
					log.Printf("notification subscription poll error: %v", err)
					continue
				}
				if reflect.DeepEqual(notifications, last) {
					continue
				}
				last = notifications
				select {
				case ch <- notifications:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
