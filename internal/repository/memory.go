package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"attendance-pulse/internal/models"
)

// In-memory implementations backing tests and local development. Writes are
// serialized by a mutex, so CreateIfAbsent is atomic here the same way the
// unique index makes it atomic in PocketBase.

// MemoryUserRepository implements UserRepository
type MemoryUserRepository struct {
	mu        sync.RWMutex
	users     map[string]models.User
	passwords map[string][]byte // user id -> bcrypt hash
}

// NewMemoryUserRepository creates repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:     make(map[string]models.User),
		passwords: make(map[string][]byte),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrConflict
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.users[user.ID] = *user
	r.passwords[user.ID] = hash
	return nil
}

func (r *MemoryUserRepository) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, u := range r.users {
		if u.Email == email {
			if err := bcrypt.CompareHashAndPassword(r.passwords[id], []byte(password)); err != nil {
				return nil, ErrInvalidCredentials
			}
			usr := u
			return &usr, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.EmployeeID == employeeID {
			usr := u
			return &usr, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) GetByTelegramChat(ctx context.Context, chatID int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.TelegramChatID == chatID && u.IsActive {
			usr := u
			return &usr, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	stored.FullName = user.FullName
	stored.Role = user.Role
	stored.EmployeeID = user.EmployeeID
	stored.HomeAddress = user.HomeAddress
	stored.Contact = user.Contact
	stored.Gender = user.Gender
	stored.AssignedArea = user.AssignedArea
	stored.IsActive = user.IsActive
	r.users[user.ID] = stored
	return nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	delete(r.passwords, id)
	return nil
}

func (r *MemoryUserRepository) SetLastNotificationCheck(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	u.LastNotificationCheck = &at
	r.users[userID] = u
	return nil
}

func (r *MemoryUserRepository) SetTelegramChat(ctx context.Context, userID string, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.TelegramChatID = chatID
	r.users[userID] = u
	return nil
}

// MemoryAttendanceRepository implements AttendanceRepository
type MemoryAttendanceRepository struct {
	mu          sync.RWMutex
	records     map[string]models.AttendanceRecord // keyed by composite identity
	subscribers []*attendanceSub
}

type attendanceSub struct {
	ch    chan []models.AttendanceRecord
	limit int
	done  <-chan struct{}
}

// NewMemoryAttendanceRepository creates repository
func NewMemoryAttendanceRepository() *MemoryAttendanceRepository {
	return &MemoryAttendanceRepository{records: make(map[string]models.AttendanceRecord)}
}

func (r *MemoryAttendanceRepository) CreateIfAbsent(ctx context.Context, rec *models.AttendanceRecord) error {
	r.mu.Lock()
	if _, exists := r.records[rec.ID]; exists {
		r.mu.Unlock()
		return ErrConflict
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.records[rec.ID] = *rec
	r.mu.Unlock()

	r.broadcast()
	return nil
}

func (r *MemoryAttendanceRepository) GetByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *MemoryAttendanceRepository) ListByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []models.AttendanceRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (r *MemoryAttendanceRepository) ListAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]models.AttendanceRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records, nil
}

func (r *MemoryAttendanceRepository) ListByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []models.AttendanceRecord
	for _, rec := range r.records {
		if rec.Date == date {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (r *MemoryAttendanceRepository) ListRecent(ctx context.Context, limit int) ([]models.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recent(limit), nil
}

// recent assumes the caller holds at least the read lock.
func (r *MemoryAttendanceRepository) recent(limit int) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

func (r *MemoryAttendanceRepository) UpdateStatus(ctx context.Context, id, status, editorID string, at time.Time) error {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	at = at.UTC()
	rec.Status = status
	rec.UpdatedAt = &at
	rec.UpdatedBy = editorID
	r.records[id] = rec
	r.mu.Unlock()

	r.broadcast()
	return nil
}

func (r *MemoryAttendanceRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.records[id]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.records, id)
	r.mu.Unlock()

	r.broadcast()
	return nil
}

func (r *MemoryAttendanceRepository) SubscribeRecent(ctx context.Context, limit int) (<-chan []models.AttendanceRecord, error) {
	sub := &attendanceSub{
		ch:    make(chan []models.AttendanceRecord, 1),
		limit: limit,
		done:  ctx.Done(),
	}

	r.mu.Lock()
	r.subscribers = append(r.subscribers, sub)
	sub.ch <- r.recent(limit)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		for i, s := range r.subscribers {
			if s == sub {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
		close(sub.ch)
	}()
	return sub.ch, nil
}

// broadcast pushes a fresh snapshot to every subscriber. A pending unread
// snapshot is replaced so that only the latest window is ever delivered.
func (r *MemoryAttendanceRepository) broadcast() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subscribers {
		snapshot := r.recent(sub.limit)
		select {
		case <-sub.done:
			continue
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snapshot
		}
	}
}

// MemoryNotificationRepository implements NotificationRepository
type MemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]models.Notification
	subscribers   []*notificationSub
}

type notificationSub struct {
	ch          chan []models.Notification
	recipientID string
	done        <-chan struct{}
}

// NewMemoryNotificationRepository creates repository
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{notifications: make(map[string]models.Notification)}
}

func (r *MemoryNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.notifications[n.ID] = *n
	r.mu.Unlock()

	r.broadcast()
	return nil
}

func (r *MemoryNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (r *MemoryNotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byRecipient(recipientID), nil
}

// byRecipient assumes the caller holds at least the read lock.
func (r *MemoryNotificationRepository) byRecipient(recipientID string) []models.Notification {
	var notifications []models.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			notifications = append(notifications, n)
		}
	}
	return notifications
}

func (r *MemoryNotificationRepository) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	n, ok := r.notifications[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	n.IsRead = true
	r.notifications[id] = n
	r.mu.Unlock()

	r.broadcast()
	return nil
}

func (r *MemoryNotificationRepository) SubscribeByRecipient(ctx context.Context, recipientID string) (<-chan []models.Notification, error) {
	sub := &notificationSub{
		ch:          make(chan []models.Notification, 1),
		recipientID: recipientID,
		done:        ctx.Done(),
	}

	r.mu.Lock()
	r.subscribers = append(r.subscribers, sub)
	sub.ch <- r.byRecipient(recipientID)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		for i, s := range r.subscribers {
			if s == sub {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
		close(sub.ch)
	}()
	return sub.ch, nil
}

func (r *MemoryNotificationRepository) broadcast() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subscribers {
		snapshot := r.byRecipient(sub.recipientID)
		select {
		case <-sub.done:
			continue
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snapshot
		}
	}
}

// compile-time interface checks
var (
	_ UserRepository         = (*MemoryUserRepository)(nil)
	_ AttendanceRepository   = (*MemoryAttendanceRepository)(nil)
	_ NotificationRepository = (*MemoryNotificationRepository)(nil)

	_ UserRepository         = (*PocketBaseRESTUserRepository)(nil)
	_ AttendanceRepository   = (*PocketBaseRESTAttendanceRepository)(nil)
	_ NotificationRepository = (*PocketBaseRESTNotificationRepository)(nil)
)
