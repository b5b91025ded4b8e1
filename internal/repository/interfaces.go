// Package repository defines repository interfaces for data access
package repository

import (
	"context"
	"errors"
	"time"

	"attendance-pulse/internal/models"
)

var (
	// ErrNotFound is returned when a record with the given identity does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a create targets an identity that already exists.
	ErrConflict = errors.New("record already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserRepository defines the interface for user account data access
type UserRepository interface {
	// Create registers a new user account with the given password
	Create(ctx context.Context, user *models.User, password string) error
	// Authenticate verifies email/password and returns the matching user
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmployeeID looks up a user by their employee code
	GetByEmployeeID(ctx context.Context, employeeID string) (*models.User, error)
	// GetByTelegramChat looks up the user linked to a Telegram chat
	GetByTelegramChat(ctx context.Context, chatID int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Update overwrites mutable profile fields (fullName, role, contact, ...)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	// SetLastNotificationCheck persists the viewer's notification watermark
	SetLastNotificationCheck(ctx context.Context, userID string, at time.Time) error
	// SetTelegramChat links a Telegram chat to a user account
	SetTelegramChat(ctx context.Context, userID string, chatID int64) error
}

// AttendanceRepository defines the interface for attendance data access
type AttendanceRepository interface {
	// CreateIfAbsent stores rec under its composite identity. It returns
	// ErrConflict, without writing, when a record with the same identity
	// already exists.
	CreateIfAbsent(ctx context.Context, rec *models.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	ListByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error)
	ListAll(ctx context.Context) ([]models.AttendanceRecord, error)
	ListByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error)
	// ListRecent returns at most limit records ordered createdAt descending
	ListRecent(ctx context.Context, limit int) ([]models.AttendanceRecord, error)
	UpdateStatus(ctx context.Context, id, status, editorID string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// SubscribeRecent streams snapshots of the limit most recent records.
	// Every emission is the complete current window, not a delta. The channel
	// is closed when ctx is cancelled.
	SubscribeRecent(ctx context.Context, limit int) (<-chan []models.AttendanceRecord, error)
}

// NotificationRepository defines the interface for directed message data access
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	// ListByRecipient returns all messages addressed to recipientID, unordered
	ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	// MarkRead flips a single message's isRead flag to true
	MarkRead(ctx context.Context, id string) error
	// SubscribeByRecipient streams snapshots of the recipient's full message
	// set. The channel is closed when ctx is cancelled.
	SubscribeByRecipient(ctx context.Context, recipientID string) (<-chan []models.Notification, error)
}
