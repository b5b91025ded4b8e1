// Package models contains data structures for the application
package models

import (
	"fmt"
	"time"
)

// User roles
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Attendance statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusLeave   = "leave"
)

// ValidStatus reports whether s is one of the fixed attendance statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusLeave:
		return true
	}
	return false
}

// User represents a user account in the system
type User struct {
	ID                    string     `json:"uid"`
	Email                 string     `json:"email"`
	FullName              string     `json:"fullName"`
	Role                  string     `json:"role"` // admin or client
	EmployeeID            string     `json:"employeeId"`
	HomeAddress           string     `json:"homeAddress"`
	Contact               string     `json:"contact"`
	Gender                string     `json:"gender"`
	AssignedArea          string     `json:"assignedArea"`
	IsActive              bool       `json:"isActive"`
	TelegramChatID        int64      `json:"-"`
	LastNotificationCheck *time.Time `json:"lastNotificationCheck,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AttendanceRecord represents one user's attendance for one calendar day.
// Its identity is the composite key "{userId}_{YYYY-MM-DD}" so the
// "already marked today" check is a point lookup, not a query.
type AttendanceRecord struct {
	ID          string     `json:"id"` // composite key, see AttendanceID
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName"` // snapshot at mark time, never re-synced
	Status      string     `json:"status"`
	Date        string     `json:"date"`        // YYYY-MM-DD, part of the identity
	CheckInTime string     `json:"checkInTime"` // display string (15:04:05)
	Timestamp   time.Time  `json:"timestamp"`   // instant the mark refers to
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	UpdatedBy   string     `json:"updatedBy,omitempty"` // set on admin edit
}

// AttendanceID derives the deterministic record identity from (user, day).
// The calendar day is taken from the UTC date portion of at.
func AttendanceID(userID string, at time.Time) string {
	return fmt.Sprintf("%s_%s", userID, DateString(at))
}

// DateString formats the uniqueness-key calendar day of at.
func DateString(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}

// Notification is a directed message from an admin to a single recipient.
// Read state is intrinsic to the message (isRead flag), unlike the admin
// attendance feed which is cut off by a watermark.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	From        string    `json:"from"`
	FromID      string    `json:"fromId"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FeedItem is one entry of a viewer's notification feed. Admin feeds project
// attendance records into items; client feeds carry directed messages.
type FeedItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "attendance" or "message"
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Status    string    `json:"status,omitempty"`
	Date      string    `json:"date,omitempty"`
	From      string    `json:"from,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
