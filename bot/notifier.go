// Package bot provides a wrapper for the Telegram bot to implement the
// services.Notifier interface
package bot

import "attendance-pulse/internal/services"

// Notifier wraps the package-level bot functions to implement services.Notifier
type Notifier struct{}

// NewNotifier creates a new bot notifier
func NewNotifier() *Notifier {
	return &Notifier{}
}

// SendNotification sends a notification to the admin chat
func (n *Notifier) SendNotification(message string) {
	SendNotification(message)
}

// SendPersonalNotification sends a notification to a specific user
func (n *Notifier) SendPersonalNotification(chatID int64, message string) {
	SendPersonalNotification(chatID, message)
}

var _ services.Notifier = (*Notifier)(nil)
