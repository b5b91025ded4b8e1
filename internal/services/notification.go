package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"attendance-pulse/internal/models"
	"attendance-pulse/internal/repository"
)

// ErrNotRecipient is returned when a viewer tries to mark someone else's
// message as read.
var ErrNotRecipient = errors.New("notification belongs to another recipient")

// Feed is one viewer's current notification view: the visible items plus the
// unread count. Every subscription emission replaces the previous feed
// wholesale; items are never appended incrementally.
type Feed struct {
	Items       []models.FeedItem `json:"items"`
	UnreadCount int               `json:"unreadCount"`
}

// Channel is a viewer's live notification session. Admins and clients get
// different implementations with genuinely different unread semantics:
// admins count attendance events past a persisted watermark, clients count
// per-message read flags.
type Channel interface {
	// Updates delivers a fresh Feed after every change batch. The channel is
	// closed when the session ends.
	Updates() <-chan Feed
	// MarkChecked records that the viewer opened the notification view. For
	// admins this persists the watermark and zeroes the unread count; for
	// clients it is a no-op since read state lives on each message.
	MarkChecked(ctx context.Context) error
	// Close tears the subscription down.
	Close()
}

// NotificationService owns directed messages and builds per-viewer feeds.
type NotificationService struct {
	users         repository.UserRepository
	attendance    repository.AttendanceRepository
	notifications repository.NotificationRepository
	notifier      Notifier
	window        int // top-N cap on the admin attendance feed
}

// NewNotificationService creates a new notification service. notifier may be nil.
func NewNotificationService(
	users repository.UserRepository,
	attendance repository.AttendanceRepository,
	notifications repository.NotificationRepository,
	notifier Notifier,
	window int,
) *NotificationService {
	return &NotificationService{
		users:         users,
		attendance:    attendance,
		notifications: notifications,
		notifier:      notifier,
		window:        window,
	}
}

// Open starts a live notification session for the viewer. The variant is
// picked once here, by role, not per operation.
func (s *NotificationService) Open(ctx context.Context, viewer *models.User) (Channel, error) {
	if viewer.IsAdmin() {
		return s.openAdminChannel(ctx, viewer)
	}
	return s.openUserChannel(ctx, viewer)
}

// Feed computes the viewer's current feed once, without a subscription.
func (s *NotificationService) Feed(ctx context.Context, viewer *models.User) (Feed, error) {
	if viewer.IsAdmin() {
		// re-read the profile so the watermark is current for this viewer
		usr, err := s.users.GetByID(ctx, viewer.ID)
		if err != nil {
			return Feed{}, fmt.Errorf("loading viewer profile: %w", err)
		}
		records, err := s.attendance.ListRecent(ctx, s.window)
		if err != nil {
			return Feed{}, fmt.Errorf("listing recent attendance: %w", err)
		}
		return buildAdminFeed(records, usr.LastNotificationCheck), nil
	}

	notifications, err := s.notifications.ListByRecipient(ctx, viewer.ID)
	if err != nil {
		return Feed{}, fmt.Errorf("listing notifications: %w", err)
	}
	return buildUserFeed(notifications), nil
}

// SendDirectedMessage creates a message for one recipient with isRead=false.
// It is a single best-effort write: the recipient is not validated and there
// is no delivery confirmation. A Telegram push goes out when the recipient
// has a linked chat, but its failure never fails the send.
func (s *NotificationService) SendDirectedMessage(ctx context.Context, recipientID, title, message string, sender *models.User) (models.Notification, error) {
	n := models.Notification{
		RecipientID: recipientID,
		Type:        "admin_message",
		Title:       title,
		Message:     message,
		From:        sender.FullName,
		FromID:      sender.ID,
		IsRead:      false,
	}
	if err := s.notifications.Create(ctx, &n); err != nil {
		return models.Notification{}, fmt.Errorf("creating notification: %w", err)
	}

	if s.notifier != nil {
		if recipient, err := s.users.GetByID(ctx, recipientID); err == nil && recipient.TelegramChatID != 0 {
			s.notifier.SendPersonalNotification(recipient.TelegramChatID,
				fmt.Sprintf("🔔 *%s*\n%s\n— %s", title, message, sender.FullName))
		}
	}
	return n, nil
}

// MarkChecked persists the viewer's watermark outside a live session, for
// clients of the one-shot Feed endpoint. Only admins carry a watermark.
func (s *NotificationService) MarkChecked(ctx context.Context, viewer *models.User) error {
	if !viewer.IsAdmin() {
		return nil
	}
	if err := s.users.SetLastNotificationCheck(ctx, viewer.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("persisting notification watermark: %w", err)
	}
	return nil
}

// MarkMessageRead flips one message's isRead flag. The flag is monotonic:
// there is no way back to unread. Only the recipient may flip it.
func (s *NotificationService) MarkMessageRead(ctx context.Context, id, viewerID string) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading notification %s: %w", id, err)
	}
	if n.RecipientID != viewerID {
		return ErrNotRecipient
	}
	if n.IsRead {
		return nil
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// buildAdminFeed projects attendance records into feed items and counts those
// created after the watermark. A nil watermark means the viewer never checked,
// so everything in the window counts as unread. Events older than the window
// are invisible to this mechanism even if unread; that cap is a known
// limitation carried over deliberately.
func buildAdminFeed(records []models.AttendanceRecord, lastChecked *time.Time) Feed {
	items := make([]models.FeedItem, 0, len(records))
	unread := 0
	for _, rec := range records {
		isNew := lastChecked == nil || rec.CreatedAt.After(*lastChecked)
		if isNew {
			unread++
		}
		items = append(items, models.FeedItem{
			ID:        rec.ID,
			Type:      "attendance",
			UserName:  rec.UserName,
			Status:    rec.Status,
			Date:      rec.Date,
			IsRead:    !isNew,
			CreatedAt: rec.CreatedAt,
		})
	}
	return Feed{Items: items, UnreadCount: unread}
}

// buildUserFeed sorts the recipient's messages newest-first and counts the
// unread flags. Sorting happens here because the store query is unordered.
func buildUserFeed(notifications []models.Notification) Feed {
	sorted := make([]models.Notification, len(notifications))
	copy(sorted, notifications)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })

	items := make([]models.FeedItem, 0, len(sorted))
	unread := 0
	for _, n := range sorted {
		if !n.IsRead {
			unread++
		}
		itemType := n.Type
		if itemType == "" {
			itemType = "message"
		}
		items = append(items, models.FeedItem{
			ID:        n.ID,
			Type:      itemType,
			Title:     n.Title,
			Message:   n.Message,
			From:      n.From,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return Feed{Items: items, UnreadCount: unread}
}

// adminChannel tracks a watermark over a live window of attendance records.
type adminChannel struct {
	svc      *NotificationService
	viewerID string
	cancel   context.CancelFunc
	updates  chan Feed

	mu          sync.Mutex
	lastChecked *time.Time
	current     []models.AttendanceRecord
	closed      bool
}

func (s *NotificationService) openAdminChannel(ctx context.Context, viewer *models.User) (Channel, error) {
	subCtx, cancel := context.WithCancel(ctx)

	sub, err := s.attendance.SubscribeRecent(subCtx, s.window)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribing to attendance: %w", err)
	}

	ch := &adminChannel{
		svc:         s,
		viewerID:    viewer.ID,
		cancel:      cancel,
		updates:     make(chan Feed, 1),
		lastChecked: viewer.LastNotificationCheck,
	}

	go func() {
		for batch := range sub {
			ch.apply(batch)
		}
		ch.mu.Lock()
		ch.closed = true
		ch.mu.Unlock()
		close(ch.updates)
	}()
	return ch, nil
}

// apply replaces the visible window with the batch and recomputes the count.
// Batches are handled one at a time; the next batch waits until this one is
// fully applied.
func (c *adminChannel) apply(batch []models.AttendanceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = batch
	c.push(buildAdminFeed(batch, c.lastChecked))
}

func (c *adminChannel) Updates() <-chan Feed { return c.updates }

func (c *adminChannel) MarkChecked(ctx context.Context) error {
	now := time.Now().UTC()
	if err := c.svc.users.SetLastNotificationCheck(ctx, c.viewerID, now); err != nil {
		return fmt.Errorf("persisting notification watermark: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastChecked = &now
	c.push(buildAdminFeed(c.current, c.lastChecked))
	return nil
}

func (c *adminChannel) Close() { c.cancel() }

// push delivers the feed latest-wins; callers hold c.mu.
func (c *adminChannel) push(f Feed) {
	if c.closed {
		return
	}
	select {
	case c.updates <- f:
	default:
		select {
		case <-c.updates:
		default:
		}
		c.updates <- f
	}
}

// userChannel mirrors the recipient's directed messages; no watermark at all.
type userChannel struct {
	cancel  context.CancelFunc
	updates chan Feed

	mu     sync.Mutex
	closed bool
}

func (s *NotificationService) openUserChannel(ctx context.Context, viewer *models.User) (Channel, error) {
	subCtx, cancel := context.WithCancel(ctx)

	sub, err := s.notifications.SubscribeByRecipient(subCtx, viewer.ID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribing to notifications: %w", err)
	}

	ch := &userChannel{
		cancel:  cancel,
		updates: make(chan Feed, 1),
	}

	go func() {
		for batch := range sub {
			ch.apply(batch)
		}
		ch.mu.Lock()
		ch.closed = true
		ch.mu.Unlock()
		close(ch.updates)
	}()
	return ch, nil
}

func (c *userChannel) apply(batch []models.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	f := buildUserFeed(batch)
	select {
	case c.updates <- f:
	default:
		select {
		case <-c.updates:
		default:
		}
		c.updates <- f
	}
}

func (c *userChannel) Updates() <-chan Feed { return c.updates }

// MarkChecked is a no-op for clients: opening the view does not clear the
// count. Read state changes only through MarkMessageRead, one message at a
// time.
func (c *userChannel) MarkChecked(ctx context.Context) error { return nil }

func (c *userChannel) Close() { c.cancel() }
