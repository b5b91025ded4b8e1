// Package services implements business logic for the application
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"attendance-pulse/internal/models"
	"attendance-pulse/internal/repository"
)

var (
	// ErrAlreadyMarked is the benign outcome of marking attendance twice for
	// the same calendar day. No write happens on the second attempt.
	ErrAlreadyMarked = errors.New("attendance already marked for this date")
	// ErrInvalidStatus is returned for a status outside the fixed enum.
	ErrInvalidStatus = errors.New("invalid attendance status")
)

// Notifier delivers best-effort out-of-band notifications. Delivery failures
// never fail the operation that triggered them.
type Notifier interface {
	SendNotification(message string)
	SendPersonalNotification(chatID int64, message string)
}

// MarkInput carries the parameters of a mark-attendance action.
type MarkInput struct {
	UserID   string
	UserName string
	Status   string    // defaults to present
	At       time.Time // zero means now; admins may backfill other days
}

// AttendanceService enforces the one-record-per-user-per-day rule and owns
// all attendance reads and mutations.
type AttendanceService struct {
	repo     repository.AttendanceRepository
	notifier Notifier
}

// NewAttendanceService creates a new attendance service. notifier may be nil.
func NewAttendanceService(repo repository.AttendanceRepository, notifier Notifier) *AttendanceService {
	return &AttendanceService{repo: repo, notifier: notifier}
}

// Mark creates the attendance record for (input.UserID, day of input.At).
// The record identity is derived from the user and the calendar day, so a
// second mark on the same day comes back as ErrAlreadyMarked with the store
// untouched. The create is conditional in the store, not check-then-create,
// so concurrent marks for the same identity cannot overwrite each other.
func (s *AttendanceService) Mark(ctx context.Context, input MarkInput) (models.AttendanceRecord, error) {
	at := input.At
	if at.IsZero() {
		at = time.Now()
	}
	status := input.Status
	if status == "" {
		status = models.StatusPresent
	}
	if !models.ValidStatus(status) {
		return models.AttendanceRecord{}, ErrInvalidStatus
	}

	rec := models.AttendanceRecord{
		ID:          models.AttendanceID(input.UserID, at),
		UserID:      input.UserID,
		UserName:    input.UserName,
		Status:      status,
		Date:        models.DateString(at),
		CheckInTime: at.Format("15:04:05"),
		Timestamp:   at.UTC(),
	}

	if err := s.repo.CreateIfAbsent(ctx, &rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return models.AttendanceRecord{}, ErrAlreadyMarked
		}
		return models.AttendanceRecord{}, fmt.Errorf("creating attendance record: %w", err)
	}

	log.Printf("attendance marked: %s (%s) on %s as %s", rec.UserName, rec.UserID, rec.Date, rec.Status)

	if s.notifier != nil {
		s.notifier.SendNotification(fmt.Sprintf(
			"📋 %s marked %s for %s at %s", rec.UserName, rec.Status, rec.Date, rec.CheckInTime))
	}
	return rec, nil
}

// Today returns the viewer's record for the current calendar day, if any.
func (s *AttendanceService) Today(ctx context.Context, userID string) (*models.AttendanceRecord, bool, error) {
	rec, err := s.repo.GetByID(ctx, models.AttendanceID(userID, time.Now()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("getting today's attendance: %w", err)
	}
	return rec, true, nil
}

// ByID returns one record by its composite identity.
func (s *AttendanceService) ByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting attendance %s: %w", id, err)
	}
	return rec, nil
}

// History returns a user's attendance sorted newest-first. Sorting happens
// here rather than in the store query so no compound index is required.
func (s *AttendanceService) History(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing user attendance: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records, nil
}

// All returns every attendance record, ordered by date descending.
func (s *AttendanceService) All(ctx context.Context) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing attendance: %w", err)
	}
	return records, nil
}

// ByDate returns all records for one calendar day.
func (s *AttendanceService) ByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	records, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("listing attendance by date: %w", err)
	}
	return records, nil
}

// UpdateStatus overwrites a record's status. Any transition between the fixed
// statuses is allowed; only updatedAt/updatedBy record that an edit happened.
func (s *AttendanceService) UpdateStatus(ctx context.Context, recordID, status, editorID string) error {
	if !models.ValidStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, recordID, status, editorID, time.Now()); err != nil {
		return fmt.Errorf("updating attendance %s: %w", recordID, err)
	}
	return nil
}

// Delete removes a record permanently. There is no soft delete.
func (s *AttendanceService) Delete(ctx context.Context, recordID string) error {
	if err := s.repo.Delete(ctx, recordID); err != nil {
		return fmt.Errorf("deleting attendance %s: %w", recordID, err)
	}
	return nil
}

// UserSummary aggregates one user's status counts over a date range.
type UserSummary struct {
	UserID   string         `json:"userId"`
	UserName string         `json:"userName"`
	Counts   map[string]int `json:"counts"`
	Total    int            `json:"total"`
}

// Summary aggregates per-user status counts for records with
// from <= date <= to (both YYYY-MM-DD, inclusive). String comparison is
// sufficient because the date format sorts lexicographically.
func (s *AttendanceService) Summary(ctx context.Context, from, to string) ([]UserSummary, error) {
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", d, err)
		}
	}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing attendance: %w", err)
	}

	byUser := make(map[string]*UserSummary)
	for _, rec := range records {
		if rec.Date < from || rec.Date > to {
			continue
		}
		sum, ok := byUser[rec.UserID]
		if !ok {
			sum = &UserSummary{UserID: rec.UserID, UserName: rec.UserName, Counts: make(map[string]int)}
			byUser[rec.UserID] = sum
		}
		sum.Counts[rec.Status]++
		sum.Total++
	}

	summaries := make([]UserSummary, 0, len(byUser))
	for _, sum := range byUser {
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].UserName < summaries[j].UserName })
	return summaries, nil
}
