package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"attendance-pulse/internal/models"
)

func TestCreateIfAbsentConcurrent(t *testing.T) {
	repo := NewMemoryAttendanceRepository()
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := models.AttendanceRecord{
				ID:     "user-1_2026-03-10",
				UserID: "user-1",
				Status: models.StatusPresent,
				Date:   "2026-03-10",
			}
			errs[i] = repo.CreateIfAbsent(ctx, &rec)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrConflict):
		default:
			t.Fatalf("CreateIfAbsent() unexpected error = %v", err)
		}
	}
	if created != 1 {
		t.Errorf("CreateIfAbsent() succeeded %d times, want exactly 1", created)
	}

	records, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("ListAll() returned %d records, want 1", len(records))
	}
}

func TestSubscribeRecentSnapshots(t *testing.T) {
	repo := NewMemoryAttendanceRepository()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := repo.SubscribeRecent(ctx, 10)
	if err != nil {
		t.Fatalf("SubscribeRecent() error = %v", err)
	}

	recv := func() []models.AttendanceRecord {
		t.Helper()
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatal("subscription channel closed early")
			}
			return snap
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
		return nil
	}

	if snap := recv(); len(snap) != 0 {
		t.Fatalf("initial snapshot has %d records, want 0", len(snap))
	}

	rec := models.AttendanceRecord{ID: "user-1_2026-03-10", UserID: "user-1", Date: "2026-03-10", Status: models.StatusPresent}
	if err := repo.CreateIfAbsent(ctx, &rec); err != nil {
		t.Fatalf("CreateIfAbsent() error = %v", err)
	}
	// Each emission is the full window, not a delta.
	if snap := recv(); len(snap) != 1 {
		t.Fatalf("snapshot after create has %d records, want 1", len(snap))
	}

	if err := repo.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if snap := recv(); len(snap) != 0 {
		t.Fatalf("snapshot after delete has %d records, want 0", len(snap))
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// A final pending snapshot may still be buffered; the next
			// receive must observe the close.
			if _, ok := <-ch; ok {
				t.Error("channel still open after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed after cancel")
	}
}

func TestSubscribeRecentHonorsLimit(t *testing.T) {
	repo := NewMemoryAttendanceRepository()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i, id := range []string{"user-1_2026-03-10", "user-2_2026-03-10", "user-3_2026-03-10"} {
		rec := models.AttendanceRecord{
			ID:        id,
			UserID:    id[:6],
			Date:      "2026-03-10",
			Status:    models.StatusPresent,
			CreatedAt: time.Date(2026, 3, 10, 8, i, 0, 0, time.UTC),
		}
		if err := repo.CreateIfAbsent(ctx, &rec); err != nil {
			t.Fatalf("CreateIfAbsent() error = %v", err)
		}
	}

	ch, err := repo.SubscribeRecent(ctx, 2)
	if err != nil {
		t.Fatalf("SubscribeRecent() error = %v", err)
	}
	select {
	case snap := <-ch:
		if len(snap) != 2 {
			t.Fatalf("snapshot has %d records, want limit of 2", len(snap))
		}
		if snap[0].ID != "user-3_2026-03-10" {
			t.Errorf("snap[0].ID = %v, want newest record first", snap[0].ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestSubscribeByRecipientScoping(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := repo.SubscribeByRecipient(ctx, "user-1")
	if err != nil {
		t.Fatalf("SubscribeByRecipient() error = %v", err)
	}

	recv := func() []models.Notification {
		t.Helper()
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatal("subscription channel closed early")
			}
			return snap
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
		return nil
	}

	if snap := recv(); len(snap) != 0 {
		t.Fatalf("initial snapshot has %d items, want 0", len(snap))
	}

	mine := models.Notification{RecipientID: "user-1", Type: "admin_message", Title: "Hi"}
	if err := repo.Create(ctx, &mine); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap := recv(); len(snap) != 1 {
		t.Fatalf("snapshot has %d items, want 1", len(snap))
	}

	theirs := models.Notification{RecipientID: "user-2", Type: "admin_message", Title: "Not yours"}
	if err := repo.Create(ctx, &theirs); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap := recv(); len(snap) != 1 {
		t.Fatalf("snapshot has %d items after foreign create, want 1", len(snap))
	}

	if err := repo.MarkRead(ctx, mine.ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	snap := recv()
	if len(snap) != 1 || !snap[0].IsRead {
		t.Errorf("snapshot after MarkRead = %d items / read=%v, want 1/true", len(snap), len(snap) == 1 && snap[0].IsRead)
	}
}

func TestUserRepositoryEmailUniqueness(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	first := &models.User{Email: "dup@example.com", FullName: "Somchai", Role: models.RoleClient, IsActive: true}
	if err := repo.Create(ctx, first, "secret123"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := &models.User{Email: "dup@example.com", FullName: "Anong", Role: models.RoleClient, IsActive: true}
	if err := repo.Create(ctx, second, "secret123"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate Create() error = %v, want ErrConflict", err)
	}
}

func TestUserRepositorySetLastNotificationCheck(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	usr := &models.User{Email: "a@example.com", FullName: "Somchai", Role: models.RoleAdmin, IsActive: true}
	if err := repo.Create(ctx, usr, "secret123"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loaded, err := repo.GetByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if loaded.LastNotificationCheck != nil {
		t.Fatal("fresh user already has a notification watermark")
	}

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if err := repo.SetLastNotificationCheck(ctx, usr.ID, at); err != nil {
		t.Fatalf("SetLastNotificationCheck() error = %v", err)
	}

	loaded, err = repo.GetByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if loaded.LastNotificationCheck == nil || !loaded.LastNotificationCheck.Equal(at) {
		t.Errorf("watermark = %v, want %v", loaded.LastNotificationCheck, at)
	}

	if err := repo.SetLastNotificationCheck(ctx, "missing", at); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetLastNotificationCheck(missing) error = %v, want ErrNotFound", err)
	}
}
