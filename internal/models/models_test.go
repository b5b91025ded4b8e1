package models

import (
	"testing"
	"time"
)

func TestAttendanceID(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*3600)

	tests := []struct {
		name   string
		userID string
		at     time.Time
		want   string
	}{
		{
			name:   "utc morning",
			userID: "user-1",
			at:     time.Date(2026, 3, 10, 8, 15, 0, 0, time.UTC),
			want:   "user-1_2026-03-10",
		},
		{
			name:   "time of day is irrelevant",
			userID: "user-1",
			at:     time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC),
			want:   "user-1_2026-03-10",
		},
		{
			name:   "local date folds to the utc day",
			userID: "user-1",
			at:     time.Date(2026, 3, 11, 3, 0, 0, 0, bangkok), // 2026-03-10 20:00 UTC
			want:   "user-1_2026-03-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttendanceID(tt.userID, tt.at)
			if got != tt.want {
				t.Errorf("AttendanceID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusPresent, true},
		{StatusAbsent, true},
		{StatusLate, true},
		{StatusLeave, true},
		{"", false},
		{"Present", false},
		{"vacation", false},
	}

	for _, tt := range tests {
		if got := ValidStatus(tt.status); got != tt.want {
			t.Errorf("ValidStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
