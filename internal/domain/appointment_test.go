package domain

import (
	"testing"
	"time"
)

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"one hour", start.Add(time.Hour), 60},
		{"thirty minutes", start.Add(30 * time.Minute), 30},
		{"fractional minutes floor", start.Add(90*time.Minute + 30*time.Second), 90},
		{"under one minute", start.Add(45 * time.Second), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationMinutes(start, tt.end); got != tt.want {
				t.Fatalf("DurationMinutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusConfirmed, StatusCancelled} {
		if !s.Valid() {
			t.Fatalf("Valid(%q) = false", s)
		}
	}
	if Status("pending").Valid() {
		t.Fatalf("Valid(pending) = true")
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusCancelled.Terminal() {
		t.Fatalf("cancelled should be terminal")
	}
	if StatusScheduled.Terminal() || StatusConfirmed.Terminal() {
		t.Fatalf("active statuses must not be terminal")
	}
}
