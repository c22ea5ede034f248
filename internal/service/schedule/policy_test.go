package schedule

import (
	"testing"
	"time"
)

func TestIsLateCancellation(t *testing.T) {
	start := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well outside window", start.Add(-72 * time.Hour), false},
		{"boundary 24h is not late", start.Add(-24 * time.Hour), false},
		{"one second inside window", start.Add(-24*time.Hour + time.Second), true},
		{"one hour before", start.Add(-time.Hour), true},
		{"at start", start, true},
		{"after start", start.Add(time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLateCancellation(start, tt.now); got != tt.want {
				t.Fatalf("IsLateCancellation(%v, %v) = %v, want %v", start, tt.now, got, tt.want)
			}
		})
	}
}
