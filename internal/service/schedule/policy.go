package schedule

import "time"

const lateCancellationWindow = 24 * time.Hour

// IsLateCancellation reports whether cancelling at now counts as late:
// the appointment starts within the next 24 hours. Appointments that
// already started are not late, nor are those 24h or more out.
func IsLateCancellation(start, now time.Time) bool {
	until := start.Sub(now)
	return until >= 0 && until < lateCancellationWindow
}
