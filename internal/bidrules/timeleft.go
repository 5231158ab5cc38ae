package bidrules

import (
	"fmt"
	"time"
)

// Ended is what FormatTimeRemaining returns once the end time is reached.
const Ended = "ended"

// FormatTimeRemaining renders the time between now and end as days/hours/
// minutes, dropping leading zero units.
func FormatTimeRemaining(end, now time.Time) string {
	diff := end.Sub(now).Milliseconds()
	if diff <= 0 {
		return Ended
	}

	const (
		minute = int64(60 * 1000)
		hour   = 60 * minute
		day    = 24 * hour
	)
	days := diff / day
	hours := (diff % day) / hour
	minutes := (diff % hour) / minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dj %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
