package bidrules

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		name     string
		remain   time.Duration
		expected string
	}{
		{"90000000ms", 90000000 * time.Millisecond, "1j 1h 0m"},
		{"days hours minutes", 2*24*time.Hour + 3*time.Hour + 4*time.Minute, "2j 3h 4m"},
		{"hours and minutes", 5*time.Hour + 59*time.Minute, "5h 59m"},
		{"exactly one hour", time.Hour, "1h 0m"},
		{"minutes only", 42 * time.Minute, "42m"},
		{"under a minute", 30 * time.Second, "0m"},
		{"one millisecond", time.Millisecond, "0m"},
		{"exactly at end", 0, Ended},
		{"past end", -time.Minute, Ended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.expected, FormatTimeRemaining(now.Add(tt.remain), now))
		})
	}
}

func TestFormatTimeRemaining_Idempotent(t *testing.T) {
	end := now.Add(27*time.Hour + 13*time.Minute)
	check.Equal(t, FormatTimeRemaining(end, now), FormatTimeRemaining(end, now))
}
