// Package timefmt formats episode durations for display.
package timefmt

import "fmt"

// DurationToTimeString formats seconds as MM:SS, or HH:MM:SS once the value reaches an hour.
// Negative values format as 00:00.
func DurationToTimeString(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
