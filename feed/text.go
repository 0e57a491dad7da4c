package feed

import (
	"fmt"
	"time"
)

const (
	minute = 60
	hour   = 3600
	day    = 86400
	week   = 604800
	month  = 2592000
	year   = 31536000
)

// RelativeTime renders an epoch timestamp as "N units ago" the way video
// listings display publication dates.
func RelativeTime(published uint64) string {
	now := uint64(time.Now().Unix())
	if published > now {
		return "0 seconds ago"
	}
	passed := now - published

	var n uint64
	var unit string
	switch {
	case passed < minute:
		n, unit = passed, "second"
	case passed < hour:
		n, unit = passed/minute, "minute"
	case passed < day:
		n, unit = passed/hour, "hour"
	case passed < 2*week:
		n, unit = passed/day, "day"
	case passed < month:
		n, unit = passed/week, "week"
	case passed < year:
		n, unit = passed/month, "month"
	default:
		n, unit = passed/year, "year"
	}

	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}

// HHMMSS renders a length in seconds as 0:07, 4:05, or 1:02:03.
func HHMMSS(length uint32) string {
	seconds := length % 60
	minutes := (length / 60) % 60
	hours := length / 3600

	switch {
	case hours == 0 && minutes == 0:
		return fmt.Sprintf("0:%02d", seconds)
	case hours == 0:
		return fmt.Sprintf("%d:%02d", minutes, seconds)
	default:
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
}
