// Package timezone renders the meeting location's UTC offset for display
// and for confirmation messages.
package timezone

import (
	"fmt"
	"time"
)

// FallbackLabel is used when the zone database is unavailable. Standard
// time for the default meeting location.
const FallbackLabel = "GMT-05:00 America/Toronto"

// OffsetLabel formats the named zone's current UTC offset as
// "GMT±HH:MM <zone>", e.g. "GMT-04:00 America/Toronto" during DST.
// The offset is only stable between DST transitions, so callers may cache
// it per process but are not required to.
func OffsetLabel(zone string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return FallbackLabel
	}
	return offsetLabelAt(time.Now(), loc, zone)
}

func offsetLabelAt(now time.Time, loc *time.Location, zone string) string {
	_, offsetSeconds := now.In(loc).Zone()

	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	hours := offsetSeconds / 3600
	minutes := offsetSeconds % 3600 / 60
	return fmt.Sprintf("GMT%s%02d:%02d %s", sign, hours, minutes, zone)
}
