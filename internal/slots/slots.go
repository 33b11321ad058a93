package slots

import (
	"fmt"
	"strconv"
	"strings"
)

// Workday bounds, inclusive. 9 AM through 5 PM, half-hour increments,
// with no :30 slot after the final hour.
const (
	startHour = 9
	endHour   = 17
)

// Generate returns the fixed ordered set of bookable slot labels for a
// working day: "9:00 AM", "9:30 AM", ..., "4:30 PM", "5:00 PM".
func Generate() []string {
	var out []string
	for hour := startHour; hour <= endHour; hour++ {
		out = append(out, label(hour, 0))
		if hour < endHour {
			out = append(out, label(hour, 30))
		}
	}
	return out
}

func label(hour, minute int) string {
	clock := hour % 12
	if clock == 0 {
		clock = 12
	}
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", clock, minute, meridiem)
}

// Parse converts a slot label back into a 24-hour clock reading.
// It accepts the "H:MM AM|PM" shape produced by Generate; anything else
// is an error so callers never build a meeting window from a bad label.
func Parse(slot string) (hour, minute int, err error) {
	fields := strings.Fields(strings.TrimSpace(slot))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed slot label %q", slot)
	}

	clock, meridiem := fields[0], strings.ToUpper(fields[1])
	if meridiem != "AM" && meridiem != "PM" {
		return 0, 0, fmt.Errorf("malformed slot label %q", slot)
	}

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed slot label %q", slot)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("malformed slot label %q", slot)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed slot label %q", slot)
	}

	if meridiem == "PM" && hour != 12 {
		hour += 12
	}
	if meridiem == "AM" && hour == 12 {
		hour = 0
	}
	return hour, minute, nil
}
