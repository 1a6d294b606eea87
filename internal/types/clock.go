package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day expressed as minutes since midnight.
// All itinerary arithmetic is done on Clock values so that plans are
// reproducible without depending on wall-clock time or time zones.
type Clock int

// ParseClock parses an "HH:MM" string (24-hour).
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return Clock(hour*60 + minute), nil
}

func (c Clock) Hour() int { return int(c) / 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// AddHours advances the clock by a fractional hour count, wrapping at midnight.
func (c Clock) AddHours(hours float64) Clock {
	total := int(c) + int(hours*60+0.5)
	total %= 24 * 60
	if total < 0 {
		total += 24 * 60
	}
	return Clock(total)
}

// HoursUntil returns the duration in hours from c to other, treating other
// as next-day when it is not after c. A zero difference is reported as 0.
func (c Clock) HoursUntil(other Clock) float64 {
	diff := int(other) - int(c)
	if diff < 0 {
		diff += 24 * 60
	}
	return float64(diff) / 60.0
}
