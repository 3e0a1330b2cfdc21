package utils

import "time"

// Clock supplies the current time. Handlers take one so tests can pin it.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() Clock {
	return time.Now
}

// RFC3339 formats the current time in UTC.
func (c Clock) RFC3339() string {
	return c().UTC().Format(time.RFC3339)
}

// ParseRFC3339 parses a time string in RFC3339 format
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
