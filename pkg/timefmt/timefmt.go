// Package timefmt implements the timestamp wire format shared by the API and
// the replay payloads: microsecond precision, UTC, literal Z suffix.
package timefmt

import "time"

// Layout is the only timestamp representation accepted or emitted on the wire.
const Layout = "2006-01-02T15:04:05.000000Z"

// Format renders t in the wire layout. The time is converted to UTC first so
// the literal Z suffix stays truthful.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse reads a wire timestamp. Anything that deviates from Layout is an error.
func Parse(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Now returns the current UTC time truncated to microsecond precision, the
// finest granularity the wire layout can carry. Storing anything finer would
// break round-trips through Format/Parse.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
