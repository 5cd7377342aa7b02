package recordstore

import "time"

// StoredTimeFormat is the canonical serialization format for timestamps kept
// inside document payloads. The fixed-width RFC 3339 UTC form makes string
// comparison chronologically correct, which the engines rely on for
// time-range filtering.
const StoredTimeFormat = "2006-01-02T15:04:05Z"

// ToStoredTime serializes a timestamp into the canonical payload form.
func ToStoredTime(t time.Time) string {
	return t.UTC().Format(StoredTimeFormat)
}

// ParseStoredTime parses a timestamp from the canonical payload form.
func ParseStoredTime(value string) (time.Time, error) {
	return time.Parse(StoredTimeFormat, value)
}
