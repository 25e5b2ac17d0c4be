package postgresadapter

import "time"

// SystemClock reports wall-clock time in UTC, matching stored timestamps.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
