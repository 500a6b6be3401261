package repository

import "time"

// pgTime renders an instant the way Postgres stores timestamptz values.
// timestamptz keeps microsecond precision, so a nanosecond-precision Go
// timestamp written as-is would never compare equal against the stored
// row. Every timestamp that is written or used in an equality guard goes
// through this truncation.
func pgTime(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano)
}
