package fsutil

import "time"

// UTCNowISO returns the current UTC time in ISO 8601 form with second
// precision and a literal "Z" suffix, grounded on original_source's
// utc_now_iso.
func UTCNowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// UTCTimestamp returns the current UTC time formatted for use in a
// run-directory name, grounded on original_source's utc_timestamp.
func UTCTimestamp() string {
	return time.Now().UTC().Format("20060102_150405")
}
