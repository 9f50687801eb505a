package content

import "time"

const (
	dateLayout = "02 January 2006"
	timeLayout = " - 15:04"
)

// DateFormatter renders unix timestamps as "DD Month YYYY" with English month
// names, optionally followed by " - HH:MM" in 24-hour form.
type DateFormatter struct {
	// Location defaults to UTC when nil.
	Location *time.Location
}

// Format formats ts (unix seconds).
func (f DateFormatter) Format(ts int64, includeTime bool) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	layout := dateLayout
	if includeTime {
		layout += timeLayout
	}
	return time.Unix(ts, 0).In(loc).Format(layout)
}

// FormatDate formats ts in UTC.
func FormatDate(ts int64, includeTime bool) string {
	return DateFormatter{}.Format(ts, includeTime)
}
