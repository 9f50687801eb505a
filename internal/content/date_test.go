package content

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ts          int64
		includeTime bool
		want        string
	}{
		{"epoch", 0, false, "01 January 1970"},
		{"epoch with time", 0, true, "01 January 1970 - 00:00"},
		{"afternoon", 1700000000, true, "14 November 2023 - 22:13"},
		{"date only", 1700000000, false, "14 November 2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatDate(tt.ts, tt.includeTime); got != tt.want {
				t.Errorf("FormatDate(%d, %v) = %q, want %q", tt.ts, tt.includeTime, got, tt.want)
			}
		})
	}
}

func TestDateFormatterLocation(t *testing.T) {
	t.Parallel()

	f := DateFormatter{Location: time.FixedZone("UTC+3", 3*60*60)}
	if got := f.Format(0, true); got != "01 January 1970 - 03:00" {
		t.Errorf("Format in UTC+3 = %q", got)
	}
}
