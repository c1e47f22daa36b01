package domain

import (
	"testing"
	"time"
)

func TestCalendarDay(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	at := time.Date(2025, 6, 14, 20, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		loc  *time.Location
		want time.Time
	}{
		{name: "utc", loc: time.UTC, want: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
		{name: "nil defaults to utc", loc: nil, want: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
		{name: "ahead of utc rolls over", loc: jakarta, want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalendarDay(at, tc.loc); !got.Equal(tc.want) {
				t.Fatalf("CalendarDay = %v, want %v", got, tc.want)
			}
		})
	}
}
