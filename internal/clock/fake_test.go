package clock

import (
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	c := NewFakeClock(start)
	c.Advance(time.Hour)

	if got := c.Now(); got.Day() != 2 || got.Hour() != 0 {
		t.Fatalf("expected rollover to next day, got %v", got)
	}

	c.Set(start)
	if !c.Now().Equal(start) {
		t.Fatalf("expected reset to %v, got %v", start, c.Now())
	}
}

var _ Clock = (*FakeClock)(nil)
var _ Clock = SystemClock{}
