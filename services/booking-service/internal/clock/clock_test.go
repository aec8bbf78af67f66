package clock

import (
	"testing"
	"time"
)

func TestManualAdvance(t *testing.T) {
	start := time.Date(2024, 1, 10, 8, 59, 0, 0, time.UTC)
	c := NewManual(start)
	if !c.Now().Equal(start) {
		t.Fatalf("expected %s, got %s", start, c.Now())
	}
	if got := c.Advance(time.Minute); !got.Equal(start.Add(time.Minute)) {
		t.Fatalf("unexpected time after advance: %s", got)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Fatal("Set did not rewind the clock")
	}
}

func TestSystemNowIsDeskWallClock(t *testing.T) {
	saved := time.Local
	time.Local = time.FixedZone("UTC+3", 3*60*60)
	t.Cleanup(func() { time.Local = saved })

	instant := time.Date(2026, 10, 17, 17, 57, 0, 0, time.UTC)
	if got := WallClock(instant); !got.Equal(time.Date(2026, 10, 17, 20, 57, 0, 0, time.UTC)) {
		t.Fatalf("expected the desk reading 20:57, got %s", got)
	}

	before := WallClock(time.Now())
	now := System{}.Now()
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC fields, got %s", now.Location())
	}
	if d := now.Sub(before); d < 0 || d > time.Minute {
		t.Fatalf("System.Now drifted from the local wall clock by %s", d)
	}
}
