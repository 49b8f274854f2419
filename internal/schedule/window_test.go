package schedule

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want Clock
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{" 12:00 ", 720, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"12", 0, false},
		{"ab:cd", 0, false},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.ok && err != nil {
			t.Fatalf("ParseClock(%q): unexpected error %v", c.in, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("ParseClock(%q): expected error", c.in)
		}
		if c.ok && got != c.want {
			t.Fatalf("ParseClock(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseWindowRejectsMidnightCrossing(t *testing.T) {
	if _, err := ParseWindow("22:00", "02:00"); err == nil {
		t.Fatalf("expected error for window crossing midnight")
	}
	if _, err := ParseWindow("09:00", "09:00"); err != nil {
		t.Fatalf("degenerate single-minute window should parse: %v", err)
	}
}

func TestWindowBoundariesInclusive(t *testing.T) {
	w, err := ParseWindow("09:00", "11:30")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	if !w.Contains(w.Start) {
		t.Fatalf("start boundary should be active")
	}
	if !w.Contains(w.End) {
		t.Fatalf("end boundary should be active")
	}
	if w.Contains(w.Start - 1) {
		t.Fatalf("minute before start should be inactive")
	}
	if w.Contains(w.End + 1) {
		t.Fatalf("minute after end should be inactive")
	}
}

func TestActive(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	morning := Window{Start: 9 * 60, End: 11*60 + 30}
	evening := Window{Start: 19 * 60, End: 21 * 60}
	ws := []Window{morning, evening}

	if !Active(at(10, 15), ws) {
		t.Fatalf("10:15 should be inside the morning window")
	}
	if !Active(at(21, 0), ws) {
		t.Fatalf("21:00 end boundary should be active")
	}
	if Active(at(15, 0), ws) {
		t.Fatalf("15:00 is between windows and should be inactive")
	}
	if Active(at(10, 15), nil) {
		t.Fatalf("empty window list should always be inactive")
	}

	// A window entirely in the past excludes the current time.
	past := []Window{{Start: 0, End: 1}}
	if Active(at(10, 15), past) {
		t.Fatalf("past window should not be active")
	}
}
