// Package schedule evaluates active-time windows: time-of-day intervals
// during which dispatch is permitted.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock(hh*60 + mm), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// At truncates t to its minute-of-day clock.
func At(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// Window is an inclusive [Start, End] time-of-day interval.
// Windows must not cross midnight; ParseWindow rejects End < Start.
type Window struct {
	Start Clock
	End   Clock
}

// ParseWindow parses a start/end pair such as ("09:00", "11:30").
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if e < s {
		return Window{}, fmt.Errorf("window %s-%s crosses midnight or is inverted", start, end)
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether c falls inside the window, boundaries included.
func (w Window) Contains(c Clock) bool {
	return c >= w.Start && c <= w.End
}

// Active reports whether now falls inside at least one window.
// An empty window list is always inactive; callers decide whether the
// gate applies at all.
func Active(now time.Time, ws []Window) bool {
	c := At(now)
	for _, w := range ws {
		if w.Contains(c) {
			return true
		}
	}
	return false
}
