// Package quota enforces daily per-action-type caps.
package quota

import (
	"context"
	"time"

	"linkbot/internal/action"
)

// Remaining reports whether an action type still has headroom for the day.
// override wins unconditionally (fast-test mode); otherwise headroom means
// count < cap. A cap of 0 disables the type for the day.
func Remaining(count, cap int, override bool) bool {
	if override {
		return true
	}
	return count < cap
}

// CountReader supplies today's usage counts, normally the action log store.
type CountReader interface {
	CountForDate(ctx context.Context, date string, typ action.Type) (int, error)
}

// Tracker binds a cap table and an override flag to a count source.
// Caps are immutable for the process lifetime; the tracker holds no state
// of its own, every Allowed call re-reads the count.
type Tracker struct {
	caps     map[action.Type]int
	override bool
	counts   CountReader
	now      func() time.Time
}

func NewTracker(caps map[action.Type]int, override bool, counts CountReader) *Tracker {
	return &Tracker{caps: caps, override: override, counts: counts, now: time.Now}
}

// Allowed reports whether typ may be dispatched right now. The explicit
// override parameter on Remaining takes precedence over everything else,
// so the tracker only supplies the ambient flag it was constructed with.
func (t *Tracker) Allowed(ctx context.Context, typ action.Type) (bool, error) {
	if t.override {
		return true, nil
	}
	cap := t.caps[typ]
	if cap <= 0 {
		return false, nil
	}
	count, err := t.counts.CountForDate(ctx, action.Day(t.now()), typ)
	if err != nil {
		return false, err
	}
	return Remaining(count, cap, false), nil
}

// Cap returns the configured ceiling for typ (0 when absent).
func (t *Tracker) Cap(typ action.Type) int { return t.caps[typ] }
