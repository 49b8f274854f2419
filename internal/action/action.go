// Package action defines the fixed set of platform actions and the
// immutable record written for every dispatched attempt.
package action

import "time"

// Type is one of the fixed categories of effects the bot can perform.
// The enumeration is closed: caps and candidate selection iterate All().
type Type string

const (
	Invite  Type = "invite"
	Like    Type = "like"
	Comment Type = "comment"
)

// All returns the full enumeration in a stable order.
func All() []Type {
	return []Type{Invite, Like, Comment}
}

func (t Type) Valid() bool {
	switch t {
	case Invite, Like, Comment:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// DateLayout is the calendar-day key used throughout the action log.
const DateLayout = "2006-01-02"

// Day formats t as the log's calendar-day key.
func Day(t time.Time) string { return t.Format(DateLayout) }

// Record is an immutable fact: one dispatched attempt and its outcome.
// Records are appended once and never mutated or deleted.
type Record struct {
	ID        int64
	Date      string
	Type      Type
	Succeeded bool
}
