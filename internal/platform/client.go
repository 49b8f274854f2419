// Package platform talks to the external LinkedIn automation surface.
//
// The real implementation drives a browser tool server over MCP stdio;
// the mock replaces every effect with an immediate success. The scheduler
// only sees the Client interface and the opaque Session.
package platform

import (
	"context"
	"encoding/json"
	"errors"
)

// Session is the opaque reusable credential obtained by Login and passed
// to every subsequent effect call. It wraps the browser storage state and
// is never inspected by callers.
type Session struct {
	state json.RawMessage
}

// Post is one feed item returned by BrowseFeed.
type Post struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

var ErrNoSession = errors.New("platform: nil session")

// Client performs the real-world side effects. Implementations carry
// their own call timeouts; callers treat any returned error as a failed
// attempt and never retry within the same tick.
type Client interface {
	// Login authenticates once per run and returns the reusable session.
	Login(ctx context.Context, username, password string) (*Session, error)
	ViewProfile(ctx context.Context, s *Session, profileURL string) error
	BrowseFeed(ctx context.Context, s *Session, count int) ([]Post, error)
	SendInvite(ctx context.Context, s *Session, profileURL string) error
	LikePost(ctx context.Context, s *Session, postURL string) error
	CommentPost(ctx context.Context, s *Session, postURL, comment string) error
	Close() error
}
