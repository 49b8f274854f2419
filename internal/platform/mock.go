package platform

import (
	"context"
	"encoding/json"
	"sync/atomic"
)

// Mock replaces every external effect with an immediate success. Used for
// demo runs and tests that must never touch the live platform.
type Mock struct {
	// Calls counts effect invocations (login excluded), for tests.
	Calls atomic.Int64
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Login(ctx context.Context, username, password string) (*Session, error) {
	return &Session{state: json.RawMessage(`{"mock":true}`)}, nil
}

func (m *Mock) ViewProfile(ctx context.Context, s *Session, profileURL string) error {
	m.Calls.Add(1)
	return nil
}

func (m *Mock) BrowseFeed(ctx context.Context, s *Session, count int) ([]Post, error) {
	m.Calls.Add(1)
	return []Post{{Index: 0, Text: "Excited to share an update with my network."}}, nil
}

func (m *Mock) SendInvite(ctx context.Context, s *Session, profileURL string) error {
	m.Calls.Add(1)
	return nil
}

func (m *Mock) LikePost(ctx context.Context, s *Session, postURL string) error {
	m.Calls.Add(1)
	return nil
}

func (m *Mock) CommentPost(ctx context.Context, s *Session, postURL, comment string) error {
	m.Calls.Add(1)
	return nil
}

func (m *Mock) Close() error { return nil }
