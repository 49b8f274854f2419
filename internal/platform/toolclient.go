package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"linkbot/pkg/logx"
)

// Tool names exposed by the browser automation server.
const (
	toolLogin       = "login_linkedin"
	toolBrowseFeed  = "browse_linkedin_feed"
	toolViewProfile = "view_linkedin_profile"
	toolSendInvite  = "send_linkedin_invite"
	toolLikePost    = "like_linkedin_post"
	toolCommentPost = "comment_linkedin_post"
)

type ToolConfig struct {
	// Command spawns the tool server over stdio.
	Command []string
	// CallTimeout bounds each tool call; browser navigation is slow,
	// so the default is generous.
	CallTimeout time.Duration
}

// ToolClient is the MCP stdio client for the browser tool server.
type ToolClient struct {
	session *mcp.ClientSession
	timeout time.Duration
	log     logx.Logger
}

// Connect spawns the configured tool server and performs the MCP handshake.
func Connect(ctx context.Context, cfg ToolConfig, log logx.Logger) (*ToolClient, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("platform: executor command is empty")
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Minute
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	client := mcp.NewClient(&mcp.Implementation{Name: "linkbot", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("platform: connect tool server: %w", err)
	}
	log.Debug("tool server connected", logx.String("command", strings.Join(cfg.Command, " ")))
	return &ToolClient{session: session, timeout: cfg.CallTimeout, log: log}, nil
}

func (c *ToolClient) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	return c.session.Close()
}

// call invokes one tool and returns the text payload of its result.
func (c *ToolClient) call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
	if res.IsError {
		return nil, fmt.Errorf("%s: %s", tool, resultText(res))
	}
	c.log.Debug("tool call finished", logx.String("tool", tool), logx.Duration("took", time.Since(started)))

	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			return json.RawMessage(tc.Text), nil
		}
	}
	return nil, nil
}

func resultText(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			if b.Len() > 0 {
				b.WriteString("; ")
			}
			b.WriteString(tc.Text)
		}
	}
	if b.Len() == 0 {
		return "tool reported an error"
	}
	return b.String()
}

func (c *ToolClient) Login(ctx context.Context, username, password string) (*Session, error) {
	raw, err := c.call(ctx, toolLogin, map[string]any{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		StorageState json.RawMessage `json:"storage_state"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: decode result: %w", toolLogin, err)
	}
	if len(out.StorageState) == 0 {
		return nil, fmt.Errorf("%s: no storage state in result", toolLogin)
	}
	return &Session{state: out.StorageState}, nil
}

func (c *ToolClient) ViewProfile(ctx context.Context, s *Session, profileURL string) error {
	if s == nil {
		return ErrNoSession
	}
	_, err := c.call(ctx, toolViewProfile, map[string]any{
		"profile_url":   profileURL,
		"storage_state": s.state,
	})
	return err
}

func (c *ToolClient) BrowseFeed(ctx context.Context, s *Session, count int) ([]Post, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	if count <= 0 {
		count = 1
	}
	raw, err := c.call(ctx, toolBrowseFeed, map[string]any{
		"count":         count,
		"storage_state": s.state,
	})
	if err != nil {
		return nil, err
	}
	var posts []Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("%s: decode result: %w", toolBrowseFeed, err)
	}
	return posts, nil
}

func (c *ToolClient) SendInvite(ctx context.Context, s *Session, profileURL string) error {
	if s == nil {
		return ErrNoSession
	}
	_, err := c.call(ctx, toolSendInvite, map[string]any{
		"profile_url":   profileURL,
		"storage_state": s.state,
	})
	return err
}

func (c *ToolClient) LikePost(ctx context.Context, s *Session, postURL string) error {
	if s == nil {
		return ErrNoSession
	}
	_, err := c.call(ctx, toolLikePost, map[string]any{
		"post_url":      postURL,
		"storage_state": s.state,
	})
	return err
}

func (c *ToolClient) CommentPost(ctx context.Context, s *Session, postURL, comment string) error {
	if s == nil {
		return ErrNoSession
	}
	_, err := c.call(ctx, toolCommentPost, map[string]any{
		"post_url":      postURL,
		"comment":       comment,
		"storage_state": s.state,
	})
	return err
}
