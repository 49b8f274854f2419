// Package comment drafts short professional replies to feed posts,
// applying content moderation to both the source post and the draft.
package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"linkbot/pkg/logx"
)

// ErrFlagged marks content rejected by moderation. The dispatcher treats
// it like any other per-action failure.
var ErrFlagged = errors.New("content flagged by moderation")

const (
	defaultModel = "gpt-4.1-nano"

	systemPrompt = "You are a helpful assistant that writes professional LinkedIn comments."
	promptHeader = "Write a short, positive, professional LinkedIn comment (<=30 words, <=2 emojis) in response to this post:"
)

// api is the slice of the OpenAI client the generator uses; tests swap in
// a fake.
type api interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	Moderations(ctx context.Context, req openai.ModerationRequest) (openai.ModerationResponse, error)
}

type Config struct {
	Model      string
	Moderation bool
}

type Generator struct {
	api api
	cfg Config
	log logx.Logger
}

func New(apiKey string, cfg Config, log logx.Logger) *Generator {
	return newWithAPI(openai.NewClient(apiKey), cfg, log)
}

func newWithAPI(a api, cfg Config, log logx.Logger) *Generator {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Generator{api: a, cfg: cfg, log: log}
}

// Generate returns a reply for postText or an error; it never returns an
// empty reply with a nil error.
func (g *Generator) Generate(ctx context.Context, postText string) (string, error) {
	if g.cfg.Moderation {
		if err := g.moderate(ctx, postText); err != nil {
			return "", fmt.Errorf("source post: %w", err)
		}
	}

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(postText)},
		},
		Temperature: 0.7,
		MaxTokens:   60,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty response")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("chat completion: blank reply")
	}

	if g.cfg.Moderation {
		if err := g.moderate(ctx, reply); err != nil {
			return "", fmt.Errorf("generated reply: %w", err)
		}
	}
	return reply, nil
}

func (g *Generator) moderate(ctx context.Context, text string) error {
	resp, err := g.api.Moderations(ctx, openai.ModerationRequest{Input: text})
	if err != nil {
		return fmt.Errorf("moderation: %w", err)
	}
	for _, r := range resp.Results {
		if r.Flagged {
			return ErrFlagged
		}
	}
	return nil
}

func buildPrompt(postText string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n\"\"\"\n")
	b.WriteString(postText)
	b.WriteString("\n\"\"\"")
	return b.String()
}

// Static always returns the same reply; used in mock mode so demo runs
// never call the API.
type Static string

func (s Static) Generate(ctx context.Context, postText string) (string, error) {
	return string(s), nil
}
