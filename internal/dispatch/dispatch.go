// Package dispatch maps a chosen action type to the external platform
// call and normalizes the outcome to a bare success flag. No error or
// panic crosses this boundary, and nothing here writes to the action log.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"linkbot/internal/action"
	"linkbot/internal/platform"
	"linkbot/pkg/logx"
)

const (
	defaultFeedURL    = "https://www.linkedin.com/feed/"
	defaultProfileURL = "https://www.linkedin.com/in/me/"
)

// CommentSource drafts the reply text for comment actions.
type CommentSource interface {
	Generate(ctx context.Context, postText string) (string, error)
}

type Config struct {
	// ProfileURL is the invite target; FeedURL the like/comment target.
	ProfileURL string
	FeedURL    string
	// RatePerMin caps platform calls per minute; 0 disables the floor.
	RatePerMin int
}

type Dispatcher struct {
	client   platform.Client
	comments CommentSource
	session  *platform.Session
	limiter  *rate.Limiter
	cfg      Config
	log      logx.Logger
}

func New(client platform.Client, comments CommentSource, session *platform.Session, cfg Config, log logx.Logger) *Dispatcher {
	if cfg.FeedURL == "" {
		cfg.FeedURL = defaultFeedURL
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = defaultProfileURL
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	var limiter *rate.Limiter
	if cfg.RatePerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), 1)
	}
	return &Dispatcher{
		client:   client,
		comments: comments,
		session:  session,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
	}
}

// Dispatch performs one attempt of typ and reports success. Every failure
// mode of the executor or the comment source, panics included, is
// converted to false here.
func (d *Dispatcher) Dispatch(ctx context.Context, typ action.Type) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic during dispatch", logx.String("type", typ.String()), logx.Any("panic", r))
			ok = false
		}
	}()

	if err := d.wait(ctx); err != nil {
		d.log.Warn("dispatch aborted before platform call", logx.String("type", typ.String()), logx.Err(err))
		return false
	}

	var err error
	switch typ {
	case action.Invite:
		err = d.invite(ctx)
	case action.Like:
		err = d.like(ctx)
	case action.Comment:
		err = d.comment(ctx)
	default:
		err = fmt.Errorf("unknown action type %q", typ)
	}
	if err != nil {
		d.log.Warn("action failed", logx.String("type", typ.String()), logx.Err(err))
		return false
	}
	return true
}

// wait applies the global pacing floor for platform calls.
func (d *Dispatcher) wait(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	return d.limiter.Wait(ctx)
}

func (d *Dispatcher) invite(ctx context.Context) error {
	if err := d.client.ViewProfile(ctx, d.session, d.cfg.ProfileURL); err != nil {
		return fmt.Errorf("view profile: %w", err)
	}
	if err := d.client.SendInvite(ctx, d.session, d.cfg.ProfileURL); err != nil {
		return fmt.Errorf("send invite: %w", err)
	}
	d.log.Info("invite sent", logx.String("profile", d.cfg.ProfileURL))
	return nil
}

func (d *Dispatcher) like(ctx context.Context) error {
	if _, err := d.client.BrowseFeed(ctx, d.session, 1); err != nil {
		return fmt.Errorf("browse feed: %w", err)
	}
	if err := d.client.LikePost(ctx, d.session, d.cfg.FeedURL); err != nil {
		return fmt.Errorf("like post: %w", err)
	}
	d.log.Info("post liked")
	return nil
}

func (d *Dispatcher) comment(ctx context.Context) error {
	posts, err := d.client.BrowseFeed(ctx, d.session, 1)
	if err != nil {
		return fmt.Errorf("browse feed: %w", err)
	}
	if len(posts) == 0 {
		return errors.New("feed returned no posts")
	}
	reply, err := d.comments.Generate(ctx, posts[0].Text)
	if err != nil {
		return fmt.Errorf("generate comment: %w", err)
	}
	if err := d.client.CommentPost(ctx, d.session, d.cfg.FeedURL, reply); err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	d.log.Info("comment posted", logx.String("comment", reply))
	return nil
}
