// Package scheduler drives the whole system: on each tick it gates on the
// active-time windows and the daily caps, picks one eligible action type
// uniformly at random, paces, dispatches, and records the outcome.
package scheduler

import (
	"context"
	"math/rand"
	"time"

	"linkbot/internal/action"
	"linkbot/internal/quota"
	"linkbot/internal/schedule"
	"linkbot/pkg/logx"
)

type Config struct {
	Caps           map[action.Type]int
	Windows        []schedule.Window
	EnforceWindows bool
	// FastTest bypasses every cap check.
	FastTest bool

	// DelayMin/DelayMax bound the randomized pacing delay before dispatch.
	DelayMin time.Duration
	DelayMax time.Duration
	// PollInterval is the idle re-check delay when nothing is eligible.
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.DelayMax < c.DelayMin {
		c.DelayMax = c.DelayMin
	}
	return c
}

// Dispatcher performs one attempt and reports success. It never panics
// past its own boundary.
type Dispatcher interface {
	Dispatch(ctx context.Context, typ action.Type) bool
}

// Store is the slice of the action log the loop needs.
type Store interface {
	Append(ctx context.Context, r action.Record) error
	CountForDate(ctx context.Context, date string, typ action.Type) (int, error)
}

// Loop states, logged with each transition.
const (
	stateIdle        = "idle"
	statePacing      = "pacing"
	stateDispatching = "dispatching"
	stateRecording   = "recording"
)

type Service struct {
	cfg    Config
	disp   Dispatcher
	store  Store
	quotas *quota.Tracker
	log    logx.Logger

	rng *rand.Rand
	now func() time.Time
}

func New(cfg Config, disp Dispatcher, store Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	return &Service{
		cfg:    cfg,
		disp:   disp,
		store:  store,
		quotas: quota.NewTracker(cfg.Caps, cfg.FastTest, store),
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

// Run executes the loop until ctx is canceled. There is no other terminal
// state: an empty candidate set is a normal idle condition and per-action
// failures never stop the loop.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("scheduler started",
		logx.Int("windows", len(s.cfg.Windows)),
		logx.Bool("enforce_windows", s.cfg.EnforceWindows),
		logx.Bool("fast_test", s.cfg.FastTest),
		logx.Duration("delay_min", s.cfg.DelayMin),
		logx.Duration("delay_max", s.cfg.DelayMax),
	)
	for {
		if err := ctx.Err(); err != nil {
			s.log.Info("scheduler stopped")
			return err
		}
		s.tick(ctx)
	}
}

// tick runs one pass of the state machine: IDLE -> PACING -> DISPATCHING
// -> RECORDING, or IDLE -> IDLE after a poll delay when nothing is
// eligible. It reports whether an action was dispatched.
func (s *Service) tick(ctx context.Context) bool {
	now := s.now()

	cands := s.candidates(ctx, now)
	if len(cands) == 0 {
		s.sleep(ctx, s.cfg.PollInterval)
		return false
	}

	typ := cands[s.rng.Intn(len(cands))]
	delay := s.pacingDelay()
	s.log.Info("action selected",
		logx.String("state", statePacing),
		logx.String("type", typ.String()),
		logx.Duration("delay", delay),
		logx.Int("candidates", len(cands)),
	)
	// Cancellation points sit between states, never mid-dispatch.
	if !s.sleep(ctx, delay) {
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	s.log.Debug("dispatching", logx.String("state", stateDispatching), logx.String("type", typ.String()))
	ok := s.disp.Dispatch(ctx, typ)

	// The effect has happened; the record must not be lost to shutdown,
	// so the append runs on a detached short-lived context.
	s.log.Debug("recording outcome", logx.String("state", stateRecording), logx.String("type", typ.String()), logx.Bool("success", ok))
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	err := s.store.Append(rctx, action.Record{
		Date:      action.Day(s.now()),
		Type:      typ,
		Succeeded: ok,
	})
	cancel()
	if err != nil {
		s.log.Error("failed to record outcome", logx.String("type", typ.String()), logx.Err(err))
	}
	s.log.Info("action finished", logx.String("type", typ.String()), logx.Bool("success", ok))
	return true
}

// candidates returns the action types that are simultaneously inside an
// active window (when the gate applies) and under cap. A store read error
// excludes the type for this tick only.
func (s *Service) candidates(ctx context.Context, now time.Time) []action.Type {
	if s.cfg.EnforceWindows && !schedule.Active(now, s.cfg.Windows) {
		s.log.Debug("outside active windows", logx.String("state", stateIdle))
		return nil
	}

	var cands []action.Type
	for _, typ := range action.All() {
		ok, err := s.quotas.Allowed(ctx, typ)
		if err != nil {
			s.log.Error("cap count read failed", logx.String("type", typ.String()), logx.Err(err))
			continue
		}
		if ok {
			cands = append(cands, typ)
		}
	}
	return cands
}

// pacingDelay draws uniformly from the configured [min, max] bounds.
func (s *Service) pacingDelay() time.Duration {
	min, max := s.cfg.DelayMin, s.cfg.DelayMax
	if max <= min {
		return min
	}
	return min + time.Duration(s.rng.Int63n(int64(max-min)+1))
}

// sleep waits for d or until ctx is canceled; it reports whether the full
// delay elapsed.
func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
