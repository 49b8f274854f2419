// Package app wires the daemon together: logging, action log store,
// platform client, dispatcher, scheduler loop, reporting cron, and the
// dashboard, all supervised under one context.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/uuid"

	"linkbot/internal/actionlog"
	"linkbot/internal/comment"
	"linkbot/internal/config"
	"linkbot/internal/dashboard"
	"linkbot/internal/dispatch"
	"linkbot/internal/platform"
	"linkbot/internal/report"
	"linkbot/internal/runtime/supervisor"
	"linkbot/internal/scheduler"
	"linkbot/pkg/logx"
)

// Credentials are process-wide secrets loaded from the environment, never
// from the config file.
type Credentials struct {
	Username  string
	Password  string
	OpenAIKey string
}

// mockComment is the canned reply used when mock mode replaces the text
// generator.
const mockComment = "Great insights, thanks for sharing!"

type App struct {
	cfg   *config.Config
	creds Credentials

	log      logx.Logger
	logClose io.Closer

	store  *actionlog.Store
	client platform.Client
	dash   *dashboard.Server
	rep    *report.Reporter
	sup    *supervisor.Supervisor

	runRow int64
}

func New(cfg *config.Config, creds Credentials) (*App, error) {
	if !cfg.Mock {
		if creds.Username == "" || creds.Password == "" {
			return nil, errors.New("platform credentials are required unless mock mode is enabled")
		}
		if creds.OpenAIKey == "" {
			return nil, errors.New("an API key for the comment generator is required unless mock mode is enabled")
		}
	}

	log, logClose, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return nil, err
	}
	log = log.With(logx.String("comp", "app"))

	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	store, err := actionlog.Open(actionlog.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "actionlog")))
	if err != nil {
		_ = logClose.Close()
		return nil, fmt.Errorf("open action log: %w", err)
	}

	var rep *report.Reporter
	if cfg.Report.Enabled {
		rep, err = report.New(cfg.Report.Cron, store, log.With(logx.String("comp", "report")))
		if err != nil {
			_ = store.Close()
			_ = logClose.Close()
			return nil, err
		}
	}

	return &App{
		cfg:      cfg,
		creds:    creds,
		log:      log,
		logClose: logClose,
		store:    store,
		dash:     dashboard.New(store, log),
		rep:      rep,
	}, nil
}

// Start connects to the platform, performs the one-time login (fatal on
// failure), and launches the scheduler loop plus the auxiliary services.
func (a *App) Start(ctx context.Context) error {
	cfg := a.cfg

	var comments dispatch.CommentSource
	if cfg.Mock {
		a.client = platform.NewMock()
		comments = comment.Static(mockComment)
		a.log.Info("mock mode: external effects are stubbed")
	} else {
		callTimeout, err := config.ParseDurationOrDefault("executor.call_timeout", cfg.Executor.CallTimeout, 2*time.Minute)
		if err != nil {
			return err
		}
		client, err := platform.Connect(ctx, platform.ToolConfig{
			Command:     cfg.Executor.Command,
			CallTimeout: callTimeout,
		}, a.log.With(logx.String("comp", "platform")))
		if err != nil {
			return err
		}
		a.client = client
		comments = comment.New(a.creds.OpenAIKey, comment.Config{
			Model:      cfg.Comment.Model,
			Moderation: cfg.ModerationEnabled(),
		}, a.log.With(logx.String("comp", "comment")))
	}

	// Login happens exactly once per run; failure aborts the process
	// before the loop starts and is never retried.
	session, err := a.client.Login(ctx, a.creds.Username, a.creds.Password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a.log.Info("logged in", logx.Time("at", time.Now()))

	runID := uuid.NewString()
	a.runRow, err = a.store.StartRun(ctx, runID, time.Now())
	if err != nil {
		a.log.Warn("failed to record run start", logx.Err(err))
	}
	a.log = a.log.With(logx.String("run_id", runID))

	windows, err := cfg.Windows()
	if err != nil {
		return err
	}
	delayMin, delayMax := cfg.Pacing()

	disp := dispatch.New(a.client, comments, session, dispatch.Config{
		ProfileURL: cfg.Executor.ProfileURL,
		FeedURL:    cfg.Executor.FeedURL,
		RatePerMin: cfg.Executor.RatePerMin,
	}, a.log.With(logx.String("comp", "dispatch")))

	sched := scheduler.New(scheduler.Config{
		Caps:           cfg.Caps(),
		Windows:        windows,
		EnforceWindows: cfg.Enforce(),
		FastTest:       cfg.FastTest,
		DelayMin:       delayMin,
		DelayMax:       delayMax,
		PollInterval:   cfg.Poll(),
	}, disp, a.store, a.log.With(logx.String("comp", "scheduler")))

	a.sup = supervisor.New(ctx, a.log)
	a.sup.Go("scheduler", sched.Run)

	if a.rep != nil {
		a.rep.Start()
	}
	if err := a.dash.Start(dashboard.Config{
		Enabled: cfg.Dashboard.Enabled,
		Addr:    cfg.Dashboard.Addr,
	}); err != nil {
		a.log.Warn("dashboard failed to start", logx.Err(err))
	}

	a.startWatchdog()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	return nil
}

// startWatchdog feeds the systemd watchdog when one is configured for the
// unit. Notifications never block the scheduler.
func (a *App) startWatchdog() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	a.sup.Go("watchdog", func(ctx context.Context) error {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	})
}

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed after Start (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.rep != nil {
		a.rep.Stop()
	}
	a.dash.Stop(ctx)
	if a.sup != nil {
		_ = a.sup.Stop(ctx)
	}
	if a.runRow != 0 {
		ectx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.store.EndRun(ectx, a.runRow, time.Now()); err != nil {
			a.log.Warn("failed to record run end", logx.Err(err))
		}
		cancel()
	}
	if a.client != nil {
		_ = a.client.Close()
	}
	err := a.store.Close()
	a.log.Info("stopped")
	_ = a.logClose.Close()
	return err
}
