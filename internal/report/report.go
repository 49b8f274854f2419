// Package report logs a daily activity summary on a cron schedule.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"linkbot/internal/action"
	"linkbot/internal/actionlog"
	"linkbot/pkg/logx"
)

const defaultSpec = "0 21 * * *"

type Summarizer interface {
	Summary(ctx context.Context, date string) (actionlog.DaySummary, error)
}

type Reporter struct {
	c     *cron.Cron
	store Summarizer
	log   logx.Logger
}

// New schedules the summary job. An empty spec uses the nightly default;
// an invalid spec is a config error surfaced at startup.
func New(spec string, store Summarizer, log logx.Logger) (*Reporter, error) {
	if spec == "" {
		spec = defaultSpec
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Reporter{c: cron.New(), store: store, log: log}
	if _, err := r.c.AddFunc(spec, r.emit); err != nil {
		return nil, fmt.Errorf("report cron spec %q: %w", spec, err)
	}
	return r, nil
}

func (r *Reporter) Start() { r.c.Start() }

func (r *Reporter) Stop() {
	<-r.c.Stop().Done()
}

func (r *Reporter) emit() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	today := action.Day(time.Now())
	sum, err := r.store.Summary(ctx, today)
	if err != nil {
		r.log.Error("daily summary failed", logx.Err(err))
		return
	}
	fields := []logx.Field{
		logx.String("date", sum.Date),
		logx.Int("total", sum.Total),
		logx.Int("successes", sum.Successes),
		logx.String("success_rate", fmt.Sprintf("%.2f%%", sum.SuccessRate)),
	}
	for _, typ := range action.All() {
		fields = append(fields, logx.Int(typ.String()+"s", sum.ByType[typ].Count))
	}
	r.log.Info("daily action summary", fields...)
}
