// Package dashboard serves the read-only reporting views over HTTP:
// today's summary, the per-day history series, and the recent action log.
// It never writes to the store.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"linkbot/internal/action"
	"linkbot/internal/actionlog"
	"linkbot/pkg/logx"
)

type Config struct {
	Enabled bool
	Addr    string
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8090"
	}
	return c
}

// Reader is the store slice the dashboard consumes.
type Reader interface {
	Summary(ctx context.Context, date string) (actionlog.DaySummary, error)
	AggregateByDate(ctx context.Context) ([]actionlog.DayTypeAggregate, error)
	Recent(ctx context.Context, limit int) ([]action.Record, error)
}

// Server manages lifecycle for the reporting HTTP listener.
type Server struct {
	mu    sync.Mutex
	log   logx.Logger
	store Reader
	srv   *http.Server
	ln    net.Listener
	addr  string
}

func New(store Reader, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{log: log.With(logx.String("comp", "dashboard")), store: store}
}

// Start begins serving according to cfg; disabled config is a no-op.
func (s *Server) Start(cfg Config) error {
	cfg = cfg.withDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled || s.srv != nil {
		return nil
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	s.srv = srv
	s.ln = ln
	s.addr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("dashboard server error", logx.String("addr", s.addr), logx.Err(err))
		}
	}()
	s.log.Info("dashboard enabled", logx.String("addr", s.addr))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return
	}
	srv := s.srv
	ln := s.ln
	addr := s.addr
	s.srv = nil
	s.ln = nil
	s.addr = ""

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("dashboard shutdown error", logx.String("addr", addr), logx.Err(err))
	}
	if ln != nil {
		_ = ln.Close()
	}
	s.log.Info("dashboard disabled", logx.String("addr", addr))
}

// Addr reports the actual listen address if running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/daily", s.handleDaily)
	mux.HandleFunc("GET /api/recent", s.handleRecent)
	return mux
}

const indexHTML = `<!doctype html>
<html><head><title>linkbot dashboard</title></head><body>
<h1>linkbot</h1>
<ul>
<li><a href="/api/summary">Today's summary</a></li>
<li><a href="/api/daily">Daily history</a></li>
<li><a href="/api/recent?limit=50">Recent actions</a></li>
</ul>
</body></html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.store.Summary(r.Context(), action.Day(time.Now()))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, sum)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	aggs, err := s.store.AggregateByDate(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if aggs == nil {
		aggs = []actionlog.DayTypeAggregate{}
	}
	s.writeJSON(w, aggs)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 250
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	recent, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}

	type row struct {
		ID     int64       `json:"id"`
		Date   string      `json:"date"`
		Type   action.Type `json:"type"`
		Status string      `json:"status"`
	}
	rows := make([]row, 0, len(recent))
	for _, rec := range recent {
		status := "failure"
		if rec.Succeeded {
			status = "success"
		}
		rows = append(rows, row{ID: rec.ID, Date: rec.Date, Type: rec.Type, Status: status})
	}
	s.writeJSON(w, rows)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("dashboard query failed", logx.Err(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Warn("dashboard encode failed", logx.Err(err))
	}
}
