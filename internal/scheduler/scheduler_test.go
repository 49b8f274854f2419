package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"linkbot/internal/action"
	"linkbot/internal/schedule"
	"linkbot/pkg/logx"
)

type memStore struct {
	mu       sync.Mutex
	appended []action.Record
	countErr error
}

func (m *memStore) Append(_ context.Context, r action.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appended = append(m.appended, r)
	return nil
}

func (m *memStore) CountForDate(_ context.Context, date string, typ action.Type) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.appended {
		if r.Date == date && r.Type == typ {
			n++
		}
	}
	return n, nil
}

func (m *memStore) records() []action.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]action.Record(nil), m.appended...)
}

type fakeDispatcher struct {
	mu      sync.Mutex
	calls   []action.Type
	succeed bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, typ action.Type) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, typ)
	return f.succeed
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(cfg Config, disp Dispatcher, store Store) *Service {
	s := New(cfg, disp, store, logx.Nop())
	s.rng = rand.New(rand.NewSource(1))
	return s
}

func allCaps(n int) map[action.Type]int {
	caps := make(map[action.Type]int)
	for _, typ := range action.All() {
		caps[typ] = n
	}
	return caps
}

func TestTickDispatchesAndRecords(t *testing.T) {
	store := &memStore{}
	disp := &fakeDispatcher{succeed: true}
	s := newTestService(Config{Caps: allCaps(5), PollInterval: time.Millisecond}, disp, store)

	if !s.tick(context.Background()) {
		t.Fatalf("tick with headroom should dispatch")
	}
	recs := store.records()
	if len(recs) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(recs))
	}
	if !recs[0].Succeeded {
		t.Fatalf("outcome should record the dispatcher's success")
	}
	if recs[0].Date != action.Day(time.Now()) {
		t.Fatalf("record should be stamped with today, got %q", recs[0].Date)
	}
}

func TestTickRecordsFailures(t *testing.T) {
	store := &memStore{}
	disp := &fakeDispatcher{succeed: false}
	s := newTestService(Config{Caps: allCaps(5), PollInterval: time.Millisecond}, disp, store)

	if !s.tick(context.Background()) {
		t.Fatalf("failed dispatch still counts as a dispatched tick")
	}
	recs := store.records()
	if len(recs) != 1 || recs[0].Succeeded {
		t.Fatalf("failure must be recorded as succeeded=false, got %+v", recs)
	}
}

func TestTickIdleWhenOverCap(t *testing.T) {
	store := &memStore{}
	today := action.Day(time.Now())
	for _, typ := range action.All() {
		store.appended = append(store.appended, action.Record{Date: today, Type: typ, Succeeded: true})
	}
	disp := &fakeDispatcher{succeed: true}
	s := newTestService(Config{Caps: allCaps(1), PollInterval: time.Millisecond}, disp, store)

	if s.tick(context.Background()) {
		t.Fatalf("all types at cap: tick must not dispatch")
	}
	if disp.count() != 0 {
		t.Fatalf("dispatcher must not be called when nothing is eligible")
	}
	if len(store.records()) != len(action.All()) {
		t.Fatalf("idle tick must not write records")
	}
}

func TestFastTestBypassesCaps(t *testing.T) {
	store := &memStore{}
	today := action.Day(time.Now())
	for _, typ := range action.All() {
		store.appended = append(store.appended, action.Record{Date: today, Type: typ, Succeeded: true})
	}
	disp := &fakeDispatcher{succeed: true}
	s := newTestService(Config{Caps: allCaps(1), FastTest: true, PollInterval: time.Millisecond}, disp, store)

	if !s.tick(context.Background()) {
		t.Fatalf("fast-test mode should dispatch past the caps")
	}
}

func TestWindowGate(t *testing.T) {
	store := &memStore{}
	disp := &fakeDispatcher{succeed: true}
	// A window entirely in the past of any plausible test time would be
	// flaky, so pin the clock instead.
	s := newTestService(Config{
		Caps:           allCaps(5),
		Windows:        []schedule.Window{{Start: 9 * 60, End: 11 * 60}},
		EnforceWindows: true,
		PollInterval:   time.Millisecond,
	}, disp, store)

	s.now = func() time.Time { return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC) }
	if s.tick(context.Background()) {
		t.Fatalf("outside every window: tick must not dispatch")
	}

	s.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	if !s.tick(context.Background()) {
		t.Fatalf("window start boundary should be active")
	}

	// Gate disabled: windows are ignored even when outside them.
	s2 := newTestService(Config{Caps: allCaps(5), Windows: s.cfg.Windows, PollInterval: time.Millisecond}, disp, store)
	s2.now = func() time.Time { return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC) }
	if !s2.tick(context.Background()) {
		t.Fatalf("gate disabled: tick should dispatch outside windows")
	}
}

func TestCandidatesSkipTypeOnCountError(t *testing.T) {
	store := &memStore{countErr: errors.New("db locked")}
	disp := &fakeDispatcher{succeed: true}
	s := newTestService(Config{Caps: allCaps(5), PollInterval: time.Millisecond}, disp, store)

	if got := s.candidates(context.Background(), time.Now()); len(got) != 0 {
		t.Fatalf("count errors should exclude types for the tick, got %v", got)
	}
}

func TestPacingDelayWithinBounds(t *testing.T) {
	s := newTestService(Config{
		Caps:         allCaps(1),
		DelayMin:     40 * time.Millisecond,
		DelayMax:     180 * time.Millisecond,
		PollInterval: time.Millisecond,
	}, &fakeDispatcher{}, &memStore{})

	for i := 0; i < 200; i++ {
		d := s.pacingDelay()
		if d < s.cfg.DelayMin || d > s.cfg.DelayMax {
			t.Fatalf("pacing delay %v outside [%v, %v]", d, s.cfg.DelayMin, s.cfg.DelayMax)
		}
	}

	fixed := newTestService(Config{Caps: allCaps(1), DelayMin: time.Second, DelayMax: time.Second}, &fakeDispatcher{}, &memStore{})
	if d := fixed.pacingDelay(); d != time.Second {
		t.Fatalf("equal bounds should yield the fixed delay, got %v", d)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := &memStore{}
	disp := &fakeDispatcher{succeed: true}
	s := newTestService(Config{Caps: allCaps(1000), PollInterval: time.Millisecond}, disp, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run should return the context error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancellation")
	}
}

func TestSelectionUniformAcrossEligible(t *testing.T) {
	store := &memStore{}
	disp := &fakeDispatcher{succeed: true}
	// comment disabled by zero cap; invite and like should both appear.
	caps := map[action.Type]int{action.Invite: 1000, action.Like: 1000, action.Comment: 0}
	s := newTestService(Config{Caps: caps, PollInterval: time.Millisecond}, disp, store)

	for i := 0; i < 100; i++ {
		s.tick(context.Background())
	}

	seen := map[action.Type]int{}
	for _, typ := range disp.calls {
		seen[typ]++
	}
	if seen[action.Comment] != 0 {
		t.Fatalf("zero-cap type must never be selected")
	}
	if seen[action.Invite] == 0 || seen[action.Like] == 0 {
		t.Fatalf("both eligible types should be selected over 100 ticks: %v", seen)
	}
}
