package dashboard

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"linkbot/internal/action"
	"linkbot/internal/actionlog"
	"linkbot/pkg/logx"
)

type stubReader struct {
	summary actionlog.DaySummary
	aggs    []actionlog.DayTypeAggregate
	recent  []action.Record
}

func (s *stubReader) Summary(context.Context, string) (actionlog.DaySummary, error) {
	return s.summary, nil
}

func (s *stubReader) AggregateByDate(context.Context) ([]actionlog.DayTypeAggregate, error) {
	return s.aggs, nil
}

func (s *stubReader) Recent(_ context.Context, limit int) ([]action.Record, error) {
	if limit < len(s.recent) {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func testServer() (*Server, *stubReader) {
	reader := &stubReader{
		summary: actionlog.DaySummary{
			Date:        "2025-06-01",
			Total:       4,
			Successes:   3,
			SuccessRate: 75,
			ByType: map[action.Type]actionlog.TypeSummary{
				action.Invite:  {Count: 2, Successes: 1},
				action.Like:    {Count: 1, Successes: 1},
				action.Comment: {Count: 1, Successes: 1},
			},
		},
		recent: []action.Record{
			{ID: 2, Date: "2025-06-01", Type: action.Like, Succeeded: true},
			{ID: 1, Date: "2025-06-01", Type: action.Invite, Succeeded: false},
		},
	}
	return New(reader, logx.Nop()), reader
}

func TestSummaryEndpoint(t *testing.T) {
	s, _ := testServer()
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/summary", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got actionlog.DaySummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 4 || got.SuccessRate != 75 {
		t.Fatalf("unexpected summary payload: %+v", got)
	}
}

func TestRecentEndpoint(t *testing.T) {
	s, _ := testServer()
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/recent?limit=1", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("limit should apply, got %d rows", len(rows))
	}
	if rows[0]["status"] != "success" {
		t.Fatalf("expected success status, got %v", rows[0]["status"])
	}

	bad := httptest.NewRecorder()
	s.routes().ServeHTTP(bad, httptest.NewRequest("GET", "/api/recent?limit=zero", nil))
	if bad.Code != 400 {
		t.Fatalf("invalid limit should be rejected, got %d", bad.Code)
	}
}

func TestDailyEndpointEmpty(t *testing.T) {
	s, _ := testServer()
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/daily", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rows []actionlog.DayTypeAggregate
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("empty history should encode as [], got %q", rec.Body.String())
	}
	if rows == nil {
		t.Fatalf("expected empty array, got null")
	}
}
