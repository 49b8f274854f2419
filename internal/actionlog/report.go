package actionlog

import (
	"context"
	"time"

	"linkbot/internal/action"
)

// Read-only views consumed by the reporting surfaces (dashboard, stats CLI).
// No write path exists outside Append.

// TypeSummary is the per-type slice of a day.
type TypeSummary struct {
	Count     int `json:"count"`
	Successes int `json:"successes"`
}

// DaySummary aggregates one calendar day.
type DaySummary struct {
	Date      string                      `json:"date"`
	Total     int                         `json:"total"`
	Successes int                         `json:"successes"`
	// SuccessRate is a percentage in [0,100]; 0 when the day is empty.
	SuccessRate float64                     `json:"success_rate"`
	ByType      map[action.Type]TypeSummary `json:"by_type"`
}

// DayTypeAggregate is one (date, type) cell of the history series.
type DayTypeAggregate struct {
	Date      string      `json:"date"`
	Type      action.Type `json:"type"`
	Count     int         `json:"count"`
	Successes int         `json:"successes"`
}

// Recent returns the most recent records, newest first. Insertion order is
// the tiebreak for same-day records (monotonic row id).
func (s *Store) Recent(ctx context.Context, limit int) ([]action.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, type, success FROM actions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []action.Record
	for rows.Next() {
		var r action.Record
		var success int
		if err := rows.Scan(&r.ID, &r.Date, &r.Type, &success); err != nil {
			return nil, err
		}
		r.Succeeded = success != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// AggregateByDate returns the per-day per-type series, oldest date first.
func (s *Store) AggregateByDate(ctx context.Context) ([]DayTypeAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, type, COUNT(*), SUM(success)
		 FROM actions GROUP BY date, type ORDER BY date, type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayTypeAggregate
	for rows.Next() {
		var a DayTypeAggregate
		if err := rows.Scan(&a.Date, &a.Type, &a.Count, &a.Successes); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Summary aggregates a single day across all action types. An empty date
// means today, same as Append.
func (s *Store) Summary(ctx context.Context, date string) (DaySummary, error) {
	if date == "" {
		date = action.Day(time.Now())
	}
	sum := DaySummary{Date: date, ByType: make(map[action.Type]TypeSummary, len(action.All()))}
	for _, typ := range action.All() {
		sum.ByType[typ] = TypeSummary{}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, COUNT(*), SUM(success)
		 FROM actions WHERE date = ? GROUP BY type`, date)
	if err != nil {
		return DaySummary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var typ action.Type
		var ts TypeSummary
		if err := rows.Scan(&typ, &ts.Count, &ts.Successes); err != nil {
			return DaySummary{}, err
		}
		sum.ByType[typ] = ts
		sum.Total += ts.Count
		sum.Successes += ts.Successes
	}
	if err := rows.Err(); err != nil {
		return DaySummary{}, err
	}

	if sum.Total > 0 {
		sum.SuccessRate = float64(sum.Successes) / float64(sum.Total) * 100
	}
	return sum, nil
}
