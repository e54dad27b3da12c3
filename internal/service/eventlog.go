package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	sc "signal_chart"
	"signal_chart/internal/repository"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrUnknownEventType = errors.New("unknown fetch event type")
)

// EventTypes lists every type the controller records, in outcome order.
var EventTypes = []string{
	sc.EventFetchOK,
	sc.EventFetchEmpty,
	sc.EventFetchStale,
	sc.EventFetchFailed,
	sc.EventToggle,
}

// EventLogService reads the fetch log written by the chart controller.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// List returns matching events oldest first. With a Limit only the newest
// Limit events are kept.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]sc.FetchEvent, error) {
	q, err := compileFilter(f)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.List(ctx, q.from, q.to, q.repoType())
	if err != nil {
		return nil, fmt.Errorf("list fetch log: %w", err)
	}

	out := make([]sc.FetchEvent, 0, len(events))
	for _, e := range events {
		if q.match(e) {
			out = append(out, e)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// Summary counts matching events per type. Limit is ignored.
func (s *EventLogService) Summary(ctx context.Context, f LogFilter) (LogSummary, error) {
	f.Limit = 0
	events, err := s.List(ctx, f)
	if err != nil {
		return LogSummary{}, err
	}

	sum := LogSummary{Counts: make(map[string]int, len(EventTypes))}
	for _, t := range EventTypes {
		sum.Counts[t] = 0
	}
	for _, e := range events {
		sum.Total++
		sum.Counts[e.Type]++
		if sum.Last.IsZero() || e.OccurredAt.After(sum.Last) {
			sum.Last = e.OccurredAt
		}
	}
	return sum, nil
}

// compiledFilter is a LogFilter with times in UTC and types validated.
type compiledFilter struct {
	from, to time.Time
	types    []string
	entityID int
}

func compileFilter(f LogFilter) (compiledFilter, error) {
	q := compiledFilter{entityID: f.EntityID}
	if !f.From.IsZero() {
		q.from = f.From.UTC()
	}
	if !f.To.IsZero() {
		q.to = f.To.UTC()
	}
	if !q.from.IsZero() && !q.to.IsZero() && q.from.After(q.to) {
		return compiledFilter{}, ErrInvalidTimeRange
	}

	types, err := ParseEventTypes(f.Type)
	if err != nil {
		return compiledFilter{}, err
	}
	q.types = types
	return q, nil
}

// repoType narrows the query in SQL when exactly one type is wanted.
func (q compiledFilter) repoType() string {
	if len(q.types) == 1 {
		return q.types[0]
	}
	return ""
}

func (q compiledFilter) match(e sc.FetchEvent) bool {
	if len(q.types) > 1 && !slices.Contains(q.types, e.Type) {
		return false
	}
	if q.entityID != 0 {
		mid, ok := eventEntity(e)
		return ok && mid == q.entityID
	}
	return true
}

// ParseEventTypes splits a comma separated list such as "fetch_stale, FETCH_EMPTY"
// into known types. An empty list means every type.
func ParseEventTypes(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" {
			continue
		}
		if !slices.Contains(EventTypes, t) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// eventEntity reads the mid recorded with an event. Stored metadata comes back
// from JSON, so numbers arrive as float64.
func eventEntity(e sc.FetchEvent) (int, bool) {
	meta, ok := e.Metadata.(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := meta["mid"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
