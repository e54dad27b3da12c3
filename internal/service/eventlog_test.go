package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sc "signal_chart"
	"signal_chart/internal/chart"
	"signal_chart/internal/repository"
	"signal_chart/internal/repository/db"
)

// fakeEventRepo records the query the service sends to storage.
type fakeEventRepo struct {
	gotFrom time.Time
	gotTo   time.Time
	gotType string
	calls   int

	events []sc.FetchEvent
	err    error
}

func (f *fakeEventRepo) Append(ctx context.Context, e sc.FetchEvent) error { return nil }

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]sc.FetchEvent, error) {
	f.calls++
	f.gotFrom, f.gotTo, f.gotType = from, to, typ
	return f.events, f.err
}

func fetchEvent(typ string, mid int) sc.FetchEvent {
	return sc.FetchEvent{Type: typ, Metadata: map[string]any{"mid": float64(mid)}}
}

func TestParseEventTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "", want: nil},
		{in: " , ", want: nil},
		{in: "fetch_stale", want: []string{sc.EventFetchStale}},
		{in: " Fetch_Empty , FETCH_STALE,fetch_empty", want: []string{sc.EventFetchEmpty, sc.EventFetchStale}},
		{in: "toggle,FETCH_FAILED", want: []string{sc.EventToggle, sc.EventFetchFailed}},
		{in: "FETCH_OK,HEATING", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseEventTypes(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownEventType) {
					t.Fatalf("ParseEventTypes(%q) err = %v; want ErrUnknownEventType", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEventTypes(%q): %v", tc.in, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("ParseEventTypes(%q) = %v; want %v", tc.in, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("ParseEventTypes(%q) = %v; want %v", tc.in, got, tc.want)
				}
			}
		})
	}
}

func TestEventLogService_List_QueryPushedToStorage(t *testing.T) {
	t.Parallel()

	plus3 := time.FixedZone("UTC+3", 3*3600)
	tests := []struct {
		name     string
		filter   LogFilter
		wantType string
	}{
		{"single type narrows in storage", LogFilter{Type: "fetch_stale"}, sc.EventFetchStale},
		{"several types filtered after loading", LogFilter{Type: "FETCH_STALE,FETCH_EMPTY"}, ""},
		{"no type", LogFilter{}, ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &fakeEventRepo{}
			f := tc.filter
			f.From = time.Date(2024, 1, 1, 3, 0, 0, 0, plus3)
			if _, err := NewEventLogService(repo).List(context.Background(), f); err != nil {
				t.Fatalf("List: %v", err)
			}
			if repo.gotType != tc.wantType {
				t.Fatalf("storage type = %q; want %q", repo.gotType, tc.wantType)
			}
			if !repo.gotFrom.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || !repo.gotTo.IsZero() {
				t.Fatalf("bounds not normalized to UTC: from=%v to=%v", repo.gotFrom, repo.gotTo)
			}
		})
	}
}

func TestEventLogService_List_RejectsBeforeStorage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		filter  LogFilter
		wantErr error
	}{
		{
			name: "inverted range",
			filter: LogFilter{
				From: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			wantErr: ErrInvalidTimeRange,
		},
		{name: "unknown type", filter: LogFilter{Type: "FETCH_OK,OVERHEAT"}, wantErr: ErrUnknownEventType},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &fakeEventRepo{}
			svc := NewEventLogService(repo)
			if _, err := svc.List(context.Background(), tc.filter); !errors.Is(err, tc.wantErr) {
				t.Fatalf("List err = %v; want %v", err, tc.wantErr)
			}
			if _, err := svc.Summary(context.Background(), tc.filter); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Summary err = %v; want %v", err, tc.wantErr)
			}
			if repo.calls != 0 {
				t.Fatalf("storage queried %d times", repo.calls)
			}
		})
	}
}

func TestEventLogService_List_StorageError(t *testing.T) {
	t.Parallel()

	down := errors.New("db down")
	_, err := NewEventLogService(&fakeEventRepo{err: down}).List(context.Background(), LogFilter{})
	if !errors.Is(err, down) {
		t.Fatalf("want wrapped storage error; got %v", err)
	}
}

func TestEventLogService_List_EntityAndLimit(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{events: []sc.FetchEvent{
		fetchEvent(sc.EventFetchOK, 1),
		fetchEvent(sc.EventFetchStale, 2),
		fetchEvent(sc.EventFetchEmpty, 1),
		{Type: sc.EventFetchFailed, Metadata: "not a map"},
		fetchEvent(sc.EventFetchFailed, 1),
	}}
	svc := NewEventLogService(repo)

	got, err := svc.List(context.Background(), LogFilter{EntityID: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Type != sc.EventFetchEmpty || got[1].Type != sc.EventFetchFailed {
		t.Fatalf("want the two newest entity 1 events; got %+v", got)
	}
	if len(repo.events) != 5 || repo.events[1].Type != sc.EventFetchStale {
		t.Fatalf("storage result must not be modified: %+v", repo.events)
	}
}

// scriptedFetcher answers per mid. A hook runs inside the fetch, before it returns.
type scriptedFetcher struct {
	answers map[int]fetchAnswer
	hook    map[int]func()
}

type fetchAnswer struct {
	counts sc.SignalCounts
	err    error
}

func (f *scriptedFetcher) Fetch(ctx context.Context, mid int, start, end string) (sc.SignalCounts, error) {
	if h := f.hook[mid]; h != nil {
		h()
	}
	a := f.answers[mid]
	return a.counts, a.err
}

// recordFetchLog drives a controller into every outcome and returns the
// service reading the resulting sqlite log.
func recordFetchLog(t *testing.T) *EventLogService {
	t.Helper()

	conn, err := db.InitDB("")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	repos := repository.NewRepository(conn)

	f := &scriptedFetcher{
		answers: map[int]fetchAnswer{
			3: {counts: sc.SignalCounts{Green: 1}},
			4: {err: errors.New("connection refused")},
			5: {counts: sc.SignalCounts{Red: 1}},
			9: {counts: sc.SignalCounts{Black: 1}},
		},
		hook: map[int]func(){},
	}
	ctrl := chart.NewController(f, chart.AsSegments(chart.NewWedges(4)), repos.EventRepo, nil,
		chart.Config{DiscardStale: true, Visible: true})
	ctx := context.Background()

	_ = ctrl.Refresh(ctx, 3, "a", "b") // FETCH_OK
	f.answers[3] = fetchAnswer{}
	_ = ctrl.Refresh(ctx, 3, "a", "b") // FETCH_EMPTY
	_ = ctrl.Refresh(ctx, 4, "a", "b") // FETCH_FAILED
	// a newer request lands while mid 9 is in flight
	f.hook[9] = func() { ctrl.RequestUpdate(ctx, 5, "a", "b") }
	if err := ctrl.Refresh(ctx, 9, "a", "b"); !errors.Is(err, chart.ErrStale) {
		t.Fatalf("want the mid 9 completion discarded; got %v", err)
	}
	ctrl.Wait() // FETCH_OK for mid 5
	ctrl.ToggleVisibility(ctx, "a", "b")

	return NewEventLogService(repos.EventRepo)
}

func TestEventLogService_FetchLogRoundTrip(t *testing.T) {
	t.Parallel()

	svc := recordFetchLog(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter LogFilter
		want   map[string]int // type -> count
	}{
		{
			name:   "stale and empty",
			filter: LogFilter{Type: "fetch_stale, FETCH_EMPTY"},
			want:   map[string]int{sc.EventFetchStale: 1, sc.EventFetchEmpty: 1},
		},
		{
			name:   "stale only",
			filter: LogFilter{Type: sc.EventFetchStale},
			want:   map[string]int{sc.EventFetchStale: 1},
		},
		{
			name:   "entity 3",
			filter: LogFilter{EntityID: 3},
			want:   map[string]int{sc.EventFetchOK: 1, sc.EventFetchEmpty: 1},
		},
		{
			name:   "failures for entity 4",
			filter: LogFilter{Type: "fetch_failed", EntityID: 4},
			want:   map[string]int{sc.EventFetchFailed: 1},
		},
		{
			name:   "entity with no fetches",
			filter: LogFilter{EntityID: 42},
			want:   map[string]int{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			events, err := svc.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			got := map[string]int{}
			for _, e := range events {
				got[e.Type]++
			}
			if len(got) != len(tc.want) {
				t.Fatalf("types = %v; want %v", got, tc.want)
			}
			for typ, n := range tc.want {
				if got[typ] != n {
					t.Fatalf("types = %v; want %v", got, tc.want)
				}
			}
		})
	}

	stale, err := svc.List(ctx, LogFilter{Type: sc.EventFetchStale})
	if err != nil || len(stale) != 1 {
		t.Fatalf("stale events = %v, %v", stale, err)
	}
	if mid, ok := eventEntity(stale[0]); !ok || mid != 9 {
		t.Fatalf("stale event entity = %d, %v; want 9", mid, ok)
	}
}

func TestEventLogService_Summary(t *testing.T) {
	t.Parallel()

	svc := recordFetchLog(t)
	sum, err := svc.Summary(context.Background(), LogFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 6 {
		t.Fatalf("Total = %d; want 6 (limit is ignored)", sum.Total)
	}
	want := map[string]int{
		sc.EventFetchOK:     2,
		sc.EventFetchEmpty:  1,
		sc.EventFetchStale:  1,
		sc.EventFetchFailed: 1,
		sc.EventToggle:      1,
	}
	for typ, n := range want {
		if sum.Counts[typ] != n {
			t.Fatalf("Counts = %v; want %v", sum.Counts, want)
		}
	}
	if sum.Last.IsZero() {
		t.Fatalf("Last not set")
	}

	empty, err := svc.Summary(context.Background(), LogFilter{EntityID: 42})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if empty.Total != 0 || len(empty.Counts) != len(EventTypes) || !empty.Last.IsZero() {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}
