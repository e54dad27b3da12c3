// Package chart turns fetched signal counts into cumulative pie-chart fills.
package chart

import (
	"context"
	"errors"
	"sync"
	"time"

	sc "signal_chart"
	"signal_chart/internal/logger"
)

// ErrStale is returned by Refresh when a newer fetch was issued while this one
// was in flight and stale completions are discarded.
var ErrStale = errors.New("stale fetch discarded")

// ErrNoEntity is returned by RefreshCurrent before any entity has been selected.
var ErrNoEntity = errors.New("no entity selected")

// Fetcher retrieves counts for an entity and a pre-formatted time window.
type Fetcher interface {
	Fetch(ctx context.Context, mid int, start, end string) (sc.SignalCounts, error)
}

// Listener is notified after every chart state change. Deliveries are
// serialized and never go backwards in Version. A listener must not call
// Subscribe, RequestUpdate, Refresh or ToggleVisibility.
type Listener interface {
	ChartUpdated(state sc.ChartState)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(state sc.ChartState)

func (f ListenerFunc) ChartUpdated(state sc.ChartState) { f(state) }

// EventRecorder persists fetch outcomes. Optional.
type EventRecorder interface {
	Append(ctx context.Context, e sc.FetchEvent) error
}

// Config tunes the controller.
type Config struct {
	// DiscardStale drops completions whose token is not the latest issued.
	// When false the last completion to arrive wins.
	DiscardStale bool
	// Visible is the initial visibility.
	Visible bool
}

// Controller owns ChartState. The current entity id is written only by
// RequestUpdate and Refresh; RefreshCurrent and ToggleVisibility reuse it.
type Controller struct {
	fetcher  Fetcher
	segments []Segment
	events   EventRecorder
	log      *logger.Logger
	cfg      Config

	mu        sync.Mutex
	state     sc.ChartState
	issued    uint64
	listeners []Listener

	// notifyMu orders deliveries; delivered is the last Version handed out.
	notifyMu  sync.Mutex
	delivered uint64

	inflight sync.WaitGroup
}

// NewController builds a controller writing into segments. events and log may be nil.
func NewController(fetcher Fetcher, segments []Segment, events EventRecorder, log *logger.Logger, cfg Config) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		fetcher:  fetcher,
		segments: segments,
		events:   events,
		log:      log,
		cfg:      cfg,
		state:    sc.ChartState{Visible: cfg.Visible},
	}
}

// Subscribe registers l for state changes.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// State returns a copy of the current chart state.
func (c *Controller) State() sc.ChartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EntityID returns the currently selected entity.
func (c *Controller) EntityID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.EntityID
}

// RequestUpdate records entityID as current and fetches asynchronously.
// Failures are logged and recorded; they never reach the caller. The returned
// token identifies the fetch.
func (c *Controller) RequestUpdate(ctx context.Context, entityID int, start, end string) uint64 {
	seq := c.issue(entityID)
	c.log.Infow("fetch_requested", "mid", entityID, "start", start, "end", end, "seq", seq)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		_ = c.run(ctx, seq, entityID, start, end)
	}()
	return seq
}

// Refresh is the synchronous form of RequestUpdate. It returns the fetch
// error, ErrStale, or nil (including the zero-total no-op).
func (c *Controller) Refresh(ctx context.Context, entityID int, start, end string) error {
	seq := c.issue(entityID)
	c.log.Infow("fetch_requested", "mid", entityID, "start", start, "end", end, "seq", seq)

	c.inflight.Add(1)
	defer c.inflight.Done()
	return c.run(ctx, seq, entityID, start, end)
}

// RefreshCurrent re-fetches the current entity without changing it. The
// entity is read and the token issued under one lock, so a concurrent
// RequestUpdate either supersedes this fetch or is superseded by it.
func (c *Controller) RefreshCurrent(ctx context.Context, start, end string) error {
	c.mu.Lock()
	mid := c.state.EntityID
	if mid == 0 {
		c.mu.Unlock()
		return ErrNoEntity
	}
	c.issued++
	seq := c.issued
	c.mu.Unlock()
	c.log.Debugw("fetch_refresh", "mid", mid, "start", start, "end", end, "seq", seq)

	c.inflight.Add(1)
	defer c.inflight.Done()
	return c.run(ctx, seq, mid, start, end)
}

// ToggleVisibility flips visibility. When the chart becomes visible and an
// entity has been selected, exactly one fetch is started with start and end
// as given. The returned token is 0 when no fetch was started.
func (c *Controller) ToggleVisibility(ctx context.Context, start, end string) (visible bool, seq uint64) {
	c.mu.Lock()
	c.state.Visible = !c.state.Visible
	c.state.Version++
	visible = c.state.Visible
	mid := c.state.EntityID
	snapshot, listeners := c.state, c.snapshotListeners()
	c.mu.Unlock()

	c.notify(snapshot, listeners)
	c.record(ctx, sc.FetchEvent{
		Type:        sc.EventToggle,
		Description: "Chart visibility toggled",
		Metadata:    map[string]any{"visible": visible, "mid": mid},
	})

	if visible && mid != 0 {
		seq = c.RequestUpdate(ctx, mid, start, end)
	}
	return visible, seq
}

// Wait blocks until every fetch started so far has completed.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) issue(entityID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.EntityID = entityID
	c.issued++
	return c.issued
}

// run is Fetching -> {Success, Failure} -> Idle for one token. Decoding is
// finished inside the fetcher before anything here mutates state.
func (c *Controller) run(ctx context.Context, seq uint64, mid int, start, end string) error {
	meta := map[string]any{"mid": mid, "start": start, "end": end, "seq": seq}

	counts, err := c.fetcher.Fetch(ctx, mid, start, end)
	if err != nil {
		c.log.Errorw("fetch_failed", "err", err, "mid", mid, "seq", seq)
		meta["err"] = err.Error()
		c.record(ctx, sc.FetchEvent{Type: sc.EventFetchFailed, Description: "Failed to fetch data", Metadata: meta})
		return err
	}

	fills, ok := ComputeFillFractions(counts)
	if !ok {
		c.log.Infow("fetch_empty", "mid", mid, "seq", seq)
		c.record(ctx, sc.FetchEvent{Type: sc.EventFetchEmpty, Description: "Zero total; chart unchanged", Metadata: meta})
		return nil
	}

	if !c.apply(seq, fills) {
		c.log.Infow("fetch_stale_discarded", "mid", mid, "seq", seq)
		c.record(ctx, sc.FetchEvent{Type: sc.EventFetchStale, Description: "Superseded by a newer fetch", Metadata: meta})
		return ErrStale
	}

	meta["fills"] = fills
	c.log.Infow("chart_applied", "mid", mid, "seq", seq, "fills", fills)
	c.record(ctx, sc.FetchEvent{Type: sc.EventFetchOK, Description: "Chart updated", Metadata: meta})
	return nil
}

// apply writes fills into the first min(len(segments), 4) segments.
func (c *Controller) apply(seq uint64, fills [4]float64) bool {
	c.mu.Lock()
	if c.cfg.DiscardStale && seq != c.issued {
		c.mu.Unlock()
		return false
	}

	n := min(len(c.segments), len(fills))
	for i := 0; i < n; i++ {
		c.segments[i].SetFill(fills[i])
	}
	c.state.Fills = fills
	c.state.Seq = seq
	c.state.UpdatedAt = time.Now().UTC()
	c.state.Version++
	snapshot, listeners := c.state, c.snapshotListeners()
	c.mu.Unlock()

	c.notify(snapshot, listeners)
	return true
}

func (c *Controller) snapshotListeners() []Listener {
	return append([]Listener(nil), c.listeners...)
}

// notify drops a snapshot when a newer one has already been delivered, so the
// last state every listener sees is the controller's latest.
func (c *Controller) notify(state sc.ChartState, listeners []Listener) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if state.Version <= c.delivered {
		return
	}
	c.delivered = state.Version
	for _, l := range listeners {
		l.ChartUpdated(state)
	}
}

func (c *Controller) record(ctx context.Context, e sc.FetchEvent) {
	if c.events == nil {
		return
	}
	if err := c.events.Append(ctx, e); err != nil {
		c.log.Errorw("fetch_event_append_failed", "err", err, "type", e.Type)
	}
}
