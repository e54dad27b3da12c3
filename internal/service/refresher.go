package service

import (
	"context"
	"errors"
	"time"

	"signal_chart/internal/chart"
	"signal_chart/internal/logger"
	"signal_chart/internal/rangeselect"
)

// RefresherService periodically re-fetches the visible chart for the current entity.
type RefresherService struct {
	ctrl *chart.Controller
	sel  *rangeselect.Selector
	log  *logger.Logger
}

func NewRefresherService(ctrl *chart.Controller, sel *rangeselect.Selector, log *logger.Logger) *RefresherService {
	if log == nil {
		log = logger.Nop()
	}
	return &RefresherService{ctrl: ctrl, sel: sel, log: log}
}

// Run ticks at the given interval until ctx is canceled. A non-positive tick disables it.
func (s *RefresherService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		s.log.Infow("refresher_disabled")
		return
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.refreshOnce(ctx)
		}
	}
}

// refreshOnce fetches synchronously so ticks never pile up behind a slow source.
// It never selects an entity; that is left to update requests.
func (s *RefresherService) refreshOnce(ctx context.Context) bool {
	if !s.ctrl.State().Visible {
		return false
	}
	start, end := s.sel.Labels()
	// failures are already logged and recorded by the controller
	if err := s.ctrl.RefreshCurrent(ctx, start, end); errors.Is(err, chart.ErrNoEntity) {
		return false
	}
	return true
}
