package service

import (
	"context"
	"errors"

	sc "signal_chart"
	"signal_chart/internal/chart"
	"signal_chart/internal/rangeselect"
)

var ErrInvalidEntity = errors.New("entity id must be positive")

// ChartService feeds the currently displayed labels into the chart controller.
type ChartService struct {
	ctrl          *chart.Controller
	sel           *rangeselect.Selector
	defaultEntity int
}

func NewChartService(ctrl *chart.Controller, sel *rangeselect.Selector, defaultEntity int) *ChartService {
	return &ChartService{ctrl: ctrl, sel: sel, defaultEntity: defaultEntity}
}

// Update starts an asynchronous fetch for p.EntityID (or the default entity)
// over the displayed start and end labels.
func (s *ChartService) Update(ctx context.Context, p UpdateParams) (UpdateResult, error) {
	mid := p.EntityID
	if mid == 0 {
		mid = s.defaultEntity
	}
	if mid <= 0 {
		return UpdateResult{}, ErrInvalidEntity
	}

	start, end := s.sel.Labels()
	seq := s.ctrl.RequestUpdate(detach(ctx), mid, start, end)
	return UpdateResult{EntityID: mid, Seq: seq, Start: start, End: end}, nil
}

// Toggle flips chart visibility, refreshing with the displayed labels when shown.
func (s *ChartService) Toggle(ctx context.Context) (ToggleResult, error) {
	start, end := s.sel.Labels()
	visible, seq := s.ctrl.ToggleVisibility(detach(ctx), start, end)
	return ToggleResult{Visible: visible, Seq: seq}, nil
}

func (s *ChartService) State() sc.ChartState { return s.ctrl.State() }

func (s *ChartService) Subscribe(l chart.Listener) { s.ctrl.Subscribe(l) }

// detach keeps request values but lets the fetch outlive the HTTP request.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
