package service

import (
	"errors"
	"fmt"

	sc "signal_chart"
	"signal_chart/internal/rangeselect"
)

var (
	ErrUnknownSlider = errors.New("unknown slider")
	ErrOutOfBounds   = errors.New("value out of bounds")
)

// RangeService validates slider input against the selector bounds.
type RangeService struct {
	sel *rangeselect.Selector
}

func NewRangeService(sel *rangeselect.Selector) *RangeService {
	return &RangeService{sel: sel}
}

func (s *RangeService) Selection() sc.DateRangeSelection { return s.sel.Selection() }

func (s *RangeService) Bounds() rangeselect.Bounds { return s.sel.Bounds() }

// SetSlider stores p.Value into the addressed slider. Out of range values
// leave the selection unchanged.
func (s *RangeService) SetSlider(p SliderParams) (sc.DateRangeSelection, error) {
	b := s.sel.Bounds()

	var (
		set func(int)
		ok  bool
	)
	switch {
	case p.Side == SideStart && p.Unit == UnitDay:
		set, ok = s.sel.SetStartDayOffset, b.ContainsDay(p.Value)
	case p.Side == SideStart && p.Unit == UnitSecond:
		set, ok = s.sel.SetStartSecondOfDay, b.ContainsSecond(p.Value)
	case p.Side == SideEnd && p.Unit == UnitDay:
		set, ok = s.sel.SetEndDayOffset, b.ContainsDay(p.Value)
	case p.Side == SideEnd && p.Unit == UnitSecond:
		set, ok = s.sel.SetEndSecondOfDay, b.ContainsSecond(p.Value)
	default:
		return sc.DateRangeSelection{}, fmt.Errorf("%w: %s/%s", ErrUnknownSlider, p.Side, p.Unit)
	}
	if !ok {
		return sc.DateRangeSelection{}, fmt.Errorf("%w: %s %s %d", ErrOutOfBounds, p.Side, p.Unit, p.Value)
	}

	set(p.Value)
	return s.sel.Selection(), nil
}
