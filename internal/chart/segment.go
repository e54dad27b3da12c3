package chart

import "sync"

// Segment is one visual wedge of the pie chart.
type Segment interface {
	SetFill(fraction float64)
}

// Wedge is an in-memory Segment.
type Wedge struct {
	mu   sync.RWMutex
	fill float64
}

func (w *Wedge) SetFill(fraction float64) {
	w.mu.Lock()
	w.fill = fraction
	w.mu.Unlock()
}

func (w *Wedge) Fill() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fill
}

// NewWedges returns n empty wedges.
func NewWedges(n int) []*Wedge {
	if n < 0 {
		n = 0
	}
	out := make([]*Wedge, n)
	for i := range out {
		out[i] = &Wedge{}
	}
	return out
}

// AsSegments adapts wedges to the Segment interface.
func AsSegments(wedges []*Wedge) []Segment {
	out := make([]Segment, len(wedges))
	for i, w := range wedges {
		out[i] = w
	}
	return out
}
