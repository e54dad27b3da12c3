package chart

import (
	sc "signal_chart"
)

// ComputeFillFractions converts counts into cumulative fill fractions in
// PresentationOrder. ok is false when the total is not positive, in which case
// callers must leave the chart untouched.
func ComputeFillFractions(counts sc.SignalCounts) (fills [4]float64, ok bool) {
	total := counts.Total()
	if !(total > 0) {
		return fills, false
	}
	cumulative := 0.0
	for i, s := range sc.PresentationOrder {
		cumulative += counts.Count(s) / total
		fills[i] = cumulative
	}
	return fills, true
}

// Shares undoes the cumulative sum, returning each wedge's own fraction.
func Shares(fills [4]float64) [4]float64 {
	var out [4]float64
	prev := 0.0
	for i, f := range fills {
		share := f - prev
		if share < 0 {
			share = 0
		}
		out[i] = share
		prev = f
	}
	return out
}
