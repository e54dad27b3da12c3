package signal_chart

import "time"

// Signal names one of the four mutually exclusive signal categories.
type Signal string

const (
	Green  Signal = "green"
	Yellow Signal = "yellow"
	Red    Signal = "red"
	Black  Signal = "black"
)

// PresentationOrder is the wedge order of the pie chart. It intentionally
// differs from the field order of SignalCounts; never index counts positionally.
var PresentationOrder = [4]Signal{Green, Yellow, Red, Black}

// SignalCounts holds the aggregated counts for one entity and time window.
type SignalCounts struct {
	Red    float64 `json:"red" msgpack:"red"`
	Yellow float64 `json:"yellow" msgpack:"yellow"`
	Green  float64 `json:"green" msgpack:"green"`
	Black  float64 `json:"black" msgpack:"black"`
}

// Count returns the count for s, or 0 for an unknown signal.
func (c SignalCounts) Count(s Signal) float64 {
	switch s {
	case Green:
		return c.Green
	case Yellow:
		return c.Yellow
	case Red:
		return c.Red
	case Black:
		return c.Black
	default:
		return 0
	}
}

// Total is the sum of all four counts.
func (c SignalCounts) Total() float64 {
	return c.Green + c.Yellow + c.Red + c.Black
}

// ChartState is the controller-owned snapshot of the pie chart.
type ChartState struct {
	EntityID  int        `json:"entity_id" msgpack:"entity_id"`
	Visible   bool       `json:"visible" msgpack:"visible"`
	Fills     [4]float64 `json:"fills" msgpack:"fills"` // cumulative, PresentationOrder
	Seq       uint64     `json:"seq" msgpack:"seq"`     // token of the fetch that produced Fills
	UpdatedAt time.Time  `json:"updated_at,omitempty" msgpack:"updated_at"`
	Version   uint64     `json:"version" msgpack:"version"` // bumped on every change
}

// DateRangeSelection is a snapshot of the four slider values and the labels derived from them.
type DateRangeSelection struct {
	BaseDate         time.Time `json:"base_date"`
	StartDayOffset   int       `json:"start_day_offset"`
	StartSecondOfDay int       `json:"start_second_of_day"`
	EndDayOffset     int       `json:"end_day_offset"`
	EndSecondOfDay   int       `json:"end_second_of_day"`
	Start            string    `json:"start"`
	End              string    `json:"end"`
}

// Fetch event types recorded in the fetch log.
const (
	EventFetchOK     = "FETCH_OK"
	EventFetchEmpty  = "FETCH_EMPTY"
	EventFetchStale  = "FETCH_STALE"
	EventFetchFailed = "FETCH_FAILED"
	EventToggle      = "TOGGLE"
)

// FetchEvent is a single fetch log entry.
type FetchEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // FETCH_OK | FETCH_EMPTY | FETCH_STALE | FETCH_FAILED | TOGGLE
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
