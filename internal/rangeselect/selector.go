// Package rangeselect keeps the four date-range slider values and the two
// timestamp labels derived from them consistent.
package rangeselect

import (
	"sync"
	"time"

	sc "signal_chart"
)

// TimestampLayout is the label and query-parameter format.
const TimestampLayout = "2006-01-02 15:04:05"

// MaxSecondOfDay is the upper bound of a second-of-day slider.
const MaxSecondOfDay = 86399

// Display receives the regenerated labels. Implementations must not call back
// into the Selector.
type Display interface {
	ShowStart(text string)
	ShowEnd(text string)
}

// Bounds are the slider domains the host is expected to clamp to.
type Bounds struct {
	DayMin    int `json:"day_min"`
	DayMax    int `json:"day_max"`
	SecondMin int `json:"second_min"`
	SecondMax int `json:"second_max"`
}

// ContainsDay reports whether v is a valid day offset.
func (b Bounds) ContainsDay(v int) bool { return v >= b.DayMin && v <= b.DayMax }

// ContainsSecond reports whether v is a valid second-of-day.
func (b Bounds) ContainsSecond(v int) bool { return v >= b.SecondMin && v <= b.SecondMax }

// Selector owns the start/end (day offset, second-of-day) pairs.
type Selector struct {
	baseDate  time.Time
	rangeDays int

	// held from storing a value through the last display push for that side
	startRender sync.Mutex
	endRender   sync.Mutex

	mu          sync.RWMutex
	startDay    int
	startSecond int
	endDay      int
	endSecond   int
	startText   string
	endText     string
	displays    []Display
}

// New returns a Selector anchored at baseDate (only its calendar date is used)
// spanning rangeDays days. Call Init before reading labels.
func New(baseDate time.Time, rangeDays int) *Selector {
	if rangeDays < 1 {
		rangeDays = 1
	}
	y, m, d := baseDate.Date()
	return &Selector{
		baseDate:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		rangeDays: rangeDays,
	}
}

// Bounds returns the slider domains.
func (s *Selector) Bounds() Bounds {
	return Bounds{DayMin: 0, DayMax: s.rangeDays - 1, SecondMin: 0, SecondMax: MaxSecondOfDay}
}

// Subscribe registers d for label updates.
func (s *Selector) Subscribe(d Display) {
	s.mu.Lock()
	s.displays = append(s.displays, d)
	s.mu.Unlock()
}

// Init drives every setter once with the current values so both labels are
// populated before any user interaction.
func (s *Selector) Init() {
	s.mu.RLock()
	sd, ss, ed, es := s.startDay, s.startSecond, s.endDay, s.endSecond
	s.mu.RUnlock()

	s.SetStartDayOffset(sd)
	s.SetStartSecondOfDay(ss)
	s.SetEndDayOffset(ed)
	s.SetEndSecondOfDay(es)
}

// FormatTimestamp renders baseDate + dayOffset days + secondOfDay seconds.
func (s *Selector) FormatTimestamp(dayOffset, secondOfDay int) string {
	return FormatTimestamp(s.baseDate, dayOffset, secondOfDay)
}

// FormatTimestamp is the pure form of Selector.FormatTimestamp.
func FormatTimestamp(baseDate time.Time, dayOffset, secondOfDay int) string {
	y, m, d := baseDate.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset)
	return day.Add(time.Duration(secondOfDay) * time.Second).Format(TimestampLayout)
}

func (s *Selector) SetStartDayOffset(v int) {
	s.startRender.Lock()
	defer s.startRender.Unlock()
	s.mu.Lock()
	s.startDay = v
	s.mu.Unlock()
	s.renderStart()
}

func (s *Selector) SetStartSecondOfDay(v int) {
	s.startRender.Lock()
	defer s.startRender.Unlock()
	s.mu.Lock()
	s.startSecond = v
	s.mu.Unlock()
	s.renderStart()
}

func (s *Selector) SetEndDayOffset(v int) {
	s.endRender.Lock()
	defer s.endRender.Unlock()
	s.mu.Lock()
	s.endDay = v
	s.mu.Unlock()
	s.renderEnd()
}

func (s *Selector) SetEndSecondOfDay(v int) {
	s.endRender.Lock()
	defer s.endRender.Unlock()
	s.mu.Lock()
	s.endSecond = v
	s.mu.Unlock()
	s.renderEnd()
}

// Labels returns the currently displayed start and end strings.
func (s *Selector) Labels() (start, end string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startText, s.endText
}

// Selection returns a snapshot of the slider values and labels.
func (s *Selector) Selection() sc.DateRangeSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sc.DateRangeSelection{
		BaseDate:         s.baseDate,
		StartDayOffset:   s.startDay,
		StartSecondOfDay: s.startSecond,
		EndDayOffset:     s.endDay,
		EndSecondOfDay:   s.endSecond,
		Start:            s.startText,
		End:              s.endText,
	}
}

// renderStart and renderEnd run with the side's render mutex held, so
// displays receive labels in the order the values were stored.
func (s *Selector) renderStart() {
	s.mu.Lock()
	s.startText = s.FormatTimestamp(s.startDay, s.startSecond)
	text := s.startText
	displays := append([]Display(nil), s.displays...)
	s.mu.Unlock()

	for _, d := range displays {
		d.ShowStart(text)
	}
}

func (s *Selector) renderEnd() {
	s.mu.Lock()
	s.endText = s.FormatTimestamp(s.endDay, s.endSecond)
	text := s.endText
	displays := append([]Display(nil), s.displays...)
	s.mu.Unlock()

	for _, d := range displays {
		d.ShowEnd(text)
	}
}
