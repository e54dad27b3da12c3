package service

import "time"

// Slider sides and units addressed by SliderParams.
const (
	SideStart = "start"
	SideEnd   = "end"

	UnitDay    = "day"
	UnitSecond = "second"
)

// SliderParams moves one of the four sliders.
type SliderParams struct {
	Side  string // "start" | "end"
	Unit  string // "day" | "second"
	Value int
}

// UpdateParams selects the entity to fetch. Zero means the configured default.
type UpdateParams struct {
	EntityID int
}

// UpdateResult describes the fetch started by Update.
type UpdateResult struct {
	EntityID int    `json:"entity_id"`
	Seq      uint64 `json:"seq"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// ToggleResult describes the visibility after Toggle. Seq is 0 when no fetch was started.
type ToggleResult struct {
	Visible bool   `json:"visible"`
	Seq     uint64 `json:"seq"`
}

// LogFilter selects fetch log entries.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // comma separated EventTypes, case-insensitive; "" is all
	EntityID int       // 0 is every entity
	Limit    int       // keep the newest Limit; 0 is no limit
}

// LogSummary counts fetch outcomes. Counts has a key for every EventTypes entry.
type LogSummary struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
	Last   time.Time      `json:"last,omitempty"`
}
