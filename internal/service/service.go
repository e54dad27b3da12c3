package service

import (
	"context"
	"time"

	sc "signal_chart"
	"signal_chart/internal/chart"
	"signal_chart/internal/logger"
	"signal_chart/internal/rangeselect"
	"signal_chart/internal/repository"
)

type Authorization interface {
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Range exposes the four sliders and the labels derived from them.
type Range interface {
	Selection() sc.DateRangeSelection
	Bounds() rangeselect.Bounds
	SetSlider(p SliderParams) (sc.DateRangeSelection, error)
}

// Chart exposes the update and visibility triggers and the resulting state.
type Chart interface {
	Update(ctx context.Context, p UpdateParams) (UpdateResult, error)
	Toggle(ctx context.Context) (ToggleResult, error)
	State() sc.ChartState
	Subscribe(l chart.Listener)
}

// EventLog exposes the fetch log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]sc.FetchEvent, error)
	Summary(ctx context.Context, f LogFilter) (LogSummary, error)
}

// Refresher re-fetches the shown chart in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Refresher interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Range
	Chart
	EventLog
	Refresher
	Authorization
}

// Deps carries the already built domain objects the services sit on.
type Deps struct {
	Selector        *rangeselect.Selector
	Controller      *chart.Controller
	DefaultEntityID int
	Auth            AuthConfig
	Log             *logger.Logger
}

// NewService wires repository layer and domain objects into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Range:         NewRangeService(deps.Selector),
		Chart:         NewChartService(deps.Controller, deps.Selector, deps.DefaultEntityID),
		EventLog:      NewEventLogService(repos.EventRepo),
		Refresher:     NewRefresherService(deps.Controller, deps.Selector, deps.Log),
		Authorization: NewAuthService(deps.Auth),
	}
}
