package main

import (
	"database/sql"
	"fmt"

	"signal_chart/internal/chart"
	"signal_chart/internal/config"
	"signal_chart/internal/logger"
	"signal_chart/internal/publisher"
	"signal_chart/internal/rangeselect"
	"signal_chart/internal/repository"
	"signal_chart/internal/repository/db"
	"signal_chart/internal/service"
	"signal_chart/internal/signals"
)

// app holds everything wired from one config.
type app struct {
	db       *sql.DB
	selector *rangeselect.Selector
	ctrl     *chart.Controller
	services *service.Service
	pub      *publisher.Publisher
}

// labelLog shows label changes in the debug log.
type labelLog struct {
	log *logger.Logger
}

func (l labelLog) ShowStart(text string) { l.log.Debugw("range_start_label", "start", text) }
func (l labelLog) ShowEnd(text string)   { l.log.Debugw("range_end_label", "end", text) }

func buildApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	repos := repository.NewRepository(conn)

	base, err := cfg.Range.BaseTime()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	sel := rangeselect.New(base, cfg.Range.Days)
	sel.Subscribe(labelLog{log: log})
	sel.Init()

	client := signals.NewClient(cfg.Source.BaseURL, cfg.Source.Timeout)
	wedges := chart.NewWedges(cfg.Chart.Segments)
	ctrl := chart.NewController(client, chart.AsSegments(wedges), repos.EventRepo, log, chart.Config{
		DiscardStale: cfg.Chart.DiscardStale,
		Visible:      cfg.Chart.Visible,
	})

	a := &app{db: conn, selector: sel, ctrl: ctrl}

	if cfg.MQTT.Enabled {
		pub, err := publisher.New(cfg.MQTT, log)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		ctrl.Subscribe(pub)
		a.pub = pub
	}

	a.services = service.NewService(repos, service.Deps{
		Selector:        sel,
		Controller:      ctrl,
		DefaultEntityID: cfg.Chart.DefaultEntityID,
		Auth: service.AuthConfig{
			Username:     cfg.Auth.Username,
			PasswordHash: cfg.Auth.PasswordHash,
			SigningKey:   cfg.Auth.SigningKey,
			TokenTTL:     cfg.Auth.TokenTTL,
		},
		Log: log,
	})
	return a, nil
}

// close waits for in-flight fetches before releasing the broker and database.
func (a *app) close() error {
	a.ctrl.Wait()
	if a.pub != nil {
		a.pub.Close()
	}
	return a.db.Close()
}
