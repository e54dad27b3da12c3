package repository

import (
	"context"
	"database/sql"
	"time"

	sc "signal_chart"
)

// EventRepo is the append-only fetch log.
type EventRepo interface {
	Append(ctx context.Context, e sc.FetchEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]sc.FetchEvent, error)
}

type Repository struct {
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
	}
}
