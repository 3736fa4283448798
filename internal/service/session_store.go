package service

import (
	"context"
	"database/sql"
	"time"

	"timelog/internal/model"
)

type SessionStore interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	FindOpenTx(ctx context.Context, tx *sql.Tx) (*model.Session, error)
	GetTx(ctx context.Context, tx *sql.Tx, id string) (*model.Session, error)
	FindOverlappingTx(ctx context.Context, tx *sql.Tx, start, end time.Time) ([]model.Session, error)
	InsertTx(ctx context.Context, tx *sql.Tx, session *model.Session) error
	UpdateTx(ctx context.Context, tx *sql.Tx, session *model.Session) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id string) error
	ListInRange(ctx context.Context, from, to time.Time) ([]model.Session, error)
}

type ActivityLookup interface {
	GetTx(ctx context.Context, tx *sql.Tx, id string) (*model.Activity, error)
}
