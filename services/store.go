package services

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"levelUpAPI/internal/gateway"
)

// PgStore bundles the pgx-backed services into the full gateway surface.
type PgStore struct {
	*PlayerService
	*SubmissionService
	*ClassService
}

var _ gateway.Store = (*PgStore)(nil)

func NewPgStore(db *pgxpool.Pool, notifService *NotificationService) *PgStore {
	return &PgStore{
		PlayerService:     NewPlayerService(db),
		SubmissionService: NewSubmissionService(db, notifService),
		ClassService:      NewClassService(db),
	}
}
