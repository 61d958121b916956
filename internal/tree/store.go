// Package tree persists the sport→competition→event hierarchy and keeps
// per-event market-id aggregates consistent.
package tree

import (
	"context"

	"github.com/PrathamTagline/d247-be/pkg/models"
)

// Tx is one atomic unit of tree writes. All writes of a sync invocation,
// and the event+competition count update of a reconciliation, go through a
// single Tx so they commit or roll back together.
type Tx interface {
	// FindSport returns the sport for (eventTypeID, tree), or nil.
	FindSport(ctx context.Context, eventTypeID int64, tree string) (*models.Sport, error)
	CreateSport(ctx context.Context, sport models.Sport) (*models.Sport, error)

	// FindCompetition returns the competition for (competitionID, sportID),
	// or nil.
	FindCompetition(ctx context.Context, competitionID, sportID int64) (*models.Competition, error)
	CreateCompetition(ctx context.Context, competition models.Competition) (*models.Competition, error)

	// EventExists checks the globally unique event id.
	EventExists(ctx context.Context, eventID int64) (bool, error)
	CreateEvent(ctx context.Context, event models.Event) error

	// UpdateMarketIDs replaces the event's market-id set and count, and
	// mirrors the count onto the parent competition when there is one.
	UpdateMarketIDs(ctx context.Context, eventID int64, marketIDs []string) error
}

// Store is the relational collaborator: transactional writes plus the read
// queries the API and the scheduler fan-out need.
type Store interface {
	// WithinTx runs fn inside one transaction, committing on nil and
	// rolling back on error.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	ListSports(ctx context.Context) ([]models.Sport, error)
	SportByEventTypeID(ctx context.Context, eventTypeID int64) (*models.Sport, error)
	CompetitionsBySport(ctx context.Context, sportID int64) ([]models.Competition, error)
	CompetitionByID(ctx context.Context, competitionID, sportID int64) (*models.Competition, error)
	EventsByCompetition(ctx context.Context, sportID, competitionID int64) ([]models.Event, error)

	// ListEvents returns every known event with the owning sport's
	// event_type_id joined in.
	ListEvents(ctx context.Context) ([]models.Event, error)
	EventByID(ctx context.Context, eventID int64) (*models.Event, error)
}
