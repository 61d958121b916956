package tree

import (
	"context"
	"fmt"
	"time"

	"github.com/PrathamTagline/d247-be/internal/logger"
	"github.com/PrathamTagline/d247-be/internal/rawdoc"
	"github.com/PrathamTagline/d247-be/pkg/models"
)

// openDateFormat is the fixed format the provider uses for t2 event start
// times, e.g. "10/31/2026 07:30:00 PM".
const openDateFormat = "01/02/2006 03:04:05 PM"

var treeLog = logger.WithComponent("tree")

// Sync upserts the hierarchy from a raw tree record as one atomic unit.
// Nodes are insert-only: once a row exists for its unique key it is never
// mutated, even when the upstream name drifts. Running the same input twice
// creates nothing.
func Sync(ctx context.Context, store Store, doc interface{}) error {
	root, ok := rawdoc.Map(doc)
	if !ok {
		return fmt.Errorf("tree: payload is not an object")
	}
	data, _ := rawdoc.Map(root["data"])

	return store.WithinTx(ctx, func(tx Tx) error {
		if t1, ok := rawdoc.List(data["t1"]); ok {
			for _, item := range t1 {
				if err := syncT1Sport(ctx, tx, item); err != nil {
					return err
				}
			}
		}
		if t2, ok := rawdoc.List(data["t2"]); ok {
			for _, item := range t2 {
				if err := syncT2Sport(ctx, tx, item); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// syncT1Sport walks Sport → Competition → Event.
func syncT1Sport(ctx context.Context, tx Tx, item interface{}) error {
	raw, ok := rawdoc.Map(item)
	if !ok {
		return nil
	}

	sport, err := findOrCreateSport(ctx, tx, raw, models.TreeT1)
	if err != nil {
		return err
	}

	children, _ := rawdoc.List(raw["children"])
	for _, child := range children {
		compRaw, ok := rawdoc.Map(child)
		if !ok {
			continue
		}

		competition, err := findOrCreateCompetition(ctx, tx, compRaw, sport.ID)
		if err != nil {
			return err
		}

		events, _ := rawdoc.List(compRaw["children"])
		for _, eventItem := range events {
			eventRaw, ok := rawdoc.Map(eventItem)
			if !ok {
				continue
			}
			competitionID := competition.ID
			err := createEventIfAbsent(ctx, tx, eventRaw, models.Event{
				SportID:       sport.ID,
				CompetitionID: &competitionID,
			}, nil)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// syncT2Sport walks Sport → Event. t2 events carry an optional start time.
func syncT2Sport(ctx context.Context, tx Tx, item interface{}) error {
	raw, ok := rawdoc.Map(item)
	if !ok {
		return nil
	}

	sport, err := findOrCreateSport(ctx, tx, raw, models.TreeT2)
	if err != nil {
		return err
	}

	children, _ := rawdoc.List(raw["children"])
	for _, eventItem := range children {
		eventRaw, ok := rawdoc.Map(eventItem)
		if !ok {
			continue
		}

		var openDate *time.Time
		if stamp := rawdoc.Str(eventRaw["sdatetime"]); stamp != "" {
			if parsed, err := time.Parse(openDateFormat, stamp); err == nil {
				openDate = &parsed
			} else {
				// A bad date never aborts the sync, the field stays null.
				treeLog.Warnf("unparsable event date %q, storing null", stamp)
			}
		}

		err := createEventIfAbsent(ctx, tx, eventRaw, models.Event{SportID: sport.ID}, openDate)
		if err != nil {
			return err
		}
	}
	return nil
}

func findOrCreateSport(ctx context.Context, tx Tx, raw map[string]interface{}, tree string) (*models.Sport, error) {
	eventTypeID := rawdoc.Int64(raw["etid"])

	sport, err := tx.FindSport(ctx, eventTypeID, tree)
	if err != nil {
		return nil, fmt.Errorf("finding sport %d/%s: %w", eventTypeID, tree, err)
	}
	if sport != nil {
		return sport, nil
	}

	sport, err = tx.CreateSport(ctx, models.Sport{
		EventTypeID: eventTypeID,
		OID:         rawdoc.NumStr(raw["oid"]),
		Tree:        tree,
		Name:        rawdoc.Str(raw["name"]),
	})
	if err != nil {
		return nil, fmt.Errorf("creating sport %d/%s: %w", eventTypeID, tree, err)
	}
	return sport, nil
}

func findOrCreateCompetition(ctx context.Context, tx Tx, raw map[string]interface{}, sportID int64) (*models.Competition, error) {
	competitionID := rawdoc.Int64(raw["cid"])

	competition, err := tx.FindCompetition(ctx, competitionID, sportID)
	if err != nil {
		return nil, fmt.Errorf("finding competition %d: %w", competitionID, err)
	}
	if competition != nil {
		return competition, nil
	}

	competition, err = tx.CreateCompetition(ctx, models.Competition{
		CompetitionID: competitionID,
		Name:          rawdoc.Str(raw["name"]),
		Region:        rawdoc.Str(raw["region"]),
		SportID:       sportID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating competition %d: %w", competitionID, err)
	}
	return competition, nil
}

func createEventIfAbsent(ctx context.Context, tx Tx, raw map[string]interface{}, event models.Event, openDate *time.Time) error {
	eventID := rawdoc.Int64(raw["gmid"])

	exists, err := tx.EventExists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("checking event %d: %w", eventID, err)
	}
	if exists {
		return nil
	}

	event.EventID = eventID
	event.Name = rawdoc.Str(raw["name"])
	event.OpenDate = openDate
	if err := tx.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("creating event %d: %w", eventID, err)
	}
	return nil
}
