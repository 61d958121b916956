package tree

import (
	"context"
	"fmt"

	"github.com/PrathamTagline/d247-be/internal/normalizer"
	"github.com/PrathamTagline/d247-be/pkg/models"
)

// Reconcile recomputes the event's market-id set from a fresh odds payload
// and stores it together with the counts in one transaction. A payload with
// no recognizable structure is skipped without error; a write failure is
// returned so the caller can log it, but reconciliation is best-effort and
// callers never let it cancel the surrounding fan-out.
func Reconcile(ctx context.Context, store Store, event models.Event, doc interface{}) error {
	if doc == nil {
		treeLog.Warnf("no odds payload for event %s (%d), skipping reconciliation", event.Name, event.EventID)
		return nil
	}

	mids := normalizer.ExtractMarketIDs(doc)

	err := store.WithinTx(ctx, func(tx Tx) error {
		return tx.UpdateMarketIDs(ctx, event.EventID, mids)
	})
	if err != nil {
		return fmt.Errorf("storing %d market ids for event %d: %w", len(mids), event.EventID, err)
	}

	treeLog.WithField("event_id", event.EventID).Debugf("stored %d market ids", len(mids))
	return nil
}
