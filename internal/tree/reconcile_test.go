package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/PrathamTagline/d247-be/pkg/models"
)

func TestReconcileStoresDedupedMarketIDs(t *testing.T) {
	store := newFakeStore()
	competitionID := int64(50)
	store.competitions = []models.Competition{{ID: competitionID, CompetitionID: 101}}
	store.events = []models.Event{{ID: 1, EventID: 1001, CompetitionID: &competitionID}}

	doc := treeDoc(t, `{"data":[{"mid":"A"},{"mid":"A"},{"mid":"B"}]}`)
	err := Reconcile(context.Background(), store, store.events[0], doc)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	event := store.events[0]
	if len(event.MarketIDs) != 2 || event.MarketCount != 2 {
		t.Errorf("event market ids = %v count = %d, want 2 deduplicated", event.MarketIDs, event.MarketCount)
	}
	if store.competitions[0].MarketCount != 2 {
		t.Errorf("competition count = %d, want mirrored 2", store.competitions[0].MarketCount)
	}
}

func TestReconcileNilPayloadSkips(t *testing.T) {
	store := newFakeStore()
	store.events = []models.Event{{ID: 1, EventID: 1001, MarketIDs: []string{"A"}, MarketCount: 1}}

	if err := Reconcile(context.Background(), store, store.events[0], nil); err != nil {
		t.Fatalf("nil payload must be a no-op, got %v", err)
	}
	if store.events[0].MarketCount != 1 {
		t.Errorf("nil payload must not touch stored ids, count = %d", store.events[0].MarketCount)
	}
}

func TestReconcileEmptyPayloadClearsIDs(t *testing.T) {
	store := newFakeStore()
	store.events = []models.Event{{ID: 1, EventID: 1001, MarketIDs: []string{"A"}, MarketCount: 1}}

	doc := treeDoc(t, `{"data":[]}`)
	if err := Reconcile(context.Background(), store, store.events[0], doc); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if store.events[0].MarketCount != 0 {
		t.Errorf("payload without markets must clear the set, count = %d", store.events[0].MarketCount)
	}
}

func TestReconcileWrapsWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.txErr = errors.New("connection reset")

	doc := treeDoc(t, `{"data":[{"mid":"A"}]}`)
	err := Reconcile(context.Background(), store, models.Event{EventID: 1001}, doc)
	if err == nil || !errors.Is(err, store.txErr) {
		t.Errorf("error = %v, want the wrapped transaction failure", err)
	}
}
