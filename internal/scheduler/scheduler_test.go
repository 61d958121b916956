package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/PrathamTagline/d247-be/internal/cache"
	"github.com/PrathamTagline/d247-be/internal/metrics"
	"github.com/PrathamTagline/d247-be/internal/tree"
	"github.com/PrathamTagline/d247-be/pkg/models"
)

// fakeFetcher serves canned documents instead of the provider.
type fakeFetcher struct {
	treeDoc interface{}
	oddsDoc interface{}
	oddsErr error
}

func (f *fakeFetcher) TreeRecord(ctx context.Context) (interface{}, error) {
	return f.treeDoc, nil
}

func (f *fakeFetcher) Odds(ctx context.Context, sportID, eventID int64) (interface{}, error) {
	return f.oddsDoc, f.oddsErr
}

// fakeTreeStore records reconciliation writes; the read side returns one
// canned event. It is its own Tx.
type fakeTreeStore struct {
	events     []models.Event
	txErr      error
	reconciled map[int64][]string
}

func newFakeTreeStore(events ...models.Event) *fakeTreeStore {
	return &fakeTreeStore{events: events, reconciled: map[int64][]string{}}
}

func (f *fakeTreeStore) WithinTx(ctx context.Context, fn func(tx tree.Tx) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	return fn(f)
}

func (f *fakeTreeStore) FindSport(ctx context.Context, eventTypeID int64, treeName string) (*models.Sport, error) {
	return nil, nil
}
func (f *fakeTreeStore) CreateSport(ctx context.Context, sport models.Sport) (*models.Sport, error) {
	return &sport, nil
}
func (f *fakeTreeStore) FindCompetition(ctx context.Context, competitionID, sportID int64) (*models.Competition, error) {
	return nil, nil
}
func (f *fakeTreeStore) CreateCompetition(ctx context.Context, competition models.Competition) (*models.Competition, error) {
	return &competition, nil
}
func (f *fakeTreeStore) EventExists(ctx context.Context, eventID int64) (bool, error) {
	return false, nil
}
func (f *fakeTreeStore) CreateEvent(ctx context.Context, event models.Event) error { return nil }
func (f *fakeTreeStore) UpdateMarketIDs(ctx context.Context, eventID int64, marketIDs []string) error {
	f.reconciled[eventID] = marketIDs
	return nil
}

func (f *fakeTreeStore) ListSports(ctx context.Context) ([]models.Sport, error) { return nil, nil }
func (f *fakeTreeStore) SportByEventTypeID(ctx context.Context, eventTypeID int64) (*models.Sport, error) {
	return nil, nil
}
func (f *fakeTreeStore) CompetitionsBySport(ctx context.Context, sportID int64) ([]models.Competition, error) {
	return nil, nil
}
func (f *fakeTreeStore) CompetitionByID(ctx context.Context, competitionID, sportID int64) (*models.Competition, error) {
	return nil, nil
}
func (f *fakeTreeStore) EventsByCompetition(ctx context.Context, sportID, competitionID int64) ([]models.Event, error) {
	return f.events, nil
}
func (f *fakeTreeStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	return f.events, nil
}
func (f *fakeTreeStore) EventByID(ctx context.Context, eventID int64) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].EventID == eventID {
			return &f.events[i], nil
		}
	}
	return nil, nil
}

// failingSetStore wraps a Store and rejects every write.
type failingSetStore struct {
	cache.Store
}

func (s *failingSetStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("redis: connection refused")
}

func oddsDoc(t *testing.T) interface{} {
	t.Helper()
	raw := `{"data":[{"gmid":"1001","ename":"A vs B","mname":"Match Odds","mid":"M1","status":"OPEN",
		"section":[{"nat":"A","sid":1,"odds":[{"otype":"back","odds":1.5,"size":100}]}]}]}`
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return doc
}

func newTestScheduler(fetcher Fetcher, store tree.Store, cacheStore cache.Store) *Scheduler {
	return New(fetcher, store, cacheStore, metrics.NewPipelineMetrics(), Options{
		OddsTTL: time.Minute,
		Workers: 1,
	})
}

func TestRefreshEventCachesAndReconciles(t *testing.T) {
	event := models.Event{EventID: 1001, EventTypeID: 4}
	store := newFakeTreeStore(event)
	cacheStore := cache.NewMemoryStore()
	s := newTestScheduler(&fakeFetcher{oddsDoc: oddsDoc(t)}, store, cacheStore)

	if err := s.refreshEvent(context.Background(), event); err != nil {
		t.Fatalf("refreshEvent: %v", err)
	}

	if _, err := cacheStore.Get(context.Background(), "odds:4:1001"); err != nil {
		t.Errorf("canonical event not cached: %v", err)
	}
	if mids := store.reconciled[1001]; len(mids) != 1 || mids[0] != "M1" {
		t.Errorf("reconciled ids = %v, want [M1]", mids)
	}
}

func TestRefreshEventReconcilesDespiteCacheFailure(t *testing.T) {
	event := models.Event{EventID: 1001, EventTypeID: 4}
	store := newFakeTreeStore(event)
	s := newTestScheduler(&fakeFetcher{oddsDoc: oddsDoc(t)},
		store, &failingSetStore{Store: cache.NewMemoryStore()})

	if err := s.refreshEvent(context.Background(), event); err != nil {
		t.Fatalf("a cache write failure must not fail the unit: %v", err)
	}

	if mids := store.reconciled[1001]; len(mids) != 1 || mids[0] != "M1" {
		t.Errorf("reconciled ids = %v, reconciliation must run after a failed cache write", mids)
	}
}

func TestRefreshEventSurvivesReconcileFailure(t *testing.T) {
	event := models.Event{EventID: 1001, EventTypeID: 4}
	store := newFakeTreeStore(event)
	store.txErr = errors.New("deadlock detected")
	cacheStore := cache.NewMemoryStore()
	s := newTestScheduler(&fakeFetcher{oddsDoc: oddsDoc(t)}, store, cacheStore)

	if err := s.refreshEvent(context.Background(), event); err != nil {
		t.Fatalf("a reconcile failure must not fail the unit: %v", err)
	}

	if _, err := cacheStore.Get(context.Background(), "odds:4:1001"); err != nil {
		t.Errorf("cache write must survive the reconcile failure: %v", err)
	}
	if len(store.reconciled) != 0 {
		t.Errorf("reconciled = %v, want none recorded", store.reconciled)
	}
}

func TestRefreshEventNoDataIsNotAFailure(t *testing.T) {
	event := models.Event{EventID: 1001, EventTypeID: 4}
	store := newFakeTreeStore(event)
	cacheStore := cache.NewMemoryStore()
	s := newTestScheduler(&fakeFetcher{oddsDoc: map[string]interface{}{}}, store, cacheStore)

	if err := s.refreshEvent(context.Background(), event); err != nil {
		t.Fatalf("an empty feed must not fail the unit: %v", err)
	}

	if _, err := cacheStore.Get(context.Background(), "odds:4:1001"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("nothing should be cached for an empty feed, got %v", err)
	}
	if len(store.reconciled) != 0 {
		t.Errorf("reconciled = %v, want none for an empty feed", store.reconciled)
	}
}

func TestRefreshEventFetchFailure(t *testing.T) {
	event := models.Event{EventID: 1001, EventTypeID: 4}
	store := newFakeTreeStore(event)
	boom := errors.New("unexpected status 503")
	s := newTestScheduler(&fakeFetcher{oddsErr: boom}, store, cache.NewMemoryStore())

	if err := s.refreshEvent(context.Background(), event); !errors.Is(err, boom) {
		t.Errorf("error = %v, want the wrapped fetch failure", err)
	}
}
