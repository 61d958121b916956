package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/PrathamTagline/d247-be/internal/tree"
	"github.com/PrathamTagline/d247-be/pkg/models"
)

// stubTreeStore serves canned tree rows to the listing handlers.
type stubTreeStore struct {
	sports []models.Sport
	events []models.Event
}

func (s *stubTreeStore) WithinTx(ctx context.Context, fn func(tx tree.Tx) error) error {
	return nil
}

func (s *stubTreeStore) ListSports(ctx context.Context) ([]models.Sport, error) {
	return s.sports, nil
}

func (s *stubTreeStore) SportByEventTypeID(ctx context.Context, eventTypeID int64) (*models.Sport, error) {
	for i := range s.sports {
		if s.sports[i].EventTypeID == eventTypeID {
			return &s.sports[i], nil
		}
	}
	return nil, nil
}

func (s *stubTreeStore) CompetitionsBySport(ctx context.Context, sportID int64) ([]models.Competition, error) {
	return nil, nil
}

func (s *stubTreeStore) CompetitionByID(ctx context.Context, competitionID, sportID int64) (*models.Competition, error) {
	return nil, nil
}

func (s *stubTreeStore) EventsByCompetition(ctx context.Context, sportID, competitionID int64) ([]models.Event, error) {
	return s.events, nil
}

func (s *stubTreeStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.events, nil
}

func (s *stubTreeStore) EventByID(ctx context.Context, eventID int64) (*models.Event, error) {
	for i := range s.events {
		if s.events[i].EventID == eventID {
			return &s.events[i], nil
		}
	}
	return nil, nil
}

func newTreeRouter(store tree.Store) chi.Router {
	h := NewHandler(nil, store, nil, nil)

	r := chi.NewRouter()
	r.Get("/api/v1/sports", h.ListSports)
	r.Get("/api/v1/events/{eventID}", h.GetEvent)
	r.Get("/api/v1/odds/fetch", h.FetchOdds)
	return r
}

func TestListSports(t *testing.T) {
	store := &stubTreeStore{sports: []models.Sport{
		{ID: 1, EventTypeID: 4, Tree: models.TreeT1, Name: "Cricket"},
	}}
	r := newTreeRouter(store)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/sports", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Status bool           `json:"status"`
		Data   []models.Sport `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if !envelope.Status || len(envelope.Data) != 1 || envelope.Data[0].Name != "Cricket" {
		t.Errorf("envelope = %+v, want the stored sport", envelope)
	}
}

func TestGetEvent(t *testing.T) {
	store := &stubTreeStore{events: []models.Event{
		{ID: 1, EventID: 1001, Name: "A vs B", EventTypeID: 4},
	}}
	r := newTreeRouter(store)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/events/1001", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Status bool         `json:"status"`
		Data   models.Event `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if !envelope.Status || envelope.Data.EventID != 1001 || envelope.Data.Name != "A vs B" {
		t.Errorf("envelope = %+v, want event 1001", envelope)
	}
}

func TestGetEventNotFound(t *testing.T) {
	r := newTreeRouter(&stubTreeStore{})

	rec := doRequest(t, r, http.MethodGet, "/api/v1/events/9999", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetEventBadID(t *testing.T) {
	r := newTreeRouter(&stubTreeStore{})

	rec := doRequest(t, r, http.MethodGet, "/api/v1/events/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFetchOddsParamValidation(t *testing.T) {
	r := newTreeRouter(&stubTreeStore{})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"missing sid", "/api/v1/odds/fetch?gmid=1001", http.StatusBadRequest},
		{"missing gmid", "/api/v1/odds/fetch?sid=4", http.StatusBadRequest},
		{"non-numeric", "/api/v1/odds/fetch?sid=x&gmid=y", http.StatusBadRequest},
		// Params are fine but no upstream client is wired.
		{"no upstream", "/api/v1/odds/fetch?sid=4&gmid=1001", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, http.MethodGet, tt.path, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
