package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PrathamTagline/d247-be/internal/tree"
)

// ListSports returns every known sport.
// GET /api/v1/sports
func (h *Handler) ListSports(w http.ResponseWriter, r *http.Request) {
	sports, err := h.store.ListSports(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve sports", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Sports fetched successfully",
		"data":    sports,
	})
}

// ListCompetitions returns a sport and its competitions.
// GET /api/v1/sports/{eventTypeID}/competitions
func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	eventTypeID, err := parseInt64Param(chi.URLParam(r, "eventTypeID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event type id", err)
		return
	}

	sport, err := h.store.SportByEventTypeID(r.Context(), eventTypeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve sport", err)
		return
	}
	if sport == nil {
		respondError(w, http.StatusNotFound, "sport not found", nil)
		return
	}

	competitions, err := h.store.CompetitionsBySport(r.Context(), sport.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve competitions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       true,
		"message":      "Competition data fetched successfully",
		"sport":        sport,
		"competitions": competitions,
	})
}

// ListEvents returns the events of one competition.
// GET /api/v1/sports/{eventTypeID}/{competitionID}/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	eventTypeID, err := parseInt64Param(chi.URLParam(r, "eventTypeID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event type id", err)
		return
	}
	competitionID, err := parseInt64Param(chi.URLParam(r, "competitionID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid competition id", err)
		return
	}

	sport, err := h.store.SportByEventTypeID(r.Context(), eventTypeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve sport", err)
		return
	}
	if sport == nil {
		respondError(w, http.StatusNotFound, "sport not found", nil)
		return
	}

	competition, err := h.store.CompetitionByID(r.Context(), competitionID, sport.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve competition", err)
		return
	}
	if competition == nil {
		respondError(w, http.StatusNotFound, "competition not found", nil)
		return
	}

	events, err := h.store.EventsByCompetition(r.Context(), sport.ID, competition.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve events", err)
		return
	}
	if len(events) == 0 {
		respondError(w, http.StatusNotFound, "no events found", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      true,
		"message":     "Events fetched successfully",
		"sport":       sport,
		"competition": competition,
		"events":      events,
	})
}

// GetEvent returns one known event by its provider event id.
// GET /api/v1/events/{eventID}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseInt64Param(chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event id", err)
		return
	}

	event, err := h.store.EventByID(r.Context(), eventID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve event", err)
		return
	}
	if event == nil {
		respondError(w, http.StatusNotFound, "event not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Event fetched successfully",
		"data":    event,
	})
}

// SyncTree fetches the provider tree record and syncs the hierarchy on
// demand, outside the periodic schedule.
// POST /api/v1/tree/sync
func (h *Handler) SyncTree(w http.ResponseWriter, r *http.Request) {
	if h.upstream == nil {
		respondError(w, http.StatusServiceUnavailable, "upstream client not configured", nil)
		return
	}

	doc, err := h.upstream.TreeRecord(r.Context())
	if err != nil {
		// Decrypt/auth failures are the one class surfaced to callers.
		respondError(w, http.StatusInternalServerError, "failed to fetch tree record", err)
		return
	}

	if err := tree.Sync(r.Context(), h.store, doc); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to sync tree", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Tree data saved successfully",
	})
}
