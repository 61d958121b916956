package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PrathamTagline/d247-be/internal/query"
)

// GetEventOdds returns the full cached canonical event.
// GET /api/v1/odds/{eventID}
func (h *Handler) GetEventOdds(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		respondError(w, http.StatusBadRequest, "event_id is required", nil)
		return
	}

	event, err := h.engine.EventOdds(r.Context(), eventID)
	if errors.Is(err, query.ErrNotFound) {
		respondEmpty(w, fmt.Sprintf("no odds data found for event %s", eventID))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve odds", err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// FilterEventOdds returns the cached event filtered by market ids and,
// when present in the URL, by market type.
// POST /api/v1/odds/{eventID} and POST /api/v1/odds/{eventID}/{marketType}
// Body: {"market_ids": ["..."]} or a bare JSON list of ids.
func (h *Handler) FilterEventOdds(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		respondError(w, http.StatusBadRequest, "event_id is required", nil)
		return
	}

	marketIDs, err := decodeMarketIDs(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	event, err := h.engine.EventOdds(r.Context(), eventID)
	if errors.Is(err, query.ErrNotFound) {
		respondEmpty(w, fmt.Sprintf("no odds data found for event %s", eventID))
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve odds", err)
		return
	}

	query.FilterByMarketIDs(event, marketIDs)
	if marketType := chi.URLParam(r, "marketType"); marketType != "" {
		query.FilterByMarketType(event, marketType)
	}

	respondJSON(w, http.StatusOK, event)
}

// SearchMarkets resolves market ids across every cached event.
// POST /api/v1/odds/markets/search
// Body: {"market_ids": ["..."]} or a bare JSON list of ids.
func (h *Handler) SearchMarkets(w http.ResponseWriter, r *http.Request) {
	marketIDs, err := decodeMarketIDs(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(marketIDs) == 0 {
		respondError(w, http.StatusBadRequest, "market_ids is required", nil)
		return
	}

	result, err := h.engine.FindMarkets(r.Context(), marketIDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to search markets", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// FetchOdds proxies the provider's raw odds document for one event,
// bypassing the cache. Decrypted but otherwise untouched.
// GET /api/v1/odds/fetch?sid=&gmid=
func (h *Handler) FetchOdds(w http.ResponseWriter, r *http.Request) {
	sportID, err := parseInt64Param(r.URL.Query().Get("sid"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sport id", err)
		return
	}
	eventID, err := parseInt64Param(r.URL.Query().Get("gmid"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event id", err)
		return
	}

	if h.upstream == nil {
		respondError(w, http.StatusServiceUnavailable, "upstream client not configured", nil)
		return
	}

	doc, err := h.upstream.Odds(r.Context(), sportID, eventID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch odds data", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": true,
		"data":   doc,
	})
}

// GetHighlight proxies the provider's highlight-home document for one event
// type, decrypted but otherwise untouched.
// GET /api/v1/highlight/{eventTypeID}
func (h *Handler) GetHighlight(w http.ResponseWriter, r *http.Request) {
	if h.upstream == nil {
		respondError(w, http.StatusServiceUnavailable, "upstream client not configured", nil)
		return
	}

	eventTypeID, err := parseInt64Param(chi.URLParam(r, "eventTypeID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event type id", err)
		return
	}

	doc, err := h.upstream.Highlight(r.Context(), eventTypeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch highlight data", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": true,
		"data":   doc,
	})
}

// decodeMarketIDs accepts both body shapes clients send: a bare list or an
// object with a market_ids field. An empty body means no filter.
func decodeMarketIDs(r *http.Request) ([]string, error) {
	if r.Body == nil {
		return nil, nil
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapper struct {
		MarketIDs []string `json:"market_ids"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.MarketIDs, nil
}
