// Package query answers odds lookups against the cache: locate the stored
// canonical event for an event id and return optionally filtered views.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/PrathamTagline/d247-be/internal/cache"
	"github.com/PrathamTagline/d247-be/internal/logger"
	"github.com/PrathamTagline/d247-be/pkg/models"
)

// ErrNotFound means no cached document could be located for the event id.
var ErrNotFound = errors.New("query: event odds not found")

// typeSynonyms maps the canonical filter tokens clients send to the
// classifier keys the stored documents carry. Unmapped tokens fall back to
// their lowercased form.
var typeSynonyms = map[string]string{
	"match_odds": "odds",
	"bookmaker":  "bookmaker",
	"fancy":      "fancy",
	"session":    "session",
	"toss":       "toss",
}

// Engine resolves cached canonical events. It only reads; cache errors on a
// single key degrade to a miss for that key, never fail the whole lookup.
type Engine struct {
	store cache.Store
	log   *logrus.Entry
}

// NewEngine creates a query engine over the given cache store.
func NewEngine(store cache.Store) *Engine {
	return &Engine{
		store: store,
		log:   logger.WithComponent("query"),
	}
}

// EventOdds locates the cached canonical event for eventID. Lookup order:
// the degraded direct key odds:{eventID}, then a scan of odds:*:* comparing
// each document's stored event id, then odds:*:{eventID} as a last-chance
// exact-suffix match.
func (e *Engine) EventOdds(ctx context.Context, eventID string) (*models.CanonicalEvent, error) {
	if event, ok := e.load(ctx, "odds:"+eventID); ok {
		return event, nil
	}

	keys, err := e.store.ScanKeys(ctx, "odds:*:*")
	if err != nil {
		return nil, fmt.Errorf("scanning odds keys: %w", err)
	}
	for _, key := range keys {
		data, ok := e.loadRaw(ctx, key)
		if !ok {
			continue
		}
		if storedEventID(data) != eventID {
			continue
		}
		if event, ok := e.decode(key, data); ok {
			return event, nil
		}
	}

	keys, err = e.store.ScanKeys(ctx, "odds:*:"+eventID)
	if err != nil {
		return nil, fmt.Errorf("scanning odds suffix keys: %w", err)
	}
	for _, key := range keys {
		if event, ok := e.load(ctx, key); ok {
			return event, nil
		}
	}

	return nil, ErrNotFound
}

// FilterByMarketIDs keeps only markets whose id is in ids, dropping groups
// that become empty. A nil or empty filter leaves the event untouched.
func FilterByMarketIDs(event *models.CanonicalEvent, ids []string) {
	if len(ids) == 0 {
		return
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	filtered := map[string][]models.CanonicalMarket{}
	for group, markets := range event.Markets {
		var keep []models.CanonicalMarket
		for _, market := range markets {
			if wanted[market.MarketID] {
				keep = append(keep, market)
			}
		}
		if len(keep) > 0 {
			filtered[group] = keep
		}
	}
	event.Markets = filtered
}

// FilterByMarketType keeps only groups matching the type token. A group
// matches when the token (after synonym resolution, case-insensitive)
// equals the group key, a contained market's display name, or its
// classified type.
func FilterByMarketType(event *models.CanonicalEvent, token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return
	}
	if mapped, ok := typeSynonyms[token]; ok {
		token = mapped
	}

	filtered := map[string][]models.CanonicalMarket{}
	for group, markets := range event.Markets {
		if groupMatchesType(group, markets, token) {
			filtered[group] = markets
		}
	}
	event.Markets = filtered
}

func groupMatchesType(group string, markets []models.CanonicalMarket, token string) bool {
	if strings.ToLower(group) == token {
		return true
	}
	for _, market := range markets {
		if strings.ToLower(market.Market) == token || strings.ToLower(market.MarketType) == token {
			return true
		}
	}
	return false
}

// MarketSearchResult is the outcome of a bulk market-id search.
type MarketSearchResult struct {
	// Found maps each located market id to the owning event, filtered down
	// to that market.
	Found map[string]*models.CanonicalEvent `json:"found"`
	// NotFound lists the requested ids no cached event contains.
	NotFound []string `json:"not_found"`
}

// FindMarkets scans every cached odds document and resolves each requested
// market id to the first event containing it.
func (e *Engine) FindMarkets(ctx context.Context, ids []string) (*MarketSearchResult, error) {
	keys, err := e.store.ScanKeys(ctx, "odds:*")
	if err != nil {
		return nil, fmt.Errorf("scanning odds keys: %w", err)
	}

	// One pass over the cache, indexing market id -> raw document key.
	owners := map[string]string{}
	for _, key := range keys {
		event, ok := e.load(ctx, key)
		if !ok {
			continue
		}
		for _, markets := range event.Markets {
			for _, market := range markets {
				if _, taken := owners[market.MarketID]; !taken {
					owners[market.MarketID] = key
				}
			}
		}
	}

	result := &MarketSearchResult{Found: map[string]*models.CanonicalEvent{}}
	for _, id := range ids {
		key, ok := owners[id]
		if !ok {
			result.NotFound = append(result.NotFound, id)
			continue
		}
		event, ok := e.load(ctx, key)
		if !ok {
			result.NotFound = append(result.NotFound, id)
			continue
		}
		FilterByMarketIDs(event, []string{id})
		result.Found[id] = event
	}

	return result, nil
}

// load reads and decodes one cached document. Any failure is logged and
// reported as a miss for that key.
func (e *Engine) load(ctx context.Context, key string) (*models.CanonicalEvent, bool) {
	data, ok := e.loadRaw(ctx, key)
	if !ok {
		return nil, false
	}
	return e.decode(key, data)
}

func (e *Engine) loadRaw(ctx context.Context, key string) ([]byte, bool) {
	data, err := e.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			e.log.WithError(err).WithField("key", key).Warn("cache read failed, treating as miss")
		}
		return nil, false
	}
	return data, true
}

func (e *Engine) decode(key string, data []byte) (*models.CanonicalEvent, bool) {
	var event models.CanonicalEvent
	if err := json.Unmarshal(data, &event); err != nil {
		e.log.WithError(err).WithField("key", key).Warn("undecodable cache document, skipping")
		return nil, false
	}
	return &event, true
}

// storedEventID probes a raw document for its event id. Documents written
// by older pipelines carry "eventId" instead of "eventid"; both are
// accepted and string-compared.
func storedEventID(data []byte) string {
	var probe struct {
		EventID string `json:"eventid"`
		AltID   string `json:"eventId"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	if probe.EventID != "" {
		return probe.EventID
	}
	return probe.AltID
}
