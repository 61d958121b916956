// Package normalizer reshapes heterogeneous upstream odds payloads into the
// one canonical event/market/runner schema stored in the cache.
package normalizer

import (
	"errors"
	"strings"

	"github.com/PrathamTagline/d247-be/internal/rawdoc"
	"github.com/PrathamTagline/d247-be/pkg/models"
)

// ErrNoData means no recognized envelope shape produced any market records.
// Callers treat it as "no data", not as a pipeline failure.
var ErrNoData = errors.New("normalizer: no usable data in payload")

// Normalize assembles one canonical event document from a raw upstream
// payload. The first record seeds the event-level fields; every record with
// a non-empty section list contributes a market. Records that fail to parse
// are skipped individually, never aborting the whole document.
func Normalize(doc interface{}) (*models.CanonicalEvent, error) {
	records := ExtractRecords(doc)
	if len(records) == 0 {
		return nil, ErrNoData
	}

	first, ok := rawdoc.Map(records[0])
	if !ok {
		return nil, ErrNoData
	}

	event := &models.CanonicalEvent{
		EventID:   rawdoc.NumStr(first["gmid"]),
		EventName: rawdoc.Str(first["ename"]),
		Status:    "ACTIVE",
		Inplay:    rawdoc.Bool(first["iplay"]),
		Markets:   map[string][]models.CanonicalMarket{},
	}

	// Statuses are collected in record order so the "first market" fallback
	// of the aggregation is deterministic.
	var statuses []string

	for _, record := range records {
		market, ok := buildMarket(record)
		if !ok {
			continue
		}

		groupKey := strings.TrimSpace(market.Market)
		if groupKey == "" {
			groupKey = "unknown"
		}
		event.Markets[groupKey] = append(event.Markets[groupKey], market)
		statuses = append(statuses, market.Status)
	}

	if len(statuses) > 0 {
		event.Status = AggregateStatus(statuses)
	}

	return event, nil
}

// buildMarket converts one raw market record. Records without a usable
// section list, and markets that end up with zero runners, are dropped.
func buildMarket(record interface{}) (models.CanonicalMarket, bool) {
	m, ok := rawdoc.Map(record)
	if !ok {
		return models.CanonicalMarket{}, false
	}

	sections, ok := rawdoc.List(m["section"])
	if !ok || len(sections) == 0 {
		return models.CanonicalMarket{}, false
	}

	name := rawdoc.Str(m["mname"])
	_, display := Classify(name, rawdoc.Str(m["gtype"]))

	market := models.CanonicalMarket{
		MarketID:   rawdoc.NumStr(m["mid"]),
		Market:     name,
		Status:     rawdoc.Str(m["status"]),
		Inplay:     rawdoc.Bool(m["iplay"]),
		MarketType: display,
		Min:        rawdoc.NumStr(m["min"]),
		Max:        rawdoc.NumStr(m["max"]),
		Runners:    []models.CanonicalRunner{},
	}

	for _, section := range sections {
		s, ok := rawdoc.Map(section)
		if !ok {
			continue
		}

		runner := models.CanonicalRunner{
			RunnerName:  strings.TrimSpace(rawdoc.Str(s["nat"])),
			SelectionID: rawdoc.Int64(s["sid"]),
			Status:      rawdoc.Str(s["gstatus"]),
		}
		runner.Back, runner.Lay = BuildLadder(s["odds"])
		market.Runners = append(market.Runners, runner)
	}

	if len(market.Runners) == 0 {
		return models.CanonicalMarket{}, false
	}
	return market, true
}

// AggregateStatus computes the event status from its markets' statuses,
// with precedence SUSPENDED > OPEN > CLOSED > first status as-is.
func AggregateStatus(statuses []string) string {
	if len(statuses) == 0 {
		return "ACTIVE"
	}
	for _, want := range []string{"SUSPENDED", "OPEN", "CLOSED"} {
		for _, status := range statuses {
			if status == want {
				return want
			}
		}
	}
	return statuses[0]
}

// ExtractMarketIDs collects the deduplicated market ids present in a raw
// odds payload, preserving first-seen order. Shared by the market-id
// reconciler and the ingestion pipeline.
func ExtractMarketIDs(doc interface{}) []string {
	seen := map[string]bool{}
	var mids []string

	for _, record := range ExtractRecords(doc) {
		m, ok := rawdoc.Map(record)
		if !ok {
			continue
		}
		mid := rawdoc.NumStr(m["mid"])
		if mid == "" || seen[mid] {
			continue
		}
		seen[mid] = true
		mids = append(mids, mid)
	}

	return mids
}
