package models

// PriceLevel is one rung of a runner's back or lay ladder. Level is the
// 0-based position among valid entries of that side, in feed emission order.
type PriceLevel struct {
	Rate  string  `json:"rate"`
	Size  float64 `json:"size"`
	Level int     `json:"level"`
}

// CanonicalRunner is one selection within a market.
type CanonicalRunner struct {
	RunnerName  string       `json:"runnerName"`
	SelectionID int64        `json:"selectionId"`
	Status      string       `json:"status"`
	Back        []PriceLevel `json:"back"`
	Lay         []PriceLevel `json:"lay"`
}

// CanonicalMarket is a normalized market. MarketType is the classified key
// (uppercase), Market keeps the raw display name from the feed.
type CanonicalMarket struct {
	MarketID   string            `json:"marketId"`
	Market     string            `json:"market"`
	Status     string            `json:"status"`
	Inplay     bool              `json:"inplay"`
	MarketType string            `json:"markettype"`
	Min        string            `json:"min"`
	Max        string            `json:"max"`
	Runners    []CanonicalRunner `json:"runners"`
}

// SportRef carries the sport name attached to a canonical event. The feed
// does not always provide one.
type SportRef struct {
	Name string `json:"name"`
}

// CanonicalEvent is the normalized event document stored in the cache.
// Markets are bucketed by the raw (trimmed) market name; the list within a
// bucket preserves first-seen order from the feed.
type CanonicalEvent struct {
	EventID   string                       `json:"eventid"`
	EventName string                       `json:"eventName"`
	Status    string                       `json:"status"`
	Inplay    bool                         `json:"inplay"`
	Sport     SportRef                     `json:"sport"`
	Markets   map[string][]CanonicalMarket `json:"markets"`
}

// MarketCount reports how many markets the event currently exposes across
// all groups.
func (e *CanonicalEvent) MarketCount() int {
	n := 0
	for _, group := range e.Markets {
		n += len(group)
	}
	return n
}
