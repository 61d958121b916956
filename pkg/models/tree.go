package models

import "time"

// Tree variants: t1 sports nest events under competitions, t2 sports hang
// events directly off the sport.
const (
	TreeT1 = "t1"
	TreeT2 = "t2"
)

// Sport is one hierarchy root, unique by (event_type_id, tree).
type Sport struct {
	ID          int64  `json:"id"`
	EventTypeID int64  `json:"event_type_id"`
	OID         string `json:"oid"`
	Tree        string `json:"tree"`
	Name        string `json:"name"`
}

// Competition is unique by (competition_id, sport).
type Competition struct {
	ID            int64  `json:"id"`
	CompetitionID int64  `json:"competition_id"`
	Name          string `json:"competition_name"`
	Region        string `json:"competition_region"`
	SportID       int64  `json:"sport_id"`
	MarketCount   int    `json:"market_count"`
}

// Event is a tree leaf, globally unique by EventID. EventTypeID is joined in
// from the owning sport so feed lookups don't need a second query.
type Event struct {
	ID            int64      `json:"id"`
	EventID       int64      `json:"event_id"`
	Name          string     `json:"event_name"`
	SportID       int64      `json:"sport_id"`
	EventTypeID   int64      `json:"event_type_id"`
	CompetitionID *int64     `json:"competition_id,omitempty"`
	OpenDate      *time.Time `json:"event_open_date,omitempty"`
	MarketIDs     []string   `json:"market_ids"`
	MarketCount   int        `json:"market_count"`
}
