package tree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/PrathamTagline/d247-be/pkg/models"
)

// Postgres implements Store on a relational database.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool and verifies connectivity.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// EnsureSchema creates the tree tables when they don't exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sports (
			id BIGSERIAL PRIMARY KEY,
			event_type_id BIGINT NOT NULL,
			oid TEXT NOT NULL DEFAULT '',
			tree TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			UNIQUE (event_type_id, tree)
		)`,
		`CREATE TABLE IF NOT EXISTS competitions (
			id BIGSERIAL PRIMARY KEY,
			competition_id BIGINT NOT NULL,
			competition_name TEXT NOT NULL DEFAULT '',
			competition_region TEXT NOT NULL DEFAULT '',
			sport_id BIGINT NOT NULL REFERENCES sports(id),
			market_count INT NOT NULL DEFAULT 0,
			UNIQUE (competition_id, sport_id)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			event_id BIGINT NOT NULL UNIQUE,
			event_name TEXT NOT NULL DEFAULT '',
			sport_id BIGINT NOT NULL REFERENCES sports(id),
			competition_id BIGINT REFERENCES competitions(id),
			event_open_date TIMESTAMPTZ,
			market_ids TEXT[] NOT NULL DEFAULT '{}',
			market_count INT NOT NULL DEFAULT 0
		)`,
	}

	for _, statement := range statements {
		if _, err := p.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// WithinTx runs fn in one transaction.
func (p *Postgres) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if commit doesn't happen

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// pgTx implements Tx over one *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) FindSport(ctx context.Context, eventTypeID int64, tree string) (*models.Sport, error) {
	query := `
		SELECT id, event_type_id, oid, tree, name
		FROM sports
		WHERE event_type_id = $1 AND tree = $2
	`
	var s models.Sport
	err := t.tx.QueryRowContext(ctx, query, eventTypeID, tree).
		Scan(&s.ID, &s.EventTypeID, &s.OID, &s.Tree, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sport: %w", err)
	}
	return &s, nil
}

func (t *pgTx) CreateSport(ctx context.Context, sport models.Sport) (*models.Sport, error) {
	query := `
		INSERT INTO sports (event_type_id, oid, tree, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query, sport.EventTypeID, sport.OID, sport.Tree, sport.Name).
		Scan(&sport.ID)
	if err != nil {
		return nil, fmt.Errorf("insert sport: %w", err)
	}
	return &sport, nil
}

func (t *pgTx) FindCompetition(ctx context.Context, competitionID, sportID int64) (*models.Competition, error) {
	query := `
		SELECT id, competition_id, competition_name, competition_region, sport_id, market_count
		FROM competitions
		WHERE competition_id = $1 AND sport_id = $2
	`
	var c models.Competition
	err := t.tx.QueryRowContext(ctx, query, competitionID, sportID).
		Scan(&c.ID, &c.CompetitionID, &c.Name, &c.Region, &c.SportID, &c.MarketCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query competition: %w", err)
	}
	return &c, nil
}

func (t *pgTx) CreateCompetition(ctx context.Context, competition models.Competition) (*models.Competition, error) {
	query := `
		INSERT INTO competitions (competition_id, competition_name, competition_region, sport_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query,
		competition.CompetitionID, competition.Name, competition.Region, competition.SportID).
		Scan(&competition.ID)
	if err != nil {
		return nil, fmt.Errorf("insert competition: %w", err)
	}
	return &competition, nil
}

func (t *pgTx) EventExists(ctx context.Context, eventID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE event_id = $1)`, eventID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query event existence: %w", err)
	}
	return exists, nil
}

func (t *pgTx) CreateEvent(ctx context.Context, event models.Event) error {
	query := `
		INSERT INTO events (event_id, event_name, sport_id, competition_id, event_open_date)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := t.tx.ExecContext(ctx, query,
		event.EventID, event.Name, event.SportID, event.CompetitionID, event.OpenDate)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateMarketIDs(ctx context.Context, eventID int64, marketIDs []string) error {
	if marketIDs == nil {
		marketIDs = []string{}
	}

	_, err := t.tx.ExecContext(ctx, `
		UPDATE events
		SET market_ids = $1, market_count = $2
		WHERE event_id = $3
	`, pq.Array(marketIDs), len(marketIDs), eventID)
	if err != nil {
		return fmt.Errorf("update event market ids: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		UPDATE competitions
		SET market_count = $1
		WHERE id = (SELECT competition_id FROM events WHERE event_id = $2)
	`, len(marketIDs), eventID)
	if err != nil {
		return fmt.Errorf("update competition market count: %w", err)
	}
	return nil
}

const eventColumns = `
	e.id, e.event_id, e.event_name, e.sport_id, s.event_type_id,
	e.competition_id, e.event_open_date, e.market_ids, e.market_count
`

func (p *Postgres) ListSports(ctx context.Context) ([]models.Sport, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, event_type_id, oid, tree, name FROM sports ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query sports: %w", err)
	}
	defer rows.Close()

	var sports []models.Sport
	for rows.Next() {
		var s models.Sport
		if err := rows.Scan(&s.ID, &s.EventTypeID, &s.OID, &s.Tree, &s.Name); err != nil {
			return nil, fmt.Errorf("scan sport: %w", err)
		}
		sports = append(sports, s)
	}
	return sports, rows.Err()
}

func (p *Postgres) SportByEventTypeID(ctx context.Context, eventTypeID int64) (*models.Sport, error) {
	var s models.Sport
	err := p.db.QueryRowContext(ctx, `
		SELECT id, event_type_id, oid, tree, name
		FROM sports
		WHERE event_type_id = $1
		ORDER BY id
		LIMIT 1
	`, eventTypeID).Scan(&s.ID, &s.EventTypeID, &s.OID, &s.Tree, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sport: %w", err)
	}
	return &s, nil
}

func (p *Postgres) CompetitionsBySport(ctx context.Context, sportID int64) ([]models.Competition, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, competition_id, competition_name, competition_region, sport_id, market_count
		FROM competitions
		WHERE sport_id = $1
		ORDER BY id
	`, sportID)
	if err != nil {
		return nil, fmt.Errorf("query competitions: %w", err)
	}
	defer rows.Close()

	var competitions []models.Competition
	for rows.Next() {
		var c models.Competition
		if err := rows.Scan(&c.ID, &c.CompetitionID, &c.Name, &c.Region, &c.SportID, &c.MarketCount); err != nil {
			return nil, fmt.Errorf("scan competition: %w", err)
		}
		competitions = append(competitions, c)
	}
	return competitions, rows.Err()
}

func (p *Postgres) CompetitionByID(ctx context.Context, competitionID, sportID int64) (*models.Competition, error) {
	var c models.Competition
	err := p.db.QueryRowContext(ctx, `
		SELECT id, competition_id, competition_name, competition_region, sport_id, market_count
		FROM competitions
		WHERE competition_id = $1 AND sport_id = $2
	`, competitionID, sportID).
		Scan(&c.ID, &c.CompetitionID, &c.Name, &c.Region, &c.SportID, &c.MarketCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query competition: %w", err)
	}
	return &c, nil
}

func (p *Postgres) EventsByCompetition(ctx context.Context, sportID, competitionID int64) ([]models.Event, error) {
	return p.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		JOIN sports s ON s.id = e.sport_id
		WHERE e.sport_id = $1 AND e.competition_id = $2
		ORDER BY e.id
	`, sportID, competitionID)
}

func (p *Postgres) ListEvents(ctx context.Context) ([]models.Event, error) {
	return p.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		JOIN sports s ON s.id = e.sport_id
		ORDER BY e.id
	`)
}

func (p *Postgres) EventByID(ctx context.Context, eventID int64) (*models.Event, error) {
	events, err := p.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		JOIN sports s ON s.id = e.sport_id
		WHERE e.event_id = $1
	`, eventID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

func (p *Postgres) queryEvents(ctx context.Context, query string, args ...interface{}) ([]models.Event, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var marketIDs pq.StringArray
		err := rows.Scan(
			&e.ID, &e.EventID, &e.Name, &e.SportID, &e.EventTypeID,
			&e.CompetitionID, &e.OpenDate, &marketIDs, &e.MarketCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.MarketIDs = marketIDs
		events = append(events, e)
	}
	return events, rows.Err()
}
