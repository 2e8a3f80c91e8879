package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/horeca-group/horeca-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_venue":         `SELECT ` + venueColumnsPG + ` FROM venues WHERE id = $1`,
	"insert_visit":      `INSERT INTO visits (id, venue_id, visit_date, sales_person, outcome, duration_minutes, order_placed, order_value, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"insert_activity":   `INSERT INTO activities (id, venue_id, type, description, sales_person, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"mark_stop_visited": `UPDATE route_stops SET visited = TRUE, visited_at = $1 WHERE route_id = $2 AND venue_id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                TEXT NOT NULL,
	address             TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	postal_code         TEXT NOT NULL DEFAULT '',
	latitude            DOUBLE PRECISION NOT NULL,
	longitude           DOUBLE PRECISION NOT NULL,
	phone_number        TEXT NOT NULL DEFAULT '',
	website             TEXT NOT NULL DEFAULT '',
	business_type       TEXT NOT NULL DEFAULT 'restaurant',
	price_level         INTEGER,
	rating              DOUBLE PRECISION,
	review_count        INTEGER,
	current_products    JSONB NOT NULL DEFAULT '[]',
	missing_products    JSONB NOT NULL DEFAULT '[]',
	competitor_products JSONB NOT NULL DEFAULT '[]',
	menu_text           TEXT NOT NULL DEFAULT '',
	platforms           JSONB NOT NULL DEFAULT '{}',
	weekly_visitors     INTEGER NOT NULL DEFAULT 0,
	lead_score          INTEGER NOT NULL DEFAULT 0,
	priority            TEXT NOT NULL DEFAULT 'low',
	status              TEXT NOT NULL DEFAULT 'new',
	assigned_to         TEXT NOT NULL DEFAULT '',
	last_contact_date   TIMESTAMPTZ,
	next_follow_up      TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS routes (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name              TEXT NOT NULL,
	sales_person      TEXT NOT NULL DEFAULT '',
	planned_date      TIMESTAMPTZ NOT NULL,
	status            TEXT NOT NULL DEFAULT 'planned',
	start_lat         DOUBLE PRECISION,
	start_lng         DOUBLE PRECISION,
	total_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
	estimated_minutes INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS route_stops (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	route_id    TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
	venue_id    TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
	order_index INTEGER NOT NULL,
	visited     BOOLEAN NOT NULL DEFAULT FALSE,
	visited_at  TIMESTAMPTZ,
	UNIQUE (route_id, order_index),
	UNIQUE (route_id, venue_id)
);

CREATE TABLE IF NOT EXISTS visits (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	venue_id         TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
	visit_date       TIMESTAMPTZ NOT NULL,
	sales_person     TEXT NOT NULL DEFAULT '',
	outcome          TEXT NOT NULL,
	duration_minutes INTEGER,
	order_placed     BOOLEAN NOT NULL DEFAULT FALSE,
	order_value      DOUBLE PRECISION,
	notes            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS activities (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	venue_id     TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
	type         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	sales_person TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_venues_city ON venues(city);
CREATE INDEX IF NOT EXISTS idx_venues_status ON venues(status);
CREATE INDEX IF NOT EXISTS idx_venues_lead_score ON venues(lead_score DESC);
CREATE INDEX IF NOT EXISTS idx_venues_assigned_to ON venues(assigned_to);
CREATE INDEX IF NOT EXISTS idx_route_stops_route_id ON route_stops(route_id);
CREATE INDEX IF NOT EXISTS idx_visits_venue_id ON visits(venue_id);
CREATE INDEX IF NOT EXISTS idx_visits_sales_person ON visits(sales_person);
CREATE INDEX IF NOT EXISTS idx_activities_venue_id ON activities(venue_id);
CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at DESC);
`

const venueColumnsPG = `id, name, address, city, postal_code, latitude, longitude,
	phone_number, website, business_type, price_level, rating, review_count,
	current_products, missing_products, competitor_products, menu_text,
	platforms, weekly_visitors, lead_score, priority, status, assigned_to,
	last_contact_date, next_follow_up, created_at, updated_at`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateVenue(ctx context.Context, v *model.Venue) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now

	current, missing, competitors, platforms, err := marshalVenueBlobs(v)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO venues (`+venueColumnsPG+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		         $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`,
		v.ID, v.Name, v.Address, v.City, v.PostalCode, v.Latitude, v.Longitude,
		v.PhoneNumber, v.Website, string(v.Type), v.PriceLevel, v.Rating, v.ReviewCount,
		[]byte(current), []byte(missing), []byte(competitors), v.MenuText,
		[]byte(platforms), v.EstimatedWeeklyVisitors, v.LeadScore, string(v.Priority),
		string(v.Status), v.AssignedTo, v.LastContactDate, v.NextFollowUp,
		v.CreatedAt, v.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert venue")
}

func (s *PostgresStore) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+venueColumnsPG+` FROM venues WHERE id = $1`, id)
	v, err := scanVenuePG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get venue %s", id)
	}
	return v, nil
}

func (s *PostgresStore) ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error) {
	query := `SELECT ` + venueColumnsPG + ` FROM venues WHERE true`
	args := []any{}
	argIdx := 1

	addArg := func(clause string, value any) {
		query += fmt.Sprintf(clause, argIdx)
		args = append(args, value)
		argIdx++
	}

	if filter.City != "" {
		addArg(` AND city = $%d`, filter.City)
	}
	if filter.Status != "" {
		addArg(` AND status = $%d`, string(filter.Status))
	}
	if filter.Priority != "" {
		addArg(` AND priority = $%d`, string(filter.Priority))
	}
	if filter.AssignedTo != "" {
		addArg(` AND assigned_to = $%d`, filter.AssignedTo)
	}
	if filter.MinScore > 0 {
		addArg(` AND lead_score >= $%d`, filter.MinScore)
	}

	query += ` ORDER BY lead_score DESC, created_at DESC`
	if filter.Limit > 0 {
		addArg(` LIMIT $%d`, filter.Limit)
	}
	if filter.Offset > 0 {
		addArg(` OFFSET $%d`, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list venues")
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenuePG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan venue")
		}
		venues = append(venues, *v)
	}
	return venues, eris.Wrap(rows.Err(), "postgres: list venues iterate")
}

func (s *PostgresStore) UpdateVenue(ctx context.Context, id string, update model.VenueUpdate, leadScore int, priority model.Priority) error {
	query := `UPDATE venues SET lead_score = $1, priority = $2, updated_at = $3`
	args := []any{leadScore, string(priority), time.Now().UTC()}
	argIdx := 4

	appendSet := func(column string, value any) {
		query += fmt.Sprintf(`, %s = $%d`, column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if update.Name != nil {
		appendSet("name", *update.Name)
	}
	if update.Address != nil {
		appendSet("address", *update.Address)
	}
	if update.City != nil {
		appendSet("city", *update.City)
	}
	if update.PhoneNumber != nil {
		appendSet("phone_number", *update.PhoneNumber)
	}
	if update.Website != nil {
		appendSet("website", *update.Website)
	}
	if update.Rating != nil {
		appendSet("rating", *update.Rating)
	}
	if update.ReviewCount != nil {
		appendSet("review_count", *update.ReviewCount)
	}
	if update.PriceLevel != nil {
		appendSet("price_level", *update.PriceLevel)
	}
	if update.Status != nil {
		appendSet("status", string(*update.Status))
	}
	if update.AssignedTo != nil {
		appendSet("assigned_to", *update.AssignedTo)
	}
	if update.NextFollowUp != nil {
		appendSet("next_follow_up", *update.NextFollowUp)
	}
	if update.CurrentProducts != nil {
		blob, err := json.Marshal(*update.CurrentProducts)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal current products")
		}
		appendSet("current_products", blob)
	}
	if update.MissingProducts != nil {
		blob, err := json.Marshal(*update.MissingProducts)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal missing products")
		}
		appendSet("missing_products", blob)
	}

	query += fmt.Sprintf(` WHERE id = $%d`, argIdx)
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update venue %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "venue %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateVenueDetection(ctx context.Context, id string, current []string, missing []model.ProductGap, competitors []string, leadScore int, priority model.Priority) error {
	currentJSON, err := json.Marshal(orEmptySlice(current))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal current products")
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal missing products")
	}
	if missing == nil {
		missingJSON = []byte("[]")
	}
	competitorsJSON, err := json.Marshal(orEmptySlice(competitors))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal competitor products")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE venues SET current_products = $1, missing_products = $2,
		 competitor_products = $3, lead_score = $4, priority = $5, updated_at = $6
		 WHERE id = $7`,
		currentJSON, missingJSON, competitorsJSON,
		leadScore, string(priority), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update venue detection %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "venue %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteVenue(ctx context.Context, id string) error {
	// Foreign keys cascade to visits, activities, and route stops.
	tag, err := s.pool.Exec(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete venue %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "venue %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateRoute(ctx context.Context, r *model.Route) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = model.RouteStatusPlanned
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin route tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO routes (id, name, sales_person, planned_date, status,
		 start_lat, start_lng, total_distance_km, estimated_minutes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.Name, r.SalesPerson, r.PlannedDate, string(r.Status),
		r.StartLat, r.StartLng, r.TotalDistanceKm, r.EstimatedMinutes, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert route")
	}

	for i := range r.Stops {
		stop := &r.Stops[i]
		if stop.ID == "" {
			stop.ID = uuid.New().String()
		}
		stop.RouteID = r.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO route_stops (id, route_id, venue_id, order_index, visited, visited_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			stop.ID, stop.RouteID, stop.VenueID, stop.OrderIndex, stop.Visited, stop.VisitedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert route stop %d", stop.OrderIndex)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit route tx")
}

func (s *PostgresStore) GetRoute(ctx context.Context, id string) (*model.Route, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, sales_person, planned_date, status, start_lat, start_lng,
		 total_distance_km, estimated_minutes, created_at, updated_at
		 FROM routes WHERE id = $1`, id)

	r, err := scanRoutePG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get route %s", id)
	}

	if err := s.loadStops(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListRoutes(ctx context.Context, filter RouteFilter) ([]model.Route, error) {
	query := `SELECT id, name, sales_person, planned_date, status, start_lat, start_lng,
		 total_distance_km, estimated_minutes, created_at, updated_at
		 FROM routes WHERE true`
	args := []any{}
	argIdx := 1

	if filter.SalesPerson != "" {
		query += fmt.Sprintf(` AND sales_person = $%d`, argIdx)
		args = append(args, filter.SalesPerson)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY planned_date DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list routes")
	}
	defer rows.Close()

	var routes []model.Route
	for rows.Next() {
		r, err := scanRoutePG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan route")
		}
		routes = append(routes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list routes iterate")
	}

	for i := range routes {
		if err := s.loadStops(ctx, &routes[i]); err != nil {
			return nil, err
		}
	}
	return routes, nil
}

// loadStops reads a route's stops with each venue joined in, so route reads
// carry the names and coordinates the dashboard and geometry need without
// per-stop venue fetches.
func (s *PostgresStore) loadStops(ctx context.Context, r *model.Route) error {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.route_id, s.venue_id, s.order_index, s.visited, s.visited_at, `+
			qualifyColumns(venueColumnsPG, "v")+
			` FROM route_stops s
			 JOIN venues v ON v.id = s.venue_id
			 WHERE s.route_id = $1 ORDER BY s.order_index ASC`, r.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: load stops for route %s", r.ID)
	}
	defer rows.Close()

	r.Stops = nil
	for rows.Next() {
		var stop model.RouteStop
		venue, err := scanVenuePG(prependScanner{sc: rows, leads: []any{
			&stop.ID, &stop.RouteID, &stop.VenueID, &stop.OrderIndex, &stop.Visited, &stop.VisitedAt,
		}})
		if err != nil {
			return eris.Wrap(err, "postgres: scan route stop")
		}
		stop.Venue = venue
		r.Stops = append(r.Stops, stop)
	}
	return eris.Wrap(rows.Err(), "postgres: load stops iterate")
}

func (s *PostgresStore) UpdateRouteStatus(ctx context.Context, id string, status model.RouteStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE routes SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update route status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "route %s", id)
	}
	return nil
}

func (s *PostgresStore) MarkStopVisited(ctx context.Context, routeID, venueID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE route_stops SET visited = TRUE, visited_at = $1 WHERE route_id = $2 AND venue_id = $3`,
		at.UTC(), routeID, venueID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark stop visited %s/%s", routeID, venueID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "stop %s/%s", routeID, venueID)
	}
	return nil
}

func (s *PostgresStore) RecordVisit(ctx context.Context, visit *model.Visit, venue *model.Venue, activity *model.Activity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin visit tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO visits (id, venue_id, visit_date, sales_person, outcome,
		 duration_minutes, order_placed, order_value, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		visit.ID, visit.VenueID, visit.VisitDate, visit.SalesPerson, string(visit.Outcome),
		visit.DurationMinutes, visit.OrderPlaced, visit.OrderValue, visit.Notes, visit.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert visit")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE venues SET status = $1, last_contact_date = $2, lead_score = $3,
		 priority = $4, updated_at = $5 WHERE id = $6`,
		string(venue.Status), venue.LastContactDate, venue.LeadScore,
		string(venue.Priority), time.Now().UTC(), venue.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update venue after visit")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "venue %s", venue.ID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO activities (id, venue_id, type, description, sales_person, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		activity.ID, activity.VenueID, string(activity.Type), activity.Description,
		activity.SalesPerson, activity.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert activity")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit visit tx")
}

func (s *PostgresStore) ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error) {
	query := `SELECT id, venue_id, visit_date, sales_person, outcome,
		 duration_minutes, order_placed, order_value, notes, created_at
		 FROM visits WHERE true`
	args := []any{}
	argIdx := 1

	if filter.VenueID != "" {
		query += fmt.Sprintf(` AND venue_id = $%d`, argIdx)
		args = append(args, filter.VenueID)
		argIdx++
	}
	if filter.SalesPerson != "" {
		query += fmt.Sprintf(` AND sales_person = $%d`, argIdx)
		args = append(args, filter.SalesPerson)
		argIdx++
	}
	query += ` ORDER BY visit_date DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list visits")
	}
	defer rows.Close()

	var visits []model.Visit
	for rows.Next() {
		var v model.Visit
		var outcome string
		if err := rows.Scan(&v.ID, &v.VenueID, &v.VisitDate, &v.SalesPerson, &outcome,
			&v.DurationMinutes, &v.OrderPlaced, &v.OrderValue, &v.Notes, &v.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan visit")
		}
		v.Outcome = model.VisitOutcome(outcome)
		visits = append(visits, v)
	}
	return visits, eris.Wrap(rows.Err(), "postgres: list visits iterate")
}

func (s *PostgresStore) AppendActivity(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO activities (id, venue_id, type, description, sales_person, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.VenueID, string(a.Type), a.Description, a.SalesPerson, a.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert activity")
}

func (s *PostgresStore) ListActivities(ctx context.Context, venueID string, limit int) ([]model.Activity, error) {
	query := `SELECT id, venue_id, type, description, sales_person, created_at
		 FROM activities WHERE true`
	args := []any{}
	argIdx := 1

	if venueID != "" {
		query += fmt.Sprintf(` AND venue_id = $%d`, argIdx)
		args = append(args, venueID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list activities")
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		var typ string
		if err := rows.Scan(&a.ID, &a.VenueID, &typ, &a.Description, &a.SalesPerson, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		a.Type = model.ActivityType(typ)
		activities = append(activities, a)
	}
	return activities, eris.Wrap(rows.Err(), "postgres: list activities iterate")
}

func (s *PostgresStore) Stats(ctx context.Context, salesPerson string) (*Stats, error) {
	stats := &Stats{}

	venueQuery := `SELECT COUNT(*),
		 COUNT(*) FILTER (WHERE priority = 'high'),
		 COUNT(*) FILTER (WHERE status = 'new'),
		 COUNT(*) FILTER (WHERE status = 'contacted'),
		 COUNT(*) FILTER (WHERE status = 'customer')
		 FROM venues WHERE true`
	venueArgs := []any{}
	if salesPerson != "" {
		venueQuery += ` AND assigned_to = $1`
		venueArgs = append(venueArgs, salesPerson)
	}
	err := s.pool.QueryRow(ctx, venueQuery, venueArgs...).Scan(
		&stats.TotalVenues, &stats.HighPriority, &stats.NewVenues,
		&stats.Contacted, &stats.Customers,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats venues")
	}

	visitQuery := `SELECT COUNT(*),
		 COUNT(*) FILTER (WHERE outcome = 'successful'),
		 COALESCE(SUM(order_value), 0)
		 FROM visits WHERE true`
	visitArgs := []any{}
	if salesPerson != "" {
		visitQuery += ` AND sales_person = $1`
		visitArgs = append(visitArgs, salesPerson)
	}
	err = s.pool.QueryRow(ctx, visitQuery, visitArgs...).Scan(
		&stats.TotalVisits, &stats.SuccessfulVisits, &stats.TotalRevenue,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats visits")
	}

	cityQuery := `SELECT city, COUNT(*) AS n FROM venues WHERE city != ''`
	cityArgs := []any{}
	if salesPerson != "" {
		cityQuery += ` AND assigned_to = $1`
		cityArgs = append(cityArgs, salesPerson)
	}
	cityQuery += ` GROUP BY city ORDER BY n DESC LIMIT 5`

	rows, err := s.pool.Query(ctx, cityQuery, cityArgs...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats cities")
	}
	defer rows.Close()
	for rows.Next() {
		var cc CityCount
		if err := rows.Scan(&cc.City, &cc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan city count")
		}
		stats.TopCities = append(stats.TopCities, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats cities iterate")
	}

	recent, err := s.ListActivities(ctx, "", 10)
	if err != nil {
		return nil, err
	}
	stats.RecentActivity = recent

	return stats, nil
}

func scanVenuePG(sc scanner) (*model.Venue, error) {
	var v model.Venue
	var businessType, priority, status string
	var current, missing, competitors, platforms []byte

	err := sc.Scan(
		&v.ID, &v.Name, &v.Address, &v.City, &v.PostalCode, &v.Latitude, &v.Longitude,
		&v.PhoneNumber, &v.Website, &businessType, &v.PriceLevel, &v.Rating, &v.ReviewCount,
		&current, &missing, &competitors, &v.MenuText,
		&platforms, &v.EstimatedWeeklyVisitors, &v.LeadScore, &priority, &status, &v.AssignedTo,
		&v.LastContactDate, &v.NextFollowUp, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Type = model.BusinessType(businessType)
	v.Priority = model.Priority(priority)
	v.Status = model.VenueStatus(status)

	if err := json.Unmarshal(current, &v.CurrentProducts); err != nil {
		return nil, eris.Wrap(err, "unmarshal current products")
	}
	if err := json.Unmarshal(missing, &v.MissingProducts); err != nil {
		return nil, eris.Wrap(err, "unmarshal missing products")
	}
	if err := json.Unmarshal(competitors, &v.CompetitorProducts); err != nil {
		return nil, eris.Wrap(err, "unmarshal competitor products")
	}
	if err := json.Unmarshal(platforms, &v.Platforms); err != nil {
		return nil, eris.Wrap(err, "unmarshal platforms")
	}
	return &v, nil
}

func scanRoutePG(sc scanner) (*model.Route, error) {
	var r model.Route
	var status string
	err := sc.Scan(&r.ID, &r.Name, &r.SalesPerson, &r.PlannedDate, &status,
		&r.StartLat, &r.StartLng, &r.TotalDistanceKm, &r.EstimatedMinutes,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.RouteStatus(status)
	return &r, nil
}
