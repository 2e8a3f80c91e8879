package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/horeca-group/horeca-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// single-user deployments and tests; production runs on Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	address             TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	postal_code         TEXT NOT NULL DEFAULT '',
	latitude            REAL NOT NULL,
	longitude           REAL NOT NULL,
	phone_number        TEXT NOT NULL DEFAULT '',
	website             TEXT NOT NULL DEFAULT '',
	business_type       TEXT NOT NULL DEFAULT 'restaurant',
	price_level         INTEGER,
	rating              REAL,
	review_count        INTEGER,
	current_products    TEXT NOT NULL DEFAULT '[]',
	missing_products    TEXT NOT NULL DEFAULT '[]',
	competitor_products TEXT NOT NULL DEFAULT '[]',
	menu_text           TEXT NOT NULL DEFAULT '',
	platforms           TEXT NOT NULL DEFAULT '{}',
	weekly_visitors     INTEGER NOT NULL DEFAULT 0,
	lead_score          INTEGER NOT NULL DEFAULT 0,
	priority            TEXT NOT NULL DEFAULT 'low',
	status              TEXT NOT NULL DEFAULT 'new',
	assigned_to         TEXT NOT NULL DEFAULT '',
	last_contact_date   DATETIME,
	next_follow_up      DATETIME,
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS routes (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	sales_person      TEXT NOT NULL DEFAULT '',
	planned_date      DATETIME NOT NULL,
	status            TEXT NOT NULL DEFAULT 'planned',
	start_lat         REAL,
	start_lng         REAL,
	total_distance_km REAL NOT NULL DEFAULT 0,
	estimated_minutes INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS route_stops (
	id          TEXT PRIMARY KEY,
	route_id    TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
	venue_id    TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
	order_index INTEGER NOT NULL,
	visited     INTEGER NOT NULL DEFAULT 0,
	visited_at  DATETIME,
	UNIQUE (route_id, order_index),
	UNIQUE (route_id, venue_id)
);

CREATE TABLE IF NOT EXISTS visits (
	id               TEXT PRIMARY KEY,
	venue_id         TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
	visit_date       DATETIME NOT NULL,
	sales_person     TEXT NOT NULL DEFAULT '',
	outcome          TEXT NOT NULL,
	duration_minutes INTEGER,
	order_placed     INTEGER NOT NULL DEFAULT 0,
	order_value      REAL,
	notes            TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS activities (
	id           TEXT PRIMARY KEY,
	venue_id     TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
	type         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	sales_person TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_venues_city ON venues(city);
CREATE INDEX IF NOT EXISTS idx_venues_status ON venues(status);
CREATE INDEX IF NOT EXISTS idx_venues_lead_score ON venues(lead_score);
CREATE INDEX IF NOT EXISTS idx_route_stops_route_id ON route_stops(route_id);
CREATE INDEX IF NOT EXISTS idx_visits_venue_id ON visits(venue_id);
CREATE INDEX IF NOT EXISTS idx_activities_venue_id ON activities(venue_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const venueColumns = `id, name, address, city, postal_code, latitude, longitude,
	phone_number, website, business_type, price_level, rating, review_count,
	current_products, missing_products, competitor_products, menu_text,
	platforms, weekly_visitors, lead_score, priority, status, assigned_to,
	last_contact_date, next_follow_up, created_at, updated_at`

func (s *SQLiteStore) CreateVenue(ctx context.Context, v *model.Venue) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now

	current, missing, competitors, platforms, err := marshalVenueBlobs(v)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO venues (`+venueColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		v.ID, v.Name, v.Address, v.City, v.PostalCode, v.Latitude, v.Longitude,
		v.PhoneNumber, v.Website, string(v.Type), v.PriceLevel, v.Rating, v.ReviewCount,
		current, missing, competitors, v.MenuText,
		platforms, v.EstimatedWeeklyVisitors, v.LeadScore, string(v.Priority), string(v.Status), v.AssignedTo,
		v.LastContactDate, v.NextFollowUp, v.CreatedAt, v.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert venue")
}

func (s *SQLiteStore) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get venue %s", id)
	}
	return v, nil
}

func (s *SQLiteStore) ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(filter.Priority))
	}
	if filter.AssignedTo != "" {
		query += ` AND assigned_to = ?`
		args = append(args, filter.AssignedTo)
	}
	if filter.MinScore > 0 {
		query += ` AND lead_score >= ?`
		args = append(args, filter.MinScore)
	}

	query += ` ORDER BY lead_score DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list venues")
	}
	defer rows.Close() //nolint:errcheck

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan venue")
		}
		venues = append(venues, *v)
	}
	return venues, eris.Wrap(rows.Err(), "sqlite: list venues rows")
}

func (s *SQLiteStore) UpdateVenue(ctx context.Context, id string, update model.VenueUpdate, leadScore int, priority model.Priority) error {
	query := `UPDATE venues SET lead_score = ?, priority = ?, updated_at = ?`
	args := []any{leadScore, string(priority), time.Now().UTC()}

	appendSet := func(column string, value any) {
		query += `, ` + column + ` = ?`
		args = append(args, value)
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
			return eris.Wrap(err, "sqlite: marshal current products")
		}
		appendSet("current_products", string(blob))
	}
	if update.MissingProducts != nil {
		blob, err := json.Marshal(*update.MissingProducts)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal missing products")
		}
		appendSet("missing_products", string(blob))
	}

	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update venue %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) UpdateVenueDetection(ctx context.Context, id string, current []string, missing []model.ProductGap, competitors []string, leadScore int, priority model.Priority) error {
	currentJSON, err := json.Marshal(current)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal current products")
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal missing products")
	}
	competitorsJSON, err := json.Marshal(competitors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal competitor products")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE venues SET current_products = ?, missing_products = ?,
		 competitor_products = ?, lead_score = ?, priority = ?, updated_at = ?
		 WHERE id = ?`,
		string(currentJSON), string(missingJSON), string(competitorsJSON),
		leadScore, string(priority), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update venue detection %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) DeleteVenue(ctx context.Context, id string) error {
	// Foreign keys cascade to visits, activities, and route stops.
	res, err := s.db.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete venue %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) CreateRoute(ctx context.Context, r *model.Route) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = model.RouteStatusPlanned
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin route tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO routes (id, name, sales_person, planned_date, status,
		 start_lat, start_lng, total_distance_km, estimated_minutes, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.Name, r.SalesPerson, r.PlannedDate, string(r.Status),
		r.StartLat, r.StartLng, r.TotalDistanceKm, r.EstimatedMinutes, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert route")
	}

	for i := range r.Stops {
		stop := &r.Stops[i]
		if stop.ID == "" {
			stop.ID = uuid.New().String()
		}
		stop.RouteID = r.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO route_stops (id, route_id, venue_id, order_index, visited, visited_at)
			 VALUES (?,?,?,?,?,?)`,
			stop.ID, stop.RouteID, stop.VenueID, stop.OrderIndex, stop.Visited, stop.VisitedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert route stop %d", stop.OrderIndex)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit route tx")
}

func (s *SQLiteStore) GetRoute(ctx context.Context, id string) (*model.Route, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sales_person, planned_date, status, start_lat, start_lng,
		 total_distance_km, estimated_minutes, created_at, updated_at
		 FROM routes WHERE id = ?`, id)

	r, err := scanRoute(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get route %s", id)
	}

	if err := s.loadStops(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) ListRoutes(ctx context.Context, filter RouteFilter) ([]model.Route, error) {
	query := `SELECT id, name, sales_person, planned_date, status, start_lat, start_lng,
		 total_distance_km, estimated_minutes, created_at, updated_at
		 FROM routes WHERE 1=1`
	var args []any
	if filter.SalesPerson != "" {
		query += ` AND sales_person = ?`
		args = append(args, filter.SalesPerson)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY planned_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list routes")
	}
	defer rows.Close() //nolint:errcheck

	var routes []model.Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan route")
		}
		routes = append(routes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list routes rows")
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
func (s *SQLiteStore) loadStops(ctx context.Context, r *model.Route) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.route_id, s.venue_id, s.order_index, s.visited, s.visited_at, `+
			qualifyColumns(venueColumns, "v")+
			` FROM route_stops s
			 JOIN venues v ON v.id = s.venue_id
			 WHERE s.route_id = ? ORDER BY s.order_index ASC`, r.ID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: load stops for route %s", r.ID)
	}
	defer rows.Close() //nolint:errcheck

	r.Stops = nil
	for rows.Next() {
		var stop model.RouteStop
		venue, err := scanVenue(prependScanner{sc: rows, leads: []any{
			&stop.ID, &stop.RouteID, &stop.VenueID, &stop.OrderIndex, &stop.Visited, &stop.VisitedAt,
		}})
		if err != nil {
			return eris.Wrap(err, "sqlite: scan route stop")
		}
		stop.Venue = venue
		r.Stops = append(r.Stops, stop)
	}
	return eris.Wrap(rows.Err(), "sqlite: load stops rows")
}

func (s *SQLiteStore) UpdateRouteStatus(ctx context.Context, id string, status model.RouteStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE routes SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update route status %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) MarkStopVisited(ctx context.Context, routeID, venueID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE route_stops SET visited = 1, visited_at = ? WHERE route_id = ? AND venue_id = ?`,
		at.UTC(), routeID, venueID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark stop visited %s/%s", routeID, venueID)
	}
	return checkRowsAffected(res, routeID)
}

func (s *SQLiteStore) RecordVisit(ctx context.Context, visit *model.Visit, venue *model.Venue, activity *model.Activity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin visit tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO visits (id, venue_id, visit_date, sales_person, outcome,
		 duration_minutes, order_placed, order_value, notes, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		visit.ID, visit.VenueID, visit.VisitDate, visit.SalesPerson, string(visit.Outcome),
		visit.DurationMinutes, visit.OrderPlaced, visit.OrderValue, visit.Notes, visit.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert visit")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE venues SET status = ?, last_contact_date = ?, lead_score = ?,
		 priority = ?, updated_at = ? WHERE id = ?`,
		string(venue.Status), venue.LastContactDate, venue.LeadScore,
		string(venue.Priority), time.Now().UTC(), venue.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update venue after visit")
	}
	if err := checkRowsAffected(res, venue.ID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activities (id, venue_id, type, description, sales_person, created_at)
		 VALUES (?,?,?,?,?,?)`,
		activity.ID, activity.VenueID, string(activity.Type), activity.Description,
		activity.SalesPerson, activity.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert activity")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit visit tx")
}

func (s *SQLiteStore) ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error) {
	query := `SELECT id, venue_id, visit_date, sales_person, outcome,
		 duration_minutes, order_placed, order_value, notes, created_at
		 FROM visits WHERE 1=1`
	var args []any
	if filter.VenueID != "" {
		query += ` AND venue_id = ?`
		args = append(args, filter.VenueID)
	}
	if filter.SalesPerson != "" {
		query += ` AND sales_person = ?`
		args = append(args, filter.SalesPerson)
	}
	query += ` ORDER BY visit_date DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list visits")
	}
	defer rows.Close() //nolint:errcheck

	var visits []model.Visit
	for rows.Next() {
		var v model.Visit
		var outcome string
		if err := rows.Scan(&v.ID, &v.VenueID, &v.VisitDate, &v.SalesPerson, &outcome,
			&v.DurationMinutes, &v.OrderPlaced, &v.OrderValue, &v.Notes, &v.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan visit")
		}
		v.Outcome = model.VisitOutcome(outcome)
		visits = append(visits, v)
	}
	return visits, eris.Wrap(rows.Err(), "sqlite: list visits rows")
}

func (s *SQLiteStore) AppendActivity(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, venue_id, type, description, sales_person, created_at)
		 VALUES (?,?,?,?,?,?)`,
		a.ID, a.VenueID, string(a.Type), a.Description, a.SalesPerson, a.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert activity")
}

func (s *SQLiteStore) ListActivities(ctx context.Context, venueID string, limit int) ([]model.Activity, error) {
	query := `SELECT id, venue_id, type, description, sales_person, created_at
		 FROM activities WHERE 1=1`
	var args []any
	if venueID != "" {
		query += ` AND venue_id = ?`
		args = append(args, venueID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list activities")
	}
	defer rows.Close() //nolint:errcheck

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		var typ string
		if err := rows.Scan(&a.ID, &a.VenueID, &typ, &a.Description, &a.SalesPerson, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		a.Type = model.ActivityType(typ)
		activities = append(activities, a)
	}
	return activities, eris.Wrap(rows.Err(), "sqlite: list activities rows")
}

func (s *SQLiteStore) Stats(ctx context.Context, salesPerson string) (*Stats, error) {
	stats := &Stats{}

	venueCounts := []struct {
		dest  *int
		where string
	}{
		{&stats.TotalVenues, ``},
		{&stats.HighPriority, ` AND priority = 'high'`},
		{&stats.NewVenues, ` AND status = 'new'`},
		{&stats.Contacted, ` AND status = 'contacted'`},
		{&stats.Customers, ` AND status = 'customer'`},
	}
	for _, c := range venueCounts {
		query := `SELECT COUNT(*) FROM venues WHERE 1=1` + c.where
		var args []any
		if salesPerson != "" {
			query += ` AND assigned_to = ?`
			args = append(args, salesPerson)
		}
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(c.dest); err != nil {
			return nil, eris.Wrap(err, "sqlite: stats venue count")
		}
	}

	visitQuery := `SELECT COUNT(*),
		 COALESCE(SUM(CASE WHEN outcome = 'successful' THEN 1 ELSE 0 END), 0),
		 COALESCE(SUM(order_value), 0)
		 FROM visits WHERE 1=1`
	var visitArgs []any
	if salesPerson != "" {
		visitQuery += ` AND sales_person = ?`
		visitArgs = append(visitArgs, salesPerson)
	}
	if err := s.db.QueryRowContext(ctx, visitQuery, visitArgs...).
		Scan(&stats.TotalVisits, &stats.SuccessfulVisits, &stats.TotalRevenue); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats visits")
	}

	cityQuery := `SELECT city, COUNT(*) AS n FROM venues WHERE city != ''`
	var cityArgs []any
	if salesPerson != "" {
		cityQuery += ` AND assigned_to = ?`
		cityArgs = append(cityArgs, salesPerson)
	}
	cityQuery += ` GROUP BY city ORDER BY n DESC LIMIT 5`

	rows, err := s.db.QueryContext(ctx, cityQuery, cityArgs...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats cities")
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var cc CityCount
		if err := rows.Scan(&cc.City, &cc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city count")
		}
		stats.TopCities = append(stats.TopCities, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats cities rows")
	}

	recent, err := s.ListActivities(ctx, "", 10)
	if err != nil {
		return nil, err
	}
	stats.RecentActivity = recent

	return stats, nil
}

// scanner abstracts sql.Row and sql.Rows for venue/route scanning.
type scanner interface {
	Scan(dest ...any) error
}

// prependScanner scans a fixed set of leading destinations before the
// delegate's own, so a joined row can fill a stop and its venue in one pass.
type prependScanner struct {
	sc    scanner
	leads []any
}

func (p prependScanner) Scan(dest ...any) error {
	return p.sc.Scan(append(p.leads, dest...)...)
}

// qualifyColumns prefixes every column in a comma-separated list with a
// table alias, for joined selects.
func qualifyColumns(cols, alias string) string {
	parts := strings.Split(cols, ",")
	for i, col := range parts {
		parts[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(parts, ", ")
}

func scanVenue(sc scanner) (*model.Venue, error) {
	var v model.Venue
	var businessType, priority, status string
	var current, missing, competitors, platforms string

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

	if err := json.Unmarshal([]byte(current), &v.CurrentProducts); err != nil {
		return nil, eris.Wrap(err, "unmarshal current products")
	}
	if err := json.Unmarshal([]byte(missing), &v.MissingProducts); err != nil {
		return nil, eris.Wrap(err, "unmarshal missing products")
	}
	if err := json.Unmarshal([]byte(competitors), &v.CompetitorProducts); err != nil {
		return nil, eris.Wrap(err, "unmarshal competitor products")
	}
	if err := json.Unmarshal([]byte(platforms), &v.Platforms); err != nil {
		return nil, eris.Wrap(err, "unmarshal platforms")
	}
	return &v, nil
}

func scanRoute(sc scanner) (*model.Route, error) {
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

func marshalVenueBlobs(v *model.Venue) (current, missing, competitors, platforms string, err error) {
	blob := func(value any, fallback string) (string, error) {
		if value == nil {
			return fallback, nil
		}
		data, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if current, err = blob(orEmptySlice(v.CurrentProducts), "[]"); err != nil {
		return "", "", "", "", eris.Wrap(err, "marshal current products")
	}
	if v.MissingProducts == nil {
		missing = "[]"
	} else if data, mErr := json.Marshal(v.MissingProducts); mErr != nil {
		return "", "", "", "", eris.Wrap(mErr, "marshal missing products")
	} else {
		missing = string(data)
	}
	if competitors, err = blob(orEmptySlice(v.CompetitorProducts), "[]"); err != nil {
		return "", "", "", "", eris.Wrap(err, "marshal competitor products")
	}
	if v.Platforms == nil {
		platforms = "{}"
	} else if data, pErr := json.Marshal(v.Platforms); pErr != nil {
		return "", "", "", "", eris.Wrap(pErr, "marshal platforms")
	} else {
		platforms = string(data)
	}
	return current, missing, competitors, platforms, nil
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return nil
}
