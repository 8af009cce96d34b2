package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"property-agent/models"
	"property-agent/utils"
)

const listingColumns = 15

// PostgresWriter archives analysis runs and their listings in PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// RunSummary is one row of the run history.
type RunSummary struct {
	RunID           string
	City            string
	Area            string
	BudgetRange     string
	TotalProperties int
	Warnings        int
	StartedAt       time.Time
	Elapsed         time.Duration
}

// NewPostgresWriter opens a connection to PostgreSQL, retrying the initial
// ping per retry, runs schema migrations, and returns a ready-to-use writer.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	err = retry.Do("postgres ping", func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	logger.Info("[postgres] Connected, archive tables ready")
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS search_runs (
			run_id           TEXT PRIMARY KEY,
			city             TEXT        NOT NULL,
			area             TEXT        NOT NULL DEFAULT '',
			budget_range     TEXT        NOT NULL DEFAULT '',
			property_type    TEXT        NOT NULL DEFAULT '',
			bedrooms         TEXT        NOT NULL DEFAULT '',
			bathrooms        TEXT        NOT NULL DEFAULT '',
			min_area         INTEGER     NOT NULL DEFAULT 0,
			features         TEXT        NOT NULL DEFAULT '',
			sources          TEXT[]      NOT NULL DEFAULT '{}',
			total_properties INTEGER     NOT NULL DEFAULT 0,
			market_analysis  TEXT        NOT NULL DEFAULT '',
			valuations       TEXT        NOT NULL DEFAULT '',
			synthesis        TEXT        NOT NULL DEFAULT '',
			warnings         TEXT[]      NOT NULL DEFAULT '{}',
			started_at       TIMESTAMPTZ NOT NULL,
			elapsed_ms       BIGINT      NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS run_listings (
			id            SERIAL PRIMARY KEY,
			run_id        TEXT    NOT NULL REFERENCES search_runs(run_id) ON DELETE CASCADE,
			position      INTEGER NOT NULL,
			address       TEXT    NOT NULL,
			price         TEXT    NOT NULL DEFAULT '',
			bedrooms      TEXT    NOT NULL DEFAULT '',
			bathrooms     TEXT    NOT NULL DEFAULT '',
			area          TEXT    NOT NULL DEFAULT '',
			property_type TEXT    NOT NULL DEFAULT '',
			location_type TEXT    NOT NULL DEFAULT '',
			description   TEXT    NOT NULL DEFAULT '',
			contact_info  TEXT    NOT NULL DEFAULT '',
			listing_url   TEXT    NOT NULL DEFAULT '',
			negotiable    BOOLEAN,
			features      TEXT[]  NOT NULL DEFAULT '{}',
			amenities     TEXT[]  NOT NULL DEFAULT '{}',
			UNIQUE (run_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_search_runs_city    ON search_runs(city);
		CREATE INDEX IF NOT EXISTS idx_search_runs_started ON search_runs(started_at);
	`)
	return err
}

// Archive stores one run and its listings in a single transaction.
func (pw *PostgresWriter) Archive(ctx context.Context, res *models.AnalysisResult) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c := res.Criteria
	_, err = tx.ExecContext(ctx, `
		INSERT INTO search_runs (
			run_id, city, area, budget_range, property_type, bedrooms, bathrooms,
			min_area, features, sources, total_properties, market_analysis,
			valuations, synthesis, warnings, started_at, elapsed_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		res.RunID, c.City, c.Area, c.BudgetRange, c.PropertyType, c.Bedrooms, c.Bathrooms,
		c.MinArea, c.Features, pq.Array(nonNil(res.Sources)), res.TotalProperties, res.MarketAnalysis,
		res.Valuations, res.Synthesis, pq.Array(nonNil(res.Warnings)), res.StartedAt, res.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert run %s: %w", res.RunID, err)
	}

	const batchSize = 50
	for i := 0; i < len(res.Properties); i += batchSize {
		end := min(i+batchSize, len(res.Properties))
		query, args := buildListingInsert(res.RunID, i, res.Properties[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert listings of run %s: %w", res.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	pw.logger.Info("[postgres] Archived run %s with %d listings", res.RunID, len(res.Properties))
	return nil
}

// buildListingInsert builds a multi-row insert for a batch of listings.
// offset is the position of batch[0] within the run, so positions stay
// 1-based across batches.
func buildListingInsert(runID string, offset int, batch []models.Listing) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*listingColumns)

	for idx, l := range batch {
		base := idx * listingColumns
		placeholders := make([]string, listingColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			runID, offset+idx+1, l.Address, l.Price, l.Bedrooms, l.Bathrooms, l.Area,
			l.PropertyType, l.LocationType, l.Description, l.ContactInfo, l.ListingURL,
			nullBool(l.Negotiable), pq.Array(nonNil(l.Features)), pq.Array(nonNil(l.Amenities)))
	}

	query := fmt.Sprintf(`
		INSERT INTO run_listings (
			run_id, position, address, price, bedrooms, bathrooms, area,
			property_type, location_type, description, contact_info, listing_url,
			negotiable, features, amenities
		) VALUES %s`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

// RecentRuns returns the latest archived runs, newest first.
func (pw *PostgresWriter) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT run_id, city, area, budget_range, total_properties,
		       COALESCE(array_length(warnings, 1), 0), started_at, elapsed_ms
		FROM search_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var elapsedMs int64
		if err := rows.Scan(&r.RunID, &r.City, &r.Area, &r.BudgetRange, &r.TotalProperties,
			&r.Warnings, &r.StartedAt, &elapsedMs); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FetchListings returns the listings of one archived run in their original
// order.
func (pw *PostgresWriter) FetchListings(ctx context.Context, runID string) ([]models.Listing, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT address, price, bedrooms, bathrooms, area, property_type, location_type,
		       description, contact_info, listing_url, negotiable, features, amenities
		FROM run_listings
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var negotiable sql.NullBool
		if err := rows.Scan(
			&l.Address, &l.Price, &l.Bedrooms, &l.Bathrooms, &l.Area, &l.PropertyType,
			&l.LocationType, &l.Description, &l.ContactInfo, &l.ListingURL, &negotiable,
			pq.Array(&l.Features), pq.Array(&l.Amenities),
		); err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		if negotiable.Valid {
			v := negotiable.Bool
			l.Negotiable = &v
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
