package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/seopulse/seopulse/internal/db"
	"github.com/seopulse/seopulse/internal/model"
)

// PostgresStore implements Store using pgxpool. Raw-event batches land via
// the COPY protocol; aggregates, pages, and the tiering summary are JSONB
// upserts keyed by their deterministic document identity.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
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

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS raw_events (
	id                TEXT PRIMARY KEY,
	site              TEXT NOT NULL,
	date              TEXT NOT NULL,
	query             TEXT NOT NULL,
	page              TEXT NOT NULL,
	device            TEXT NOT NULL,
	country           TEXT NOT NULL,
	search_appearance TEXT NOT NULL DEFAULT '',
	clicks            INTEGER NOT NULL,
	impressions       INTEGER NOT NULL,
	position          DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_aggregates (
	site       TEXT NOT NULL,
	date       TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (site, date)
);

CREATE TABLE IF NOT EXISTS pages (
	site       TEXT NOT NULL,
	page_id    TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (site, page_id)
);

CREATE TABLE IF NOT EXISTS tiering_summary (
	site       TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_raw_events_site_date ON raw_events(site, date);
CREATE INDEX IF NOT EXISTS idx_raw_events_site_page_date ON raw_events(site, page, date);
`

var rawEventColumns = []string{
	"id", "site", "date", "query", "page", "device", "country",
	"search_appearance", "clicks", "impressions", "position",
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertRawEvents(ctx context.Context, events []model.RawAnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	if len(events) > MaxBatchSize {
		return eris.Errorf("postgres: batch of %d exceeds max batch size %d", len(events), MaxBatchSize)
	}

	rows := make([][]any, 0, len(events))
	for _, ev := range events {
		id := ev.ID
		if id == "" {
			id = uuid.New().String()
		}
		rows = append(rows, []any{
			id, ev.Site, ev.Date, ev.Query, ev.Page, ev.Device, ev.Country,
			ev.SearchAppearance, ev.Clicks, ev.Impressions, ev.Position,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "raw_events", rawEventColumns, rows)
	return eris.Wrap(err, "postgres: insert raw events")
}

func (s *PostgresStore) ListRawEvents(ctx context.Context, site, date string) ([]model.RawAnalyticsEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, site, date, query, page, device, country, search_appearance, clicks, impressions, position
		 FROM raw_events WHERE site = $1 AND date = $2`,
		site, date,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list raw events")
	}
	defer rows.Close()
	return scanPgEvents(rows)
}

func (s *PostgresStore) ListPageEvents(ctx context.Context, site, pageID, startDate, endDate string) ([]model.RawAnalyticsEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, site, date, query, page, device, country, search_appearance, clicks, impressions, position
		 FROM raw_events WHERE site = $1 AND page = $2 AND date >= $3 AND date <= $4
		 ORDER BY date`,
		site, pageID, startDate, endDate,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list page events")
	}
	defer rows.Close()
	return scanPgEvents(rows)
}

func (s *PostgresStore) UpsertDailyAggregate(ctx context.Context, agg *model.DailyAggregate) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal aggregate")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO daily_aggregates (site, date, data, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (site, date) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		agg.Site, agg.Date, data, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: upsert aggregate")
}

func (s *PostgresStore) GetDailyAggregate(ctx context.Context, site, date string) (*model.DailyAggregate, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM daily_aggregates WHERE site = $1 AND date = $2`,
		site, date,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get aggregate")
	}
	var agg model.DailyAggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal aggregate")
	}
	return &agg, nil
}

func (s *PostgresStore) ListDailyAggregates(ctx context.Context, site, startDate, endDate string) ([]model.DailyAggregate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM daily_aggregates WHERE site = $1 AND date >= $2 AND date <= $3 ORDER BY date`,
		site, startDate, endDate,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list aggregates")
	}
	defer rows.Close()

	var aggs []model.DailyAggregate
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan aggregate")
		}
		var agg model.DailyAggregate
		if err := json.Unmarshal(data, &agg); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal aggregate")
		}
		aggs = append(aggs, agg)
	}
	return aggs, eris.Wrap(rows.Err(), "postgres: list aggregates iterate")
}

func (s *PostgresStore) ListPages(ctx context.Context, site string) ([]model.PageRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM pages WHERE site = $1 ORDER BY page_id`,
		site,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pages")
	}
	defer rows.Close()

	var pages []model.PageRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan page")
		}
		var p model.PageRecord
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal page")
		}
		pages = append(pages, p)
	}
	return pages, eris.Wrap(rows.Err(), "postgres: list pages iterate")
}

func (s *PostgresStore) UpsertPages(ctx context.Context, pages []model.PageRecord) error {
	for _, batch := range chunk(pages, MaxBatchSize) {
		if err := s.upsertPageBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) upsertPageBatch(ctx context.Context, pages []model.PageRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin upsert pages")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	for _, p := range pages {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal page")
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO pages (site, page_id, data, updated_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (site, page_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			p.Site, p.NormalizedID, data, now,
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert page %s", p.NormalizedID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit upsert pages")
}

func (s *PostgresStore) SaveTieringStats(ctx context.Context, stats *model.TieringStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tiering stats")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO tiering_summary (site, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (site) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		stats.Site, data, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: save tiering stats")
}

func (s *PostgresStore) GetTieringStats(ctx context.Context, site string) (*model.TieringStats, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM tiering_summary WHERE site = $1`,
		site,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get tiering stats")
	}
	var stats model.TieringStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal tiering stats")
	}
	return &stats, nil
}

// scanPgEvents drains a pgx row set of raw events.
func scanPgEvents(rows pgx.Rows) ([]model.RawAnalyticsEvent, error) {
	var events []model.RawAnalyticsEvent
	for rows.Next() {
		var ev model.RawAnalyticsEvent
		if err := rows.Scan(
			&ev.ID, &ev.Site, &ev.Date, &ev.Query, &ev.Page, &ev.Device,
			&ev.Country, &ev.SearchAppearance, &ev.Clicks, &ev.Impressions, &ev.Position,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: events iterate")
}
