package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/seopulse/seopulse/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// backend for single-site installs and offline runs.
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	position          REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_aggregates (
	site       TEXT NOT NULL,
	date       TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (site, date)
);

CREATE TABLE IF NOT EXISTS pages (
	site       TEXT NOT NULL,
	page_id    TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (site, page_id)
);

CREATE TABLE IF NOT EXISTS tiering_summary (
	site       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_raw_events_site_date ON raw_events(site, date);
CREATE INDEX IF NOT EXISTS idx_raw_events_site_page_date ON raw_events(site, page, date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertRawEvents(ctx context.Context, events []model.RawAnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	if len(events) > MaxBatchSize {
		return eris.Errorf("sqlite: batch of %d exceeds max batch size %d", len(events), MaxBatchSize)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert events")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO raw_events (id, site, date, query, page, device, country, search_appearance, clicks, impressions, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert events")
	}
	defer stmt.Close()

	for _, ev := range events {
		id := ev.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx,
			id, ev.Site, ev.Date, ev.Query, ev.Page, ev.Device, ev.Country,
			ev.SearchAppearance, ev.Clicks, ev.Impressions, ev.Position,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert event")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert events")
}

func (s *SQLiteStore) ListRawEvents(ctx context.Context, site, date string) ([]model.RawAnalyticsEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site, date, query, page, device, country, search_appearance, clicks, impressions, position
		 FROM raw_events WHERE site = ? AND date = ?`,
		site, date,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list raw events")
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *SQLiteStore) ListPageEvents(ctx context.Context, site, pageID, startDate, endDate string) ([]model.RawAnalyticsEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site, date, query, page, device, country, search_appearance, clicks, impressions, position
		 FROM raw_events WHERE site = ? AND page = ? AND date >= ? AND date <= ?
		 ORDER BY date`,
		site, pageID, startDate, endDate,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list page events")
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *SQLiteStore) UpsertDailyAggregate(ctx context.Context, agg *model.DailyAggregate) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal aggregate")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO daily_aggregates (site, date, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(site, date) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		agg.Site, agg.Date, string(data), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: upsert aggregate")
}

func (s *SQLiteStore) GetDailyAggregate(ctx context.Context, site, date string) (*model.DailyAggregate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM daily_aggregates WHERE site = ? AND date = ?`,
		site, date,
	)
	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get aggregate")
	}
	var agg model.DailyAggregate
	if err := json.Unmarshal([]byte(data), &agg); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal aggregate")
	}
	return &agg, nil
}

func (s *SQLiteStore) ListDailyAggregates(ctx context.Context, site, startDate, endDate string) ([]model.DailyAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM daily_aggregates WHERE site = ? AND date >= ? AND date <= ? ORDER BY date`,
		site, startDate, endDate,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list aggregates")
	}
	defer rows.Close()

	var aggs []model.DailyAggregate
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan aggregate")
		}
		var agg model.DailyAggregate
		if err := json.Unmarshal([]byte(data), &agg); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal aggregate")
		}
		aggs = append(aggs, agg)
	}
	return aggs, eris.Wrap(rows.Err(), "sqlite: list aggregates iterate")
}

func (s *SQLiteStore) ListPages(ctx context.Context, site string) ([]model.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM pages WHERE site = ? ORDER BY page_id`,
		site,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pages")
	}
	defer rows.Close()

	var pages []model.PageRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan page")
		}
		var p model.PageRecord
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal page")
		}
		pages = append(pages, p)
	}
	return pages, eris.Wrap(rows.Err(), "sqlite: list pages iterate")
}

func (s *SQLiteStore) UpsertPages(ctx context.Context, pages []model.PageRecord) error {
	for _, batch := range chunk(pages, MaxBatchSize) {
		if err := s.upsertPageBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) upsertPageBatch(ctx context.Context, pages []model.PageRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin upsert pages")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (site, page_id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(site, page_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert pages")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range pages {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal page")
		}
		if _, err := stmt.ExecContext(ctx, p.Site, p.NormalizedID, string(data), now); err != nil {
			return eris.Wrapf(err, "sqlite: upsert page %s", p.NormalizedID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit upsert pages")
}

func (s *SQLiteStore) SaveTieringStats(ctx context.Context, stats *model.TieringStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tiering stats")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tiering_summary (site, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(site) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		stats.Site, string(data), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save tiering stats")
}

func (s *SQLiteStore) GetTieringStats(ctx context.Context, site string) (*model.TieringStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM tiering_summary WHERE site = ?`,
		site,
	)
	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get tiering stats")
	}
	var stats model.TieringStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal tiering stats")
	}
	return &stats, nil
}

// helpers

func scanEvents(rows *sql.Rows) ([]model.RawAnalyticsEvent, error) {
	var events []model.RawAnalyticsEvent
	for rows.Next() {
		var ev model.RawAnalyticsEvent
		if err := rows.Scan(
			&ev.ID, &ev.Site, &ev.Date, &ev.Query, &ev.Page, &ev.Device,
			&ev.Country, &ev.SearchAppearance, &ev.Clicks, &ev.Impressions, &ev.Position,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: events iterate")
}
