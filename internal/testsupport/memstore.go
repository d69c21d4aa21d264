// Package testsupport holds shared test doubles for the pipeline packages.
package testsupport

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/seopulse/seopulse/internal/model"
	"github.com/seopulse/seopulse/internal/store"
)

// MemStore is an in-memory store.Store used by package tests. Optional
// Err* hooks inject failures per operation.
type MemStore struct {
	mu         sync.Mutex
	Events     []model.RawAnalyticsEvent
	Aggregates map[string]model.DailyAggregate // key site|date
	Pages      map[string]model.PageRecord     // key site|pageID
	Stats      map[string]model.TieringStats   // key site

	InsertBatches [][]model.RawAnalyticsEvent

	ErrInsertEvents   error
	ErrListPageEvents func(pageID string) error
	ErrUpsertPages    error
	ErrListPages      error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		Aggregates: make(map[string]model.DailyAggregate),
		Pages:      make(map[string]model.PageRecord),
		Stats:      make(map[string]model.TieringStats),
	}
}

var _ store.Store = (*MemStore)(nil)

func key(parts ...string) string {
	k := parts[0]
	for _, p := range parts[1:] {
		k += "|" + p
	}
	return k
}

func (m *MemStore) InsertRawEvents(_ context.Context, events []model.RawAnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrInsertEvents != nil {
		return m.ErrInsertEvents
	}
	if len(events) > store.MaxBatchSize {
		return fmt.Errorf("memstore: batch of %d exceeds max batch size %d", len(events), store.MaxBatchSize)
	}
	batch := append([]model.RawAnalyticsEvent{}, events...)
	m.InsertBatches = append(m.InsertBatches, batch)
	m.Events = append(m.Events, batch...)
	return nil
}

func (m *MemStore) ListRawEvents(_ context.Context, site, date string) ([]model.RawAnalyticsEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RawAnalyticsEvent
	for _, ev := range m.Events {
		if ev.Site == site && ev.Date == date {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *MemStore) ListPageEvents(_ context.Context, site, pageID, startDate, endDate string) ([]model.RawAnalyticsEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrListPageEvents != nil {
		if err := m.ErrListPageEvents(pageID); err != nil {
			return nil, err
		}
	}
	var out []model.RawAnalyticsEvent
	for _, ev := range m.Events {
		if ev.Site == site && ev.Page == pageID && ev.Date >= startDate && ev.Date <= endDate {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *MemStore) UpsertDailyAggregate(_ context.Context, agg *model.DailyAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Aggregates[key(agg.Site, agg.Date)] = *agg
	return nil
}

func (m *MemStore) GetDailyAggregate(_ context.Context, site, date string) (*model.DailyAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.Aggregates[key(site, date)]
	if !ok {
		return nil, nil
	}
	return &agg, nil
}

func (m *MemStore) ListDailyAggregates(_ context.Context, site, startDate, endDate string) ([]model.DailyAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.DailyAggregate
	for _, agg := range m.Aggregates {
		if agg.Site == site && agg.Date >= startDate && agg.Date <= endDate {
			out = append(out, agg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *MemStore) ListPages(_ context.Context, site string) ([]model.PageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrListPages != nil {
		return nil, m.ErrListPages
	}
	var out []model.PageRecord
	for _, p := range m.Pages {
		if p.Site == site {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NormalizedID < out[j].NormalizedID })
	return out, nil
}

func (m *MemStore) UpsertPages(_ context.Context, pages []model.PageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrUpsertPages != nil {
		return m.ErrUpsertPages
	}
	for _, p := range pages {
		m.Pages[key(p.Site, p.NormalizedID)] = p
	}
	return nil
}

func (m *MemStore) SaveTieringStats(_ context.Context, stats *model.TieringStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stats[stats.Site] = *stats
	return nil
}

func (m *MemStore) GetTieringStats(_ context.Context, site string) (*model.TieringStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.Stats[site]
	if !ok {
		return nil, nil
	}
	return &stats, nil
}

func (m *MemStore) Migrate(context.Context) error { return nil }

func (m *MemStore) Close() error { return nil }

// SeedPage registers a tracked page.
func (m *MemStore) SeedPage(p model.PageRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pages[key(p.Site, p.NormalizedID)] = p
}

// SeedEvents appends raw events without batch accounting.
func (m *MemStore) SeedEvents(events ...model.RawAnalyticsEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, events...)
}
