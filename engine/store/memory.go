// Package store provides IndexStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/interest-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	registry map[engine.IndexName]string
	series   map[engine.IndexName][]engine.IndexRecord

	// Fail, when set, is returned by every read. Lets tests simulate an
	// unavailable store.
	Fail error
}

func NewMemory() *Memory {
	return &Memory{
		registry: make(map[engine.IndexName]string),
		series:   make(map[engine.IndexName][]engine.IndexRecord),
	}
}

// RegisterIndex adds name to the registry.
func (m *Memory) RegisterIndex(_ context.Context, name engine.IndexName, description string) error {
	if err := name.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = description
	return nil
}

// AppendRecords inserts records keeping the series sorted by date.
func (m *Memory) AppendRecords(_ context.Context, name engine.IndexName, records []engine.IndexRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.registry[name]; !ok {
		return 0, engine.ErrIndexNotFound
	}

	inserted := 0
	for _, r := range records {
		if m.insertLocked(name, r) {
			inserted++
		}
	}
	return inserted, nil
}

func (m *Memory) insertLocked(name engine.IndexName, r engine.IndexRecord) bool {
	recs := m.series[name]

	// Binary search for insertion point
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].Date.AfterOrEqual(r.Date)
	})
	if i < len(recs) && recs[i].Date.Equal(r.Date) {
		return false
	}

	recs = append(recs, engine.IndexRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = r
	m.series[name] = recs
	return true
}

func (m *Memory) QueryRange(_ context.Context, name engine.IndexName, start, end engine.Date) ([]engine.IndexRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Fail != nil {
		return nil, m.Fail
	}
	if _, ok := m.registry[name]; !ok {
		return nil, engine.ErrIndexNotFound
	}

	rng := engine.NewDateRange(start, end)
	var result []engine.IndexRecord
	for _, r := range m.series[name] {
		if rng.Contains(r.Date) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *Memory) QueryNearest(_ context.Context, name engine.IndexName, start, end engine.Date) ([]engine.IndexRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Fail != nil {
		return nil, m.Fail
	}
	if _, ok := m.registry[name]; !ok {
		return nil, engine.ErrIndexNotFound
	}
	return engine.NearestFrom(m.series[name], start, end), nil
}

func (m *Memory) ListIndices(_ context.Context) ([]engine.IndexInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Fail != nil {
		return nil, m.Fail
	}

	infos := make([]engine.IndexInfo, 0, len(m.registry))
	for name, desc := range m.registry {
		info := engine.IndexInfo{Name: name, Description: desc}
		if recs := m.series[name]; len(recs) > 0 {
			info.Records = len(recs)
			info.First = recs[0].Date
			info.Last = recs[len(recs)-1].Date
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Reset removes every series and registry entry.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry = make(map[engine.IndexName]string)
	m.series = make(map[engine.IndexName][]engine.IndexRecord)
	return nil
}
