package target

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sabercon-migrate/internal/idmap"
)

// ErrUnavailable is returned by Memory.Ping when marked down.
var ErrUnavailable = errors.New("target store unavailable")

// Memory is an in-process target store for rehearsals and tests. Its
// mappings live in an idmap.Memory so the pipeline can share them.
type Memory struct {
	mu       sync.RWMutex
	tables   map[string][]Record
	mappings *idmap.Memory
	Down     bool
}

func NewMemory(mappings *idmap.Memory) *Memory {
	if mappings == nil {
		mappings = idmap.NewMemory()
	}
	return &Memory{tables: make(map[string][]Record), mappings: mappings}
}

func (m *Memory) Mappings() *idmap.Memory { return m.mappings }

func (m *Memory) Ping(context.Context) error {
	if m.Down {
		return ErrUnavailable
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, table, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.tables[table] {
		if r.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) FindBySourceID(_ context.Context, table, sourceID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.tables[table] {
		if r.SourceID == sourceID {
			return r.ID, true, nil
		}
	}
	return "", false, nil
}

// InsertMapped keeps the row only when the mapping could be recorded.
func (m *Memory) InsertMapped(ctx context.Context, entity string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.mappings.Put(ctx, entity, rec.SourceID, rec.ID); err != nil {
		return err
	}
	m.tables[rec.Table] = append(m.tables[rec.Table], rec)
	return nil
}

// Insert adds a row without a mapping, simulating an interrupted older run.
func (m *Memory) Insert(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[rec.Table] = append(m.tables[rec.Table], rec)
}

// Delete removes a row by target id.
func (m *Memory) Delete(table, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	for i, r := range rows {
		if r.ID == id {
			m.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return
		}
	}
}

// Rows returns a copy of the rows written to table.
func (m *Memory) Rows(table string) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.tables[table]...)
}

func (m *Memory) Count(_ context.Context, table string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.tables[table] {
		if r.SourceID != "" {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Clean(ctx context.Context, entity, table string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []Record
	removed := 0
	for _, r := range m.tables[table] {
		if r.SourceID != "" {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.tables[table] = kept
	maps, err := m.mappings.Delete(ctx, entity)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clean mappings of %s: %w", entity, err)
	}
	return removed, maps, nil
}
