package idmap

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Its zero value is ready to use.
type Memory struct {
	mu sync.RWMutex
	m  map[string]map[string]string
}

func NewMemory() *Memory { return &Memory{} }

func (s *Memory) Get(_ context.Context, table, sourceID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.m[table][sourceID]
	return id, ok, nil
}

func (s *Memory) Put(_ context.Context, table, sourceID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]map[string]string)
	}
	byTable, ok := s.m[table]
	if !ok {
		byTable = make(map[string]string)
		s.m[table] = byTable
	}
	if existing, ok := byTable[sourceID]; ok {
		if existing == targetID {
			return nil
		}
		return &ConflictError{Table: table, SourceID: sourceID, Existing: existing, Attempted: targetID}
	}
	byTable[sourceID] = targetID
	return nil
}

func (s *Memory) All(_ context.Context, table string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.m[table]))
	for k, v := range s.m[table] {
		out[k] = v
	}
	return out, nil
}

// Delete drops every mapping of table.
func (s *Memory) Delete(_ context.Context, table string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.m[table])
	delete(s.m, table)
	return n, nil
}
