package crm

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory store. Failures can be injected
// per entity to exercise partial-failure paths.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[core.Entity]map[string]core.Fields
	contacts map[string]string // lower-cased email -> contact id
	order    map[core.Entity][]string

	failures  map[core.Entity]error
	searchErr error

	history []core.ImportRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[core.Entity]map[string]core.Fields),
		contacts: make(map[string]string),
		order:    make(map[core.Entity][]string),
		failures: make(map[core.Entity]error),
	}
}

// FailInserts makes every insert of entity return err. A nil err clears it.
func (s *MemoryStore) FailInserts(entity core.Entity, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, entity)
		return
	}
	s.failures[entity] = err
}

// FailSearch makes every contact search return err. A nil err clears it.
func (s *MemoryStore) FailSearch(err error) {
	s.mu.Lock()
	s.searchErr = err
	s.mu.Unlock()
}

func (s *MemoryStore) SearchByEmail(_ context.Context, email string) ([]core.ContactMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.searchErr != nil {
		return nil, s.searchErr
	}
	id, ok := s.contacts[emailKey(email)]
	if !ok {
		return []core.ContactMatch{}, nil
	}
	account, _ := s.records[core.EntityContact][id]["Account_Name"].(string)
	return []core.ContactMatch{{ID: id, AccountID: account}}, nil
}

func (s *MemoryStore) Insert(_ context.Context, entity core.Entity, fields core.Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures[entity]; err != nil {
		return "", err
	}

	id := uuid.NewString()
	if s.records[entity] == nil {
		s.records[entity] = make(map[string]core.Fields)
	}
	s.records[entity][id] = maps.Clone(fields)
	s.order[entity] = append(s.order[entity], id)

	if entity == core.EntityContact {
		if email, _ := fields["Email"].(string); email != "" {
			s.contacts[emailKey(email)] = id
		}
	}
	return id, nil
}

func (s *MemoryStore) Update(_ context.Context, entity core.Entity, fields core.Fields) error {
	id, err := recordID(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[entity][id]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrRecordNotFound, entity, id)
	}
	for k, v := range fields {
		if k != "id" {
			rec[k] = v
		}
	}
	if entity == core.EntityContact {
		if email, _ := fields["Email"].(string); email != "" {
			s.contacts[emailKey(email)] = id
		}
	}
	return nil
}

// Get returns a copy of a stored record.
func (s *MemoryStore) Get(entity core.Entity, id string) (core.Fields, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[entity][id]
	return maps.Clone(rec), ok
}

// Count returns the number of records of entity.
func (s *MemoryStore) Count(entity core.Entity) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[entity])
}

// IDs returns the ids of entity in insertion order.
func (s *MemoryStore) IDs(entity core.Entity) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order[entity]...)
}

func (s *MemoryStore) RecordImport(_ context.Context, rec core.ImportRecord) error {
	s.mu.Lock()
	s.history = append(s.history, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RecentImports(_ context.Context, limit int) ([]core.ImportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.ImportRecord, 0, min(limit, len(s.history)))
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.history[i])
	}
	return out, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ core.Store        = (*MemoryStore)(nil)
	_ core.HistoryStore = (*MemoryStore)(nil)
)
