package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	mu  sync.Mutex
	seq int

	contacts map[string]ContactMatch // lower-cased email -> contact
	inserts  map[Entity][]Fields
	updates  []Fields
	calls    []string

	searchErr error
	updateErr error
	// insertErr decides per call whether an insert fails.
	insertErr func(entity Entity, fields Fields) error
	// noID makes inserts of this entity succeed without an id.
	noID Entity
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contacts: make(map[string]ContactMatch),
		inserts:  make(map[Entity][]Fields),
	}
}

func (s *fakeStore) SearchByEmail(_ context.Context, email string) ([]ContactMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "search "+email)

	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if c, ok := s.contacts[strings.ToLower(email)]; ok {
		return []ContactMatch{c}, nil
	}
	return nil, nil
}

func (s *fakeStore) Insert(_ context.Context, entity Entity, fields Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "insert "+string(entity))

	if s.insertErr != nil {
		if err := s.insertErr(entity, fields); err != nil {
			return "", err
		}
	}
	s.inserts[entity] = append(s.inserts[entity], fields)
	if entity == s.noID {
		return "", nil
	}

	s.seq++
	id := fmt.Sprintf("%s-%d", strings.ToLower(string(entity)), s.seq)
	if entity == EntityContact {
		email, _ := fields["Email"].(string)
		account, _ := fields["Account_Name"].(string)
		s.contacts[strings.ToLower(email)] = ContactMatch{ID: id, AccountID: account}
	}
	return id, nil
}

func (s *fakeStore) Update(_ context.Context, entity Entity, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "update "+string(entity))

	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, fields)

	id, _ := fields["id"].(string)
	account, _ := fields["Account_Name"].(string)
	for email, c := range s.contacts {
		if c.ID == id {
			c.AccountID = account
			s.contacts[email] = c
		}
	}
	return nil
}

// seedContact registers an existing contact.
func (s *fakeStore) seedContact(email, id, accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[strings.ToLower(email)] = ContactMatch{ID: id, AccountID: accountID}
}

func (s *fakeStore) count(entity Entity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserts[entity])
}

// beneficiaryMatrix builds a matrix with the template headers and one row per
// (name, email) pair; remaining cells are empty.
func beneficiaryMatrix(rows ...[2]string) Matrix {
	m := Matrix{TextRow(TemplateHeaders...)}
	for _, r := range rows {
		row := make(Row, len(TemplateHeaders))
		row[2] = Text(r[0])
		if r[1] != "" {
			row[7] = Text(r[1])
		}
		m = append(m, row)
	}
	return m
}
