// Package memstore provides an in-memory PersonStore used by engine tests
// and local development. Its merge follows the same registry-driven rewrite
// as the Postgres adapter, with copy-on-write rollback standing in for a
// database transaction.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
	"github.com/arkiv-labs/dossier/backend/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Ref is one generic person-referencing row of a registry relation other
// than relationships.
type Ref struct {
	Relation string
	Column   string
	PersonID int64
}

// Store is an in-memory PersonStore. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	persons   map[int64]common.Person
	rels      map[int64]common.Relationship
	refs      []Ref
	nextRelID int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		persons:   make(map[int64]common.Person),
		rels:      make(map[int64]common.Relationship),
		nextRelID: 1,
	}
}

// AddPerson inserts or replaces a person record.
func (s *Store) AddPerson(p common.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.ID] = p
}

// AddRelationship inserts an edge. A zero ID is assigned the next free id.
// Self-edges and edges to unknown persons are rejected.
func (s *Store) AddRelationship(r common.Relationship) (common.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Person1ID == r.Person2ID {
		return common.Relationship{}, fmt.Errorf("self-edge on person %d", r.Person1ID)
	}
	if _, ok := s.persons[r.Person1ID]; !ok {
		return common.Relationship{}, fmt.Errorf("person %d: %w", r.Person1ID, store.ErrNotFound)
	}
	if _, ok := s.persons[r.Person2ID]; !ok {
		return common.Relationship{}, fmt.Errorf("person %d: %w", r.Person2ID, store.ErrNotFound)
	}

	if r.ID == 0 {
		r.ID = s.nextRelID
	}
	if r.ID >= s.nextRelID {
		s.nextRelID = r.ID + 1
	}
	s.rels[r.ID] = r
	return r, nil
}

// AddReference records a generic person reference in a registry relation.
func (s *Store) AddReference(relation, column string, personID int64) error {
	if cols := store.RefColumns(relation); cols == nil {
		return fmt.Errorf("relation %q not registered", relation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, Ref{Relation: relation, Column: column, PersonID: personID})
	return nil
}

func (s *Store) GetPersonByID(ctx context.Context, id int64) (common.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok {
		return common.Person{}, fmt.Errorf("person %d: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (s *Store) GetEdgesTouching(ctx context.Context, personID int64) ([]common.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]common.Relationship, 0)
	for _, r := range s.rels {
		if r.Person1ID == personID || r.Person2ID == personID {
			edges = append(edges, r)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges, nil
}

func (s *Store) GetAllPersons(ctx context.Context) ([]common.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons := make([]common.Person, 0, len(s.persons))
	for _, p := range s.persons {
		persons = append(persons, p)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })
	return persons, nil
}

func (s *Store) CountReferences(ctx context.Context, personID int64) (common.RefCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countReferencesLocked(personID), nil
}

func (s *Store) countReferencesLocked(personID int64) common.RefCounts {
	counts := make(common.RefCounts)
	for _, r := range s.rels {
		if r.Person1ID == personID {
			counts["relationships"]++
		}
		if r.Person2ID == personID {
			counts["relationships"]++
		}
	}
	for _, ref := range s.refs {
		if ref.PersonID == personID {
			counts[ref.Relation]++
		}
	}
	return counts
}

// MergePersons rewrites every reference from the duplicate ids onto
// primaryID under the store lock. The maps are snapshotted first; any
// failure restores the snapshot, so a failed merge leaves the store
// unchanged.
func (s *Store) MergePersons(ctx context.Context, primaryID int64, duplicateIDs []int64) (store.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[primaryID]; !ok {
		return store.MergeResult{}, fmt.Errorf("primary person %d: %w", primaryID, store.ErrNotFound)
	}
	for _, id := range duplicateIDs {
		if id == primaryID {
			return store.MergeResult{}, fmt.Errorf("person %d is both primary and duplicate: %w", id, store.ErrConflict)
		}
		if _, ok := s.persons[id]; !ok {
			return store.MergeResult{}, fmt.Errorf("duplicate person %d: %w", id, store.ErrNotFound)
		}
	}

	snapshot := s.snapshotLocked()
	dupeSet := make(map[int64]bool, len(duplicateIDs))
	for _, id := range duplicateIDs {
		dupeSet[id] = true
	}

	result := store.MergeResult{
		PrimaryID: primaryID,
		MergedIDs: append([]int64(nil), duplicateIDs...),
		Rewritten: make(common.RefCounts),
	}

	merged := func(id int64) bool { return id == primaryID || dupeSet[id] }
	for id, r := range s.rels {
		// An edge with both endpoints inside the merged set becomes a
		// self-loop once rewritten; drop it instead.
		if merged(r.Person1ID) && merged(r.Person2ID) &&
			(dupeSet[r.Person1ID] || dupeSet[r.Person2ID]) {
			delete(s.rels, id)
			result.RemovedSelfLoops++
			continue
		}
		changed := false
		if dupeSet[r.Person1ID] {
			r.Person1ID = primaryID
			result.Rewritten["relationships"]++
			changed = true
		}
		if dupeSet[r.Person2ID] {
			r.Person2ID = primaryID
			result.Rewritten["relationships"]++
			changed = true
		}
		if changed {
			s.rels[id] = r
		}
	}

	for i, ref := range s.refs {
		if dupeSet[ref.PersonID] {
			s.refs[i].PersonID = primaryID
			result.Rewritten[ref.Relation]++
		}
	}

	for _, id := range duplicateIDs {
		delete(s.persons, id)
	}

	auditID, err := gonanoid.New()
	if err != nil {
		s.restoreLocked(snapshot)
		return store.MergeResult{}, fmt.Errorf("failed to allocate audit id: %w", err)
	}
	result.AuditID = auditID

	return result, nil
}

type memSnapshot struct {
	persons map[int64]common.Person
	rels    map[int64]common.Relationship
	refs    []Ref
}

func (s *Store) snapshotLocked() memSnapshot {
	snap := memSnapshot{
		persons: make(map[int64]common.Person, len(s.persons)),
		rels:    make(map[int64]common.Relationship, len(s.rels)),
		refs:    append([]Ref(nil), s.refs...),
	}
	for id, p := range s.persons {
		snap.persons[id] = p
	}
	for id, r := range s.rels {
		snap.rels[id] = r
	}
	return snap
}

func (s *Store) restoreLocked(snap memSnapshot) {
	s.persons = snap.persons
	s.rels = snap.rels
	s.refs = snap.refs
}
