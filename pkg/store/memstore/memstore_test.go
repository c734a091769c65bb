package memstore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
	"github.com/arkiv-labs/dossier/backend/pkg/store"
)

func TestAddRelationship_Validation(t *testing.T) {
	s := New()
	s.AddPerson(common.Person{ID: 1, FullName: "A"})
	s.AddPerson(common.Person{ID: 2, FullName: "B"})

	if _, err := s.AddRelationship(common.Relationship{Person1ID: 1, Person2ID: 1}); err == nil {
		t.Fatal("expected self-edge to be rejected")
	}
	if _, err := s.AddRelationship(common.Relationship{Person1ID: 1, Person2ID: 99}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown endpoint, got %v", err)
	}

	r, err := s.AddRelationship(common.Relationship{Person1ID: 1, Person2ID: 2, Type: "associate"})
	if err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("expected an assigned relationship id")
	}
}

func TestAddReference_UnknownRelation(t *testing.T) {
	s := New()
	if err := s.AddReference("not_a_relation", "person_id", 1); err == nil {
		t.Fatal("expected unknown relation to be rejected")
	}
	if err := s.AddReference("event_participants", "person_id", 1); err != nil {
		t.Fatalf("expected registered relation to be accepted: %v", err)
	}
}

func TestGetEdgesTouching_OrderedByID(t *testing.T) {
	s := New()
	for i := int64(1); i <= 3; i++ {
		s.AddPerson(common.Person{ID: i, FullName: "P"})
	}
	for _, rel := range []common.Relationship{
		{ID: 5, Person1ID: 1, Person2ID: 2},
		{ID: 2, Person1ID: 3, Person2ID: 1},
		{ID: 9, Person1ID: 2, Person2ID: 1},
	} {
		if _, err := s.AddRelationship(rel); err != nil {
			t.Fatalf("AddRelationship failed: %v", err)
		}
	}

	edges, err := s.GetEdgesTouching(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetEdgesTouching failed: %v", err)
	}
	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []int64{2, 5, 9}) {
		t.Fatalf("expected edges ordered by id [2 5 9], got %v", ids)
	}
}

func TestGetAllPersons_OrderedByID(t *testing.T) {
	s := New()
	for _, id := range []int64{7, 1, 4} {
		s.AddPerson(common.Person{ID: id, FullName: "P"})
	}

	persons, err := s.GetAllPersons(context.Background())
	if err != nil {
		t.Fatalf("GetAllPersons failed: %v", err)
	}
	ids := make([]int64, 0, len(persons))
	for _, p := range persons {
		ids = append(ids, p.ID)
	}
	if !reflect.DeepEqual(ids, []int64{1, 4, 7}) {
		t.Fatalf("expected persons ordered by id [1 4 7], got %v", ids)
	}
}

func TestCountReferences(t *testing.T) {
	s := New()
	s.AddPerson(common.Person{ID: 1, FullName: "A"})
	s.AddPerson(common.Person{ID: 2, FullName: "B"})
	if _, err := s.AddRelationship(common.Relationship{Person1ID: 1, Person2ID: 2}); err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}
	if err := s.AddReference("media_tags", "person_id", 1); err != nil {
		t.Fatalf("AddReference failed: %v", err)
	}

	counts, err := s.CountReferences(context.Background(), 1)
	if err != nil {
		t.Fatalf("CountReferences failed: %v", err)
	}
	want := common.RefCounts{"relationships": 1, "media_tags": 1}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("expected counts %v, got %v", want, counts)
	}
	if counts.Total() != 2 {
		t.Fatalf("expected total 2, got %d", counts.Total())
	}
}

func TestMergePersons_Conflicts(t *testing.T) {
	s := New()
	s.AddPerson(common.Person{ID: 1, FullName: "A"})
	s.AddPerson(common.Person{ID: 2, FullName: "B"})

	if _, err := s.MergePersons(context.Background(), 99, []int64{2}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown primary, got %v", err)
	}
	if _, err := s.MergePersons(context.Background(), 1, []int64{99}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown duplicate, got %v", err)
	}
	if _, err := s.MergePersons(context.Background(), 1, []int64{1}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict when primary is listed as duplicate, got %v", err)
	}
}

func TestMergePersons_RewritesReferences(t *testing.T) {
	s := New()
	s.AddPerson(common.Person{ID: 1, FullName: "A"})
	s.AddPerson(common.Person{ID: 2, FullName: "B"})
	s.AddPerson(common.Person{ID: 3, FullName: "C"})
	if _, err := s.AddRelationship(common.Relationship{Person1ID: 2, Person2ID: 3}); err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}
	if err := s.AddReference("document_mentions", "person_id", 2); err != nil {
		t.Fatalf("AddReference failed: %v", err)
	}

	result, err := s.MergePersons(context.Background(), 1, []int64{2})
	if err != nil {
		t.Fatalf("MergePersons failed: %v", err)
	}
	if result.AuditID == "" {
		t.Fatal("expected an audit id")
	}
	want := common.RefCounts{"relationships": 1, "document_mentions": 1}
	if !reflect.DeepEqual(result.Rewritten, want) {
		t.Fatalf("expected rewritten %v, got %v", want, result.Rewritten)
	}

	if _, err := s.GetPersonByID(context.Background(), 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected duplicate to be deleted, got %v", err)
	}
	counts, err := s.CountReferences(context.Background(), 1)
	if err != nil {
		t.Fatalf("CountReferences failed: %v", err)
	}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("expected primary to hold the rewritten references %v, got %v", want, counts)
	}
}
