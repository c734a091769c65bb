package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
	"github.com/arkiv-labs/dossier/backend/pkg/store/memstore"
)

// stubScorer returns fixed scores per unordered name pair, zero otherwise.
type stubScorer struct {
	scores map[[2]string]float64
}

func (s stubScorer) Similarity(a, b string) float64 {
	if v, ok := s.scores[[2]string{a, b}]; ok {
		return v
	}
	return s.scores[[2]string{b, a}]
}

func dedupeStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	s.AddPerson(common.Person{ID: 1, FullName: "Jeffrey Epstein"})
	s.AddPerson(common.Person{ID: 2, FullName: "Jeff Epstein"})
	s.AddPerson(common.Person{ID: 3, FullName: "Alan Dershowitz"})
	s.AddPerson(common.Person{ID: 4, FullName: "Ghislaine Maxwell"})
	s.AddPerson(common.Person{ID: 5, FullName: "Ghislane Maxwell"})
	return s
}

func groupVariantIDs(g common.DuplicateGroup) []int64 {
	ids := make([]int64, 0, len(g.Variants))
	for _, v := range g.Variants {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestFindDuplicates_GroupsNameVariants(t *testing.T) {
	s := dedupeStore(t)
	e := newTestEngine(t, s)

	groups, err := e.FindDuplicates(context.Background(), 0.85)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}

	if got := groupVariantIDs(groups[0]); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Fatalf("expected first group [1 2], got %v", got)
	}
	if got := groupVariantIDs(groups[1]); !reflect.DeepEqual(got, []int64{4, 5}) {
		t.Fatalf("expected second group [4 5], got %v", got)
	}
}

func TestFindDuplicates_NoPersonInTwoGroups(t *testing.T) {
	s := dedupeStore(t)
	e := newTestEngine(t, s)

	groups, err := e.FindDuplicates(context.Background(), 0.8)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}

	seen := make(map[int64]bool)
	for _, g := range groups {
		for _, v := range g.Variants {
			if seen[v.ID] {
				t.Fatalf("person %d appears in more than one group", v.ID)
			}
			seen[v.ID] = true
		}
	}
}

func TestFindDuplicates_NoSingletonGroups(t *testing.T) {
	s := dedupeStore(t)
	e := newTestEngine(t, s)

	groups, err := e.FindDuplicates(context.Background(), 0.85)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	for _, g := range groups {
		if len(g.Variants) < 2 {
			t.Fatalf("singleton group emitted: %+v", g)
		}
	}
}

func TestFindDuplicates_TransitiveChaining(t *testing.T) {
	s := memstore.New()
	s.AddPerson(common.Person{ID: 1, FullName: "Jeffrey Epstein"})
	s.AddPerson(common.Person{ID: 2, FullName: "Jeff Epstein"})
	s.AddPerson(common.Person{ID: 3, FullName: "J Epstein"})

	// A~B and B~C reach the threshold; A~C alone does not. The cluster must
	// still contain all three.
	scorer := stubScorer{scores: map[[2]string]float64{
		{"jeffrey epstein", "jeff epstein"}: 0.95,
		{"jeff epstein", "j epstein"}:       0.95,
		{"jeffrey epstein", "j epstein"}:    0.50,
	}}

	e, err := New(Params{Store: s, Scorer: scorer})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	groups, err := e.FindDuplicates(context.Background(), 0.9)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d: %+v", len(groups), groups)
	}
	if got := groupVariantIDs(groups[0]); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("expected chained group [1 2 3], got %v", got)
	}
}

func TestFindDuplicates_CanonicalNameByReferences(t *testing.T) {
	s := dedupeStore(t)
	// Give the shorter variant more references; it should win the canonical
	// name despite being shorter.
	for i := 0; i < 3; i++ {
		if err := s.AddReference("document_mentions", "person_id", 2); err != nil {
			t.Fatalf("failed to add reference: %v", err)
		}
	}

	e := newTestEngine(t, s)
	groups, err := e.FindDuplicates(context.Background(), 0.85)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(groups) == 0 {
		t.Fatal("expected at least one group")
	}
	if groups[0].CanonicalName != "Jeff Epstein" {
		t.Fatalf("expected canonical name of the most-referenced variant, got %q", groups[0].CanonicalName)
	}
	if groups[0].References["document_mentions"] != 3 {
		t.Fatalf("expected 3 aggregated document mentions, got %d", groups[0].References["document_mentions"])
	}
}

func TestFindDuplicates_CanonicalNameTieGoesToLonger(t *testing.T) {
	s := dedupeStore(t)
	e := newTestEngine(t, s)

	groups, err := e.FindDuplicates(context.Background(), 0.85)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	// No references anywhere, so length decides.
	if groups[0].CanonicalName != "Jeffrey Epstein" {
		t.Fatalf("expected longer variant as canonical, got %q", groups[0].CanonicalName)
	}
	if groups[1].CanonicalName != "Ghislaine Maxwell" {
		t.Fatalf("expected longer variant as canonical, got %q", groups[1].CanonicalName)
	}
}

func TestFindDuplicates_Deterministic(t *testing.T) {
	s := dedupeStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()

	first, err := e.FindDuplicates(ctx, 0.85)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.FindDuplicates(ctx, 0.85)
		if err != nil {
			t.Fatalf("FindDuplicates failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("expected identical groups across runs:\n%+v\n%+v", first, again)
		}
	}
}

func TestFindDuplicates_ThresholdValidation(t *testing.T) {
	e := newTestEngine(t, dedupeStore(t))

	for _, threshold := range []float64{-0.1, 1.1} {
		_, err := e.FindDuplicates(context.Background(), threshold)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument for threshold %v, got %v", threshold, err)
		}
	}
}

func TestFindDuplicates_EmptyStore(t *testing.T) {
	e := newTestEngine(t, memstore.New())

	groups, err := e.FindDuplicates(context.Background(), 0.85)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestConnectedComponents(t *testing.T) {
	pairs := []personPair{
		{id1: 1, id2: 2},
		{id1: 2, id2: 3},
		{id1: 7, id2: 9},
	}

	got := connectedComponents(pairs)
	if len(got) != 2 {
		t.Fatalf("expected 2 components, got %d: %v", len(got), got)
	}

	byFirst := make(map[int64][]int64)
	for _, c := range got {
		byFirst[c[0]] = c
	}
	if !reflect.DeepEqual(byFirst[1], []int64{1, 2, 3}) {
		t.Fatalf("expected component [1 2 3], got %v", byFirst[1])
	}
	if !reflect.DeepEqual(byFirst[7], []int64{7, 9}) {
		t.Fatalf("expected component [7 9], got %v", byFirst[7])
	}
}
