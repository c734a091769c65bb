package engine

import (
	"context"
	"sort"
	"strconv"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
	"github.com/arkiv-labs/dossier/backend/pkg/logger"
)

// personPair marks two person ids whose normalized names scored at or above
// the similarity threshold.
type personPair struct {
	id1, id2 int64
}

// FindDuplicates groups person records into candidate duplicate clusters by
// normalized-name similarity. Clusters are the transitive closure of the
// pairwise "similar" relation: when A~B and B~C both reach the threshold,
// A, B and C land in one cluster even if A~C alone falls short. That
// chaining is a deliberate policy, not an accident; it mirrors how analysts
// walk name variants and it is tested directly.
//
// Pairwise comparison is blocked by the first letter of the normalized name
// to avoid full quadratic work; variants that disagree on their first letter
// are never compared. Singleton clusters are omitted since they represent
// nothing to merge. Concurrent scans with the same threshold share one
// underlying pass.
func (e *Engine) FindDuplicates(ctx context.Context, threshold float64) ([]common.DuplicateGroup, error) {
	if threshold < 0 || threshold > 1 {
		return nil, &InvalidArgumentError{Reason: "threshold must be within [0, 1]"}
	}

	key := strconv.FormatFloat(threshold, 'f', -1, 64)
	v, err, shared := e.dupeFlight.Do(key, func() (any, error) {
		return e.findDuplicates(ctx, threshold)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("[Dedupe] Scan result shared with concurrent caller", "threshold", threshold)
	}
	return v.([]common.DuplicateGroup), nil
}

func (e *Engine) findDuplicates(ctx context.Context, threshold float64) ([]common.DuplicateGroup, error) {
	persons, err := e.store.GetAllPersons(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })

	normalized := make([]string, len(persons))
	blocks := make(map[rune][]int)
	for i, p := range persons {
		name := NormalizeName(p.FullName)
		if name == "" {
			continue
		}
		normalized[i] = name
		first := []rune(name)[0]
		blocks[first] = append(blocks[first], i)
	}

	var pairs []personPair
	compared := 0
	for _, block := range blocks {
		for bi := 0; bi < len(block); bi++ {
			for bj := bi + 1; bj < len(block); bj++ {
				i, j := block[bi], block[bj]
				compared++
				if e.scorer.Similarity(normalized[i], normalized[j]) >= threshold {
					pairs = append(pairs, personPair{id1: persons[i].ID, id2: persons[j].ID})
				}
			}
		}
	}

	logger.Debug("[Dedupe] Pairwise comparison completed",
		"persons", len(persons), "compared", compared, "pairs", len(pairs))

	if len(pairs) == 0 {
		return []common.DuplicateGroup{}, nil
	}

	personByID := make(map[int64]common.Person, len(persons))
	for _, p := range persons {
		personByID[p.ID] = p
	}

	groups := make([]common.DuplicateGroup, 0)
	for _, component := range connectedComponents(pairs) {
		group, err := e.buildDuplicateGroup(ctx, component, personByID)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	// Components come out of the union-find map in random order.
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Variants[0].ID < groups[j].Variants[0].ID
	})

	logger.Debug("[Dedupe] Clustering completed", "groups", len(groups))
	return groups, nil
}

// connectedComponents groups ids that are transitively similar using
// union-find. Only components with more than one member are returned, each
// sorted by id.
func connectedComponents(pairs []personPair) [][]int64 {
	parent := make(map[int64]int64)

	var find func(x int64) int64
	find = func(x int64) int64 {
		if _, ok := parent[x]; !ok {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	union := func(x, y int64) {
		px, py := find(x), find(y)
		if px != py {
			parent[px] = py
		}
	}

	for _, p := range pairs {
		union(p.id1, p.id2)
	}

	components := make(map[int64][]int64)
	for id := range parent {
		root := find(id)
		components[root] = append(components[root], id)
	}

	result := make([][]int64, 0, len(components))
	for _, group := range components {
		if len(group) <= 1 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i] < group[j] })
		result = append(result, group)
	}
	return result
}

// buildDuplicateGroup assembles one cluster: variants sorted by id,
// aggregate reference counts, and the canonical display name. The canonical
// name is the variant with the most store references; ties go to the longer
// name, then the lexicographically smaller one.
func (e *Engine) buildDuplicateGroup(
	ctx context.Context,
	component []int64,
	personByID map[int64]common.Person,
) (common.DuplicateGroup, error) {
	group := common.DuplicateGroup{
		Variants:   make([]common.Person, 0, len(component)),
		References: make(common.RefCounts),
	}

	canonical := ""
	var canonicalRefs int64 = -1
	for _, id := range component {
		p := personByID[id]
		group.Variants = append(group.Variants, p)

		refs, err := e.store.CountReferences(ctx, id)
		if err != nil {
			return common.DuplicateGroup{}, storeErr(err)
		}
		group.References.Add(refs)

		total := refs.Total()
		if total > canonicalRefs ||
			(total == canonicalRefs && len(p.FullName) > len(canonical)) ||
			(total == canonicalRefs && len(p.FullName) == len(canonical) && p.FullName < canonical) {
			canonical = p.FullName
			canonicalRefs = total
		}
	}
	group.CanonicalName = canonical
	return group, nil
}
