package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
	"github.com/arkiv-labs/dossier/backend/pkg/logger"
	"github.com/arkiv-labs/dossier/backend/pkg/store"
)

// pathStep records how BFS first reached a person: the edge taken and the
// node it came from. The first assignment wins and is never replaced, which
// together with the fixed expansion order makes tie-breaking deterministic.
type pathStep struct {
	edge common.Relationship
	from int64
}

// FindPath computes a minimum-hop connection between two persons, bounded by
// maxDepth. Standard BFS shortest-path semantics apply: the first time the
// target is reached, the hop count is optimal.
//
// Tie-break policy for equal-length paths: frontier nodes are expanded in
// discovery order and each node's edges in ascending edge-id order, so
// repeated queries against unchanged data return the same path.
//
// A missing endpoint is reported as ErrNotFound; an absent connection within
// the bound is Found=false with a nil error.
func (e *Engine) FindPath(ctx context.Context, personAID, personBID int64, maxDepth int) (common.ConnectionPath, error) {
	if maxDepth < 0 {
		return common.ConnectionPath{}, &InvalidArgumentError{Reason: "max depth must not be negative"}
	}
	if maxDepth > e.maxPathDepth {
		maxDepth = e.maxPathDepth
	}

	personA, err := e.store.GetPersonByID(ctx, personAID)
	if errors.Is(err, store.ErrNotFound) {
		return common.ConnectionPath{}, &NotFoundError{ID: personAID}
	}
	if err != nil {
		return common.ConnectionPath{}, storeErr(err)
	}
	personB, err := e.store.GetPersonByID(ctx, personBID)
	if errors.Is(err, store.ErrNotFound) {
		return common.ConnectionPath{}, &NotFoundError{ID: personBID}
	}
	if err != nil {
		return common.ConnectionPath{}, storeErr(err)
	}

	if personAID == personBID {
		return common.ConnectionPath{
			Found:   true,
			Hops:    0,
			Persons: []common.Person{personA},
			Edges:   []common.Relationship{},
		}, nil
	}

	prev := make(map[int64]pathStep)
	visited := map[int64]bool{personAID: true}
	frontier := []int64{personAID}

	for hop := 0; hop < maxDepth && len(frontier) > 0; hop++ {
		edgesByNode, err := e.fetchAdjacency(ctx, frontier)
		if err != nil {
			return common.ConnectionPath{}, err
		}

		var next []int64
		for i, nodeID := range frontier {
			edges := edgesByNode[i]
			sort.Slice(edges, func(a, b int) bool { return edges[a].ID < edges[b].ID })

			for _, rel := range edges {
				if rel.Person1ID == rel.Person2ID {
					continue
				}
				other := rel.Other(nodeID)
				if visited[other] {
					continue
				}
				visited[other] = true
				prev[other] = pathStep{edge: rel, from: nodeID}

				if other == personBID {
					return e.reconstructPath(ctx, personA, personB, prev)
				}
				next = append(next, other)
			}
		}
		frontier = next
	}

	logger.Debug("[Path] No connection within bound",
		"person_a", personAID, "person_b", personBID, "max_depth", maxDepth)

	return common.ConnectionPath{Found: false}, nil
}

// reconstructPath walks the predecessor map from target back to source and
// reverses the result into source-to-target order.
func (e *Engine) reconstructPath(
	ctx context.Context,
	source, target common.Person,
	prev map[int64]pathStep,
) (common.ConnectionPath, error) {
	var revEdges []common.Relationship
	var revIDs []int64

	cursor := target.ID
	for cursor != source.ID {
		step := prev[cursor]
		revEdges = append(revEdges, step.edge)
		revIDs = append(revIDs, cursor)
		cursor = step.from
	}

	persons := make([]common.Person, 0, len(revIDs)+1)
	edges := make([]common.Relationship, 0, len(revEdges))
	persons = append(persons, source)

	for i := len(revIDs) - 1; i >= 0; i-- {
		id := revIDs[i]
		if id == target.ID {
			persons = append(persons, target)
		} else {
			p, err := e.store.GetPersonByID(ctx, id)
			if err != nil {
				return common.ConnectionPath{}, storeErr(err)
			}
			persons = append(persons, p)
		}
		edges = append(edges, revEdges[i])
	}

	logger.Debug("[Path] Connection found",
		"person_a", source.ID, "person_b", target.ID, "hops", len(edges))

	return common.ConnectionPath{
		Found:   true,
		Hops:    len(edges),
		Persons: persons,
		Edges:   edges,
	}, nil
}
