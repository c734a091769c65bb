package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
	"github.com/arkiv-labs/dossier/backend/pkg/logger"
	"github.com/arkiv-labs/dossier/backend/pkg/store"

	"golang.org/x/sync/errgroup"
)

// pairKey identifies an unordered endpoint pair.
type pairKey struct {
	lo, hi int64
}

func newPairKey(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// aggEdge accumulates parallel relationship records between one endpoint
// pair. The type and confidence of the lowest-id record win so the collapsed
// edge is stable across runs.
type aggEdge struct {
	pair       pairKey
	relType    string
	confidence common.Confidence
	lowestID   int64
	ids        []int64
}

// BuildNetwork expands the bounded-depth induced subgraph around personID
// with breadth-first traversal. Level 0 is the starting person itself; each
// further level adds the other endpoint of every edge touching the previous
// frontier. Nodes are deduplicated by person id and parallel edges are
// collapsed, with the result edge weighted by the number of collapsed
// relationship records.
//
// An unknown starting person yields an empty graph and a nil error.
func (e *Engine) BuildNetwork(ctx context.Context, personID int64, depth int) (common.NetworkGraph, error) {
	if depth < 0 {
		return common.NetworkGraph{}, &InvalidArgumentError{Reason: "depth must not be negative"}
	}
	if depth > e.maxNetworkDepth {
		depth = e.maxNetworkDepth
	}

	center, err := e.store.GetPersonByID(ctx, personID)
	if errors.Is(err, store.ErrNotFound) {
		logger.Debug("[Network] Unknown starting person", "person_id", personID)
		return common.NetworkGraph{Nodes: []common.Node{}, Edges: []common.Edge{}}, nil
	}
	if err != nil {
		return common.NetworkGraph{}, storeErr(err)
	}

	visited := map[int64]common.Person{personID: center}
	nodeOrder := []int64{personID}
	seenRel := make(map[int64]bool)
	edgeByPair := make(map[pairKey]*aggEdge)
	edgeOrder := make([]pairKey, 0)

	frontier := []int64{personID}
	for level := 0; level < depth && len(frontier) > 0; level++ {
		edgesByNode, err := e.fetchAdjacency(ctx, frontier)
		if err != nil {
			return common.NetworkGraph{}, err
		}

		var next []int64
		for i, nodeID := range frontier {
			edges := edgesByNode[i]
			sort.Slice(edges, func(a, b int) bool { return edges[a].ID < edges[b].ID })

			for _, rel := range edges {
				if rel.Person1ID == rel.Person2ID {
					continue
				}
				if seenRel[rel.ID] {
					continue
				}
				seenRel[rel.ID] = true

				other := rel.Other(nodeID)
				if _, ok := visited[other]; !ok {
					p, err := e.store.GetPersonByID(ctx, other)
					if errors.Is(err, store.ErrNotFound) {
						// Dangling endpoint; the store enforces integrity,
						// so skip rather than fail the whole query.
						continue
					}
					if err != nil {
						return common.NetworkGraph{}, storeErr(err)
					}
					visited[other] = p
					nodeOrder = append(nodeOrder, other)
					next = append(next, other)
				}

				key := newPairKey(rel.Person1ID, rel.Person2ID)
				agg, ok := edgeByPair[key]
				if !ok {
					agg = &aggEdge{
						pair:       key,
						relType:    rel.Type,
						confidence: rel.Confidence,
						lowestID:   rel.ID,
					}
					edgeByPair[key] = agg
					edgeOrder = append(edgeOrder, key)
				} else if rel.ID < agg.lowestID {
					agg.lowestID = rel.ID
					agg.relType = rel.Type
					agg.confidence = rel.Confidence
				}
				agg.ids = append(agg.ids, rel.ID)
			}
		}
		frontier = next
	}

	graph := common.NetworkGraph{
		Nodes: make([]common.Node, 0, len(nodeOrder)),
		Edges: make([]common.Edge, 0, len(edgeOrder)),
	}
	for _, id := range nodeOrder {
		graph.Nodes = append(graph.Nodes, personNode(visited[id], id == personID))
	}
	for _, key := range edgeOrder {
		agg := edgeByPair[key]
		sort.Slice(agg.ids, func(a, b int) bool { return agg.ids[a] < agg.ids[b] })
		graph.Edges = append(graph.Edges, common.Edge{
			Source:          common.PersonNodeID(agg.pair.lo),
			Target:          common.PersonNodeID(agg.pair.hi),
			Type:            agg.relType,
			Confidence:      agg.confidence,
			Weight:          float64(len(agg.ids)),
			RelationshipIDs: agg.ids,
		})
	}

	logger.Debug("[Network] Expansion completed",
		"person_id", personID, "depth", depth,
		"nodes", len(graph.Nodes), "edges", len(graph.Edges))

	return graph, nil
}

// fetchAdjacency loads the edge lists for every frontier node. Fetches run
// concurrently but land in frontier order, so traversal stays deterministic.
func (e *Engine) fetchAdjacency(ctx context.Context, frontier []int64) ([][]common.Relationship, error) {
	edgesByNode := make([][]common.Relationship, len(frontier))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallelFetches)
	for i, id := range frontier {
		eg.Go(func() error {
			edges, err := e.store.GetEdgesTouching(gctx, id)
			if err != nil {
				return err
			}
			edgesByNode[i] = edges
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, storeErr(err)
	}
	return edgesByNode, nil
}

func personNode(p common.Person, center bool) common.Node {
	label := p.FullName
	if p.Redacted {
		label = "[REDACTED]"
	}
	return common.Node{
		ID:     common.PersonNodeID(p.ID),
		Label:  label,
		Kind:   common.NodePerson,
		Center: center,
	}
}
