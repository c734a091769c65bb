package common

import (
	"fmt"
	"time"
)

// Confidence is the evidentiary certainty recorded on a relationship.
// It weights edges for display; it never excludes an edge from traversal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Weight maps a confidence level onto a display opacity in (0, 1].
// Unset confidence is treated as medium.
func (c Confidence) Weight() float64 {
	switch c {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceLow:
		return 0.3
	default:
		return 0.6
	}
}

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Stronger returns the higher of two confidence levels.
func (c Confidence) Stronger(other Confidence) Confidence {
	if other.rank() > c.rank() {
		return other
	}
	return c
}

// Person is a person record produced by document extraction. The engine
// treats it as read-only except during a merge.
type Person struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"full_name"`
	AltNames    []string `json:"alt_names,omitempty"`
	Role        string   `json:"role,omitempty"`
	Occupation  string   `json:"occupation,omitempty"`
	Nationality string   `json:"nationality,omitempty"`
	Redacted    bool     `json:"redacted,omitempty"`
}

// Relationship is one edge of the relationship table. The edge is
// semantically unordered: person1/person2 carry no direction for traversal.
type Relationship struct {
	ID               int64      `json:"id"`
	Person1ID        int64      `json:"person1_id"`
	Person2ID        int64      `json:"person2_id"`
	Type             string     `json:"type"`
	Confidence       Confidence `json:"confidence,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	SourceDocumentID *int64     `json:"source_document_id,omitempty"`
}

// Other returns the endpoint of the edge that is not personID.
func (r Relationship) Other(personID int64) int64 {
	if r.Person1ID == personID {
		return r.Person2ID
	}
	return r.Person1ID
}

// NodeKind tags a graph node with its entity kind.
type NodeKind string

const (
	NodePerson       NodeKind = "person"
	NodeOrganization NodeKind = "organization"
	NodeLocation     NodeKind = "location"
	NodeEvent        NodeKind = "event"
)

// Node is one entry of a NetworkGraph node set.
type Node struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Kind   NodeKind `json:"kind"`
	Center bool     `json:"center,omitempty"`
}

// PersonNodeID formats the stable node id for a person.
func PersonNodeID(id int64) string {
	return fmt.Sprintf("person-%d", id)
}

// Edge is one entry of a NetworkGraph edge set. Parallel relationship
// records between the same endpoint pair are collapsed into a single edge;
// Weight carries the count of collapsed records and RelationshipIDs lists
// them for traceability.
type Edge struct {
	Source          string     `json:"source"`
	Target          string     `json:"target"`
	Type            string     `json:"type"`
	Confidence      Confidence `json:"confidence,omitempty"`
	Weight          float64    `json:"weight"`
	RelationshipIDs []int64    `json:"relationship_ids"`
}

// NetworkGraph is the bounded-depth induced subgraph around a person.
// It is computed fresh per query and never persisted.
type NetworkGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ConnectionPath is the shortest connection between two persons within a
// hop bound. Persons is ordered source to target; Edges[i] connects
// Persons[i] to Persons[i+1]. Found=false is a valid "no connection within
// scope" answer, not an error.
type ConnectionPath struct {
	Found   bool           `json:"found"`
	Hops    int            `json:"hops"`
	Persons []Person       `json:"persons,omitempty"`
	Edges   []Relationship `json:"edges,omitempty"`
}

// RefCounts holds per-relation counts of rows referencing a person.
type RefCounts map[string]int64

// Total sums the counts across all referencing relations.
func (rc RefCounts) Total() int64 {
	var total int64
	for _, n := range rc {
		total += n
	}
	return total
}

// Add merges other into rc in place.
func (rc RefCounts) Add(other RefCounts) {
	for rel, n := range other {
		rc[rel] += n
	}
}

// DuplicateGroup is one cluster of person records judged to be variants of
// the same real person.
type DuplicateGroup struct {
	CanonicalName string    `json:"canonical_name"`
	Variants      []Person  `json:"variants"`
	References    RefCounts `json:"references"`
}
