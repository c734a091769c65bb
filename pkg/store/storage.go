package store

import (
	"context"
	"errors"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
)

var (
	// ErrNotFound is returned when a referenced person id does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a concurrent mutation invalidated the
	// operation, e.g. a merge racing another merge over the same duplicate.
	ErrConflict = errors.New("store: conflict")
)

// MergeResult reports what a committed merge rewrote.
type MergeResult struct {
	AuditID          string           `json:"audit_id"`
	PrimaryID        int64            `json:"primary_id"`
	MergedIDs        []int64          `json:"merged_ids"`
	Rewritten        common.RefCounts `json:"rewritten"`
	RemovedSelfLoops int64            `json:"removed_self_loops"`
}

// PersonStore is the narrow surface the engine consumes from the relational
// store. Implementations must enforce referential integrity on the
// relationship table; the engine does not re-check it on reads.
type PersonStore interface {
	// GetPersonByID returns the person or ErrNotFound.
	GetPersonByID(ctx context.Context, id int64) (common.Person, error)

	// GetEdgesTouching returns every relationship edge with personID as
	// either endpoint, ordered by edge id ascending.
	GetEdgesTouching(ctx context.Context, personID int64) ([]common.Relationship, error)

	// GetAllPersons returns the full person set ordered by id ascending.
	GetAllPersons(ctx context.Context) ([]common.Person, error)

	// CountReferences counts rows referencing the person across every
	// relation in the registry.
	CountReferences(ctx context.Context, personID int64) (common.RefCounts, error)

	// MergePersons re-points every registry reference from the duplicate ids
	// onto primaryID, removes relationship self-loops the rewrite produced,
	// deletes the duplicate person rows, and records an audit entry, all in
	// one transaction. Any failure rolls the whole transaction back.
	MergePersons(ctx context.Context, primaryID int64, duplicateIDs []int64) (MergeResult, error)
}
