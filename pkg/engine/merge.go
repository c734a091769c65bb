package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/arkiv-labs/dossier/backend/pkg/logger"
	"github.com/arkiv-labs/dossier/backend/pkg/store"
)

// mergeLockKey serializes person merges across callers and processes.
const mergeLockKey = "person-merge"

// MergePersons re-points every reference from the duplicate ids onto
// primaryID and deletes the duplicates, atomically. Validation happens
// first: the primary must exist and must not be listed among the
// duplicates, and every duplicate must exist. The rewrite itself is one
// store transaction; any failure leaves the store in its pre-merge state.
//
// When the engine carries a MergeLocker, the whole merge runs under the
// person-merge lease so two concurrent merges are serialized; the store's
// row locks back the same guarantee inside the transaction.
func (e *Engine) MergePersons(ctx context.Context, primaryID int64, duplicateIDs []int64) (store.MergeResult, error) {
	if len(duplicateIDs) == 0 {
		return store.MergeResult{}, &InvalidArgumentError{Reason: "no duplicate ids given"}
	}

	seen := make(map[int64]bool, len(duplicateIDs))
	dupes := make([]int64, 0, len(duplicateIDs))
	for _, id := range duplicateIDs {
		if id == primaryID {
			return store.MergeResult{}, &InvalidArgumentError{Reason: "primary id listed among duplicates"}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		dupes = append(dupes, id)
	}
	sort.Slice(dupes, func(i, j int) bool { return dupes[i] < dupes[j] })

	if _, err := e.store.GetPersonByID(ctx, primaryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.MergeResult{}, &NotFoundError{ID: primaryID}
		}
		return store.MergeResult{}, storeErr(err)
	}
	for _, id := range dupes {
		if _, err := e.store.GetPersonByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.MergeResult{}, &NotFoundError{ID: id}
			}
			return store.MergeResult{}, storeErr(err)
		}
	}

	logger.Info("[Merge] Starting merge",
		"primary_id", primaryID, "duplicates", len(dupes))

	var result store.MergeResult
	run := func(ctx context.Context) error {
		var err error
		result, err = e.store.MergePersons(ctx, primaryID, dupes)
		return err
	}

	var err error
	if e.locker != nil {
		err = e.locker.WithLock(ctx, mergeLockKey, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		// Existence can change between validation and the transaction; a
		// duplicate deleted by a racing merge surfaces here.
		translated := storeErr(err)
		logger.Warn("[Merge] Merge aborted", "primary_id", primaryID, "err", err)
		if errors.Is(translated, ErrNotFound) || errors.Is(translated, ErrMergeConflict) {
			return store.MergeResult{}, translated
		}
		return store.MergeResult{}, &MergeError{Step: "rewrite", Err: translated}
	}

	logger.Info("[Merge] Merge committed",
		"primary_id", primaryID,
		"audit_id", result.AuditID,
		"rewritten", result.Rewritten.Total(),
		"removed_self_loops", result.RemovedSelfLoops)

	return result, nil
}
