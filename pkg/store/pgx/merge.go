package pgx

import (
	"context"
	"fmt"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
	"github.com/arkiv-labs/dossier/backend/pkg/logger"
	"github.com/arkiv-labs/dossier/backend/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MergePersons rewrites every registry reference from the duplicate ids
// onto primaryID inside a single transaction. The primary and duplicate
// person rows are locked first so a concurrent merge or relationship insert
// cannot reference an id that is about to be deleted; a duplicate already
// deleted by a racing merge fails the lock count check and the whole
// transaction rolls back.
func (s *PersonDBStorage) MergePersons(ctx context.Context, primaryID int64, duplicateIDs []int64) (store.MergeResult, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	allIDs := append([]int64{primaryID}, duplicateIDs...)
	rows, err := tx.Query(ctx, "SELECT id FROM persons WHERE id = ANY($1) FOR UPDATE", allIDs)
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to lock person rows: %w", err)
	}
	locked := make(map[int64]bool, len(allIDs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return store.MergeResult{}, fmt.Errorf("failed to scan locked person id: %w", err)
		}
		locked[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to lock person rows: %w", err)
	}

	if !locked[primaryID] {
		return store.MergeResult{}, fmt.Errorf("primary person %d: %w", primaryID, store.ErrNotFound)
	}
	for _, id := range duplicateIDs {
		if !locked[id] {
			// Either never existed or a concurrent merge committed its
			// deletion after our validation pass.
			return store.MergeResult{}, fmt.Errorf("duplicate person %d: %w", id, store.ErrConflict)
		}
	}

	result := store.MergeResult{
		PrimaryID: primaryID,
		MergedIDs: append([]int64(nil), duplicateIDs...),
		Rewritten: make(common.RefCounts),
	}

	// Every relationship among the merged set becomes a self-loop once the
	// rewrite lands, which the person1 <> person2 check forbids. Remove
	// those rows first.
	tag, err := tx.Exec(ctx,
		"DELETE FROM relationships WHERE person1_id = ANY($1) AND person2_id = ANY($1)", allIDs)
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to remove self-loop relationships: %w", err)
	}
	result.RemovedSelfLoops = tag.RowsAffected()

	for _, ref := range store.PersonRefs() {
		for _, col := range ref.Columns {
			// Identifiers come from the static registry, never from input.
			sql := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = ANY($2)", ref.Relation, col, col)
			tag, err := tx.Exec(ctx, sql, primaryID, duplicateIDs)
			if err != nil {
				return store.MergeResult{}, fmt.Errorf("failed to rewrite %s.%s: %w", ref.Relation, col, err)
			}
			result.Rewritten[ref.Relation] += tag.RowsAffected()
		}
	}

	tag, err = tx.Exec(ctx, "DELETE FROM persons WHERE id = ANY($1)", duplicateIDs)
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to delete duplicate persons: %w", err)
	}
	if tag.RowsAffected() != int64(len(duplicateIDs)) {
		return store.MergeResult{}, fmt.Errorf("expected to delete %d persons, deleted %d: %w",
			len(duplicateIDs), tag.RowsAffected(), store.ErrConflict)
	}

	auditID, err := gonanoid.New()
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to allocate audit id: %w", err)
	}
	result.AuditID = auditID

	_, err = tx.Exec(ctx, `
		INSERT INTO merge_audit (public_id, primary_person_id, duplicate_ids, rewritten, removed_self_loops)
		VALUES ($1, $2, $3, $4, $5)`,
		auditID, primaryID, duplicateIDs, result.Rewritten, result.RemovedSelfLoops)
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to record merge audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to commit merge: %w", err)
	}

	logger.Debug("[Merge] Transaction committed",
		"audit_id", auditID, "primary_id", primaryID,
		"rewritten", result.Rewritten.Total(), "removed_self_loops", result.RemovedSelfLoops)

	return result, nil
}
