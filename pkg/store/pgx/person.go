package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkiv-labs/dossier/backend/pkg/common"
	"github.com/arkiv-labs/dossier/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const selectPerson = `
SELECT id, full_name, coalesce(alt_names, '{}'), coalesce(role, ''),
       coalesce(occupation, ''), coalesce(nationality, ''), redacted
FROM persons
`

func scanPerson(row pgxv5.Row) (common.Person, error) {
	var p common.Person
	err := row.Scan(&p.ID, &p.FullName, &p.AltNames, &p.Role, &p.Occupation, &p.Nationality, &p.Redacted)
	return p, err
}

func (s *PersonDBStorage) GetPersonByID(ctx context.Context, id int64) (common.Person, error) {
	p, err := scanPerson(s.conn.QueryRow(ctx, selectPerson+"WHERE id = $1", id))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Person{}, fmt.Errorf("person %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return common.Person{}, fmt.Errorf("failed to load person %d: %w", id, err)
	}
	return p, nil
}

func (s *PersonDBStorage) GetAllPersons(ctx context.Context) ([]common.Person, error) {
	rows, err := s.conn.Query(ctx, selectPerson+"ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	persons := make([]common.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	return persons, nil
}

const selectEdgesTouching = `
SELECT id, person1_id, person2_id, rel_type, coalesce(confidence, ''),
       start_date, end_date, source_document_id
FROM relationships
WHERE person1_id = $1 OR person2_id = $1
ORDER BY id
`

func (s *PersonDBStorage) GetEdgesTouching(ctx context.Context, personID int64) ([]common.Relationship, error) {
	rows, err := s.conn.Query(ctx, selectEdgesTouching, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges for person %d: %w", personID, err)
	}
	defer rows.Close()

	edges := make([]common.Relationship, 0)
	for rows.Next() {
		var r common.Relationship
		err := rows.Scan(&r.ID, &r.Person1ID, &r.Person2ID, &r.Type, &r.Confidence,
			&r.StartDate, &r.EndDate, &r.SourceDocumentID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load edges for person %d: %w", personID, err)
	}
	return edges, nil
}

// CountReferences walks the registry and counts rows referencing the person
// in each relation. Relation and column names come from the static registry,
// never from caller input.
func (s *PersonDBStorage) CountReferences(ctx context.Context, personID int64) (common.RefCounts, error) {
	counts := make(common.RefCounts)
	for _, ref := range store.PersonRefs() {
		for _, col := range ref.Columns {
			var n int64
			sql := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = $1", ref.Relation, col)
			if err := s.conn.QueryRow(ctx, sql, personID).Scan(&n); err != nil {
				return nil, fmt.Errorf("failed to count %s.%s references: %w", ref.Relation, col, err)
			}
			counts[ref.Relation] += n
		}
	}
	return counts, nil
}
