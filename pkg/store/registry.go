package store

// PersonRef names one relation holding a foreign key to persons, with the
// columns carrying the reference. The merge rewrite and reference counting
// both walk this registry, so adding a new person-referencing relation is a
// one-line registration here plus its migration.
type PersonRef struct {
	Relation string
	Columns  []string
}

var personRefs = []PersonRef{
	{Relation: "relationships", Columns: []string{"person1_id", "person2_id"}},
	{Relation: "event_participants", Columns: []string{"person_id"}},
	{Relation: "communications", Columns: []string{"sender_id", "recipient_id"}},
	{Relation: "financial_transactions", Columns: []string{"from_person_id", "to_person_id"}},
	{Relation: "media_tags", Columns: []string{"person_id"}},
	{Relation: "document_mentions", Columns: []string{"person_id"}},
	{Relation: "location_ownerships", Columns: []string{"owner_id"}},
	{Relation: "evidence_seizures", Columns: []string{"seized_from_id"}},
	{Relation: "visual_identifications", Columns: []string{"person_id"}},
}

// PersonRefs returns the static registry of person-referencing relations.
// The relationships relation is always first.
func PersonRefs() []PersonRef {
	return personRefs
}

// RefColumns returns the referencing columns for one relation, or nil when
// the relation is not registered.
func RefColumns(relation string) []string {
	for _, ref := range personRefs {
		if ref.Relation == relation {
			return ref.Columns
		}
	}
	return nil
}
