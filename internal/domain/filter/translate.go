package filter

import "github.com/pennersr/towel/internal/domain/query"

// FromClauses maps parsed search clauses onto the declared searchable field
// paths.
//
// Per clause, every term must be found in at least one declared path (AND
// across terms, OR across paths per term). Clauses combine with AND. An
// excluded clause is negated before the combine; because Match is
// exclude-if-any, a record is dropped as soon as any related row carries the
// forbidden term.
func FromClauses(clauses []query.Clause, fieldPaths []string) Predicate {
	if len(clauses) == 0 || len(fieldPaths) == 0 {
		return All()
	}

	parts := make([]Predicate, 0, len(clauses))
	for _, clause := range clauses {
		sub := clausePredicate(clause, fieldPaths)
		if clause.Polarity() == query.Exclude {
			sub = Not(sub)
		}
		parts = append(parts, sub)
	}
	return And(parts...)
}

func clausePredicate(clause query.Clause, fieldPaths []string) Predicate {
	perTerm := make([]Predicate, 0, len(clause.Terms()))
	for _, term := range clause.Terms() {
		perPath := make([]Predicate, 0, len(fieldPaths))
		for _, path := range fieldPaths {
			perPath = append(perPath, Contains(path, term))
		}
		perTerm = append(perTerm, Or(perPath...))
	}
	return And(perTerm...)
}
