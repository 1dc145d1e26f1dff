// Package filter provides compound boolean predicates over record fields.
//
// A Predicate is evaluated per record as a set-membership test: a field path
// that traverses a to-many relation resolves to multiple values for one
// record, so one record matches at most once and relation joins can never
// multiply rows in a result.
package filter

import "strings"

// Op is the node type of a predicate.
type Op int

const (
	// OpAll matches every record.
	OpAll Op = iota
	// OpContains matches when any value at Path contains Term,
	// case-insensitively.
	OpContains
	// OpEquals matches when any value at Path equals Value exactly.
	OpEquals
	// OpAnd matches when every sub-predicate matches.
	OpAnd
	// OpOr matches when at least one sub-predicate matches.
	OpOr
	// OpNot matches when the single sub-predicate does not.
	OpNot
)

// Predicate is an immutable compound boolean expression over record fields.
// The zero value is All().
type Predicate struct {
	op    Op
	path  string
	value string
	subs  []Predicate
}

// All returns a predicate matching every record.
func All() Predicate { return Predicate{op: OpAll} }

// Contains returns a case-insensitive substring predicate on a field path.
func Contains(path, term string) Predicate {
	return Predicate{op: OpContains, path: path, value: term}
}

// Equals returns an exact-match predicate on a field path.
func Equals(path, value string) Predicate {
	return Predicate{op: OpEquals, path: path, value: value}
}

// And combines predicates conjunctively. And() is All(), And(p) is p.
func And(subs ...Predicate) Predicate {
	switch len(subs) {
	case 0:
		return All()
	case 1:
		return subs[0]
	}
	return Predicate{op: OpAnd, subs: subs}
}

// Or combines predicates disjunctively. Or() is All(), Or(p) is p.
func Or(subs ...Predicate) Predicate {
	switch len(subs) {
	case 0:
		return All()
	case 1:
		return subs[0]
	}
	return Predicate{op: OpOr, subs: subs}
}

// Not negates a predicate.
func Not(sub Predicate) Predicate {
	return Predicate{op: OpNot, subs: []Predicate{sub}}
}

// Op returns the node type.
func (p Predicate) Op() Op { return p.op }

// Path returns the field path for Contains/Equals nodes.
func (p Predicate) Path() string { return p.path }

// Value returns the term or match value for Contains/Equals nodes.
func (p Predicate) Value() string { return p.value }

// Subs returns the sub-predicates of And/Or/Not nodes.
func (p Predicate) Subs() []Predicate { return p.subs }

// IsAll reports whether the predicate matches everything.
func (p Predicate) IsAll() bool { return p.op == OpAll }

// Values resolves a field path to every value reachable from one record.
// A to-many traversal yields one entry per related row.
type Values func(path string) []string

// Match evaluates the predicate against one record's resolved values.
func (p Predicate) Match(values Values) bool {
	switch p.op {
	case OpAll:
		return true
	case OpContains:
		term := strings.ToLower(p.value)
		for _, v := range values(p.path) {
			if strings.Contains(strings.ToLower(v), term) {
				return true
			}
		}
		return false
	case OpEquals:
		for _, v := range values(p.path) {
			if v == p.value {
				return true
			}
		}
		return false
	case OpAnd:
		for _, sub := range p.subs {
			if !sub.Match(values) {
				return false
			}
		}
		return true
	case OpOr:
		for _, sub := range p.subs {
			if sub.Match(values) {
				return true
			}
		}
		return false
	case OpNot:
		return !p.subs[0].Match(values)
	}
	return false
}
