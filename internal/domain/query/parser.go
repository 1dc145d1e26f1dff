// Package query parses free-form search strings into ordered clauses.
//
// The grammar is deliberately small: whitespace separates clauses, a quoted
// phrase is one clause, and an optional leading '+' or '-' attached to a
// token (or to the opening quote) sets the clause polarity. It solves most
// search problems with a fraction of the effort of a real query language.
package query

import "strings"

// Polarity is the inclusion mode of a clause.
type Polarity int

const (
	// Neutral means the clause was written without a prefix. It filters
	// like Include; the distinction is kept so input round-trips.
	Neutral Polarity = iota
	// Include means the clause carried a leading '+'.
	Include
	// Exclude means the clause carried a leading '-'.
	Exclude
)

// String returns the prefix character for the polarity, if any.
func (p Polarity) String() string {
	switch p {
	case Include:
		return "+"
	case Exclude:
		return "-"
	default:
		return ""
	}
}

// Clause is one parsed unit of a search query: a polarity plus ordered
// terms. A quoted phrase yields one clause with multiple terms; field
// binding happens later, in the filter translator.
type Clause struct {
	polarity Polarity
	terms    []string
}

// NewClause creates a Clause. Empty term lists are dropped by Parse but
// permitted here for callers assembling clauses by hand.
func NewClause(polarity Polarity, terms []string) Clause {
	return Clause{polarity: polarity, terms: terms}
}

// Polarity returns the clause polarity.
func (c Clause) Polarity() Polarity { return c.polarity }

// Terms returns the ordered terms.
func (c Clause) Terms() []string { return c.terms }

// String re-serializes the clause so Parse(c.String()) yields an equal
// clause: multi-term phrases are re-quoted, polarity prefixes restored.
func (c Clause) String() string {
	joined := strings.Join(c.terms, " ")
	if len(c.terms) > 1 {
		joined = `"` + joined + `"`
	}
	return c.polarity.String() + joined
}

// Parse tokenizes a raw search string into ordered clauses.
//
// Parsing never fails: an unterminated quote is treated leniently, taking
// the rest of the input as one phrase.
func Parse(raw string) []Clause {
	var clauses []Clause

	runes := []rune(raw)
	i := 0
	for i < len(runes) {
		// Skip whitespace between clauses.
		for i < len(runes) && isSpace(runes[i]) {
			i++
		}
		if i >= len(runes) {
			break
		}

		polarity := Neutral
		switch runes[i] {
		case '+':
			polarity = Include
			i++
		case '-':
			polarity = Exclude
			i++
		}

		var terms []string
		if i < len(runes) && runes[i] == '"' {
			i++ // opening quote
			start := i
			for i < len(runes) && runes[i] != '"' {
				i++
			}
			terms = strings.Fields(string(runes[start:i]))
			if i < len(runes) {
				i++ // closing quote
			}
		} else {
			start := i
			for i < len(runes) && !isSpace(runes[i]) {
				i++
			}
			if word := string(runes[start:i]); word != "" {
				terms = []string{word}
			}
		}

		if len(terms) == 0 {
			// A bare prefix or empty phrase contributes nothing.
			continue
		}
		clauses = append(clauses, Clause{polarity: polarity, terms: terms})
	}

	return clauses
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
