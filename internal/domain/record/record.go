// Package record models persisted entities and their relational schema.
package record

import (
	"fmt"
	"strings"
)

// Record is an addressable persisted entity of a declared kind.
// The zero value is not usable; build records through New.
type Record struct {
	kind   string
	id     string
	fields map[string]any
}

// New validates and creates a Record. An empty id is allowed for records
// that have not been persisted yet; the store assigns one on first save.
func New(kind, id string, fields map[string]any) (Record, error) {
	if kind == "" {
		return Record{}, fmt.Errorf("record kind is required")
	}
	f := make(map[string]any, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	return Record{kind: kind, id: id, fields: f}, nil
}

// Kind returns the schema kind.
func (r Record) Kind() string { return r.kind }

// ID returns the stable identifier, or "" if the record is unsaved.
func (r Record) ID() string { return r.id }

// Field returns a single field value.
func (r Record) Field(name string) (any, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns a copy of all field values.
func (r Record) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy. Mutating the copy never reaches the
// original's field map.
func (r Record) Clone() Record {
	return Record{kind: r.kind, id: r.id, fields: r.Fields()}
}

// SetField sets a single field value.
func (r *Record) SetField(name string, value any) {
	if r.fields == nil {
		r.fields = make(map[string]any)
	}
	r.fields[name] = value
}

// SetID assigns the identifier. Stores call this when persisting a new record.
func (r *Record) SetID(id string) { r.id = id }

// Relation describes one relation declared on a kind.
// A to-one relation lives on this kind as a field holding the remote id.
// A to-many relation is the reverse: records of Kind point back at this
// kind through RemoteField.
type Relation struct {
	name        string
	kind        string
	remoteField string
	toMany      bool
}

// ToOne declares a to-one relation: local field `name` holds an id of `kind`.
func ToOne(name, kind string) Relation {
	return Relation{name: name, kind: kind}
}

// ToMany declares a to-many reverse relation: records of `kind` reference
// this kind through their `remoteField`.
func ToMany(name, kind, remoteField string) Relation {
	return Relation{name: name, kind: kind, remoteField: remoteField, toMany: true}
}

// Name returns the relation name used in field paths.
func (rel Relation) Name() string { return rel.name }

// Kind returns the remote kind.
func (rel Relation) Kind() string { return rel.kind }

// RemoteField returns the referencing field on the remote kind (to-many only).
func (rel Relation) RemoteField() string { return rel.remoteField }

// IsToMany reports whether this is a to-many reverse relation.
func (rel Relation) IsToMany() bool { return rel.toMany }

// Schema declares a kind and its relations. Field paths used in searches may
// traverse relations with dots, e.g. "phones.number".
type Schema struct {
	kind      string
	relations map[string]Relation
}

// NewSchema validates and creates a Schema.
func NewSchema(kind string, relations ...Relation) (Schema, error) {
	if kind == "" {
		return Schema{}, fmt.Errorf("schema kind is required")
	}
	rels := make(map[string]Relation, len(relations))
	for _, rel := range relations {
		if rel.name == "" || rel.kind == "" {
			return Schema{}, fmt.Errorf("relation on kind %q needs a name and a kind", kind)
		}
		if rel.toMany && rel.remoteField == "" {
			return Schema{}, fmt.Errorf("to-many relation %q on kind %q needs a remote field", rel.name, kind)
		}
		if _, dup := rels[rel.name]; dup {
			return Schema{}, fmt.Errorf("duplicate relation %q on kind %q", rel.name, kind)
		}
		rels[rel.name] = rel
	}
	return Schema{kind: kind, relations: rels}, nil
}

// MustSchema creates a Schema or panics. For static declarations.
func MustSchema(kind string, relations ...Relation) Schema {
	s, err := NewSchema(kind, relations...)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind returns the declared kind.
func (s Schema) Kind() string { return s.kind }

// Relation looks up a relation by name.
func (s Schema) Relation(name string) (Relation, bool) {
	rel, ok := s.relations[name]
	return rel, ok
}

// Relations returns all declared relations.
func (s Schema) Relations() []Relation {
	out := make([]Relation, 0, len(s.relations))
	for _, rel := range s.relations {
		out = append(out, rel)
	}
	return out
}

// SplitPath splits a dotted field path into its first segment and the rest.
func SplitPath(path string) (head, rest string) {
	head, rest, _ = strings.Cut(path, ".")
	return head, rest
}
