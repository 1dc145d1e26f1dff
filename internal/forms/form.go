// Package forms declares typed form fields and cleans submitted values.
//
// Validation failure is not an error condition: Clean returns the collected
// field errors as a value and callers re-render the form with them attached.
package forms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Kind is the value type of a form field.
type Kind int

const (
	// Text is a free-form string field. Values are whitespace-trimmed.
	Text Kind = iota
	// Int is an integer field.
	Int
	// Bool is a checkbox field; absent means false.
	Bool
)

// Field declares one form field.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
}

// Errors collects validation messages per field name.
type Errors map[string][]string

// Add appends a message for a field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Any reports whether any message was collected.
func (e Errors) Any() bool { return len(e) > 0 }

// WarningFunc inspects cleaned values and returns advisory warnings.
// Warnings fail validation unless the submission carries ignore_warnings,
// so a user can confirm a suspicious but legal input once.
type WarningFunc func(values map[string]any) []string

// Form is an immutable set of field declarations plus optional warning
// checks. One Form instance is shared across requests; all per-request
// state lives in the values handed to Clean.
type Form struct {
	fields []Field
	warnFn []WarningFunc
}

// New validates field declarations and creates a Form.
func New(fields ...Field) (*Form, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("a form needs at least one field")
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("form field needs a name")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate form field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return &Form{fields: fields}, nil
}

// MustNew creates a Form or panics. For static declarations.
func MustNew(fields ...Field) *Form {
	f, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return f
}

// WithWarnings returns a copy of the form with warning checks attached.
func (f *Form) WithWarnings(fns ...WarningFunc) *Form {
	return &Form{fields: f.fields, warnFn: append(append([]WarningFunc{}, f.warnFn...), fns...)}
}

// Fields returns the field declarations.
func (f *Form) Fields() []Field { return f.fields }

// Clean validates submitted data and converts it to typed values.
//
// Text values are trimmed before any checks. Warnings land under the
// "warnings" key unless the submission sets ignore_warnings.
func (f *Form) Clean(data url.Values) (map[string]any, Errors) {
	return f.clean(data, "")
}

// clean validates one row of data; prefix qualifies both the lookup keys
// and the error keys, which is how formset rows reuse the parent logic.
func (f *Form) clean(data url.Values, prefix string) (map[string]any, Errors) {
	values := make(map[string]any, len(f.fields))
	errs := Errors{}

	for _, field := range f.fields {
		key := prefix + field.Name
		raw := strings.TrimSpace(data.Get(key))

		switch field.Kind {
		case Text:
			if raw == "" && field.Required {
				errs.Add(key, "this field is required")
				continue
			}
			values[field.Name] = raw
		case Int:
			if raw == "" {
				if field.Required {
					errs.Add(key, "this field is required")
				}
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				errs.Add(key, fmt.Sprintf("%q is not a whole number", raw))
				continue
			}
			values[field.Name] = n
		case Bool:
			values[field.Name] = isTruthy(raw)
		}
	}

	if errs.Any() {
		return nil, errs
	}

	if len(f.warnFn) > 0 && !isTruthy(data.Get(prefix+"ignore_warnings")) {
		for _, fn := range f.warnFn {
			for _, w := range fn(values) {
				errs.Add("warnings", w)
			}
		}
		if errs.Any() {
			return nil, errs
		}
	}

	return values, nil
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
