package forms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Row is one submitted child row of a formset. A Row with Delete set and a
// non-empty ID marks an existing child for removal; whether the removal
// actually happens is decided later by the deletion guard.
type Row struct {
	Index  int
	ID     string
	Delete bool
	Values map[string]any
}

// Set parses a prefixed collection of child rows with one shared Form.
//
// The wire format is "<prefix>-count" for the row count, then
// "<prefix>-<i>-<field>" per row plus the bookkeeping keys
// "<prefix>-<i>-id" and "<prefix>-<i>-delete".
type Set struct {
	form   *Form
	prefix string
}

// NewSet validates and creates a formset.
func NewSet(form *Form, prefix string) (*Set, error) {
	if form == nil {
		return nil, fmt.Errorf("formset needs a form")
	}
	if prefix == "" || strings.Contains(prefix, "-") {
		return nil, fmt.Errorf("formset prefix %q must be non-empty and dash-free", prefix)
	}
	return &Set{form: form, prefix: prefix}, nil
}

// Form returns the shared row form.
func (s *Set) Form() *Form { return s.form }

// Prefix returns the wire prefix.
func (s *Set) Prefix() string { return s.prefix }

// Parse cleans every submitted row. Blank unsaved rows (no id, every field
// empty) are skipped so trailing empty extra rows never fail validation.
// Error keys carry the full "<prefix>-<i>-<field>" path.
func (s *Set) Parse(data url.Values) ([]Row, Errors) {
	count, err := strconv.Atoi(data.Get(s.prefix + "-count"))
	if err != nil || count < 0 {
		count = 0
	}

	var rows []Row
	errs := Errors{}

	for i := 0; i < count; i++ {
		rowPrefix := fmt.Sprintf("%s-%d-", s.prefix, i)
		id := strings.TrimSpace(data.Get(rowPrefix + "id"))
		del := isTruthy(data.Get(rowPrefix + "delete"))

		if id == "" && s.rowIsBlank(data, rowPrefix) {
			continue
		}

		values, rowErrs := s.form.clean(data, rowPrefix)
		if rowErrs.Any() {
			for k, msgs := range rowErrs {
				errs[k] = append(errs[k], msgs...)
			}
			continue
		}

		rows = append(rows, Row{Index: i, ID: id, Delete: del, Values: values})
	}

	if errs.Any() {
		return nil, errs
	}
	return rows, nil
}

func (s *Set) rowIsBlank(data url.Values, rowPrefix string) bool {
	for _, field := range s.form.fields {
		if strings.TrimSpace(data.Get(rowPrefix+field.Name)) != "" {
			return false
		}
	}
	return true
}
