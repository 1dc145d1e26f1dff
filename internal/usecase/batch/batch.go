// Package batch applies a caller-supplied mutation to a selected subset of
// list results.
//
// The package owns the selection-safety boundary: submitted identifiers are
// intersected with the already-permission-filtered list, never looked up in
// the raw store. The mutation itself comes from the caller.
package batch

import (
	"context"
	"net/url"

	"github.com/pennersr/towel/internal/domain/record"
)

// FormKey is the submission flag; a list POST without it is not a batch
// submission. Checkbox keys are IDPrefix + record id.
const (
	FormKey  = "batchform"
	IDPrefix = "batch_"
)

// Outcome is the tagged result of a batch mutation: either extra render
// context for the list pipeline, or a fully custom response that ends the
// request. Exactly one variant is set.
type Outcome struct {
	update   map[string]any
	response any
	isResp   bool
}

// ContextUpdate returns an outcome that merges extra keys into the list
// render context.
func ContextUpdate(update map[string]any) Outcome {
	return Outcome{update: update}
}

// Response returns an outcome that short-circuits the list pipeline with a
// custom response. The value is opaque to this package; the controller
// interprets it.
func Response(resp any) Outcome {
	return Outcome{response: resp, isResp: true}
}

// IsResponse reports whether the outcome carries a custom response.
func (o Outcome) IsResponse() bool { return o.isResp }

// ResponseValue returns the custom response, or nil.
func (o Outcome) ResponseValue() any { return o.response }

// Update returns the context update, or nil.
func (o Outcome) Update() map[string]any { return o.update }

// Func is a caller-supplied batch mutation. It receives only records that
// survived the selection intersection.
type Func func(ctx context.Context, selected []record.Record, form url.Values) (Outcome, error)

// Submitted reports whether the form data is a batch submission.
func Submitted(form url.Values) bool {
	return form.Get(FormKey) != ""
}

// Select intersects the checkbox selection with the allowed records. An
// identifier that exists in the store but not in allowed is silently
// dropped; the client never gets to widen the query set.
func Select(allowed []record.Record, form url.Values) []record.Record {
	var selected []record.Record
	for _, rec := range allowed {
		if form.Get(IDPrefix+rec.ID()) != "" {
			selected = append(selected, rec)
		}
	}
	return selected
}
