package resource

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pennersr/towel/internal/domain"
	"github.com/pennersr/towel/internal/domain/filter"
	"github.com/pennersr/towel/internal/domain/record"
	"github.com/pennersr/towel/internal/forms"
	"github.com/pennersr/towel/internal/usecase/batch"
)

// defaultIDPattern accepts a single numeric identifier.
var defaultIDPattern = regexp.MustCompile(`^[0-9]+$`)

// ChildConfig declares one editable child collection of the resource.
type ChildConfig struct {
	// Kind is the child record kind.
	Kind string
	// RelationField is the child field holding the parent identifier.
	RelationField string
	// FormSet parses the submitted child rows.
	FormSet *forms.Set
	// RelatedKinds are the kinds whose records block deletion of a child.
	RelatedKinds []string
}

// Config is the static configuration of a controller. It is validated once
// at construction and never written afterwards.
type Config struct {
	// Kind is the record kind served by this controller. Required.
	Kind string
	// SingularName and PluralName are the display names; they default to
	// Kind and Kind+"s".
	SingularName string
	PluralName   string
	// BaseURL is the mount point of the list endpoint, with trailing
	// slash, e.g. "/contacts/". Required.
	BaseURL string
	// TemplateBase prefixes the rendered template identifiers, e.g.
	// "contacts/contact" renders "contacts/contact_list". Defaults to Kind.
	TemplateBase string
	// BaseTemplate is handed through to every render context.
	BaseTemplate string
	// Form declares the add/edit form. Required.
	Form *forms.Form
	// SearchFields are the field paths eligible for unqualified term
	// matching; dotted paths traverse relations. Empty disables search.
	SearchFields []string
	// Orderings maps the "o" query parameter to store orderings. The ""
	// key is the default ordering. Unknown keys are ignored.
	Orderings map[string][]string
	// PageSize is the list page size; 0 disables pagination. Negative
	// values are a configuration error.
	PageSize int
	// AllowShowAll permits the all=1 parameter to bypass pagination.
	AllowShowAll bool
	// RelatedKinds are the kinds whose records block deletion of the
	// resource itself.
	RelatedKinds []string
	// Children are the editable child collections.
	Children []ChildConfig
	// IDPattern restricts what counts as an identifier in URLs; defaults
	// to a single number.
	IDPattern *regexp.Regexp
	// ObjectContextName and ListContextName override the context keys for
	// the record and the record list; default "object"/"object_list".
	ObjectContextName string
	ListContextName   string
}

func (c *Config) applyDefaults() {
	if c.SingularName == "" {
		c.SingularName = c.Kind
	}
	if c.PluralName == "" {
		c.PluralName = c.Kind + "s"
	}
	if c.TemplateBase == "" {
		c.TemplateBase = c.Kind
	}
	if c.BaseTemplate == "" {
		c.BaseTemplate = "base.html"
	}
	if c.IDPattern == nil {
		c.IDPattern = defaultIDPattern
	}
	if c.ObjectContextName == "" {
		c.ObjectContextName = "object"
	}
	if c.ListContextName == "" {
		c.ListContextName = "object_list"
	}
}

func (c *Config) validate() error {
	if c.Kind == "" {
		return fmt.Errorf("%w: kind is required", domain.ErrInvalidConfig)
	}
	if c.BaseURL == "" || c.BaseURL[len(c.BaseURL)-1] != '/' {
		return fmt.Errorf("%w: base URL %q must end with a slash", domain.ErrInvalidConfig, c.BaseURL)
	}
	if c.Form == nil {
		return fmt.Errorf("%w: form is required", domain.ErrInvalidConfig)
	}
	if c.PageSize < 0 {
		return fmt.Errorf("%w: page size must not be negative, got %d", domain.ErrInvalidConfig, c.PageSize)
	}
	for i, child := range c.Children {
		if child.Kind == "" || child.RelationField == "" {
			return fmt.Errorf("%w: child %d needs a kind and a relation field", domain.ErrInvalidConfig, i)
		}
		if child.FormSet == nil {
			return fmt.Errorf("%w: child %q needs a formset", domain.ErrInvalidConfig, child.Kind)
		}
	}
	return nil
}

// PermissionFunc decides whether a request may proceed, optionally against
// a concrete target record (nil for collection-level checks).
type PermissionFunc func(req Request, rec *record.Record) bool

// Hooks are the optional per-controller strategy overrides. Any nil hook
// falls back to the documented default; the resolved set is fixed at
// construction.
type Hooks struct {
	// QuerySet resolves the allowed base predicate for list and batch
	// operations. Default: everything.
	QuerySet func(ctx context.Context, req Request) (filter.Predicate, error)
	// GetObject resolves a single record by identifier. Default: store
	// lookup by kind and id.
	GetObject func(ctx context.Context, req Request, id string) (record.Record, error)
	// BuildInstance turns cleaned form values into an unsaved record.
	// change is true for edits; existing is the record being edited.
	// Default: copy existing (edit) or start empty (add), then apply the
	// cleaned values as fields.
	BuildInstance func(ctx context.Context, req Request, values map[string]any, change bool, existing *record.Record) (record.Record, error)
	// SaveInstance persists the instance. Default: store save.
	SaveInstance func(ctx context.Context, rec *record.Record) error
	// PostSave runs after the full save sequence. Default: nothing.
	PostSave func(ctx context.Context, req Request, rec record.Record, change bool) error
	// ViewPermitted gates list and detail. Default: permit.
	ViewPermitted PermissionFunc
	// MutatePermitted gates add and edit. Default: ViewPermitted.
	MutatePermitted PermissionFunc
	// DeletePermitted gates delete. Deletion is opt-in: the default denies.
	DeletePermitted PermissionFunc
	// Batch applies a batch mutation to the selected records. Nil
	// disables batch processing.
	Batch batch.Func
}
