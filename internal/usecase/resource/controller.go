// Package resource dispatches list, detail, add, edit and delete pipelines
// for one record kind.
//
// A Controller is immutable configuration plus pure dispatch logic: no
// field is written after New, so one instance serves concurrent requests.
// Per-request variability flows exclusively through Request and locals.
package resource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pennersr/towel/internal/domain"
	"github.com/pennersr/towel/internal/domain/filter"
	"github.com/pennersr/towel/internal/domain/record"
	"github.com/pennersr/towel/internal/usecase/deletion"
)

// Controller serves the five pipelines for one resource.
type Controller struct {
	cfg      Config
	hooks    Hooks
	store    Store
	searches SearchStore
	guard    *deletion.Guard
	logger   *zap.Logger
}

// New validates the configuration, resolves hook defaults and creates a
// Controller. Configuration problems fail here, never per request.
func New(cfg Config, store Store, searches SearchStore, hooks Hooks, logger *zap.Logger) (*Controller, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", domain.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		cfg:      cfg,
		hooks:    hooks,
		store:    store,
		searches: searches,
		guard:    deletion.New(store),
		logger:   logger,
	}
	c.resolveHookDefaults()
	return c, nil
}

// Config returns the resolved configuration.
func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) resolveHookDefaults() {
	if c.hooks.QuerySet == nil {
		c.hooks.QuerySet = func(context.Context, Request) (filter.Predicate, error) {
			return filter.All(), nil
		}
	}
	if c.hooks.GetObject == nil {
		c.hooks.GetObject = func(ctx context.Context, _ Request, id string) (record.Record, error) {
			return c.store.Get(ctx, c.cfg.Kind, id)
		}
	}
	if c.hooks.BuildInstance == nil {
		c.hooks.BuildInstance = c.defaultBuildInstance
	}
	if c.hooks.SaveInstance == nil {
		c.hooks.SaveInstance = func(ctx context.Context, rec *record.Record) error {
			return c.store.Save(ctx, rec)
		}
	}
	if c.hooks.ViewPermitted == nil {
		c.hooks.ViewPermitted = func(Request, *record.Record) bool { return true }
	}
	if c.hooks.MutatePermitted == nil {
		c.hooks.MutatePermitted = c.hooks.ViewPermitted
	}
	if c.hooks.DeletePermitted == nil {
		// Deletion is opt-in: without an explicit predicate nobody may
		// delete anything.
		c.hooks.DeletePermitted = func(Request, *record.Record) bool { return false }
	}
}

func (c *Controller) defaultBuildInstance(
	_ context.Context, _ Request, values map[string]any, change bool, existing *record.Record,
) (record.Record, error) {
	if change {
		if existing == nil {
			return record.Record{}, fmt.Errorf("edit without an existing record")
		}
		rec := *existing
		for k, v := range values {
			rec.SetField(k, v)
		}
		return rec, nil
	}
	return record.New(c.cfg.Kind, "", values)
}

// Detail resolves a single record and assembles its render context.
func (c *Controller) Detail(ctx context.Context, req Request, id string) (Response, error) {
	rec, err := c.resolveObject(ctx, req, id)
	if err != nil {
		return Response{}, err
	}
	if !c.hooks.ViewPermitted(req, &rec) {
		return Response{}, domain.ErrPermissionDenied
	}

	rctx := c.baseContext()
	rctx[c.cfg.ObjectContextName] = rec
	return Render(c.cfg.TemplateBase+"_detail", rctx), nil
}

// resolveObject maps an identifier to exactly one record; pattern
// mismatches and store misses both surface as not found.
func (c *Controller) resolveObject(ctx context.Context, req Request, id string) (record.Record, error) {
	if !c.cfg.IDPattern.MatchString(id) {
		return record.Record{}, fmt.Errorf("identifier %q: %w", id, domain.ErrNotFound)
	}
	return c.hooks.GetObject(ctx, req, id)
}

// baseContext assembles the response context fields present for every
// render.
func (c *Controller) baseContext() map[string]any {
	return map[string]any{
		"verbose_name":        c.cfg.SingularName,
		"verbose_name_plural": c.cfg.PluralName,
		"list_url":            c.cfg.BaseURL,
		"add_url":             c.cfg.BaseURL + "add/",
		"base_template":       c.cfg.BaseTemplate,
	}
}

// detailURL returns the canonical URL of one record.
func (c *Controller) detailURL(id string) string {
	return c.cfg.BaseURL + id + "/"
}
