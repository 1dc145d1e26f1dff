package resource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pennersr/towel/internal/domain"
	"github.com/pennersr/towel/internal/domain/filter"
	"github.com/pennersr/towel/internal/domain/record"
	"github.com/pennersr/towel/internal/forms"
)

// Add runs the add pipeline: empty form on GET, validate-and-save on POST.
func (c *Controller) Add(ctx context.Context, req Request) (Response, error) {
	if !c.hooks.MutatePermitted(req, nil) {
		return Response{}, domain.ErrPermissionDenied
	}

	if !req.IsPost() {
		return Render(c.cfg.TemplateBase+"_form", c.formContext(nil, nil)), nil
	}
	return c.processSubmit(ctx, req, false, nil)
}

// Edit runs the edit pipeline; identical to Add except the object is
// resolved first and change=true flows through every step.
func (c *Controller) Edit(ctx context.Context, req Request, id string) (Response, error) {
	rec, err := c.resolveObject(ctx, req, id)
	if err != nil {
		return Response{}, err
	}
	if !c.hooks.MutatePermitted(req, &rec) {
		return Response{}, domain.ErrPermissionDenied
	}

	if !req.IsPost() {
		rctx := c.formContext(&rec, nil)
		if err := c.attachChildren(ctx, &rec, rctx); err != nil {
			return Response{}, err
		}
		return Render(c.cfg.TemplateBase+"_form", rctx), nil
	}
	return c.processSubmit(ctx, req, true, &rec)
}

// childSubmission pairs a child configuration with its parsed rows.
type childSubmission struct {
	cfg  ChildConfig
	rows []forms.Row
}

// processSubmit validates the form and all child rows, then runs the save
// sequence. A validation failure re-renders the form with errors attached
// and causes no persistence side effects.
func (c *Controller) processSubmit(ctx context.Context, req Request, change bool, existing *record.Record) (Response, error) {
	values, errs := c.cfg.Form.Clean(req.Form)
	if errs == nil {
		errs = forms.Errors{}
	}

	var children []childSubmission
	for _, child := range c.cfg.Children {
		rows, rowErrs := child.FormSet.Parse(req.Form)
		for k, msgs := range rowErrs {
			errs[k] = append(errs[k], msgs...)
		}
		children = append(children, childSubmission{cfg: child, rows: rows})
	}

	if errs.Any() {
		rctx := c.formContext(existing, errs)
		rctx["form_data"] = req.Form
		if existing != nil {
			if err := c.attachChildren(ctx, existing, rctx); err != nil {
				return Response{}, err
			}
		}
		return Render(c.cfg.TemplateBase+"_form", rctx), nil
	}

	rec, err := c.hooks.BuildInstance(ctx, req, values, change, existing)
	if err != nil {
		return Response{}, fmt.Errorf("build instance: %w", err)
	}

	if err := c.saveSequence(ctx, req, &rec, children, change); err != nil {
		return Response{}, err
	}

	if req.Form.Get("_continue") != "" {
		return Redirect(c.detailURL(rec.ID()) + "edit/"), nil
	}
	return Redirect(c.detailURL(rec.ID())), nil
}

// saveSequence persists the instance and its child collections.
//
// Ordering is the correctness contract here: every removal candidate is
// passed through the deletion guard before the first save executes, so a
// store that cascades on save can never delete a child the guard would
// have kept. Blocked children are excluded from the deletion set and
// survive unchanged; everything else proceeds.
func (c *Controller) saveSequence(
	ctx context.Context, req Request, rec *record.Record, children []childSubmission, change bool,
) error {
	// Phase 1: guard all removals. Reads only.
	type plannedChild struct {
		sub       childSubmission
		deletable []record.Record
		blocked   map[string]struct{}
	}
	planned := make([]plannedChild, 0, len(children))
	for _, sub := range children {
		var candidates []record.Record
		for _, row := range sub.rows {
			if !row.Delete || row.ID == "" {
				continue
			}
			childRec, err := c.store.Get(ctx, sub.cfg.Kind, row.ID)
			if err != nil {
				return fmt.Errorf("resolve %s/%s marked for removal: %w", sub.cfg.Kind, row.ID, err)
			}
			candidates = append(candidates, childRec)
		}

		deletable, blockedRecs, err := c.guard.FilterRemovals(ctx, candidates, sub.cfg.RelatedKinds)
		if err != nil {
			return fmt.Errorf("guard %s removals: %w", sub.cfg.Kind, err)
		}
		blocked := make(map[string]struct{}, len(blockedRecs))
		for _, b := range blockedRecs {
			blocked[b.ID()] = struct{}{}
			c.logger.Info("child removal blocked by dependents",
				zap.String("kind", b.Kind()), zap.String("id", b.ID()))
		}
		planned = append(planned, plannedChild{sub: sub, deletable: deletable, blocked: blocked})
	}

	// Phase 2: persist the instance.
	if err := c.hooks.SaveInstance(ctx, rec); err != nil {
		return fmt.Errorf("save %s: %w", c.cfg.Kind, err)
	}

	// Phase 3: persist surviving child rows.
	for _, plan := range planned {
		for _, row := range plan.sub.rows {
			if row.Delete {
				continue
			}
			if err := c.saveChildRow(ctx, plan.sub.cfg, rec.ID(), row); err != nil {
				return err
			}
		}
	}

	// Phase 4: execute the guarded deletions.
	for _, plan := range planned {
		for _, childRec := range plan.deletable {
			if err := c.store.Delete(ctx, childRec); err != nil {
				return fmt.Errorf("delete %s/%s: %w", childRec.Kind(), childRec.ID(), err)
			}
		}
	}

	// Phase 5: post-save hook.
	if c.hooks.PostSave != nil {
		if err := c.hooks.PostSave(ctx, req, *rec, change); err != nil {
			return fmt.Errorf("post-save: %w", err)
		}
	}
	return nil
}

func (c *Controller) saveChildRow(ctx context.Context, cfg ChildConfig, parentID string, row forms.Row) error {
	var childRec record.Record
	if row.ID != "" {
		existing, err := c.store.Get(ctx, cfg.Kind, row.ID)
		if err != nil {
			return fmt.Errorf("resolve %s/%s: %w", cfg.Kind, row.ID, err)
		}
		childRec = existing
		for k, v := range row.Values {
			childRec.SetField(k, v)
		}
	} else {
		created, err := record.New(cfg.Kind, "", row.Values)
		if err != nil {
			return fmt.Errorf("build %s row: %w", cfg.Kind, err)
		}
		childRec = created
	}
	childRec.SetField(cfg.RelationField, parentID)

	if err := c.store.Save(ctx, &childRec); err != nil {
		return fmt.Errorf("save %s row: %w", cfg.Kind, err)
	}
	return nil
}

// formContext assembles the render context of the add/edit form.
func (c *Controller) formContext(existing *record.Record, errs forms.Errors) map[string]any {
	rctx := c.baseContext()
	rctx["form_fields"] = c.cfg.Form.Fields()
	if existing != nil {
		rctx[c.cfg.ObjectContextName] = *existing
	}
	if errs.Any() {
		rctx["form_errors"] = errs
	}
	return rctx
}

// attachChildren loads the current child rows of a record into the form
// context so the rendering layer can show them.
func (c *Controller) attachChildren(ctx context.Context, rec *record.Record, rctx map[string]any) error {
	for _, child := range c.cfg.Children {
		rows, err := c.store.List(ctx, child.Kind, filter.Equals(child.RelationField, rec.ID()), nil)
		if err != nil {
			return fmt.Errorf("list %s children: %w", child.Kind, err)
		}
		rctx[child.FormSet.Prefix()] = rows
	}
	return nil
}
