package resource

import (
	"context"
	"fmt"

	"github.com/pennersr/towel/internal/domain"
	"github.com/pennersr/towel/internal/usecase/deletion"
)

// Delete runs the delete pipeline: resolve, permission check (deny by
// default), confirmation step, then the guarded delete. A blocked outcome
// is a normal response carrying a user-visible message, never a partial
// mutation.
func (c *Controller) Delete(ctx context.Context, req Request, id string) (Response, error) {
	rec, err := c.resolveObject(ctx, req, id)
	if err != nil {
		return Response{}, err
	}
	if !c.hooks.DeletePermitted(req, &rec) {
		return Response{}, domain.ErrPermissionDenied
	}

	rctx := c.baseContext()
	rctx[c.cfg.ObjectContextName] = rec

	if !req.IsPost() {
		// Not yet confirmed: render the confirmation step.
		return Render(c.cfg.TemplateBase+"_delete_confirm", rctx), nil
	}

	outcome, err := c.guard.SafeDelete(ctx, rec, c.cfg.RelatedKinds)
	if err != nil {
		return Response{}, fmt.Errorf("delete %s/%s: %w", c.cfg.Kind, id, err)
	}
	if outcome == deletion.Blocked {
		rctx["deletion_blocked"] = true
		rctx["message"] = fmt.Sprintf(
			"Cannot delete %s: other records still depend on it.", c.cfg.SingularName)
		return Render(c.cfg.TemplateBase+"_delete_confirm", rctx), nil
	}
	return Redirect(c.cfg.BaseURL), nil
}
