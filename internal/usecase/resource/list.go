package resource

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pennersr/towel/internal/domain"
	"github.com/pennersr/towel/internal/domain/filter"
	"github.com/pennersr/towel/internal/domain/page"
	"github.com/pennersr/towel/internal/domain/query"
	"github.com/pennersr/towel/internal/usecase/batch"
)

// List runs the list pipeline: allowed query set, remembered or submitted
// search, optional batch mutation, pagination, context assembly.
func (c *Controller) List(ctx context.Context, req Request) (Response, error) {
	if !c.hooks.ViewPermitted(req, nil) {
		return Response{}, domain.ErrPermissionDenied
	}

	pred, err := c.hooks.QuerySet(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("resolve query set: %w", err)
	}

	raw, searching := c.resolveSearch(ctx, req)
	if raw != "" && len(c.cfg.SearchFields) > 0 {
		searchPred := filter.FromClauses(query.Parse(raw), c.cfg.SearchFields)
		pred = filter.And(pred, searchPred)
	}

	items, err := c.store.List(ctx, c.cfg.Kind, pred, c.resolveOrdering(req))
	if err != nil {
		return Response{}, fmt.Errorf("list %s: %w", c.cfg.Kind, err)
	}

	extra := map[string]any{}
	if req.IsPost() && batch.Submitted(req.Form) && c.hooks.Batch != nil {
		selected := batch.Select(items, req.Form)
		outcome, err := c.hooks.Batch(ctx, selected, req.Form)
		if err != nil {
			return Response{}, fmt.Errorf("batch mutation: %w", err)
		}
		if outcome.IsResponse() {
			resp, ok := outcome.ResponseValue().(Response)
			if !ok {
				return Response{}, fmt.Errorf("batch returned unsupported response type %T", outcome.ResponseValue())
			}
			return resp, nil
		}
		extra = outcome.Update()
	}

	pageNum := 1
	if n, err := strconv.Atoi(req.Query.Get("page")); err == nil {
		pageNum = n
	}
	showAll := req.Query.Get("all") == "1"
	pg := page.Paginate(items, c.cfg.PageSize, pageNum, showAll, c.cfg.AllowShowAll)

	rctx := c.baseContext()
	rctx[c.cfg.ListContextName] = pg.Items()
	rctx["page"] = pg
	rctx["search_query"] = raw
	rctx["searching"] = searching
	for k, v := range extra {
		rctx[k] = v
	}
	return Render(c.cfg.TemplateBase+"_list", rctx), nil
}

// resolveSearch returns the effective raw query for this request, reading
// the remembered search when none is submitted and persisting submitted
// ones. Search-state failures are logged and ignored: the remembered query
// is a convenience, not a consistency-critical value.
func (c *Controller) resolveSearch(ctx context.Context, req Request) (raw string, searching bool) {
	submitted := req.Query.Has("query")
	raw = strings.TrimSpace(req.Query.Get("query"))

	if c.searches == nil || req.SessionID == "" {
		return raw, raw != ""
	}

	// Keyed by base URL: two list endpoints over the same kind remember
	// their searches independently.
	endpoint := c.cfg.BaseURL

	if req.Query.Has("clear") || (submitted && raw == "") {
		if err := c.searches.Clear(ctx, req.SessionID, endpoint); err != nil {
			c.logger.Warn("clear remembered search", zap.String("kind", c.cfg.Kind), zap.Error(err))
		}
		if !submitted || raw == "" {
			return "", false
		}
	}

	if submitted {
		if raw != "" {
			if err := c.searches.Set(ctx, req.SessionID, endpoint, raw); err != nil {
				c.logger.Warn("persist search", zap.String("kind", c.cfg.Kind), zap.Error(err))
			}
		}
		return raw, raw != ""
	}

	remembered, err := c.searches.Get(ctx, req.SessionID, endpoint)
	if err != nil {
		c.logger.Warn("load remembered search", zap.String("kind", c.cfg.Kind), zap.Error(err))
		return "", false
	}
	return remembered, remembered != ""
}

// resolveOrdering maps the "o" parameter onto a configured ordering; a "-"
// prefix reverses it. Unknown keys fall back to the default ordering.
func (c *Controller) resolveOrdering(req Request) []string {
	orderBy := c.cfg.Orderings[""]

	o := req.Query.Get("o")
	if o == "" {
		return orderBy
	}

	key, desc := o, false
	if strings.HasPrefix(o, "-") {
		key, desc = o[1:], true
	}
	fields, ok := c.cfg.Orderings[key]
	if !ok {
		return orderBy
	}
	if !desc {
		return fields
	}

	reversed := make([]string, len(fields))
	for i, f := range fields {
		if strings.HasPrefix(f, "-") {
			reversed[i] = f[1:]
		} else {
			reversed[i] = "-" + f
		}
	}
	return reversed
}
