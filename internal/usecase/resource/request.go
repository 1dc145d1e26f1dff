package resource

import "net/url"

// Request carries everything a pipeline may vary on per request. The
// controller itself is never mutated after construction; all request state
// lives here or in pipeline locals.
type Request struct {
	// Method is the HTTP verb; pipelines only distinguish POST.
	Method string
	// SessionID keys the remembered search state. Empty disables it.
	SessionID string
	// Identity is the authenticated caller, fed to permission predicates.
	Identity string
	// Query holds the URL query parameters.
	Query url.Values
	// Form holds the submitted form body, if any.
	Form url.Values
}

// IsPost reports whether the request submits data.
func (r Request) IsPost() bool { return r.Method == "POST" }

type responseKind int

const (
	responseRender responseKind = iota
	responseRedirect
)

// Response is the tagged outcome of a pipeline: either a template render
// with an assembled context, or a redirect. Hard failures (not found,
// permission denied) are returned as errors instead.
type Response struct {
	kind     responseKind
	template string
	context  map[string]any
	redirect string
}

// Render returns a template-render response.
func Render(template string, context map[string]any) Response {
	return Response{kind: responseRender, template: template, context: context}
}

// Redirect returns a redirect response.
func Redirect(location string) Response {
	return Response{kind: responseRedirect, redirect: location}
}

// IsRedirect reports whether the response is a redirect.
func (r Response) IsRedirect() bool { return r.kind == responseRedirect }

// Template returns the template identifier of a render response.
func (r Response) Template() string { return r.template }

// Context returns the render context.
func (r Response) Context() map[string]any { return r.context }

// Location returns the redirect target.
func (r Response) Location() string { return r.redirect }
