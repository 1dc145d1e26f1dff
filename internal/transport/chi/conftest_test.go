package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pennersr/towel/internal/domain/record"
	"github.com/pennersr/towel/internal/forms"
	"github.com/pennersr/towel/internal/repository/memstore"
	"github.com/pennersr/towel/internal/repository/searchstate"
	"github.com/pennersr/towel/internal/usecase/resource"
)

// testEnv wires a contact resource behind a chi router.
type testEnv struct {
	router *chi.Mux
	store  *memstore.Store
}

func newTestEnv(t *testing.T, hooks resource.Hooks) *testEnv {
	t.Helper()

	store := memstore.New(
		record.MustSchema("contact",
			record.ToMany("phones", "phone", "contact"),
		),
		record.MustSchema("phone",
			record.ToOne("contact", "contact"),
		),
	)

	form := forms.MustNew(
		forms.Field{Name: "first_name", Kind: forms.Text, Required: true},
		forms.Field{Name: "last_name", Kind: forms.Text, Required: true},
	)

	ctrl, err := resource.New(resource.Config{
		Kind:         "contact",
		BaseURL:      "/contacts/",
		Form:         form,
		SearchFields: []string{"first_name", "last_name"},
		PageSize:     20,
		RelatedKinds: []string{"phone"},
	}, store, searchstate.NewMemory(), hooks, zap.NewNop())
	if err != nil {
		t.Fatalf("resource.New: %v", err)
	}

	server := NewServer([]*resource.Controller{ctrl}, nil, zap.NewNop())

	r := chi.NewRouter()
	r.Use(SessionMiddleware("towel_session"))
	server.Routes(r)

	return &testEnv{router: r, store: store}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, http.NoBody)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func httptestGetWithCookie(t *testing.T, env *testEnv, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, http.NoBody)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "towel_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

// renderBody is the JSON renderer output shape.
type renderBody struct {
	Template string         `json:"template"`
	Context  map[string]any `json:"context"`
}

func decodeRender(t *testing.T, rr *httptest.ResponseRecorder) renderBody {
	t.Helper()
	var body renderBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode render body: %v\n%s", err, rr.Body.String())
	}
	return body
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v\n%s", err, rr.Body.String())
	}
	return body
}
