package resource

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/pennersr/towel/internal/domain/filter"
	"github.com/pennersr/towel/internal/domain/record"
	"github.com/pennersr/towel/internal/forms"
	"github.com/pennersr/towel/internal/repository/memstore"
)

// memSearchStore is an in-memory SearchStore for tests.
type memSearchStore struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemSearchStore() *memSearchStore {
	return &memSearchStore{data: make(map[string]string)}
}

func (m *memSearchStore) key(sessionID, endpointID string) string {
	return endpointID + ":" + sessionID
}

func (m *memSearchStore) Get(_ context.Context, sessionID, endpointID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.data[m.key(sessionID, endpointID)], nil
}

func (m *memSearchStore) Set(_ context.Context, sessionID, endpointID, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[m.key(sessionID, endpointID)] = raw
	return nil
}

func (m *memSearchStore) Clear(_ context.Context, sessionID, endpointID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, m.key(sessionID, endpointID))
	return nil
}

var errSearchStoreDown = errors.New("search store down")

// fixture wires a contact resource with a phones child collection over the
// in-memory store.
type fixture struct {
	store    *memstore.Store
	searches *memSearchStore
}

func contactForm() *forms.Form {
	return forms.MustNew(
		forms.Field{Name: "first_name", Kind: forms.Text, Required: true},
		forms.Field{Name: "last_name", Kind: forms.Text, Required: true},
		forms.Field{Name: "city", Kind: forms.Text},
	)
}

func phoneFormSet() *forms.Set {
	form := forms.MustNew(
		forms.Field{Name: "number", Kind: forms.Text, Required: true},
	)
	set, err := forms.NewSet(form, "phones")
	if err != nil {
		panic(err)
	}
	return set
}

func newFixture() *fixture {
	return &fixture{
		store: memstore.New(
			record.MustSchema("contact",
				record.ToMany("phones", "phone", "contact"),
			),
			record.MustSchema("phone",
				record.ToOne("contact", "contact"),
				record.ToMany("callrecords", "callrecord", "phone"),
			),
			record.MustSchema("callrecord",
				record.ToOne("phone", "phone"),
			),
		),
		searches: newMemSearchStore(),
	}
}

func (f *fixture) config() Config {
	return Config{
		Kind:         "contact",
		BaseURL:      "/contacts/",
		Form:         contactForm(),
		SearchFields: []string{"first_name", "last_name", "city", "phones.number"},
		PageSize:     20,
		RelatedKinds: []string{"phone"},
		Children: []ChildConfig{{
			Kind:          "phone",
			RelationField: "contact",
			FormSet:       phoneFormSet(),
			RelatedKinds:  []string{"callrecord"},
		}},
	}
}

func (f *fixture) controller(t *testing.T, hooks Hooks) *Controller {
	t.Helper()
	c, err := New(f.config(), f.store, f.searches, hooks, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func (f *fixture) saveContact(t *testing.T, fields map[string]any) record.Record {
	t.Helper()
	rec, err := record.New("contact", "", fields)
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	if err := f.store.Save(context.Background(), &rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return rec
}

func (f *fixture) savePhone(t *testing.T, contactID, number string) record.Record {
	t.Helper()
	rec, err := record.New("phone", "", map[string]any{"contact": contactID, "number": number})
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	if err := f.store.Save(context.Background(), &rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return rec
}

func (f *fixture) saveCallRecord(t *testing.T, phoneID string) record.Record {
	t.Helper()
	rec, err := record.New("callrecord", "", map[string]any{"phone": phoneID})
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	if err := f.store.Save(context.Background(), &rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return rec
}

func alwaysPermit(Request, *record.Record) bool { return true }

// allOf lists every stored record of a kind.
func (f *fixture) allOf(t *testing.T, kind string) []record.Record {
	t.Helper()
	items, err := f.store.List(context.Background(), kind, filter.All(), nil)
	if err != nil {
		t.Fatalf("List %s: %v", kind, err)
	}
	return items
}

// fieldVal reads a record field, ignoring presence.
func fieldVal(rec record.Record, name string) any {
	v, _ := rec.Field(name)
	return v
}

func getRequest(query string) Request {
	return Request{Method: "GET", SessionID: "sess", Query: parseQuery(query)}
}

func postRequest(form map[string][]string) Request {
	return Request{Method: "POST", SessionID: "sess", Query: parseQuery(""), Form: form}
}

func parseQuery(raw string) url.Values {
	v, err := url.ParseQuery(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// listIDs lists the ids of records in the rendered list context.
func listIDs(t *testing.T, resp Response, key string) []string {
	t.Helper()
	items, ok := resp.Context()[key].([]record.Record)
	if !ok {
		t.Fatalf("context[%q] = %T, want []record.Record", key, resp.Context()[key])
	}
	ids := make([]string, len(items))
	for i, rec := range items {
		ids[i] = rec.ID()
	}
	return ids
}
