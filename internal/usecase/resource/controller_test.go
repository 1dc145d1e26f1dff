package resource

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/pennersr/towel/internal/domain"
	"github.com/pennersr/towel/internal/domain/record"
)

func TestNewConfigValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing kind", func(c *Config) { c.Kind = "" }},
		{"base URL without slash", func(c *Config) { c.BaseURL = "/contacts" }},
		{"missing form", func(c *Config) { c.Form = nil }},
		{"negative page size", func(c *Config) { c.PageSize = -1 }},
		{"child without relation field", func(c *Config) { c.Children[0].RelationField = "" }},
		{"child without formset", func(c *Config) { c.Children[0].FormSet = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := f.config()
			tt.mutate(&cfg)
			_, err := New(cfg, f.store, f.searches, Hooks{}, zap.NewNop())
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}

	t.Run("nil store", func(t *testing.T) {
		_, err := New(f.config(), nil, f.searches, Hooks{}, zap.NewNop())
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("err = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestConfigDefaults(t *testing.T) {
	f := newFixture()
	c := f.controller(t, Hooks{})

	cfg := c.Config()
	if cfg.SingularName != "contact" || cfg.PluralName != "contacts" {
		t.Fatalf("names = %q/%q", cfg.SingularName, cfg.PluralName)
	}
	if cfg.TemplateBase != "contact" || cfg.ObjectContextName != "object" || cfg.ListContextName != "object_list" {
		t.Fatalf("defaults = %q/%q/%q", cfg.TemplateBase, cfg.ObjectContextName, cfg.ListContextName)
	}
	if cfg.IDPattern == nil || !cfg.IDPattern.MatchString("42") || cfg.IDPattern.MatchString("x42") {
		t.Fatal("default id pattern must accept numbers only")
	}
}

func TestPermissionDefaults(t *testing.T) {
	f := newFixture()
	rec := f.saveContact(t, map[string]any{"first_name": "Anna", "last_name": "Meier"})
	c := f.controller(t, Hooks{})
	ctx := context.Background()

	if _, err := c.List(ctx, getRequest("")); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := c.Detail(ctx, getRequest(""), rec.ID()); err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if _, err := c.Add(ctx, getRequest("")); err != nil {
		t.Fatalf("Add must default to permitted: %v", err)
	}
	if _, err := c.Edit(ctx, getRequest(""), rec.ID()); err != nil {
		t.Fatalf("Edit must default to permitted: %v", err)
	}
	if _, err := c.Delete(ctx, getRequest(""), rec.ID()); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("Delete must default to denied, got %v", err)
	}
}

func TestMutateDefaultsToViewCheck(t *testing.T) {
	f := newFixture()
	c := f.controller(t, Hooks{
		ViewPermitted: func(req Request, _ *record.Record) bool {
			return req.Identity == "alice"
		},
	})
	ctx := context.Background()

	denied := getRequest("")
	if _, err := c.Add(ctx, denied); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("Add with anonymous identity = %v, want denied", err)
	}

	allowed := getRequest("")
	allowed.Identity = "alice"
	if _, err := c.Add(ctx, allowed); err != nil {
		t.Fatalf("Add as alice: %v", err)
	}
}

func TestDetail(t *testing.T) {
	f := newFixture()
	rec := f.saveContact(t, map[string]any{"first_name": "Anna", "last_name": "Meier"})
	c := f.controller(t, Hooks{})
	ctx := context.Background()

	t.Run("renders the object with standard context", func(t *testing.T) {
		resp, err := c.Detail(ctx, getRequest(""), rec.ID())
		if err != nil {
			t.Fatalf("Detail: %v", err)
		}
		if resp.Template() != "contact_detail" {
			t.Fatalf("template = %q", resp.Template())
		}
		got, ok := resp.Context()["object"].(record.Record)
		if !ok || got.ID() != rec.ID() {
			t.Fatalf("object = %v", resp.Context()["object"])
		}
		for _, key := range []string{"verbose_name", "verbose_name_plural", "list_url", "add_url", "base_template"} {
			if _, ok := resp.Context()[key]; !ok {
				t.Fatalf("standard context key %q missing", key)
			}
		}
	})

	t.Run("missing record is not found", func(t *testing.T) {
		_, err := c.Detail(ctx, getRequest(""), "999")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("identifier outside the pattern is not found", func(t *testing.T) {
		_, err := c.Detail(ctx, getRequest(""), "not-a-number")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("view predicate sees the target record", func(t *testing.T) {
		guarded := f.controller(t, Hooks{
			ViewPermitted: func(_ Request, target *record.Record) bool {
				return target == nil || target.ID() != rec.ID()
			},
		})
		_, err := guarded.Detail(ctx, getRequest(""), rec.ID())
		if !errors.Is(err, domain.ErrPermissionDenied) {
			t.Fatalf("err = %v, want ErrPermissionDenied", err)
		}
	})
}
