package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pennersr/towel/internal/config"
	dbRedis "github.com/pennersr/towel/internal/db/redis"
	"github.com/pennersr/towel/internal/domain/record"
	"github.com/pennersr/towel/internal/forms"
	logpkg "github.com/pennersr/towel/internal/logger"
	"github.com/pennersr/towel/internal/metrics"
	"github.com/pennersr/towel/internal/repository/memstore"
	"github.com/pennersr/towel/internal/repository/searchstate"
	chiTransport "github.com/pennersr/towel/internal/transport/chi"
	"github.com/pennersr/towel/internal/usecase/resource"
	"github.com/pennersr/towel/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting towel server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("session_driver", cfg.Session.Driver),
	)

	// Session state store based on driver
	var searches resource.SearchStore
	switch cfg.Session.Driver {
	case "memory":
		searches = searchstate.NewMemory()
	case "redis":
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Session.Addrs,
			Password: cfg.Session.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create session store", zap.Error(err))
		}
		defer kv.Close()

		ctx := context.Background()
		if err := kv.WaitForReady(ctx, time.Duration(cfg.Session.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Session store not ready", zap.Error(err))
		}
		logger.Info("Connected to session store", zap.Strings("addrs", cfg.Session.Addrs))

		searches = searchstate.New(kv, cfg.Session.KeyPrefix, time.Duration(cfg.Session.TTLSec)*time.Second)
	default:
		logger.Fatal("Unknown session driver", zap.String("driver", cfg.Session.Driver))
	}

	store := seedDemoStore(logger)

	controllers, err := buildControllers(cfg, store, searches, logger)
	if err != nil {
		logger.Fatal("Failed to build controllers", zap.Error(err))
	}

	server := chiTransport.NewServer(controllers, nil, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(chiTransport.SessionMiddleware(cfg.Session.CookieName))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildControllers wires the demo address book resources.
func buildControllers(
	cfg config.Config,
	store *memstore.Store,
	searches resource.SearchStore,
	logger *zap.Logger,
) ([]*resource.Controller, error) {
	contactForm := forms.MustNew(
		forms.Field{Name: "first_name", Kind: forms.Text, Required: true},
		forms.Field{Name: "last_name", Kind: forms.Text, Required: true},
		forms.Field{Name: "city", Kind: forms.Text},
	)
	phoneForm := forms.MustNew(
		forms.Field{Name: "number", Kind: forms.Text, Required: true},
	)
	phoneSet, err := forms.NewSet(phoneForm, "phones")
	if err != nil {
		return nil, fmt.Errorf("phone formset: %w", err)
	}

	allowDelete := func(resource.Request, *record.Record) bool { return true }

	contacts, err := resource.New(resource.Config{
		Kind:         "contact",
		BaseURL:      "/contacts/",
		Form:         contactForm,
		SearchFields: []string{"first_name", "last_name", "city", "phones.number"},
		Orderings: map[string][]string{
			"":     {"last_name", "first_name"},
			"name": {"first_name"},
			"city": {"city"},
		},
		PageSize:     cfg.Pagination.DefaultPageSize,
		AllowShowAll: cfg.Pagination.AllowShowAll,
		RelatedKinds: []string{"phone"},
		Children: []resource.ChildConfig{{
			Kind:          "phone",
			RelationField: "contact",
			FormSet:       phoneSet,
		}},
	}, store, searches, resource.Hooks{DeletePermitted: allowDelete}, logger)
	if err != nil {
		return nil, fmt.Errorf("contacts controller: %w", err)
	}

	phones, err := resource.New(resource.Config{
		Kind:         "phone",
		BaseURL:      "/phones/",
		Form:         phoneForm,
		SearchFields: []string{"number", "contact.first_name", "contact.last_name"},
		PageSize:     cfg.Pagination.DefaultPageSize,
		AllowShowAll: cfg.Pagination.AllowShowAll,
	}, store, searches, resource.Hooks{DeletePermitted: allowDelete}, logger)
	if err != nil {
		return nil, fmt.Errorf("phones controller: %w", err)
	}

	return []*resource.Controller{contacts, phones}, nil
}

// seedDemoStore fills the in-memory store with a small address book.
func seedDemoStore(logger *zap.Logger) *memstore.Store {
	store := memstore.New(
		record.MustSchema("contact",
			record.ToMany("phones", "phone", "contact"),
		),
		record.MustSchema("phone",
			record.ToOne("contact", "contact"),
		),
	)

	ctx := context.Background()
	contacts := []map[string]any{
		{"first_name": "Anna", "last_name": "Meier", "city": "Berlin"},
		{"first_name": "Bert", "last_name": "Schmidt", "city": "Hamburg"},
		{"first_name": "Carla", "last_name": "Weber", "city": "Berlin"},
	}
	numbers := []string{"030-555-0100", "040-555-0200", "030-555-0300"}

	for i, fields := range contacts {
		rec, err := record.New("contact", "", fields)
		if err != nil {
			logger.Fatal("Failed to build demo contact", zap.Error(err))
		}
		if err := store.Save(ctx, &rec); err != nil {
			logger.Fatal("Failed to seed demo contact", zap.Error(err))
		}

		phone, err := record.New("phone", "", map[string]any{
			"contact": rec.ID(),
			"number":  numbers[i],
		})
		if err != nil {
			logger.Fatal("Failed to build demo phone", zap.Error(err))
		}
		if err := store.Save(ctx, &phone); err != nil {
			logger.Fatal("Failed to seed demo phone", zap.Error(err))
		}
	}

	return store
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
