package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/Mindful/internal/api"
	"github.com/soaringjerry/Mindful/internal/catalog"
	"github.com/soaringjerry/Mindful/internal/config"
	dbstore "github.com/soaringjerry/Mindful/internal/db"
	"github.com/soaringjerry/Mindful/internal/logging"
	"github.com/soaringjerry/Mindful/internal/metrics"
	"github.com/soaringjerry/Mindful/internal/middleware"
)

var configPath string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mindful",
		Short: "Daily wellbeing check-in server",
		Long: `mindful serves the check-in API: question catalog, in-progress sessions,
and the per-user history of finalized records.

Running without a subcommand starts the server.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("MINDFUL_CONFIG"), "YAML config file")
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Start the HTTP server", RunE: runServe},
		newMigrateCmd(),
		newRecordsCmd(),
		newCatalogCmd(),
	)
	return root
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func loadCatalog(cfg *config.Config, log *zap.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	for _, id := range cfg.DisabledQuestions {
		if !cat.SetEnabled(id, false) {
			log.Warn("disabled_questions names an unknown question", zap.String("question_id", id))
		}
	}
	if len(cfg.QuestionOrder) > 0 && !cat.Reorder(cfg.QuestionOrder) {
		return nil, fmt.Errorf("question_order names an unknown question: %v", cfg.QuestionOrder)
	}
	return cat, nil
}

// openStore picks SQLite when sqlite_path is set, otherwise a memory store
// seeded from (and saved back to) legacy_snapshot. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (api.Store, func(), error) {
	if cfg.SQLitePath != "" {
		if _, err := MigrateIfNeeded(ctx, cfg.LegacySnapshot, cfg.LegacyOwner, cfg.SQLitePath, cfg.MigrationsDir, log); err != nil {
			return nil, nil, fmt.Errorf("migrate legacy snapshot: %w", err)
		}
		sqlDB, st, err := dbstore.Open(cfg.SQLitePath, cfg.MigrationsDir, log)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := sqlDB.Close(); err != nil {
				log.Warn("failed to close sqlite db", zap.Error(err))
			}
		}, nil
	}

	var st api.Store
	snap, err := api.LoadSnapshot(cfg.LegacySnapshot, cfg.LegacyOwner)
	switch {
	case errors.Is(err, os.ErrNotExist):
		st = api.NewMemoryStore()
	case err != nil:
		return nil, nil, err
	default:
		st = api.NewMemoryStoreFromSnapshot(snap)
	}
	return st, func() {
		if cfg.LegacySnapshot == "" {
			return
		}
		if err := api.SaveSnapshot(context.Background(), st, cfg.LegacySnapshot); err != nil {
			log.Error("failed to save snapshot", zap.String("path", cfg.LegacySnapshot), zap.Error(err))
		}
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.JWTSecret == "" {
		log.Warn("jwt_secret not set, using development secret")
	}
	handler, router := buildHandler(cfg, store, cat, log)

	go pruneSessions(ctx, router, cfg.SessionTTL, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("mindful server listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildHandler assembles the API, health and metrics routes behind the
// middleware chain.
func buildHandler(cfg *config.Config, store api.Store, cat *catalog.Catalog, log *zap.Logger) (http.Handler, *api.Router) {
	auth := middleware.NewAuth(cfg.JWTSecret)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	router := api.NewRouter(api.Options{
		Store:    store,
		Catalog:  cat,
		Auth:     auth,
		Metrics:  m,
		Logger:   log,
		TokenTTL: cfg.TokenTTL,
	})

	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Mindful API",
			"questions":  len(cat.Enabled()),
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mux.Handle("GET /metrics", m.Handler())
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	handler := middleware.SecureHeaders(
		middleware.CORS(cfg.CORSOrigins)(
			middleware.NoStore(
				auth.WithAuth(
					middleware.AccessLog(log.Named("http"))(mux)))))
	return handler, router
}

// pruneSessions drops in-progress sessions older than ttl.
func pruneSessions(ctx context.Context, router *api.Router, ttl time.Duration, log *zap.Logger) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := router.Sessions().PruneBefore(now.Add(-ttl)); n > 0 {
				log.Debug("session prune tick", zap.Int("removed", n))
			}
		}
	}
}
