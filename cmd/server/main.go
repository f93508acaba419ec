package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"driverdesk/internal/documents/handler"
	documentservice "driverdesk/internal/documents/service"
	documentstore "driverdesk/internal/documents/store"
	"driverdesk/internal/drafts"
	drafthandler "driverdesk/internal/drafts/handler"
	"driverdesk/internal/platform/config"
	"driverdesk/internal/platform/httpserver"
	"driverdesk/internal/platform/logger"
	httpmetrics "driverdesk/internal/platform/metrics"
	"driverdesk/internal/platform/postgres"
	platformredis "driverdesk/internal/platform/redis"
	trackerhandler "driverdesk/internal/tracker/handler"
	trackermetrics "driverdesk/internal/tracker/metrics"
	trackerservice "driverdesk/internal/tracker/service"
	trackerstore "driverdesk/internal/tracker/store"
	audit "driverdesk/pkg/platform/audit"
	"driverdesk/pkg/platform/audit/publisher"
	kafkaaudit "driverdesk/pkg/platform/audit/store/kafka"
	auditmemory "driverdesk/pkg/platform/audit/store/memory"
	"driverdesk/pkg/platform/httputil"
	"driverdesk/pkg/platform/middleware/admin"
	"driverdesk/pkg/platform/middleware/request"
	"driverdesk/pkg/platform/middleware/requesttime"
)

const shutdownGrace = 15 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	trackers, db, err := buildTrackerStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	auditStore, closeAudit, err := buildAuditStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.Buffer),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	documents, err := buildDocumentStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	trackerSvc := trackerservice.New(trackers,
		trackerservice.WithLogger(log),
		trackerservice.WithAuditPublisher(auditor),
		trackerservice.WithMetrics(trackermetrics.New(reg)),
		trackerservice.WithLicenseWarning(cfg.LicenseWarning),
	)
	documentSvc := documentservice.New(documents, trackers,
		documentservice.WithLogger(log),
		documentservice.WithAuditPublisher(auditor),
		documentservice.WithMaxBytes(cfg.Documents.MaxBytes),
	)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(admin.Identify)
	r.Use(httpmetrics.New(reg).Middleware)

	r.Get("/healthz", healthHandler(db, redisClient))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	trackerhandler.New(trackerSvc, log).Register(r)
	handler.New(documentSvc, log).Register(r)
	if redisClient != nil {
		draftStore := drafts.NewRedisStore(redisClient.Client, cfg.Drafts.TTL)
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireActor(log))
			drafthandler.New(draftStore, log).Register(r)
		})
	} else {
		log.Info("REDIS_URL not set; draft endpoints disabled")
	}

	return httpserver.Run(ctx, httpserver.New(cfg.Addr, r), shutdownGrace, log)
}

type trackerBackend interface {
	trackerservice.TrackerStore
	documentservice.TrackerFinder
}

func buildTrackerStore(ctx context.Context, cfg config.Server, log *slog.Logger) (trackerBackend, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Info("DATABASE_URL not set; trackers are kept in memory")
		return trackerstore.NewInMemory(), nil, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return trackerstore.NewPostgres(db), db, nil
}

func buildAuditStore(ctx context.Context, cfg config.Server, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Audit.Brokers) == 0 {
		log.Info("KAFKA_BROKERS not set; audit events are kept in memory")
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	store, err := kafkaaudit.New(cfg.Audit.Brokers, cfg.Audit.Topic)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureTopic(ctx, 3, 1); err != nil {
		log.Warn("failed to ensure audit topic", "topic", cfg.Audit.Topic, "error", err)
	}
	return store, store.Close, nil
}

func buildDocumentStore(ctx context.Context, cfg config.Server, log *slog.Logger) (documentservice.DocumentStore, error) {
	if cfg.Documents.Endpoint == "" {
		log.Info("MINIO_ENDPOINT not set; documents are kept in memory")
		return documentstore.NewInMemory(), nil
	}
	return documentstore.NewMinIO(ctx, cfg.Documents)
}

func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := http.StatusOK
		if db != nil {
			checks["postgres"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := redisClient.Health(ctx); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
	}
}
