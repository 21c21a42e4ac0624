// custodia tracks custody of product records: each record has an owner, and
// transfers happen in two steps - the owner delegates, the delegate accepts.
//
// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"custodia/internal/audit"
	"custodia/internal/jwttoken"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/middleware"
	platformredis "custodia/internal/platform/redis"
	"custodia/internal/product/handler"
	productmetrics "custodia/internal/product/metrics"
	"custodia/internal/product/service"
	"custodia/internal/product/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record store: in-memory arena by default, postgres when configured.
	var recordStore store.Store = store.NewInMemory()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		recordStore = pg
	}

	group, ctx := errgroup.WithContext(ctx)

	// Audit trail: produce to kafka when brokers are configured, otherwise
	// buffer into the in-process worker.
	var auditPublisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Error("failed to connect audit publisher", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kp.Close(flushCtx); err != nil {
				log.Warn("audit publisher close failed", "error", err)
			}
		}()
		auditPublisher = kp
	} else {
		inbox := make(chan audit.Event, 256)
		worker := audit.NewWorker(audit.NewInMemoryStore(), inbox, log)
		auditPublisher = audit.NewQueuePublisher(inbox, log)
		group.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	metrics := productmetrics.New()

	products := service.New(recordStore,
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithAuditPublisher(auditPublisher),
	)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(log))
	router.Use(middleware.ContentTypeJSON)

	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		router.Use(middleware.RateLimit(redisClient, cfg.Redis.RateLimit, cfg.Redis.Window, log))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	if cfg.DevMode {
		log.Warn("dev mode enabled: unauthenticated token minting is active")
		router.Post("/dev/token", jwttoken.DevMintHandler(jwtService, log))
	}

	h := handler.New(products, log, jwtService)
	h.Register(router)

	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting custodia", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("custodia stopped")
}
