// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	awsclient "translation-workers/internal/common/aws"
	"translation-workers/internal/common/camunda"
	"translation-workers/internal/common/config"
	"translation-workers/internal/common/database"
	apperrors "translation-workers/internal/common/errors"
	"translation-workers/internal/common/logger"
	"translation-workers/internal/common/observability"
	"translation-workers/internal/events"
	"translation-workers/internal/recommendation"
	"translation-workers/internal/store"
	"translation-workers/pkg/registry"

	ft "translation-workers/internal/workers/matching/filter-translators"
	rt "translation-workers/internal/workers/matching/recommend-translators"
)

const (
	serviceName  = "translation-workers"
	healthAddr   = ":8080"
	probeTimeout = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker manager failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(serviceName)
	if err != nil {
		return fmt.Errorf("observability init failed: %w", err)
	}
	defer shutdownWithTimeout(obs.Shutdown, zapLog, "metrics provider")

	if cfg.Tracing.Enabled {
		tracing, err := observability.NewTracing(observability.TracingOptions{
			ServiceName:    serviceName,
			Version:        cfg.App.Version,
			Environment:    cfg.App.Environment,
			JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("tracing init failed: %w", err)
		}
		defer shutdownWithTimeout(tracing.Shutdown, zapLog, "tracer provider")
		zapLog.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.JaegerEndpoint))
	}

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, "Zeebe client initialization", func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	}, log)
	if err != nil {
		return err
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, "PostgreSQL connection", func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, log)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	probes := []database.Pinger{zeebe, pg}

	// --- Elasticsearch (catalog backend only) ---
	var esClient *database.ElasticsearchClient
	if cfg.Catalog.Backend == config.CatalogBackendElasticsearch {
		err = camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, "Elasticsearch connection", func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, log)
		if err != nil {
			return err
		}
		probes = append(probes, esClient)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Redis (catalog cache only) ---
	var redisClient *database.RedisClient
	if cfg.Catalog.CacheTTLMs > 0 {
		err = camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, "Redis connection", func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		probes = append(probes, redisClient)
		zapLog.Info("Redis connected successfully")
	}

	storeChain := buildStore(cfg, pg, esClient, redisClient, log)
	recommender := recommendation.NewRecommender(cfg.Recommendation.Scoring(), storeChain, storeChain, log)

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("activity registry: %w", err)
	}

	var emitter rt.EventEmitter
	if cfg.Events.Enabled() {
		snsClient, err := awsclient.NewSNSClient(ctx, cfg.Events.Region)
		if err != nil {
			return fmt.Errorf("sns client: %w", err)
		}
		emitter = events.NewSNSEmitter(snsClient, cfg.Events.SNSTopicARN)
		zapLog.Info("Recommendation events enabled", zap.String("topic", cfg.Events.SNSTopicARN))
	}

	workers := camunda.NewRegistry(zeebe.Zeebe(), serviceName, log)

	if wcfg := config.GetWorkerConfig(cfg, rt.TaskType); wcfg.Enabled {
		activity, err := reg.Find(rt.TaskType)
		if err != nil {
			return err
		}
		handler, err := rt.NewHandler(rt.HandlerOptions{
			Config:        recommendConfig(cfg, wcfg, activity),
			Recommender:   recommender,
			Emitter:       emitter,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s handler: %w", rt.TaskType, err)
		}
		workers.Start(rt.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, ft.TaskType); wcfg.Enabled {
		activity, err := reg.Find(ft.TaskType)
		if err != nil {
			return err
		}
		handler, err := ft.NewHandler(ft.HandlerOptions{
			Config: &ft.Config{
				Enabled:       true,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
				InputSchema:   activity.InputSchema,
			},
			Catalog:       storeChain,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s handler: %w", ft.TaskType, err)
		}
		workers.Start(ft.TaskType, wcfg, handler.Handle)
	}

	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

	server := &http.Server{
		Addr:              healthAddr,
		Handler:           healthMux(probes),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", healthAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping workers...")

		workers.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zapLog.Info("Worker manager stopped gracefully")
	return nil
}

// buildStore assembles catalog backend, optional redis cache and the
// per-concern breakers.
func buildStore(cfg *config.Config, pg *database.PostgresClient, es *database.ElasticsearchClient, rdb *database.RedisClient, log logger.Logger) *store.GuardedStore {
	history := store.NewPostgresStore(pg.DB)

	var catalog recommendation.CatalogReader = history
	if es != nil {
		catalog = store.NewElasticsearchCatalog(es.Client, es.Index)
	}
	if rdb != nil {
		catalog = store.NewCachedCatalog(catalog, rdb.Client, config.GetDuration(cfg.Catalog.CacheTTLMs), log)
	}

	settings := store.BreakerSettings{
		MaxRequests:      cfg.Catalog.Breaker.MaxRequests,
		Interval:         config.GetDuration(cfg.Catalog.Breaker.IntervalMs),
		Timeout:          config.GetDuration(cfg.Catalog.Breaker.TimeoutMs),
		FailureThreshold: cfg.Catalog.Breaker.FailureThreshold,
	}
	return store.NewGuardedStore(
		catalog,
		history,
		store.NewBreaker("catalog", settings, log),
		store.NewBreaker("history", settings, log),
	)
}

func recommendConfig(cfg *config.Config, wcfg config.WorkerConfig, activity *registry.Activity) *rt.Config {
	rc := rt.DefaultConfig()
	rc.MaxJobsActive = wcfg.MaxJobsActive
	if wcfg.Timeout > 0 {
		rc.JobTimeout = config.GetDuration(wcfg.Timeout)
	}
	rc.RecommendTimeout = cfg.Recommendation.Scoring().Timeout
	if cfg.Events.TopN > 0 {
		rc.EventTopN = cfg.Events.TopN
	}
	rc.InputSchema = activity.InputSchema
	return rc
}

func healthMux(probes []database.Pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		failures := database.CheckAll(r.Context(), probeTimeout, probes...)
		if len(failures) > 0 {
			details := make(map[string]string, len(failures))
			for name, err := range failures {
				details[name] = err.Error()
			}
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "not_ready",
				"failures": details,
				"time":     time.Now().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func shutdownWithTimeout(fn func(context.Context) error, log *zap.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
