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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/aws"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/camunda"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/database"
	httpclient "github.com/Hopenghu/hopenghucc-sub004/internal/common/http"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/observability"
	"github.com/Hopenghu/hopenghucc-sub004/internal/llm"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/engine"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/extractor"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/stage"
	"github.com/Hopenghu/hopenghucc-sub004/internal/store"

	pct "github.com/Hopenghu/hopenghucc-sub004/internal/workers/ai-conversation/process-chat-turn"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type healthCheck func(ctx context.Context) error

func main() {
	bootLog := logger.New("info", "console")
	defer bootLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("starting worker manager", map[string]interface{}{"environment": cfg.App.Environment})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]healthCheck{}
	pools := map[string]func() map[string]interface{}{}

	// --- Profile store: Postgres when configured, memory otherwise ---
	var profiles store.ProfileStore = store.NewMemoryProfileStore()
	if cfg.Database.Postgres.Host != "" {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgStore := store.NewPostgresProfileStore(pg.DB)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("profile schema setup failed", zap.Error(err))
		}
		profiles = pgStore
		checks["postgres"] = pg.Ping
		pools["postgres"] = pg.PoolStats
		log.Info("PostgreSQL connected successfully", nil)
	} else {
		log.Warn("postgres not configured, profiles are kept in memory", nil)
	}

	// --- Redis: profile cache and conversation state ---
	var states store.StateStore = store.NewMemoryStateStore()
	if cfg.Database.Redis.Address != "" {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()

		profiles = store.NewCachedProfileStore(profiles, rdb.Client,
			time.Duration(cfg.Database.Redis.ProfileCacheTTL)*time.Second, log)
		states = store.NewRedisStateStore(rdb.Client, time.Duration(cfg.Database.Redis.StateTTL)*time.Second)
		checks["redis"] = rdb.Ping
		pools["redis"] = rdb.PoolStats
		log.Info("Redis connected successfully", nil)
	} else {
		log.Warn("redis not configured, conversation state is kept in memory", nil)
	}

	// --- Extraction provider ---
	provider, err := llm.Select(cfg.Providers, httpclient.NewClient(cfg.Extraction.TimeoutDuration()+5*time.Second))
	if err != nil {
		log.Warn("no language model configured, using keyword extraction only", map[string]interface{}{"error": err.Error()})
	} else {
		log.Info("extraction provider selected", map[string]interface{}{"provider": provider.Name()})
	}
	cascade := extractor.New(provider, extractor.LoadConfig(cfg.Extraction), log)

	machine, err := stage.NewMachine(cfg.Stage)
	if err != nil {
		zapLog.Fatal("invalid stage calibration", zap.Error(err))
	}

	opts := []engine.Option{engine.WithObservability(obs)}
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		opts = append(opts, engine.WithNotifier(snsClient))
		log.Info("stage transitions will be published", map[string]interface{}{"topicArn": cfg.Notifications.SNS.TopicARN})
	}

	eng := engine.New(cascade, profiles, states, machine, log, opts...)

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, cfg.Camunda, nil, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	checks["zeebe"] = zeebe.HealthCheck
	log.Info("Zeebe client connected successfully", nil)

	workerCfg, ok := cfg.Workers[pct.TaskType]
	if !ok {
		workerCfg = config.WorkerConfig{Enabled: true}
	}
	if workerCfg.Enabled {
		handlerCfg := pct.LoadConfig()
		if workerCfg.Timeout > 0 {
			handlerCfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
		}
		handler := pct.NewHandler(handlerCfg, eng, log)
		jobWorker := camunda.StartWorker(zeebe.GetClient(), pct.TaskType, workerCfg, cfg.Camunda, handler.Handle, log)
		defer jobWorker.Close()
	}

	// --- HTTP: metrics and health ---
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		stats := map[string]interface{}{}
		for name, pool := range pools {
			stats[name] = pool()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": http.StatusText(status),
			"checks": results,
			"pools":  stats,
		})
	})

	srv := &http.Server{Addr: cfg.App.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("http server listening", map[string]interface{}{"addr": cfg.App.MetricsAddr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
