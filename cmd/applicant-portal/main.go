package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"applicant-portal/internal/common/candidateapi"
	"applicant-portal/internal/common/config"
	"applicant-portal/internal/common/database"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/observability"
	"applicant-portal/internal/common/session"
	applicationcontroller "applicant-portal/internal/form/application-controller"
	draftschema "applicant-portal/internal/form/draft-schema"
	referencedata "applicant-portal/internal/form/reference-data"
	"applicant-portal/internal/web"

	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console", "stderr")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting applicant portal...", zap.Stringer("config", cfg))

	obs := observability.New(cfg.Observability.ServiceName, observability.Options{
		Tracing:     cfg.Observability.Tracing.Enabled,
		SampleRatio: cfg.Observability.Tracing.SampleRatio,
	})
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Session store, with redis retried when selected ---
	var redis *database.RedisClient
	var healthCheck func(context.Context) error
	if cfg.UsesRedis() {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		healthCheck = redis.Ping
		zapLog.Info("Redis connected successfully")
	}

	store, err := session.NewStore(cfg.Session, redis)
	if err != nil {
		zapLog.Fatal("session store init failed", zap.Error(err))
	}

	// --- Form components ---
	schema, err := draftschema.New(draftschema.LoadConfig(cfg.Form))
	if err != nil {
		zapLog.Fatal("draft schema init failed", zap.Error(err))
	}
	api := candidateapi.New(cfg.Backend, log, obs)
	loader := referencedata.NewLoader(referencedata.LoadConfig(cfg.Backend), api, log, obs)
	forms := applicationcontroller.NewHandler(applicationcontroller.LoadConfig(cfg.Backend), schema, api, log, obs)

	srv := web.NewServer(web.Deps{
		Config:      cfg,
		Store:       store,
		Loader:      loader,
		Forms:       forms,
		Schema:      schema,
		Logger:      log,
		HealthCheck: healthCheck,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening",
			zap.String("address", cfg.Server.Address),
			zap.String("resumeMode", cfg.Form.ResumeMode),
			zap.String("sessionStore", cfg.Session.Store),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Applicant portal stopped gracefully")
}
