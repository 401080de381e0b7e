package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"nirvana/config"
	"nirvana/core/center"
	"nirvana/core/events"
	"nirvana/core/state"
	nativecommon "nirvana/native/common"
	"nirvana/observability/logging"
	"nirvana/observability/metrics"
	telemetry "nirvana/observability/otel"
	"nirvana/services/journal"
	"nirvana/services/quoteapi"
	"nirvana/storage"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "nirvd.toml", "path to daemon configuration (.toml or .yaml)")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "nirvd: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.SetupWithOptions(logging.Options{
		Service: "nirvd",
		Env:     cfg.Environment,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "nirvd",
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Tracing,
	})
	if err != nil {
		return fmt.Errorf("initialise telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	jrnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer jrnl.Close()
	jrnl.SetLogger(logger)

	pauses := nativecommon.NewPauses(cfg.Paused...)
	if len(cfg.Paused) > 0 {
		logger.Warn("modules paused at startup", slog.String("modules", strings.Join(cfg.Paused, ",")))
	}

	engine := center.NewEngine()
	engine.SetState(state.NewStore(db))
	engine.SetPauses(pauses)
	engine.SetLogger(logger)
	engine.SetMetrics(metrics.Settlement())
	engine.SetEmitter(events.Multi{jrnl})

	d := newDaemon(engine, jrnl, logger)
	genesis, err := cfg.Protocol.Genesis()
	if err != nil {
		return err
	}
	if err := d.initialize(genesis); err != nil {
		return fmt.Errorf("initialize center: %w", err)
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := scheduler.AddFunc(cfg.RewardCrank, func() { d.crank(context.WithoutCancel(ctx)) }); err != nil {
		return fmt.Errorf("register reward crank: %w", err)
	}
	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	handler, err := quoteapi.New(quoteapi.Config{
		Reader:   d,
		Receipts: jrnl,
		RateLimiter: quoteapi.NewRateLimiter(quoteapi.RateLimit{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Burst:             cfg.RateLimitBurst,
		}, logger),
		Logger:  logger,
		Tracing: cfg.Telemetry.Tracing,
	})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("quote api listening", slog.String("addr", cfg.ListenAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
