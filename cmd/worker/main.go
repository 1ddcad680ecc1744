package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/questa/internal/app"
	playerCommands "github.com/felixgeelhaar/questa/internal/player/application/commands"
	"github.com/felixgeelhaar/questa/internal/sync/application/scheduler"
	syncDomain "github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/felixgeelhaar/questa/pkg/config"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting questa worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Update logger level based on config
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Start processing locally staged events
	if err := container.OutboxProcessor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	// Start consuming server pushes
	if container.PushConsumer != nil {
		go func() {
			if err := container.PushConsumer.Start(ctx); err != nil {
				logger.Error("push consumer stopped", "error", err)
			}
		}()
	} else if container.InProcessEventBus != nil {
		if err := container.InProcessEventBus.Start(ctx); err != nil {
			logger.Error("failed to start in-process bus", "error", err)
			os.Exit(1)
		}
	}

	sched := container.SyncScheduler
	dispatcher := container.SyncDispatcher
	networked := scheduler.Constraints{RequiresNetwork: true}

	// Initial hydration pulls everything and pushes nothing
	if cfg.FirstSync {
		logger.Info("scheduling first sync")
		sched.ScheduleOnce(ctx, "first-sync", func(ctx context.Context) syncDomain.RunResult {
			return dispatcher.RunAll(ctx, syncDomain.Trigger{IsFirstSync: true})
		}, networked)
	}

	// Recurring reconciliation
	sched.ScheduleRecurring(ctx, "profile-sync", func(ctx context.Context) syncDomain.RunResult {
		return container.ProfileSyncWorker.Run(ctx, syncDomain.Trigger{})
	}, cfg.SyncInterval, networked)
	sched.ScheduleRecurring(ctx, "quest-sync", func(ctx context.Context) syncDomain.RunResult {
		return container.QuestSyncWorker.Run(ctx, syncDomain.Trigger{})
	}, cfg.SyncInterval, networked)
	sched.ScheduleRecurring(ctx, "stats-sync", func(ctx context.Context) syncDomain.RunResult {
		return container.StatsSyncWorker.Run(ctx, syncDomain.Trigger{})
	}, cfg.SyncInterval, networked)

	// Streak resolution on calendar day change
	sched.ScheduleOnDateChange(ctx, "resolve-day-change", func(ctx context.Context) syncDomain.RunResult {
		session, err := container.Sessions.Current(ctx)
		if err != nil {
			return syncDomain.RetryableResult(err)
		}
		if session == nil {
			return syncDomain.RunResult{}
		}

		result, err := container.ResolveDayChangeHandler.Handle(ctx, playerCommands.ResolveDayChangeCommand{
			UserID: session.UserID,
			Today:  time.Now(),
		})
		if err != nil {
			return syncDomain.RetryableResult(err)
		}
		logger.Info("day change resolved",
			"streak_kept", result.StreakKept,
			"freezers_used", result.FreezersUsed,
			"days_lost", result.DaysLost,
		)
		return syncDomain.RunResult{}
	})

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			stats := container.OutboxProcessor.GetStats()
			response := map[string]any{
				"status":            "ok",
				"running":           stats.IsRunning,
				"published":         stats.PublishedCount,
				"failed":            stats.FailedCount,
				"dead":              stats.DeadCount,
				"last_processed_at": stats.LastProcessedAt,
				"last_error_at":     stats.LastErrorAt,
				"last_error":        stats.LastError,
				"workers":           container.SyncTracker.Snapshot(),
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(response)
		})

		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := container.DB.PingContext(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status": "not_ready",
					"error":  err.Error(),
				})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
		})

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down worker")

	sched.Stop()
	container.OutboxProcessor.Stop()
	logger.Info("worker stopped")

	fmt.Println("Goodbye!")
}
