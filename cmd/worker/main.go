package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anshin-navi/discovery/internal/bootstrap"
	"github.com/anshin-navi/discovery/internal/config"
	"github.com/anshin-navi/discovery/internal/observability/logging"
	"github.com/anshin-navi/discovery/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		log.Printf("worker metrics on :%s", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeDeepDiveRequested(ctx, func(handlerCtx context.Context, candidateID string) error {
		diveCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartDeepDive()
		start := time.Now()
		err := app.DiveUC.DeepDive(diveCtx, candidateID)
		workerMetrics.FinishDeepDive("worker", time.Since(start), err)

		if err != nil {
			slog.Error("deep_dive_failed", "candidate_id", candidateID, "error", err)
		} else {
			slog.Info("deep_dive_complete", "candidate_id", candidateID,
				"duration_ms", time.Since(start).Milliseconds())
		}
		if err == nil {
			if c, getErr := app.Candidates.GetByID(diveCtx, candidateID); getErr == nil {
				workerMetrics.ObserveMenuCount("worker", len(c.Menus))
			}
		}
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
