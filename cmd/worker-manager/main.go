// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"analytics-chat/internal/app"
	"analytics-chat/internal/common/camunda"
	"analytics-chat/internal/common/config"
	"analytics-chat/internal/common/logger"
)

func main() {
	bootLog := logger.NewStructured("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error("config load failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting worker manager", map[string]interface{}{"version": cfg.App.Version})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zeebe, err := camunda.Connect(ctx, cfg.Camunda, 2*time.Minute, log)
	if err != nil {
		log.Error("zeebe connection failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer zeebe.Close()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("pipeline setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer a.Close()

	taskTypes := make([]string, 0, len(a.Workers))
	for taskType := range a.Workers {
		taskTypes = append(taskTypes, taskType)
	}
	sort.Strings(taskTypes)

	var workers []*camunda.CamundaWorker
	for _, taskType := range taskTypes {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(),
			taskType,
			wcfg.MaxJobsActive,
			config.GetDuration(wcfg.Timeout),
			a.Workers[taskType],
			log,
		))
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := a.Service.Health(r.Context())
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			status.Components["zeebe"] = "unavailable"
			status.Status = "unhealthy"
		} else {
			status.Components["zeebe"] = "ok"
		}
		code := http.StatusOK
		if status.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ready",
			"workers": len(workers),
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: mux, ReadTimeout: 10 * time.Second}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	for _, w := range workers {
		w.Stop()
	}
	log.Info("worker manager stopped", nil)
}
