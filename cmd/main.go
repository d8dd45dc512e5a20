package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ponytojas/plant-mood/config"
	"github.com/ponytojas/plant-mood/internal/api"
	"github.com/ponytojas/plant-mood/internal/database"
	"github.com/ponytojas/plant-mood/internal/evaluator"
	"github.com/ponytojas/plant-mood/internal/events"
	"github.com/ponytojas/plant-mood/internal/logging"
	"github.com/ponytojas/plant-mood/internal/metrics"
	"github.com/ponytojas/plant-mood/internal/mqtt"
	"github.com/ponytojas/plant-mood/internal/notify"
	"github.com/ponytojas/plant-mood/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lg := logging.New(cfg.Log, os.Stdout)
	lg.Info("Starting plant-mood service", "http_port", cfg.HTTP.Port, "evaluation_interval", cfg.Evaluator.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	lg.Info("Connecting to TimescaleDB")
	db, err := database.NewTimescaleDB(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	lg.Info("Initializing database tables")
	if err := db.InitializeTables(ctx); err != nil {
		return err
	}

	ledger, err := notify.NewSQLiteLedger(cfg.Ledger.Path, lg)
	if err != nil {
		return err
	}
	defer ledger.Close()

	relay := notify.NewRelay(cfg.Relay.URL, cfg.Relay.APIKey, cfg.Relay.Timeout)
	dispatcher := notify.NewPushDispatcher(db, db, relay, lg)
	policy := notify.NewPolicy(ledger, dispatcher, cfg.Evaluator.Cooldown, lg)

	recorders := evaluator.MultiRecorder{db}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, lg)
		defer pub.Close()
		recorders = append(recorders, pub)
		lg.Info("Publishing status events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	svc := evaluator.NewService(db, db, policy, recorders, m, lg)

	lg.Info("Setting up MQTT client")
	mqttClient := mqtt.NewClient(cfg, db, m, lg)
	if err := mqttClient.Connect(); err != nil {
		return err
	}
	defer mqttClient.Disconnect()
	if err := mqttClient.Subscribe(); err != nil {
		return err
	}

	worker := scheduler.NewWorker(db, svc, policy, cfg.Evaluator.Interval, cfg.Evaluator.Concurrency, lg)
	workerDone := worker.Start(ctx)

	handler := api.NewHandler(db, svc, cfg.HTTP.LiveInterval, lg)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           api.NewRouter(handler, m.Handler(), cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		lg.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-srvErr:
		if err != nil {
			stop()
			<-workerDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	lg.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("HTTP server shutdown failed", "error", err)
	}
	<-workerDone
	return nil
}
