// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/velumlabs/communion/services/collective/datatypes"
	"github.com/velumlabs/communion/services/collective/dispatch"
	"github.com/velumlabs/communion/services/collective/engine"
	"github.com/velumlabs/communion/services/collective/observability"
	"github.com/velumlabs/communion/services/collective/oracle"
	"github.com/velumlabs/communion/services/collective/routes"
	"github.com/velumlabs/communion/services/collective/stats"
	"github.com/velumlabs/communion/services/collective/storage"
	"github.com/velumlabs/communion/services/collective/stream"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "communion-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("collective-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// buildOracle selects the generative backend from ORACLE_BACKEND. An
// empty or unknown value leaves the oracle unconfigured, which is a
// supported degraded mode: every pass skips generation.
func buildOracle() oracle.Oracle {
	switch os.Getenv("ORACLE_BACKEND") {
	case "openai":
		o, err := oracle.NewOpenAIOracle()
		if err != nil {
			slog.Error("failed to initialize OpenAI oracle, running without generation", "error", err)
			return nil
		}
		slog.Info("Using OpenAI oracle backend")
		return o
	case "ollama":
		o, err := oracle.NewOllamaOracle()
		if err != nil {
			slog.Error("failed to initialize Ollama oracle, running without generation", "error", err)
			return nil
		}
		slog.Info("Using Ollama oracle backend")
		return o
	default:
		slog.Warn("ORACLE_BACKEND not set, agents will stay silent")
		return nil
	}
}

// engineConfig applies RESPONSE_CHANCE_* overrides on top of the default
// tuning.
func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	overrides := map[string]datatypes.SignalType{
		"RESPONSE_CHANCE_PAGE_VISITED":         datatypes.SignalPageVisited,
		"RESPONSE_CHANCE_REACTION":             datatypes.SignalReaction,
		"RESPONSE_CHANCE_SECRET_DISCOVERED":    datatypes.SignalSecretDiscovered,
		"RESPONSE_CHANCE_CONFESSION_SUBMITTED": datatypes.SignalConfessionSubmitted,
	}
	for env, st := range overrides {
		raw := os.Getenv(env)
		if raw == "" {
			continue
		}
		chance, err := strconv.ParseFloat(raw, 64)
		if err != nil || chance < 0 || chance > 1 {
			slog.Warn("ignoring invalid response chance override", "env", env, "value", raw)
			continue
		}
		cfg.ResponseChance[st] = chance
	}
	return cfg
}

func main() {
	port := os.Getenv("COLLECTIVE_PORT")
	if port == "" {
		port = "12300"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	dataDir := os.Getenv("COLLECTIVE_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data/collective"
		slog.Warn("COLLECTIVE_DATA_DIR not set, defaulting to ./data/collective")
	}
	dbCfg := storage.DefaultConfig()
	dbCfg.Path = dataDir
	db, err := storage.Open(dbCfg)
	if err != nil {
		log.Fatalf("FATAL: could not open the collective store: %v", err)
	}
	defer db.Close()

	gcStop := make(chan struct{})
	gcDone := make(chan struct{})
	go storage.RunGC(db, dbCfg, gcStop, gcDone, logger)

	signalStore := storage.NewSignalStore(db)
	debateStore := storage.NewDebateStore(db)
	agentStore, err := storage.NewAgentStateStore(db)
	if err != nil {
		log.Fatalf("FATAL: could not seed agent states: %v", err)
	}
	aggregator := stats.NewAggregator(signalStore, agentStore)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hub := stream.NewHub(metrics)

	log.Println("Configuring the oracle backend")
	eng := engine.New(agentStore, debateStore, buildOracle(), hub, metrics, engineConfig())

	dispatcher := dispatch.New(context.Background(), 4, 64)

	router := gin.Default()
	router.Use(otelgin.Middleware("collective-service"))
	routes.SetupRoutes(router, routes.Deps{
		Signals:    signalStore,
		Debates:    debateStore,
		Aggregator: aggregator,
		Dispatcher: dispatcher,
		Engine:     eng,
		Hub:        hub,
		Metrics:    metrics,
	})

	srv := &http.Server{Addr: ":" + port, Handler: router}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting the collective server on port ", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	// Accepted orchestration triggers finish before the store closes.
	dispatcher.Stop()
	hub.Close()
	close(gcStop)
	<-gcDone
	slog.Info("collective service stopped")
}
