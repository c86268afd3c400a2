// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point of the label search server.
//
// The server loads the hierarchical TOML configuration, sets up structured
// logging and OpenTelemetry, creates the Google Cloud clients and the label
// store, and then serves the REST API (see internal/api) while a Pub/Sub
// listener indexes every thumbnail written to the thumbnail bucket.
//
// Logic Flow:
//  1. Load configuration and initialize logging at the configured level.
//  2. Initialize tracing and metrics.
//  3. InitState: clients, label store, services, workflows and listeners.
//  4. Serve HTTP until SIGINT or SIGTERM, then shut down gracefully.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-label-search/internal/api"
	"github.com/jaycherian/gcp-go-label-search/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	config := GetConfig()

	telemetry.SetupLogging(config.Telemetry.LogLevel)
	slog.Info("Logging initialized", "level", config.Telemetry.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized", "export", config.Telemetry.ExportEnabled)

	if err := InitState(ctx); err != nil {
		slog.Error("Failed to initialize state", "error", err)
		log.Fatal(err)
	}
	slog.Info("Initialized State")

	gin.SetMode(gin.ReleaseMode)
	r := api.NewRouter(api.Dependencies{
		ServiceName:    config.Application.Name,
		Search:         state.searchService,
		Videos:         state.videoService,
		Index:          state.labelIndex,
		MaxUploadBytes: config.Storage.MaxUploadMiB << 20,
	})

	srv := &http.Server{
		Addr:         ":" + config.Application.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("Server Ready", "port", config.Application.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	// Stops the Pub/Sub listeners.
	cancel()
	if err := CloseState(); err != nil {
		slog.Error("Failed to release state", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Failed to flush telemetry", "error", err)
	}

	slog.Info("Server exiting")
}
