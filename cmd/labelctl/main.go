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

// Package main is labelctl, a command line client for the label index.
//
// It opens the label store described by the label_index section of the
// configuration (badger by default) and offers:
//   - index <video-id> <label>...: Normalizes the labels and indexes the video under every token.
//   - search <token>...: Prints the matching videos as JSON.
//   - gen-id: Prints a new video identifier.
//   - validate-id <id>: Exits non-zero when id is not a valid video identifier.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, ok := os.LookupEnv(cloud.EnvConfigFilePrefix); !ok {
		_ = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigRuntime); !ok {
		_ = os.Setenv(cloud.EnvConfigRuntime, "local")
	}

	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	telemetry.SetupLogging(config.Telemetry.LogLevel)

	if err := newApp(config).rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
