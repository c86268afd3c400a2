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

// Package main contains the setup and initialization logic for the server
// state: configuration, Google Cloud clients, the label store and the
// services wired on top of them.
//
// Functions:
//   - SetupOS: Points the configuration loader at configs/ with the "local" runtime.
//   - GetConfig: Loads the configuration once.
//   - InitState: Creates clients, the label store, services and workflows.
//   - CloseState: Releases everything InitState created.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/core/services"
	"github.com/jaycherian/gcp-go-label-search/internal/core/workflow"
	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
)

// StateManager holds the shared dependencies of the server.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	store         labelstore.Store
	searchService *services.LabelSearchService
	indexService  *services.LabelIndexService
	videoService  *services.VideoService
	labelIndex    *workflow.LabelIndexWorkflow
}

var state = &StateManager{}

// SetupOS sets the environment variables read by the configuration loader,
// unless the caller already provided them.
func SetupOS() (err error) {
	if _, ok := os.LookupEnv(cloud.EnvConfigFilePrefix); !ok {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigRuntime); !ok {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the configuration on first use and returns the cached copy
// afterwards.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState creates the cloud clients, opens the label store and wires the
// services and workflows on top of them.
//
// Inputs:
//   - ctx: The root context of the application.
//
// Outputs:
//   - error: The first initialization failure. Anything created before it is
//     released again.
func InitState(ctx context.Context) (err error) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create cloud clients: %w", err)
	}
	state.cloud = cloudClients
	defer func() {
		if err != nil {
			_ = CloseState()
		}
	}()

	store, err := labelstore.Open(ctx, config.LabelIndex, cloudClients.BigQueryClient)
	if err != nil {
		return fmt.Errorf("failed to open label store: %w", err)
	}
	state.store = store
	slog.InfoContext(ctx, "label store opened", "backend", config.LabelIndex.Backend)

	state.indexService = &services.LabelIndexService{Store: store}
	state.searchService = &services.LabelSearchService{Store: store, Locations: config.Storage.MediaLocations}
	state.videoService = &services.VideoService{
		Objects:       &cloud.GCSObjectStore{Client: cloudClients.StorageClient},
		StorageClient: cloudClients.StorageClient,
		IAMClient:     cloudClients.IAMClient,
		SignerEmail:   config.Application.SignerServiceAccountEmail,
		Locations:     config.Storage.MediaLocations,
	}

	labelModel, ok := cloudClients.AgentModels[cloud.LabelModelName]
	if !ok {
		return fmt.Errorf("agent model %q is not configured", cloud.LabelModelName)
	}
	detector, err := cloud.NewGeminiLabelDetector(labelModel, config.PromptTemplates.LabelDetection)
	if err != nil {
		return err
	}
	state.labelIndex = workflow.NewLabelIndexWorkflow(detector, state.indexService, config.LabelIndex.MinConfidence)

	return SetupListeners(ctx, cloudClients, state.labelIndex)
}

// CloseState waits for the listeners to drain, then closes the label store
// and the cloud clients.
func CloseState() error {
	var errs []error
	if state.cloud != nil {
		for _, listener := range state.cloud.PubSubListeners {
			listener.Wait()
		}
	}
	if state.store != nil {
		errs = append(errs, state.store.Close())
		state.store = nil
	}
	if state.cloud != nil {
		errs = append(errs, state.cloud.Close())
		state.cloud = nil
	}
	return errors.Join(errs...)
}
