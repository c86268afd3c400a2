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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/bigquery"
	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/core/services"
	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
)

// storeOpener opens the label store for one command run.
type storeOpener func(ctx context.Context, cfg labelstore.Config) (labelstore.Store, func() error, error)

type app struct {
	config    *cloud.Config
	openStore storeOpener
	backend   string
	path      string
}

func newApp(config *cloud.Config) *app {
	return &app{config: config, openStore: openConfiguredStore(config)}
}

// openConfiguredStore opens the store through labelstore.Open, creating a
// BigQuery client first when the bigquery backend is selected.
func openConfiguredStore(config *cloud.Config) storeOpener {
	return func(ctx context.Context, cfg labelstore.Config) (labelstore.Store, func() error, error) {
		var bq *bigquery.Client
		if cfg.Backend == labelstore.BackendBigQuery {
			var err error
			if bq, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
				return nil, nil, err
			}
		}
		store, err := labelstore.Open(ctx, cfg, bq)
		if err != nil {
			if bq != nil {
				_ = bq.Close()
			}
			return nil, nil, err
		}
		release := func() error {
			err := store.Close()
			if bq != nil {
				err = errors.Join(err, bq.Close())
			}
			return err
		}
		return store, release, nil
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "labelctl",
		Short:         "Index and search videos by label",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "label store backend (badger, bigquery, memory); overrides the configuration")
	root.PersistentFlags().StringVar(&a.path, "badger-path", "", "badger database directory; overrides the configuration")

	root.AddCommand(a.indexCmd(), a.searchCmd(), genIDCmd(), validateIDCmd())
	return root
}

func (a *app) storeConfig() labelstore.Config {
	cfg := a.config.LabelIndex
	if len(a.backend) > 0 {
		cfg.Backend = a.backend
	}
	if len(a.path) > 0 {
		cfg.BadgerPath = a.path
	}
	return cfg
}

// withStore runs fn against a freshly opened store and always releases it.
func (a *app) withStore(ctx context.Context, fn func(store labelstore.Store) error) (err error) {
	store, release, err := a.openStore(ctx, a.storeConfig())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := release(); err == nil {
			err = closeErr
		}
	}()
	return fn(store)
}

func (a *app) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <video-id> <label>...",
		Short: "Normalize labels and index a video under every token",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			detected := make([]model.DetectedLabel, 0, len(args)-1)
			for _, name := range args[1:] {
				detected = append(detected, model.DetectedLabel{Name: model.NewLabelName(name)})
			}
			labels := model.NewLabels(detected, model.WithMinConfidence(a.config.LabelIndex.MinConfidence))

			return a.withStore(cmd.Context(), func(store labelstore.Store) error {
				svc := &services.LabelIndexService{Store: store}
				if err := svc.Index(cmd.Context(), args[0], labels.Labels); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), labels)
			})
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <token>...",
		Short: "Print the videos indexed under any of the tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store labelstore.Store) error {
				svc := &services.LabelSearchService{Store: store, Locations: a.config.Storage.MediaLocations}
				videos, err := svc.Search(cmd.Context(), args)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), model.NewSearchResult(videos))
			})
		},
	}
}

func genIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-id",
		Short: "Print a new video identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := model.NewVideoID()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
}

func validateIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-id <id>",
		Short: "Fail when the argument is not a valid video identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.ValidateVideoID(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
