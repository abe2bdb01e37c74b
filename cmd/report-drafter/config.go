// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/generate"
	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/internal/throttle"
	"github.com/pdiddy/report-drafter/internal/workflow"
	"github.com/pdiddy/report-drafter/pkg/types"
)

const defaultUserAgent = "report-drafter/0.1"

// setDefaults registers every configuration key so environment variables
// are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", string(types.ProviderGemini))
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.timeout", "0s")
	v.SetDefault("ai.user_agent", defaultUserAgent)

	v.SetDefault("throttle.min_interval", types.DefaultMinInterval.String())
	v.SetDefault("throttle.item_delay", types.DefaultItemDelay.String())
	v.SetDefault("throttle.status_interval", types.DefaultStatusInterval.String())

	v.SetDefault("deep_dive.item_count", workflow.DefaultItemCount)
	v.SetDefault("store.data_dir", "data")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.notification_backlog", 50)
}

// loadConfig decodes the merged flags, environment and config file.
func loadConfig(v *viper.Viper) (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.AppConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Throttle = cfg.Throttle.WithDefaults()
	return cfg, nil
}

// app holds the collaborators every generating command needs.
type app struct {
	cfg      types.AppConfig
	store    *store.Store
	gate     *throttle.Gate
	gen      *generate.Client
	settings *workflow.Settings
}

// newApp opens the store and builds the generation client selected by
// cfg. The caller closes the returned app.
func newApp(ctx context.Context, cfg types.AppConfig) (*app, error) {
	cfg.AI.APIKey = apiKeys.Resolve(cfg.AI.Provider, cfg.AI.APIKey)
	model, err := generate.NewModel(ctx, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("creating %s model: %w", cfg.AI.Provider, err)
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}

	logger.Debug("generation backend ready", zap.String("model", model.Name()))
	return &app{
		cfg:      cfg,
		store:    st,
		gate:     throttle.New(throttle.WithStatusInterval(cfg.Throttle.StatusInterval)),
		gen:      generate.NewClient(model, logger),
		settings: workflow.NewSettings(cfg.Throttle, cfg.DeepDive),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// openStore opens only the store, for commands that never generate.
func openStore() (*store.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Store)
}
