// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"

	"github.com/pdiddy/report-drafter/internal/httputil"
	"github.com/pdiddy/report-drafter/pkg/types"
)

// NewModel builds the Model selected by cfg. cfg.APIKey must already hold
// the resolved key; the mock provider needs none.
func NewModel(ctx context.Context, cfg types.AIConfig) (Model, error) {
	key := cfg.APIKey
	httpClient := httputil.NewClient(cfg.HTTPConfig)

	switch cfg.Provider {
	case types.ProviderGemini, "":
		return NewGeminiModel(ctx, key, cfg.Model, cfg.BaseURL, httpClient)
	case types.ProviderOpenAI:
		return NewOpenAIModel(key, cfg.Model, cfg.BaseURL, httpClient)
	case types.ProviderClaude:
		if key == "" {
			return nil, fmt.Errorf("claude: %w", ErrCredential)
		}
		return &ClaudeModel{APIKey: key, Model: cfg.Model, Client: httpClient}, nil
	case types.ProviderMock:
		return MockModel{}, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}
