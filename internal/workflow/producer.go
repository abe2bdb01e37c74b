// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/generate"
	"github.com/pdiddy/report-drafter/internal/throttle"
	"github.com/pdiddy/report-drafter/pkg/types"
)

// fallbackItems are proposed when the list-items call fails.
var fallbackItems = []string{
	"Measure 1: Build a flexible teaching plan",
	"Measure 2: Renew the way learning is assessed",
	"Measure 3: Make more use of information technology in lessons",
}

// FallbackItems returns a fresh copy of the generic measure list used when
// the producer cannot get one from the model.
func FallbackItems() []string {
	out := make([]string, len(fallbackItems))
	copy(out, fallbackItems)
	return out
}

// Producer proposes the initial measure list with one external call.
type Producer struct {
	gate     *throttle.Gate
	gen      generate.Collaborator
	settings *Settings
	logger   *zap.Logger
}

// NewProducer creates a Producer. A nil logger disables logging.
func NewProducer(gate *throttle.Gate, gen generate.Collaborator, settings *Settings, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{gate: gate, gen: gen, settings: settings, logger: logger}
}

// Produce reserves the gate, makes exactly one list-items call and records
// the gate afterwards. Any failure of the call yields FallbackItems; a
// credential failure also returns an error wrapping generate.ErrCredential
// so the caller can tell the user to fix their key. A cancelled context
// returns nil items and the context's error.
func (p *Producer) Produce(ctx context.Context, gc types.GenerationContext, status throttle.StatusFunc) ([]string, error) {
	if status == nil {
		status = func(string) {}
	}
	cfg := p.settings.Throttle()

	release, err := p.gate.Reserve(ctx, cfg.MinInterval, status)
	if err != nil {
		return nil, err
	}

	status("Researching the topic...")
	items, err := p.gen.ListItems(ctx, gc, p.settings.ItemCount())
	p.gate.Record()
	release()

	switch {
	case err == nil && len(items) > 0:
		return items, nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case generate.IsCredential(err):
		return FallbackItems(), fmt.Errorf("proposing measures: %w", err)
	}

	p.logger.Warn("using fallback measure list", zap.Error(err))
	return FallbackItems(), nil
}
