// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/generate"
	"github.com/pdiddy/report-drafter/internal/throttle"
	"github.com/pdiddy/report-drafter/pkg/types"
)

// Preamble opens every Deep Dive document.
const Preamble = "III.3. MEASURES\n\nBelow are the concrete measures I applied:\n\n"

// Expander writes the reviewed measures one at a time.
type Expander struct {
	gate     *throttle.Gate
	gen      generate.Collaborator
	pub      Publisher
	settings *Settings
	logger   *zap.Logger
}

// NewExpander creates an Expander. A nil logger disables logging.
func NewExpander(gate *throttle.Gate, gen generate.Collaborator, pub Publisher, settings *Settings, logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{gate: gate, gen: gen, pub: pub, settings: settings, logger: logger}
}

// Expand writes every item in order and returns the accumulated document.
//
// Before the first item it waits for the gate; before every later item it
// pauses for the item delay (or longer, if the gate still needs it). Each
// item is one expand-item call tagged with its 1-based position. The
// document grows by the item text plus a blank line and is published after
// every item, so a failure keeps everything written so far. On failure
// Expand stops and returns the partial document with the error.
func (e *Expander) Expand(ctx context.Context, sectionID types.SectionID, gc types.GenerationContext, items []string, obs Observer) (string, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	cfg := e.settings.Throttle()
	doc := Preamble
	n := len(items)

	for i, label := range items {
		text, err := e.expandOne(ctx, gc, i, n, label, cfg, obs)
		if err != nil {
			return doc, err
		}

		doc += text + "\n\n"
		if err := e.pub.Publish(ctx, sectionID, doc); err != nil {
			return doc, fmt.Errorf("saving measure %d: %w", i+1, err)
		}
		if d, ok := obs.(DocumentObserver); ok {
			d.Document(doc)
		}
		e.logger.Debug("measure written", zap.Int("item", i+1), zap.Int("of", n), zap.Int("chars", len(doc)))
	}

	obs.Status("Assembling the final text...")
	obs.Progress(100)
	if err := e.pub.Publish(ctx, sectionID, doc); err != nil {
		return doc, fmt.Errorf("saving document: %w", err)
	}
	return doc, nil
}

// expandOne waits its turn for item i and makes the call while holding the
// gate's slot, so no other caller can slip in during the item delay.
func (e *Expander) expandOne(ctx context.Context, gc types.GenerationContext, i, n int, label string, cfg types.ThrottleConfig, obs Observer) (string, error) {
	release, err := e.gate.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	if i == 0 {
		err = e.gate.AwaitReady(ctx, cfg.MinInterval, obs.Status)
	} else {
		d := max(cfg.ItemDelay, e.gate.Remaining(cfg.MinInterval))
		err = e.gate.Pause(ctx, d, fmt.Sprintf("Researching measure %d in depth", i+1), obs.Status)
	}
	if err != nil {
		return "", err
	}

	obs.Status(fmt.Sprintf("Writing detail: %s...", label))
	obs.Progress(Progress(i, n))

	text, err := e.gen.ExpandItem(ctx, gc, i+1, label)
	e.gate.Record()
	if err != nil {
		return "", fmt.Errorf("writing measure %d: %w", i+1, err)
	}
	return text, nil
}

// Progress returns the percentage shown while item i (0-based) of n is
// being written.
func Progress(i, n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Round(float64(i) / float64(n) * 100))
}
