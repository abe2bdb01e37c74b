// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/generate"
	"github.com/pdiddy/report-drafter/internal/throttle"
	"github.com/pdiddy/report-drafter/pkg/types"
)

// Drafter writes a whole standard section in one call.
type Drafter struct {
	gate     *throttle.Gate
	gen      generate.Collaborator
	pub      Publisher
	settings *Settings
	logger   *zap.Logger
}

// NewDrafter creates a Drafter. A nil logger disables logging.
func NewDrafter(gate *throttle.Gate, gen generate.Collaborator, pub Publisher, settings *Settings, logger *zap.Logger) *Drafter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drafter{gate: gate, gen: gen, pub: pub, settings: settings, logger: logger}
}

// Draft reserves the gate, drafts sectionID, records the gate and
// publishes the result. Failures are returned as they are; nothing is
// published on failure.
func (d *Drafter) Draft(ctx context.Context, sectionID types.SectionID, gc types.GenerationContext, status throttle.StatusFunc) (string, error) {
	if !sectionID.IsContent() {
		return "", fmt.Errorf("section %q cannot be generated", sectionID)
	}
	if !gc.Ready() {
		return "", ErrMissingContext
	}
	if status == nil {
		status = func(string) {}
	}

	release, err := d.gate.Reserve(ctx, d.settings.Throttle().MinInterval, status)
	if err != nil {
		return "", err
	}

	def, _ := types.LookupSection(sectionID)
	status(fmt.Sprintf("Writing %s...", def.Title))
	text, err := d.gen.DraftSection(ctx, sectionID, gc)
	d.gate.Record()
	release()
	if err != nil {
		return "", fmt.Errorf("drafting %s: %w", sectionID, err)
	}

	if err := d.pub.Publish(ctx, sectionID, text); err != nil {
		return text, fmt.Errorf("saving %s: %w", sectionID, err)
	}
	d.logger.Debug("section drafted", zap.String("section", string(sectionID)), zap.Int("chars", len(text)))
	return text, nil
}
