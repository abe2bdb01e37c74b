// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate talks to the generative-text API. A Client renders the
// prompt for each operation and hands it to a Model; Models wrap one
// provider each (Gemini, OpenAI-compatible, Claude, or an offline mock).
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// Operation names one kind of generation call.
type Operation string

const (
	OpListItems       Operation = "list-items"
	OpExpandItem      Operation = "expand-item"
	OpFreeformSection Operation = "freeform-section"
)

// Request is one generation call.
type Request struct {
	Operation Operation
	Section   types.SectionID
	Context   types.GenerationContext

	// ItemLabel and ItemIndex (1-based) tag an expand-item call.
	ItemLabel string
	ItemIndex int

	// Count is the number of labels a list-items call asks for.
	Count int
}

// Collaborator is the generation surface the workflow depends on.
type Collaborator interface {
	ListItems(ctx context.Context, gc types.GenerationContext, count int) ([]string, error)
	ExpandItem(ctx context.Context, gc types.GenerationContext, index int, label string) (string, error)
	DraftSection(ctx context.Context, section types.SectionID, gc types.GenerationContext) (string, error)
}

// Model completes one prompt against a provider.
type Model interface {
	Name() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Client implements Collaborator over a Model.
type Client struct {
	model  Model
	logger *zap.Logger
}

// NewClient creates a Client. A nil logger disables logging.
func NewClient(model Model, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{model: model, logger: logger}
}

// Model returns the underlying model.
func (c *Client) Model() Model { return c.model }

// ListItems asks for count short labels and returns them in reply order.
func (c *Client) ListItems(ctx context.Context, gc types.GenerationContext, count int) ([]string, error) {
	text, err := c.Do(ctx, Request{Operation: OpListItems, Section: types.SectionMeasures, Context: gc, Count: count})
	if err != nil {
		return nil, err
	}
	items, err := ParseItemList(text)
	if err != nil {
		return nil, fmt.Errorf("parsing item list: %w", err)
	}
	return items, nil
}

// ExpandItem returns the detailed text of item index (1-based).
func (c *Client) ExpandItem(ctx context.Context, gc types.GenerationContext, index int, label string) (string, error) {
	return c.Do(ctx, Request{
		Operation: OpExpandItem,
		Section:   types.SectionMeasures,
		Context:   gc,
		ItemLabel: label,
		ItemIndex: index,
	})
}

// DraftSection returns the full text of one standard section.
func (c *Client) DraftSection(ctx context.Context, section types.SectionID, gc types.GenerationContext) (string, error) {
	return c.Do(ctx, Request{Operation: OpFreeformSection, Section: section, Context: gc})
}

// Do renders the prompt for req and performs exactly one model call.
func (c *Client) Do(ctx context.Context, req Request) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	start := time.Now()
	text, err := c.model.Complete(ctx, prompt)
	observeCall(req.Operation, err, time.Since(start))
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%s: %w", c.model.Name(), ErrEmptyResponse)
	}
	if err != nil {
		c.logger.Warn("generation call failed",
			zap.String("operation", string(req.Operation)),
			zap.String("section", string(req.Section)),
			zap.String("model", c.model.Name()),
			zap.Bool("credential", IsCredential(err)),
			zap.Error(err))
		return "", err
	}

	c.logger.Debug("generation call",
		zap.String("operation", string(req.Operation)),
		zap.String("section", string(req.Section)),
		zap.Int("item", req.ItemIndex),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return strings.TrimSpace(text), nil
}

// ParseItemList decodes a JSON array of strings, tolerating surrounding
// prose or a fenced code block. Blank entries are dropped; an empty result
// is an error.
func ParseItemList(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array in reply")
	}

	var raw []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, err
	}

	items := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	if len(items) == 0 {
		return nil, errors.New("empty item list")
	}
	return items, nil
}
