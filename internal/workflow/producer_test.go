// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/report-drafter/internal/generate"
)

func TestProduce_ReturnsModelList(t *testing.T) {
	h := newHarness("A", "B", "C", "D")

	items, err := h.producer.Produce(context.Background(), readyContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, items)
	assert.Len(t, h.gen.listCalls, 1)
	assert.Equal(t, h.clock.Now(), h.gate.Last(), "gate recorded after the call")
}

func TestProduce_WaitsForGate(t *testing.T) {
	h := newHarness("A")
	h.gate.Record()
	last := h.gate.Last()
	h.clock.Advance(5 * time.Second)

	_, err := h.producer.Produce(context.Background(), readyContext(), nil)
	require.NoError(t, err)
	require.Len(t, h.gen.listCalls, 1)
	assert.Equal(t, 12*time.Second, h.gen.listCalls[0].Sub(last))
}

func TestProduce_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		err   error
	}{
		{name: "transport error", err: errors.New("connection reset")},
		{name: "unparseable reply", err: fmt.Errorf("parsing item list: %w", errors.New("no JSON array"))},
		{name: "empty list", items: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.items...)
			h.gen.listErr = tt.err

			items, err := h.producer.Produce(context.Background(), readyContext(), nil)
			require.NoError(t, err)
			assert.Equal(t, FallbackItems(), items)
			assert.NotEmpty(t, items)
			assert.Len(t, h.gen.listCalls, 1, "no retry")
		})
	}
}

func TestProduce_CredentialFailure(t *testing.T) {
	h := newHarness()
	h.gen.listErr = fmt.Errorf("gemini: %w", generate.ErrCredential)

	items, err := h.producer.Produce(context.Background(), readyContext(), nil)
	assert.ErrorIs(t, err, generate.ErrCredential)
	assert.Equal(t, FallbackItems(), items)
}

func TestProduce_Cancelled(t *testing.T) {
	h := newHarness("A")
	h.gen.listErr = context.Canceled

	items, err := h.producer.Produce(context.Background(), readyContext(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, items)
}

func TestFallbackItems_IsCopy(t *testing.T) {
	a := FallbackItems()
	a[0] = "changed"
	assert.NotEqual(t, "changed", FallbackItems()[0])
}
