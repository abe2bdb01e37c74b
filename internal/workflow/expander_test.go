// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/report-drafter/pkg/types"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		i, n int
		want int
	}{
		{0, 4, 0},
		{1, 4, 25},
		{3, 4, 75},
		{1, 3, 33},
		{2, 3, 67},
		{0, 1, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Progress(tt.i, tt.n), "Progress(%d, %d)", tt.i, tt.n)
	}
}

func TestExpand_WritesEveryItemInOrder(t *testing.T) {
	h := newHarness()
	labels := []string{"Games", "Mind maps", "Pair reading", "Reading log"}
	obs := &progressRecorder{}

	doc, err := h.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), labels, obs)
	require.NoError(t, err)

	calls := h.gen.expansions()
	require.Len(t, calls, len(labels))
	for i, c := range calls {
		assert.Equal(t, i+1, c.index, "1-based tag")
		assert.Equal(t, labels[i], c.label)
	}

	want := Preamble
	for i, l := range labels {
		want += itemText(i+1, l) + "\n\n"
	}
	assert.Equal(t, want, doc)

	assert.Equal(t, []int{0, 25, 50, 75, 100}, obs.progress)
	assert.Contains(t, obs.statuses, "Writing detail: Mind maps...")
}

func TestExpand_PublishesAfterEveryItem(t *testing.T) {
	h := newHarness()
	labels := []string{"A", "B", "C"}

	doc, err := h.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), labels, nil)
	require.NoError(t, err)

	writes := h.pub.all()
	require.Len(t, writes, len(labels)+1)
	prev := Preamble
	for i, w := range writes[:len(labels)] {
		assert.Equal(t, types.SectionMeasures, w.section)
		assert.True(t, strings.HasPrefix(w.text, prev), "publish %d extends the previous one", i)
		assert.True(t, strings.HasSuffix(w.text, itemText(i+1, labels[i])+"\n\n"))
		prev = w.text
	}
	assert.Equal(t, doc, writes[len(writes)-1].text)
}

func TestExpand_Pacing(t *testing.T) {
	h := newHarness()
	h.gate.Record()
	produced := h.gate.Last()

	_, err := h.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), []string{"A", "B", "C", "D"}, nil)
	require.NoError(t, err)

	calls := h.gen.expansions()
	require.Len(t, calls, 4)
	assert.GreaterOrEqual(t, calls[0].at.Sub(produced), 12*time.Second, "first item waits for the gate")
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i].at.Sub(calls[i-1].at), 20*time.Second, "gap before item %d", i+1)
	}
}

func TestExpand_FirstItemSkipsWaitWhenGateIsCold(t *testing.T) {
	h := newHarness()
	start := h.clock.Now()

	_, err := h.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), []string{"A"}, nil)
	require.NoError(t, err)
	assert.Equal(t, start, h.gen.expansions()[0].at)
}

func TestExpand_ItemDelayNeverUndercutsMinInterval(t *testing.T) {
	h := newHarness()
	h.settings.Update(types.ThrottleConfig{MinInterval: 12 * time.Second, ItemDelay: 3 * time.Second}, types.DeepDiveConfig{})

	_, err := h.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), []string{"A", "B"}, nil)
	require.NoError(t, err)

	calls := h.gen.expansions()
	require.Len(t, calls, 2)
	assert.Equal(t, 12*time.Second, calls[1].at.Sub(calls[0].at))
}

func TestExpand_FailureKeepsPartialDocument(t *testing.T) {
	h := newHarness()
	boom := errors.New("upstream timeout")
	h.gen.failAt = 2
	h.gen.expandErr = boom

	doc, err := h.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), []string{"A", "B", "C"}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Preamble+itemText(1, "A")+"\n\n", doc)

	assert.Len(t, h.gen.expansions(), 2, "stops at the failed item")
	writes := h.pub.all()
	require.Len(t, writes, 1)
	assert.Equal(t, doc, writes[0].text)
}

func TestExpand_PublishFailureStops(t *testing.T) {
	h := newHarness()
	h.pub.err = errors.New("disk full")

	_, err := h.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), []string{"A", "B"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving measure 1")
	assert.Len(t, h.gen.expansions(), 1)
}

func TestExpand_Cancelled(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.gate.Record()

	doc, err := h.expander.Expand(ctx, types.SectionMeasures, readyContext(), []string{"A"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Preamble, doc)
	assert.Empty(t, h.gen.expansions())
}

func TestExpand_RerunIsByteIdentical(t *testing.T) {
	labels := []string{"Games", "Mind maps", "Pair reading"}

	want := Preamble
	for i, l := range labels {
		want += itemText(i+1, l) + "\n\n"
	}

	first := newHarness()
	doc1, err := first.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), labels, nil)
	require.NoError(t, err)

	second := newHarness()
	doc2, err := second.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), labels, nil)
	require.NoError(t, err)

	// Same harness again, after the gate has been used.
	doc3, err := first.expander.Expand(context.Background(), types.SectionMeasures, readyContext(), labels, nil)
	require.NoError(t, err)

	assert.Equal(t, want, doc1)
	assert.Equal(t, doc1, doc2)
	assert.Equal(t, doc1, doc3)
}
