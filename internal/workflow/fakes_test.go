// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/report-drafter/internal/throttle"
	"github.com/pdiddy/report-drafter/internal/throttle/throttletest"
	"github.com/pdiddy/report-drafter/pkg/types"
)

type expandCall struct {
	index int
	label string
	at    time.Time
}

// fakeGen is a scripted generate.Collaborator that records call times on
// the fake clock.
type fakeGen struct {
	clock *throttletest.Clock

	items   []string
	listErr error

	failAt    int
	expandErr error

	draftText string
	draftErr  error

	// block, when set, holds every call until it is closed.
	block chan struct{}

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	listCalls   []time.Time
	expandCalls []expandCall
	draftCalls  []types.SectionID
}

// enter marks a call as outstanding until the returned func runs.
func (f *fakeGen) enter() func() {
	f.mu.Lock()
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
}

func (f *fakeGen) wait(ctx context.Context) error {
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeGen) ListItems(ctx context.Context, _ types.GenerationContext, _ int) ([]string, error) {
	defer f.enter()()
	f.mu.Lock()
	f.listCalls = append(f.listCalls, f.clock.Now())
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]string, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeGen) ExpandItem(ctx context.Context, _ types.GenerationContext, index int, label string) (string, error) {
	defer f.enter()()
	f.mu.Lock()
	f.expandCalls = append(f.expandCalls, expandCall{index: index, label: label, at: f.clock.Now()})
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	if f.failAt == index {
		return "", f.expandErr
	}
	return itemText(index, label), nil
}

func (f *fakeGen) DraftSection(ctx context.Context, section types.SectionID, _ types.GenerationContext) (string, error) {
	defer f.enter()()
	f.mu.Lock()
	f.draftCalls = append(f.draftCalls, section)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	return f.draftText, f.draftErr
}

func (f *fakeGen) expansions() []expandCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]expandCall, len(f.expandCalls))
	copy(out, f.expandCalls)
	return out
}

func (f *fakeGen) listTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Time, len(f.listCalls))
	copy(out, f.listCalls)
	return out
}

func (f *fakeGen) peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func itemText(index int, label string) string {
	return fmt.Sprintf("### %d. %s\n\nDetail of measure %d.", index, label, index)
}

type published struct {
	section types.SectionID
	text    string
}

// memPublisher records every publish.
type memPublisher struct {
	mu     sync.Mutex
	writes []published
	err    error
}

func (p *memPublisher) Publish(_ context.Context, id types.SectionID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.writes = append(p.writes, published{section: id, text: text})
	return nil
}

func (p *memPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.writes))
	copy(out, p.writes)
	return out
}

type note struct {
	msg      string
	severity types.Severity
}

type noteRecorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *noteRecorder) Notify(msg string, severity types.Severity) {
	r.mu.Lock()
	r.notes = append(r.notes, note{msg: msg, severity: severity})
	r.mu.Unlock()
}

func (r *noteRecorder) last() note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

// progressRecorder is an Observer that keeps every value.
type progressRecorder struct {
	mu       sync.Mutex
	statuses []string
	progress []int
}

func (r *progressRecorder) Status(s string) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
}

func (r *progressRecorder) Progress(p int) {
	r.mu.Lock()
	r.progress = append(r.progress, p)
	r.mu.Unlock()
}

type harness struct {
	clock    *throttletest.Clock
	gate     *throttle.Gate
	settings *Settings
	gen      *fakeGen
	pub      *memPublisher
	notes    *noteRecorder
	producer *Producer
	expander *Expander
	machine  *Machine
}

func newHarness(items ...string) *harness {
	clock := throttletest.NewClock()
	h := &harness{
		clock:    clock,
		gate:     throttle.New(throttle.WithClock(clock)),
		settings: NewSettings(types.ThrottleConfig{}, types.DeepDiveConfig{}),
		gen:      &fakeGen{clock: clock, items: items},
		pub:      &memPublisher{},
		notes:    &noteRecorder{},
	}
	h.producer = NewProducer(h.gate, h.gen, h.settings, nil)
	h.expander = NewExpander(h.gate, h.gen, h.pub, h.settings, nil)
	h.machine = NewMachine(h.producer, h.expander, WithNotifier(h.notes))
	return h
}

func readyContext() types.GenerationContext {
	return types.GenerationContext{Topic: "Mind maps for reading", Subject: "Literature", Grade: "5"}
}
