// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package throttle paces calls to the generative-text API. A single Gate is
// shared by every caller in the process: it holds the one call slot, so at
// most one external call is outstanding at a time, and it keeps one global
// minimum spacing between calls whichever section triggered them.
package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Clock abstracts time so tests can run the gate without real sleeps.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// StatusFunc receives the rotating status line while the gate waits.
type StatusFunc func(status string)

// defaultPhrases rotate after the lead phrase while a caller is suspended.
var defaultPhrases = []string{
	"Cross-checking teaching material...",
	"Checking the logical flow between sections...",
	"Polishing the wording...",
	"Collecting the strongest ideas...",
}

// Gate tracks the time of the last external call and owns the single call
// slot. It never records a call by itself: callers stamp it with Record
// after the call completes.
type Gate struct {
	slot *semaphore.Weighted

	mu       sync.Mutex
	clock    Clock
	last     time.Time
	interval time.Duration
	phrases  []string
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(g *Gate) { g.clock = c }
}

// WithStatusInterval sets how often the status phrase rotates.
func WithStatusInterval(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithPhrases replaces the rotating phrases shown after the lead phrase.
func WithPhrases(phrases ...string) Option {
	return func(g *Gate) {
		if len(phrases) > 0 {
			g.phrases = phrases
		}
	}
}

// New creates a Gate with no recorded call, so the first AwaitReady returns
// immediately.
func New(opts ...Option) *Gate {
	g := &Gate{
		slot:     semaphore.NewWeighted(1),
		clock:    realClock{},
		interval: 2500 * time.Millisecond,
		phrases:  defaultPhrases,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetStatusInterval changes the rotation period of a running gate.
func (g *Gate) SetStatusInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	g.mu.Lock()
	g.interval = d
	g.mu.Unlock()
}

// Record stamps the current time as the last external call.
func (g *Gate) Record() {
	g.mu.Lock()
	g.last = g.clock.Now()
	g.mu.Unlock()
}

// Last returns the time of the last recorded call (zero if none).
func (g *Gate) Last() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Remaining returns how long a caller must still wait before minInterval has
// passed since the last recorded call.
func (g *Gate) Remaining(minInterval time.Duration) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last.IsZero() {
		return 0
	}
	elapsed := g.clock.Now().Sub(g.last)
	if elapsed >= minInterval {
		return 0
	}
	return minInterval - elapsed
}

// Acquire takes the call slot, blocking while another caller holds it. The
// returned release gives the slot back; calling it more than once is safe.
// Callers hold the slot from their wait until they have recorded the call.
func (g *Gate) Acquire(ctx context.Context) (release func(), err error) {
	if err := g.slot.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { g.slot.Release(1) }) }, nil
}

// Reserve takes the call slot and then waits out the rest of minInterval
// while holding it. On error the slot is not held.
func (g *Gate) Reserve(ctx context.Context, minInterval time.Duration, status StatusFunc) (release func(), err error) {
	release, err = g.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.AwaitReady(ctx, minInterval, status); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// AwaitReady suspends the caller until minInterval has passed since the last
// recorded call and returns immediately when it already has. The only error
// is the context's.
func (g *Gate) AwaitReady(ctx context.Context, minInterval time.Duration, status StatusFunc) error {
	wait := g.Remaining(minInterval)
	if wait <= 0 {
		return nil
	}
	recordWait(wait)
	return g.sleep(ctx, wait, "Analysing the topic in more depth", status)
}

// Pause suspends the caller for d regardless of the last recorded call,
// rotating status phrases that start with lead.
func (g *Gate) Pause(ctx context.Context, d time.Duration, lead string, status StatusFunc) error {
	if d <= 0 {
		return nil
	}
	recordWait(d)
	return g.sleep(ctx, d, lead, status)
}

// sleep waits d in steps of the status interval, emitting one phrase per
// step: the lead phrase first, then the fixed list in rotation.
func (g *Gate) sleep(ctx context.Context, d time.Duration, lead string, status StatusFunc) error {
	g.mu.Lock()
	step := g.interval
	phrases := append([]string{lead + "..."}, g.phrases...)
	g.mu.Unlock()

	for i := 0; d > 0; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if status != nil {
			status(phrases[i%len(phrases)])
		}
		tick := step
		if d < tick {
			tick = d
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.clock.After(tick):
		}
		d -= tick
	}
	return nil
}
