// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow drives report generation. The Deep Dive workflow for the
// measures section runs in three stages: a Producer proposes a short list
// of measures, the user reviews the list, and an Expander writes every
// measure in turn, publishing the growing document after each one. A
// Machine sequences the stages and guards their transitions. Standard
// sections are drafted in one call by a Drafter.
//
// Every external call goes through one shared throttle.Gate.
package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/pdiddy/report-drafter/pkg/types"
)

var (
	// ErrMissingContext reports a generation context without topic or subject.
	ErrMissingContext = errors.New("topic and subject are required; fill in the general information first")

	// ErrNoItems reports an expansion request with an empty measure list.
	ErrNoItems = errors.New("the measure list is empty")

	// ErrInvalidTransition reports an operation not allowed in the current mode.
	ErrInvalidTransition = errors.New("operation not allowed in the current mode")

	// ErrBusy reports a request made while an external call is in flight.
	ErrBusy = errors.New("a generation is already running")
)

// Publisher persists section text. Publish is an idempotent upsert.
type Publisher interface {
	Publish(ctx context.Context, sectionID types.SectionID, text string) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, sectionID types.SectionID, text string) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, sectionID types.SectionID, text string) error {
	return f(ctx, sectionID, text)
}

// Observer receives live status and progress while a stage runs.
type Observer interface {
	Status(text string)
	Progress(percent int)
}

// DocumentObserver is an Observer that also wants the accumulated document
// after every published item.
type DocumentObserver interface {
	Observer
	Document(text string)
}

type nopObserver struct{}

func (nopObserver) Status(string) {}
func (nopObserver) Progress(int)  {}

// Settings holds the pacing and workflow parameters shared by every
// component. It can be updated while the process runs; a run reads the
// values once when it starts.
type Settings struct {
	mu        sync.RWMutex
	throttle  types.ThrottleConfig
	itemCount int
}

// DefaultItemCount is how many measures the producer asks for by default.
const DefaultItemCount = 4

// NewSettings creates Settings with defaults filled in.
func NewSettings(throttle types.ThrottleConfig, deepDive types.DeepDiveConfig) *Settings {
	s := &Settings{}
	s.Update(throttle, deepDive)
	return s
}

// Update replaces the settings.
func (s *Settings) Update(throttle types.ThrottleConfig, deepDive types.DeepDiveConfig) {
	count := deepDive.ItemCount
	if count <= 0 {
		count = DefaultItemCount
	}
	s.mu.Lock()
	s.throttle = throttle.WithDefaults()
	s.itemCount = count
	s.mu.Unlock()
}

// Throttle returns the current pacing values.
func (s *Settings) Throttle() types.ThrottleConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.throttle
}

// ItemCount returns how many measures the producer asks for.
func (s *Settings) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemCount
}
