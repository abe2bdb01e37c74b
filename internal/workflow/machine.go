// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/generate"
	"github.com/pdiddy/report-drafter/pkg/types"
)

// Notification texts.
const (
	msgMissingContext = "Fill in the general information (topic and subject) first."
	msgNoItems        = "Add at least one measure before writing."
	msgCredential     = "The API key is missing or was rejected. Configure a valid key and try again."
	msgProposed       = "Measures proposed. Review them before writing."
	msgProposeFailed  = "Could not propose measures."
	msgWritten        = "All measures have been written."
	msgWriteFailed    = "Writing stopped: "
)

// Machine sequences the Deep Dive stages for one report:
//
//	idle -> producing -> reviewing -> expanding -> complete
//
// A failed proposal returns to idle; a failed expansion returns to
// reviewing with the list intact and the partial document kept. Only one
// external call is in flight at a time.
type Machine struct {
	producer *Producer
	expander *Expander
	section  types.SectionID
	notifier Notifier
	observer Observer
	logger   *zap.Logger

	wg sync.WaitGroup

	mu       sync.Mutex
	mode     types.Mode
	gc       types.GenerationContext
	items    Items
	doc      string
	status   string
	progress int
	lastErr  string
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithNotifier sets the notification sink.
func WithNotifier(n Notifier) MachineOption {
	return func(m *Machine) { m.notifier = n }
}

// WithObserver forwards live status and progress to o as well.
func WithObserver(o Observer) MachineOption {
	return func(m *Machine) { m.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) MachineOption {
	return func(m *Machine) { m.logger = l }
}

// WithSection sets the section the expanded document is published under
// (default measures).
func WithSection(id types.SectionID) MachineOption {
	return func(m *Machine) { m.section = id }
}

// NewMachine creates an idle Machine.
func NewMachine(p *Producer, e *Expander, opts ...MachineOption) *Machine {
	m := &Machine{
		producer: p,
		expander: e,
		section:  types.SectionMeasures,
		notifier: NotifierFunc(func(string, types.Severity) {}),
		observer: nopObserver{},
		logger:   zap.NewNop(),
		mode:     types.ModeIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start proposes the measure list for gc and blocks until the proposal is
// done.
func (m *Machine) Start(ctx context.Context, gc types.GenerationContext) error {
	if err := m.beginStart(gc); err != nil {
		return err
	}
	return m.runStart(ctx, gc)
}

// StartAsync validates and enters producing, then proposes the list on a
// new goroutine.
func (m *Machine) StartAsync(ctx context.Context, gc types.GenerationContext) error {
	if err := m.beginStart(gc); err != nil {
		return err
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runStart(ctx, gc)
	}()
	return nil
}

func (m *Machine) beginStart(gc types.GenerationContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode.Busy() {
		return ErrBusy
	}
	if m.mode != types.ModeIdle {
		return ErrInvalidTransition
	}
	if !gc.Ready() {
		m.notifier.Notify(msgMissingContext, types.SeverityWarning)
		return ErrMissingContext
	}

	m.mode = types.ModeProducing
	m.gc = gc
	m.items = nil
	m.doc = ""
	m.progress = 0
	m.lastErr = ""
	m.status = "Researching the topic..."
	return nil
}

func (m *Machine) runStart(ctx context.Context, gc types.GenerationContext) error {
	items, err := m.producer.Produce(ctx, gc, m.setStatus)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.mode = types.ModeIdle
		m.status = ""
		m.lastErr = err.Error()
		m.logger.Warn("proposing measures failed", zap.Error(err))
		if generate.IsCredential(err) {
			m.notifier.Notify(msgCredential, types.SeverityError)
		} else {
			m.notifier.Notify(msgProposeFailed, types.SeverityError)
		}
		return err
	}

	m.items = Items(items)
	m.mode = types.ModeReviewing
	m.status = ""
	m.notifier.Notify(msgProposed, types.SeveritySuccess)
	return nil
}

// EditItem replaces item i while reviewing. Out-of-range indexes are
// ignored.
func (m *Machine) EditItem(i int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != types.ModeReviewing {
		return m.rejectLocked()
	}
	m.items.Edit(i, text)
	return nil
}

// RemoveItem deletes item i while reviewing. Out-of-range indexes are
// ignored.
func (m *Machine) RemoveItem(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != types.ModeReviewing {
		return m.rejectLocked()
	}
	m.items.Remove(i)
	return nil
}

// AddItem appends a placeholder measure while reviewing and returns its
// label.
func (m *Machine) AddItem() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != types.ModeReviewing {
		return "", m.rejectLocked()
	}
	return m.items.Add(DefaultLabel), nil
}

// Expand writes every reviewed measure and blocks until done.
func (m *Machine) Expand(ctx context.Context) error {
	gc, items, err := m.beginExpand()
	if err != nil {
		return err
	}
	return m.runExpand(ctx, gc, items)
}

// ExpandAsync validates and enters expanding, then writes the measures on
// a new goroutine.
func (m *Machine) ExpandAsync(ctx context.Context) error {
	gc, items, err := m.beginExpand()
	if err != nil {
		return err
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runExpand(ctx, gc, items)
	}()
	return nil
}

func (m *Machine) beginExpand() (types.GenerationContext, Items, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != types.ModeReviewing {
		return types.GenerationContext{}, nil, m.rejectLocked()
	}
	if len(m.items) == 0 {
		m.notifier.Notify(msgNoItems, types.SeverityWarning)
		return types.GenerationContext{}, nil, ErrNoItems
	}
	if !m.gc.Ready() {
		m.notifier.Notify(msgMissingContext, types.SeverityWarning)
		return types.GenerationContext{}, nil, ErrMissingContext
	}

	m.mode = types.ModeExpanding
	m.doc = Preamble
	m.progress = 0
	m.lastErr = ""
	return m.gc, m.items.Clone(), nil
}

func (m *Machine) runExpand(ctx context.Context, gc types.GenerationContext, items Items) error {
	doc, err := m.expander.Expand(ctx, m.section, gc, items, machineObserver{m})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.doc = doc
	if err != nil {
		m.mode = types.ModeReviewing
		m.progress = 0
		m.status = ""
		m.lastErr = err.Error()
		m.logger.Warn("writing measures failed", zap.Error(err))
		if generate.IsCredential(err) {
			m.notifier.Notify(msgCredential, types.SeverityError)
		} else {
			m.notifier.Notify(msgWriteFailed+err.Error(), types.SeverityError)
		}
		return err
	}

	m.mode = types.ModeComplete
	m.progress = 100
	m.status = ""
	m.notifier.Notify(msgWritten, types.SeveritySuccess)
	return nil
}

// Reset returns a reviewing or complete machine to idle, discarding the
// list and the in-memory document. Published text is not touched.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.mode {
	case types.ModeIdle:
		return nil
	case types.ModeReviewing, types.ModeComplete:
	default:
		return m.rejectLocked()
	}

	m.mode = types.ModeIdle
	m.items = nil
	m.doc = ""
	m.status = ""
	m.progress = 0
	m.lastErr = ""
	return nil
}

// Busy reports whether an external call is in flight.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode.Busy()
}

// Wait blocks until every run started with StartAsync or ExpandAsync has
// returned.
func (m *Machine) Wait() {
	m.wg.Wait()
}

// Snapshot returns the state the presentation layer renders.
func (m *Machine) Snapshot() types.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items.Clone()
	if items == nil {
		items = Items{}
	}
	return types.Snapshot{
		Mode:      m.mode,
		Status:    m.status,
		Progress:  m.progress,
		Items:     items,
		Document:  m.doc,
		Error:     m.lastErr,
		CanExpand: m.mode == types.ModeReviewing && len(m.items) > 0,
	}
}

// rejectLocked maps an operation in the wrong mode to ErrBusy while a call
// is in flight and ErrInvalidTransition otherwise.
func (m *Machine) rejectLocked() error {
	if m.mode.Busy() {
		return ErrBusy
	}
	return ErrInvalidTransition
}

func (m *Machine) setStatus(text string) {
	m.mu.Lock()
	m.status = text
	m.mu.Unlock()
	m.observer.Status(text)
}

func (m *Machine) setProgress(p int) {
	m.mu.Lock()
	m.progress = p
	m.mu.Unlock()
	m.observer.Progress(p)
}

// machineObserver feeds expander callbacks into the machine state.
type machineObserver struct{ m *Machine }

func (o machineObserver) Status(text string) { o.m.setStatus(text) }
func (o machineObserver) Progress(p int)     { o.m.setProgress(p) }

func (o machineObserver) Document(text string) {
	o.m.mu.Lock()
	o.m.doc = text
	o.m.mu.Unlock()
}

// IsValidation reports whether err is a guard rejection rather than a
// failed call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingContext) || errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrBusy)
}
