// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/internal/workflow"
	"github.com/pdiddy/report-drafter/pkg/types"
)

// errClosed rejects work on a session whose report is being deleted.
var errClosed = fmt.Errorf("report is being deleted: %w", store.ErrNotFound)

// session is the live workflow state of one report. A section draft and a
// Deep Dive stage of the same report exclude each other. Background work
// runs under ctx, which is cancelled when the report is deleted or the
// server shuts down.
type session struct {
	machine *workflow.Machine
	drafter *workflow.Drafter
	feed    *Feed

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	drafting bool
	closed   bool
	status   string
	wg       sync.WaitGroup
}

func (s *Server) newSession(reportID string) *session {
	logger := s.logger.With(zap.String("report", reportID))
	pub := store.SectionWriter{Store: s.store, ReportID: reportID}
	feed := NewFeed(s.backlog)
	notifier := workflow.Notifiers{feed, workflow.LogNotifier{Logger: logger}}

	producer := workflow.NewProducer(s.gate, s.gen, s.settings, logger)
	expander := workflow.NewExpander(s.gate, s.gen, pub, s.settings, logger)
	ctx, cancel := context.WithCancel(s.base)
	return &session{
		machine: workflow.NewMachine(producer, expander,
			workflow.WithNotifier(notifier),
			workflow.WithLogger(logger),
		),
		drafter: workflow.NewDrafter(s.gate, s.gen, pub, s.settings, logger),
		feed:    feed,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// busy reports whether a draft or a Deep Dive stage is running.
func (sess *session) busy() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.drafting || sess.machine.Busy()
}

// close marks the session deleted unless work is running. Once closed it
// accepts no new work.
func (sess *session) close() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.drafting || sess.machine.Busy() {
		return workflow.ErrBusy
	}
	sess.closed = true
	return nil
}

// reopen undoes close when the deletion did not happen.
func (sess *session) reopen() {
	sess.mu.Lock()
	sess.closed = false
	sess.mu.Unlock()
}

// startDeepDive enters the producing stage unless a draft is running.
func (sess *session) startDeepDive(gc types.GenerationContext) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return errClosed
	}
	if sess.drafting {
		return workflow.ErrBusy
	}
	return sess.machine.StartAsync(sess.ctx, gc)
}

// expand enters the expanding stage unless a draft is running.
func (sess *session) expand() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return errClosed
	}
	if sess.drafting {
		return workflow.ErrBusy
	}
	return sess.machine.ExpandAsync(sess.ctx)
}

// draft generates one standard section on a background goroutine.
func (sess *session) draft(sectionID types.SectionID, gc types.GenerationContext, logger *zap.Logger) error {
	if !gc.Ready() {
		sess.feed.Notify("Fill in the general information (topic and subject) first.", types.SeverityWarning)
		return workflow.ErrMissingContext
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return errClosed
	}
	if sess.drafting || sess.machine.Busy() {
		sess.mu.Unlock()
		return workflow.ErrBusy
	}
	sess.drafting = true
	sess.status = ""
	sess.mu.Unlock()

	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		_, err := sess.drafter.Draft(sess.ctx, sectionID, gc, sess.setStatus)

		sess.mu.Lock()
		sess.drafting = false
		sess.status = ""
		sess.mu.Unlock()

		if err != nil {
			logger.Warn("drafting section failed", zap.String("section", string(sectionID)), zap.Error(err))
			sess.feed.Notify("Could not write the section: "+err.Error(), types.SeverityError)
			return
		}
		sess.feed.Notify("Section written.", types.SeveritySuccess)
	}()
	return nil
}

func (sess *session) setStatus(text string) {
	sess.mu.Lock()
	sess.status = text
	sess.mu.Unlock()
}

// draftStatus returns whether a draft runs and its latest status line.
func (sess *session) draftStatus() (bool, string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.drafting, sess.status
}

func (sess *session) wait() {
	sess.wg.Wait()
	sess.machine.Wait()
}
