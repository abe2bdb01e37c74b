// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"sync"
	"time"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// Notification is one user-visible message.
type Notification struct {
	Seq      int64          `json:"seq"`
	Message  string         `json:"message"`
	Severity types.Severity `json:"severity"`
	Time     time.Time      `json:"time"`
}

// Feed keeps the latest notifications of a report in a fixed-size ring.
// Notify never blocks; the oldest entry is dropped when the ring is full.
type Feed struct {
	mu   sync.Mutex
	buf  []Notification
	next int
	full bool
	seq  int64
	now  func() time.Time
}

// NewFeed creates a Feed holding up to size notifications.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultBacklog
	}
	return &Feed{buf: make([]Notification, size), now: time.Now}
}

// Notify appends a notification.
func (f *Feed) Notify(msg string, severity types.Severity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.buf[f.next] = Notification{Seq: f.seq, Message: msg, Severity: severity, Time: f.now().UTC()}
	f.next = (f.next + 1) % len(f.buf)
	if f.next == 0 {
		f.full = true
	}
}

// Since returns the retained notifications with a sequence number above
// after, oldest first.
func (f *Feed) Since(after int64) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	start, n := 0, f.next
	if f.full {
		start, n = f.next, len(f.buf)
	}
	out := []Notification{}
	for i := 0; i < n; i++ {
		note := f.buf[(start+i)%len(f.buf)]
		if note.Seq > after {
			out = append(out, note)
		}
	}
	return out
}
