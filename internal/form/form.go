// Package form holds the edit-surface controllers for items and users: the
// draft being edited, its validation and the mutation that saves it.
package form

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/erazemk/inventrack/internal/api"
)

// ErrPending is returned when a mutation is attempted while another one from
// the same form is still in flight.
var ErrPending = errors.New("a request is already in flight")

// Notifier shows transient notifications to the operator.
type Notifier interface {
	NotifySuccess(msg string)
	NotifyError(msg string)
}

// Invalidator drops cached collections. *cache.Cache implements it.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// pending is an advisory in-flight flag. It rejects overlapping submissions
// from one form; it does not serialize different forms.
type pending struct {
	flag atomic.Bool
}

func (p *pending) begin() bool {
	return p.flag.CompareAndSwap(false, true)
}

func (p *pending) end() {
	p.flag.Store(false)
}

// Pending reports whether a mutation is in flight.
func (p *pending) Pending() bool {
	return p.flag.Load()
}

func invalidate(ctx context.Context, c Invalidator, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx, keys...); err != nil {
		slog.Error("cache invalidation failed", "keys", keys, "error", err)
	}
}

// accepted reports whether err still means the backend applied the mutation:
// a successful response whose body could not be parsed. Those are logged and
// handled as success so a retry does not repeat the mutation.
func accepted(err error, resource string) bool {
	var perr *api.ParseError
	if !errors.As(err, &perr) {
		return false
	}
	slog.Warn("backend accepted mutation but its response was unreadable", "resource", resource, "error", err)
	return true
}
