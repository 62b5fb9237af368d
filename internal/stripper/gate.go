package stripper

import (
	"context"
	"sync/atomic"
	"time"
)

// Gate is polled after every page. Once it reports true the run stops at the
// current page boundary.
type Gate interface {
	IsCanceled() bool
}

// GateFunc adapts a function to Gate.
type GateFunc func() bool

// IsCanceled calls f.
func (f GateFunc) IsCanceled() bool { return f() }

// Never is a Gate that never cancels.
var Never Gate = GateFunc(func() bool { return false })

// Flag is a cancellation flag that may be set from any goroutine.
type Flag struct {
	canceled atomic.Bool
}

// Cancel sets the flag.
func (f *Flag) Cancel() {
	f.canceled.Store(true)
}

// IsCanceled reports whether Cancel has been called.
func (f *Flag) IsCanceled() bool {
	return f.canceled.Load()
}

// CancelAfter arms a timer that sets the flag after d. Stop the returned timer
// once the run is over.
func (f *Flag) CancelAfter(d time.Duration) *time.Timer {
	return time.AfterFunc(d, f.Cancel)
}

// ContextGate cancels once ctx is done.
func ContextGate(ctx context.Context) Gate {
	return GateFunc(func() bool { return ctx.Err() != nil })
}

// AnyGate cancels as soon as one of gates does. Nil gates are ignored.
func AnyGate(gates ...Gate) Gate {
	return GateFunc(func() bool {
		for _, g := range gates {
			if g != nil && g.IsCanceled() {
				return true
			}
		}
		return false
	})
}
