package scrollplot

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
)

var ErrLoopStopped = errors.New("event loop stopped")

// Loop is the single goroutine that owns the plot. Everything that
// touches the plot is a closure run here, in the order it was posted.
type Loop struct {
	fns  chan func()
	done chan struct{}
}

func NewLoop(depth int) *Loop {
	return &Loop{
		fns:  make(chan func(), depth),
		done: make(chan struct{}),
	}
}

// Post queues fn and returns without waiting.
// It reports false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.fns <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Run drains the queue until ctx is cancelled
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	slog.Info("Event loop started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Event loop stopped")
			return
		case fn := <-l.fns:
			l.run(fn)
		}
	}
}

// run keeps a panicking closure from taking the loop down with it
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in event loop", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
		}
	}()
	fn()
}
