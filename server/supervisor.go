package scrollplot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	So "github.com/maroda/scrollplot/obvy"
	"go.opentelemetry.io/otel/attribute"
)

// TickSupervisor drives the engine: every Interval it polls the
// feeds and posts the clock tick with the new points
type TickSupervisor struct {
	Engine   *Engine
	Interval time.Duration
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
}

func NewTickSupervisor(e *Engine, interval time.Duration) *TickSupervisor {
	return &TickSupervisor{
		Engine:   e,
		Interval: interval,
	}
}

// Start the TickSupervisor
func (ts *TickSupervisor) Start() {
	ts.StopChan = make(chan struct{})
	ts.Ticker = time.NewTicker(ts.Interval)

	ts.WG.Add(1)
	go func() {
		defer ts.WG.Done()
		defer ts.Ticker.Stop()

		for {
			select {
			case <-ts.Ticker.C:
				ts.Tick(context.Background())
			case <-ts.StopChan:
				return
			}
		}
	}()
	slog.Info("Tick supervisor started", slog.Duration("interval", ts.Interval))
}

// Stop the TickSupervisor, safe to call more than once
func (ts *TickSupervisor) Stop() {
	if ts.StopChan != nil {
		close(ts.StopChan)
		ts.WG.Wait()
		ts.StopChan = nil
	}
}

// Restart the TickSupervisor
func (ts *TickSupervisor) Restart() {
	ts.Stop()
	ts.Start()
}

// Tick is one traced round of poll, record and post
func (ts *TickSupervisor) Tick(ctx context.Context) {
	ctx, span := So.Tracer().Start(ctx, "scrollplot.tick")
	defer span.End()
	start := time.Now()

	samples := ts.Engine.PollFeeds(ctx)
	ts.Engine.Ingest(samples)

	span.SetAttributes(attribute.Int("tick.samples", len(samples)))
	ts.Engine.Stats.RecTickTimer(time.Since(start).Seconds())
}
