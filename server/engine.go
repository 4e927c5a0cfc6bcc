package scrollplot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	Sc "github.com/maroda/scrollplot/core"
	So "github.com/maroda/scrollplot/obvy"
	Sp "github.com/maroda/scrollplot/plugin"
	St "github.com/maroda/scrollplot/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const loopDepth = 256

var (
	ErrNoSubPlot = errors.New("no such sub-plot")
	ErrNoAlarm   = errors.New("edge has no alarm to press")
)

// Engine ties the plot to its event loop, feeds, history and stats.
// The plot is only ever touched from Loop.
type Engine struct {
	MU         sync.RWMutex
	Plot       *Sc.Plot
	Loop       *Loop
	Feeds      []*Feed
	Store      Sp.PointStore
	Stats      *So.StatsInternal
	History    *HistoryRequester
	Supervisor *TickSupervisor

	now      func() time.Time
	plotOpts []Sc.Option
}

type EngineOption func(*Engine)

// WithStore records every live point and serves history from s
func WithStore(s Sp.PointStore) EngineOption {
	return func(e *Engine) { e.Store = s }
}

func WithStats(s *So.StatsInternal) EngineOption {
	return func(e *Engine) { e.Stats = s }
}

// WithNow replaces the wall clock for the plot and the feeds
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithPlotOptions passes sinks and the like through to the plot
func WithPlotOptions(opts ...Sc.Option) EngineOption {
	return func(e *Engine) { e.plotOpts = append(e.plotOpts, opts...) }
}

// NewEngine builds the plot from cf with the window ending now
func NewEngine(cf *ConfigFile, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		Loop: NewLoop(loopDepth),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Stats == nil {
		e.Stats = So.NewStatsInternal()
	}

	cfg, err := cf.ToPlotConfig(e.now().UnixMilli())
	if err != nil {
		slog.Error("Invalid plot configuration", slog.Any("Error", err))
		return nil, err
	}

	feeds, err := NewFeedsFromConfig(cf.Feeds)
	if err != nil {
		slog.Error("Failed to init feeds", slog.Any("Error", err))
		return nil, err
	}
	e.Feeds = feeds

	plotOpts := []Sc.Option{
		Sc.WithClock(Sc.ClockFunc(func() int64 { return e.now().UnixMilli() })),
		Sc.WithAlarmSink(e.Stats),
		Sc.WithBoundsSink(e.Stats),
	}
	if e.Store != nil {
		e.History = &HistoryRequester{
			Store: e.Store,
			Loop:  e.Loop,
			Stats: e.Stats,
			Now:   func() int64 { return e.now().UnixMilli() },
		}
		plotOpts = append(plotOpts, Sc.WithRequester(e.History))
	}
	e.Plot = Sc.NewPlot(cfg, append(plotOpts, e.plotOpts...)...)
	if e.History != nil {
		e.History.Plot = e.Plot
	}

	e.addFeedSeries(feeds)
	e.Supervisor = NewTickSupervisor(e, time.Second)

	return e, nil
}

func (e *Engine) addFeedSeries(feeds []*Feed) {
	for _, f := range feeds {
		for _, m := range f.Metrics {
			e.Plot.SeriesAdded(m.Series, m.SubPlot)
		}
	}
}

// Start runs the loop, loads the opening window from history
// and starts ticking
func (e *Engine) Start(ctx context.Context) {
	go e.Loop.Run(ctx)
	e.Loop.Post(e.Plot.LoadWindow)
	e.Supervisor.Start()
}

// Stop halts the ticker, drains history queries and closes the store
func (e *Engine) Stop() error {
	e.Supervisor.Stop()
	if e.History != nil {
		e.History.Stop()
	}
	if e.Store != nil {
		return e.Store.Close()
	}
	return nil
}

// ReloadFeeds swaps the polled feeds without touching the plot
func (e *Engine) ReloadFeeds(cf []FeedFile) error {
	feeds, err := NewFeedsFromConfig(cf)
	if err != nil {
		return err
	}

	e.Supervisor.Stop()
	e.MU.Lock()
	e.Feeds = feeds
	e.MU.Unlock()
	e.Loop.Post(func() { e.addFeedSeries(feeds) })
	e.Supervisor.Start()

	slog.Info("Feeds reloaded", slog.Int("feeds", len(feeds)))
	return nil
}

// PollFeeds polls every feed concurrently, one span each.
// A failing feed is logged and contributes nothing.
func (e *Engine) PollFeeds(ctx context.Context) []Sample {
	e.MU.RLock()
	feeds := e.Feeds
	e.MU.RUnlock()

	start := time.Now()
	now := e.now()
	results := make([][]Sample, len(feeds))

	var wg sync.WaitGroup
	for i, f := range feeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, span := So.Tracer().Start(ctx, "feed.poll")
			defer span.End()
			span.SetAttributes(attribute.String("feed.id", f.ID))

			samples, err := f.Poll(now)
			if err != nil {
				slog.Error("Failed to poll feed", slog.String("feed", f.ID), slog.Any("Error", err))
				span.RecordError(err)
				span.SetStatus(codes.Error, "poll failed")
				return
			}
			span.SetAttributes(attribute.Int("feed.samples", len(samples)))
			results[i] = samples
		}()
	}
	wg.Wait()

	e.Stats.RecPollTimer(time.Since(start).Seconds())

	var all []Sample
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// Ingest records samples in the store, then posts the clock tick and
// one live update phase carrying all of them
func (e *Engine) Ingest(samples []Sample) {
	if e.Store != nil {
		for _, s := range samples {
			if err := e.Store.WritePoint(s.SeriesPoint); err != nil {
				slog.Error("Failed to record point", slog.String("series", s.Series), slog.Any("Error", err))
			}
		}
	}

	e.Loop.Post(func() {
		e.Plot.Tick()
		if len(samples) == 0 {
			return
		}
		e.Plot.StartLiveUpdate()
		for _, s := range samples {
			e.Plot.PointPlotted(s.Series, s.Timestamp, s.Value)
		}
		e.Plot.CompleteLiveUpdate()
	})
	e.Stats.RecPoints("live", len(samples))
}

// Snapshot copies the plot state from the loop
func (e *Engine) Snapshot(ctx context.Context) (Sc.PlotState, error) {
	var state Sc.PlotState
	err := e.Loop.Do(ctx, func() { state = e.Plot.Snapshot() })
	return state, err
}

// PressAlarm presses the indicator of one edge. Pressing an edge
// with no alarm is refused here so the plot never sees it.
func (e *Engine) PressAlarm(ctx context.Context, sub int, edge St.Edge) (St.AlarmState, error) {
	var to St.AlarmState
	var perr error
	err := e.Loop.Do(ctx, func() {
		if sub < 0 || sub >= e.Plot.SubPlots() {
			perr = fmt.Errorf("%w: %d", ErrNoSubPlot, sub)
			return
		}
		if e.Plot.SubPlot(sub).Alarms.State(edge) == St.NoAlarm {
			perr = fmt.Errorf("%w: subplot %d %s", ErrNoAlarm, sub, Sc.EdgeToString(edge))
			return
		}
		to = e.Plot.PressAlarm(sub, edge)
	})
	if err != nil {
		return to, err
	}
	return to, perr
}

// ResetValue restores one sub-plot's value axis, releasing any zoom
func (e *Engine) ResetValue(ctx context.Context, sub int) error {
	var perr error
	err := e.Loop.Do(ctx, func() {
		if sub < 0 || sub >= e.Plot.SubPlots() {
			perr = fmt.Errorf("%w: %d", ErrNoSubPlot, sub)
			return
		}
		e.Plot.PanZoom.Reset(sub, Sc.ValueAxis)
	})
	if err != nil {
		return err
	}
	return perr
}

// ResetTime restores the time window, releasing any zoom
func (e *Engine) ResetTime(ctx context.Context) error {
	return e.Loop.Do(ctx, func() { e.Plot.PanZoom.Reset(0, Sc.TimeAxis) })
}
