package scrollplot

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"time"

	St "github.com/maroda/scrollplot/types"
)

// Plot is the coordinator of a stack of sub-plots sharing one time axis.
//
// It is not safe for concurrent use. Every call must come from the
// single event goroutine that owns it; the time axis is shared by
// pointer and kept consistent only by that discipline plus an explicit
// synchronize after every change.
type Plot struct {
	cfg      Config
	Time     *Axis[int64]
	Scroller *TimeScroller
	PanZoom  *PanZoomController

	subplots []*SubPlot
	owner    map[string]int // series key to sub-plot index

	clock       Clock
	alarmSinks  []AlarmIndicatorSink
	boundsSinks []BoundsSink
	legendSinks []LegendSink
	requester   DataRequester

	ready []St.Range // ranges the history cache says it has delivered

	liveUpdating  bool
	cacheUpdating bool
	pendingLegend map[[2]string]int // (series key, display name) to sub-plot
}

type Option func(*Plot)

func WithClock(c Clock) Option {
	return func(p *Plot) { p.clock = c }
}

func WithAlarmSink(s AlarmIndicatorSink) Option {
	return func(p *Plot) { p.alarmSinks = append(p.alarmSinks, s) }
}

func WithBoundsSink(s BoundsSink) Option {
	return func(p *Plot) { p.boundsSinks = append(p.boundsSinks, s) }
}

func WithLegendSink(s LegendSink) Option {
	return func(p *Plot) { p.legendSinks = append(p.legendSinks, s) }
}

func WithRequester(r DataRequester) Option {
	return func(p *Plot) { p.requester = r }
}

// WithPixelFunc installs the same pixel mapping on every sub-plot
func WithPixelFunc(f PixelFunc) Option {
	return func(p *Plot) {
		for _, sp := range p.subplots {
			sp.Alarms.SetPixelFunc(f)
		}
	}
}

// NewPlot builds the axes from cfg. An invalid configuration is a
// programming error here (configs from disk are validated on load),
// so it panics.
func NewPlot(cfg Config, opts ...Option) *Plot {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid plot configuration: %v", err))
	}
	if cfg.MaxPointsPerSeries == 0 {
		cfg.MaxPointsPerSeries = DefaultMaxPointsPerSeries
	}

	timeAxis := NewAxis(cfg.MinTime, cfg.MaxTime, cfg.TimeInverted())
	p := &Plot{
		cfg:           cfg,
		Time:          timeAxis,
		Scroller:      NewTimeScroller(timeAxis, cfg.TimePolicy, cfg.TimePadding),
		owner:         make(map[string]int),
		clock:         ClockFunc(func() int64 { return time.Now().UnixMilli() }),
		pendingLegend: make(map[[2]string]int),
	}

	for i, spc := range cfg.SubPlots {
		sp := newSubPlot(i, spc, timeAxis, cfg.ValueInverted(), cfg.MaxPointsPerSeries)
		sp.Alarms.notify = p.alarmChanged
		sp.lastMin, sp.lastMax = sp.Value.Min, sp.Value.Max
		p.subplots = append(p.subplots, sp)
	}
	p.PanZoom = newPanZoomController(p)

	for _, opt := range opts {
		opt(p)
	}

	slog.Info("Plot created",
		slog.Int("subplots", len(p.subplots)),
		slog.String("timePolicy", TimePolicyToString(cfg.TimePolicy)),
		slog.Int64("minTime", cfg.MinTime),
		slog.Int64("maxTime", cfg.MaxTime))

	return p
}

func (p *Plot) Config() Config                  { return p.cfg }
func (p *Plot) SubPlots() int                   { return len(p.subplots) }
func (p *Plot) SubPlot(i int) *SubPlot          { return p.subplots[i] }
func (p *Plot) Orientation() St.AxisOrientation { return p.cfg.Orientation }
func (p *Plot) IsLiveUpdating() bool            { return p.liveUpdating }
func (p *Plot) IsCacheUpdating() bool           { return p.cacheUpdating }

// SetPixelFunc installs the pixel mapping for one sub-plot
func (p *Plot) SetPixelFunc(sub int, f PixelFunc) {
	p.subplots[sub].Alarms.SetPixelFunc(f)
}

// SeriesAdded attaches a series to a sub-plot. Out of range indexes
// land on the last sub-plot.
func (p *Plot) SeriesAdded(name string, sub int) {
	sub = max(0, min(sub, len(p.subplots)-1))
	key := seriesKey(name)
	if _, ok := p.owner[key]; ok {
		return
	}
	p.subplots[sub].addSeries(name)
	p.owner[key] = sub
	slog.Debug("Series added", slog.String("series", name), slog.Int("subplot", sub))
}

// PointPlotted is the inbound data event. Unknown series join the
// first sub-plot.
func (p *Plot) PointPlotted(name string, ts int64, value float64) {
	key := seriesKey(name)
	sub, ok := p.owner[key]
	if !ok {
		p.SeriesAdded(name, 0)
		sub = 0
	}
	sp := p.subplots[sub]
	ds, _ := sp.Series(name)
	sp.plot(ds, St.DataPoint{Timestamp: ts, Value: value})
	p.emitValueBounds(sp)

	if p.liveUpdating || p.cacheUpdating {
		p.pendingLegend[[2]string{key, ds.Name}] = sub
		return
	}
	p.refreshLegend(sub, ds)
}

// Tick is the periodic clock event. The time axis moves per policy;
// when it moves every sub-plot is synchronized and the data just
// coming into view is requested ahead of time. Alarms whose breach
// has left the window clear on every tick, pinned or not.
func (p *Plot) Tick() {
	now := p.clock.CurrentTime()
	oldMin, oldMax, moved := p.Scroller.Advance(now)
	if !moved {
		for _, sp := range p.subplots {
			sp.clearScrolledOff()
			p.emitValueBounds(sp)
		}
		return
	}

	slog.Debug("Time window advanced",
		slog.Int64("oldMin", oldMin), slog.Int64("oldMax", oldMax),
		slog.Int64("min", p.Time.Min), slog.Int64("max", p.Time.Max))

	p.Synchronize()
	if p.Time.Max > oldMax {
		p.predict(St.Range{Start: oldMax, End: p.Time.Max})
	}
}

// SetTimeBounds is a direct mutation of the shared time axis,
// followed by the mandatory synchronize
func (p *Plot) SetTimeBounds(min, max int64) {
	p.Time.SetBounds(min, max)
	p.Synchronize()
}

// Synchronize pushes the current time window to every sub-plot:
// data below the window goes, scrolled-off alarms clear, auto edges
// re-fit, and every sink hears the new bounds.
func (p *Plot) Synchronize() {
	p.pruneReady()
	for _, sp := range p.subplots {
		if n := sp.truncate(p.Time.Min); n > 0 {
			slog.Debug("Truncated series", slog.Int("subplot", sp.Index), slog.Int("points", n))
		}
		sp.clearScrolledOff()
		sp.Bounds.Refit()
		p.emitValueBounds(sp)
	}
	p.emitTimeBounds()
}

// timeMovedByUser propagates a pan or zoom of the time axis. Value
// axes are left exactly as they are.
func (p *Plot) timeMovedByUser(oldMin, oldMax int64) {
	p.emitTimeBounds()
	p.requestExposed(oldMin, oldMax)
}

// requestExposed asks for data in the parts of the window that were
// not visible before, up to the current time
func (p *Plot) requestExposed(oldMin, oldMax int64) {
	now := p.clock.CurrentTime()
	if p.Time.Min < oldMin {
		p.request(St.Range{Start: p.Time.Min, End: min(oldMin, p.Time.Max)})
	}
	if p.Time.Max > oldMax {
		p.request(St.Range{Start: max(oldMax, p.Time.Min), End: min(p.Time.Max, now)})
	}
}

// LoadWindow asks the history cache for everything in the current
// window up to now. Called once the plot is wired to its requester.
func (p *Plot) LoadWindow() {
	p.request(St.Range{Start: p.Time.Min, End: min(p.Time.Max, p.clock.CurrentTime())})
}

// ResetTime restores the configured window (caught up to now),
// truncates, and synchronizes
func (p *Plot) ResetTime() {
	oldMin, oldMax := p.Time.Min, p.Time.Max
	p.Scroller.Reset(p.clock.CurrentTime())
	p.Synchronize()
	p.requestExposed(oldMin, oldMax)
}

// ResetValue restores both edges of a sub-plot's value axis
func (p *Plot) ResetValue(sub int) {
	sp := p.subplots[sub]
	sp.Value.Zoomed = false
	sp.Bounds.ResetToDefault(St.EdgeMin)
	sp.Bounds.ResetToDefault(St.EdgeMax)
	p.emitValueBounds(sp)
}

// PressAlarm is the user pressing an alarm indicator.
// It panics when the edge has no alarm.
func (p *Plot) PressAlarm(sub int, e St.Edge) St.AlarmState {
	sp := p.subplots[sub]
	to := sp.PressAlarm(e)
	p.emitValueBounds(sp)
	return to
}

// BufferRangeReady records that the history cache has delivered r
func (p *Plot) BufferRangeReady(r St.Range) {
	p.ready = append(p.ready, r)
	slices.SortFunc(p.ready, func(a, b St.Range) int { return cmp.Compare(a.Start, b.Start) })
	slog.Debug("Buffer range ready", slog.Int64("start", r.Start), slog.Int64("end", r.End))
}

func (p *Plot) StartLiveUpdate() {
	if p.cacheUpdating {
		slog.Warn("Live update started during cache update")
	}
	p.liveUpdating = true
}

func (p *Plot) CompleteLiveUpdate() {
	p.liveUpdating = false
	p.flushLegend()
}

func (p *Plot) StartCacheUpdate() {
	if p.liveUpdating {
		slog.Warn("Cache update started during live update")
	}
	p.cacheUpdating = true
}

// CompleteCacheUpdate ends a historical replay. Replayed points can
// change the window extremum anywhere, so auto edges re-fit.
func (p *Plot) CompleteCacheUpdate() {
	p.cacheUpdating = false
	for _, sp := range p.subplots {
		sp.Bounds.Refit()
		p.emitValueBounds(sp)
	}
	p.flushLegend()
}

////////// outbound

func (p *Plot) alarmChanged(sub int, e St.Edge, from, to St.AlarmState) {
	for _, s := range p.alarmSinks {
		s.AlarmStateChanged(sub, e, from, to)
	}
}

func (p *Plot) emitValueBounds(sp *SubPlot) {
	if !sp.boundsMoved() {
		return
	}
	for _, s := range p.boundsSinks {
		s.ValueBoundsChanged(sp.Index, sp.Value.Min, sp.Value.Max)
	}
}

func (p *Plot) emitTimeBounds() {
	for _, s := range p.boundsSinks {
		s.TimeBoundsChanged(p.Time.Min, p.Time.Max)
	}
}

func (p *Plot) refreshLegend(sub int, ds *DataSeries) {
	last, ok := ds.Last()
	if !ok {
		return
	}
	for _, s := range p.legendSinks {
		s.RefreshLegend(sub, ds.Name, last)
	}
}

func (p *Plot) flushLegend() {
	for k, sub := range p.pendingLegend {
		if ds, ok := p.subplots[sub].Series(k[1]); ok {
			p.refreshLegend(sub, ds)
		}
	}
	clear(p.pendingLegend)
}

func (p *Plot) request(r St.Range) {
	if p.requester == nil || r.Start >= r.End {
		return
	}
	if r, ok := p.uncovered(r); ok {
		p.requester.DataRequest(r)
	}
}

func (p *Plot) predict(r St.Range) {
	if p.requester == nil || r.Start >= r.End {
		return
	}
	if r, ok := p.uncovered(r); ok {
		p.requester.PredictiveDataRequest(r)
	}
}

// uncovered trims the front of r by ranges already delivered
func (p *Plot) uncovered(r St.Range) (St.Range, bool) {
	for _, rr := range p.ready {
		if rr.Start <= r.Start && rr.End > r.Start {
			r.Start = rr.End
		}
	}
	return r, r.Start < r.End
}

// pruneReady cuts delivered ranges back to the window minimum. The
// series are truncated there, so anything below it is no longer held.
func (p *Plot) pruneReady() {
	p.ready = slices.DeleteFunc(p.ready, func(r St.Range) bool { return r.End <= p.Time.Min })
	for i := range p.ready {
		p.ready[i].Start = max(p.ready[i].Start, p.Time.Min)
	}
}
