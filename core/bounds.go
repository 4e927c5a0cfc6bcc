package scrollplot

import (
	"math"

	St "github.com/maroda/scrollplot/types"
)

// EdgeConfig is the configuration of one end of a value axis
type EdgeConfig struct {
	Policy  St.ValueBoundsPolicy
	Padding float64 // fraction of the span added past the data
	Default float64 // configured bound, also the "no data" fall-back
}

// edgeStrategy is the behaviour of one bounds policy.
// The same strategy serves the min and the max edge; the
// edgeContext knows which one it is working on.
type edgeStrategy interface {
	onPointPlotted(c *edgeContext, ts int64, v float64)
	onReset(c *edgeContext)
	onPan(c *edgeContext)
	onZoom(c *edgeContext)
}

var edgeStrategies = map[St.ValueBoundsPolicy]edgeStrategy{
	St.Auto:      autoEdge{},
	St.Fixed:     fixedEdge{},
	St.SemiFixed: semiFixedEdge{},
}

// edgeContext is the mutable state of one edge
type edgeContext struct {
	m        *BoundManager
	edge     St.Edge
	policy   St.ValueBoundsPolicy
	strategy edgeStrategy
	padding  float64
	def      float64

	fixed      bool    // held at its value, no automatic movement
	held       bool    // auto edge after a user pan or zoom: expand only
	preOpen    float64 // bound cached when the alarm was opened
	hasPreOpen bool
}

// BoundManager decides the value axis bounds of one sub-plot
type BoundManager struct {
	axis   *Axis[float64]
	alarms *LimitAlarms
	edges  [2]*edgeContext

	// window returns the data extremum of an edge over the visible time window
	window func(e St.Edge) (float64, bool)
}

func NewBoundManager(axis *Axis[float64], alarms *LimitAlarms, min, max EdgeConfig, window func(St.Edge) (float64, bool)) *BoundManager {
	m := &BoundManager{
		axis:   axis,
		alarms: alarms,
		window: window,
	}
	for e, cfg := range map[St.Edge]EdgeConfig{St.EdgeMin: min, St.EdgeMax: max} {
		m.edges[e] = &edgeContext{
			m:        m,
			edge:     e,
			policy:   cfg.Policy,
			strategy: edgeStrategies[cfg.Policy],
			padding:  cfg.Padding,
			def:      cfg.Default,
			fixed:    cfg.Policy == St.Fixed,
		}
	}
	return m
}

func (m *BoundManager) Policy(e St.Edge) St.ValueBoundsPolicy { return m.edges[e].policy }
func (m *BoundManager) IsFixed(e St.Edge) bool                { return m.edges[e].fixed }

// PreOpen is the bound cached by the last alarm open, if any
func (m *BoundManager) PreOpen(e St.Edge) (float64, bool) {
	return m.edges[e].preOpen, m.edges[e].hasPreOpen
}

// OnPointPlotted runs a point that lies inside the time window
// through both edge policies
func (m *BoundManager) OnPointPlotted(ts int64, v float64) {
	if !validValue(v) {
		return
	}
	for _, c := range m.edges {
		c.strategy.onPointPlotted(c, ts, v)
	}
}

func (m *BoundManager) AdjustMin() { m.edges[St.EdgeMin].adjust() }
func (m *BoundManager) AdjustMax() { m.edges[St.EdgeMax].adjust() }

// Refit brings every unpinned auto edge back to the data. Held edges
// only grow. Runs whenever the time window moves.
func (m *BoundManager) Refit() {
	if m.axis.IsPinned() {
		return
	}
	for _, c := range m.edges {
		if c.policy != St.Auto || c.fixed {
			continue
		}
		if c.held {
			if ext, ok := m.window(c.edge); ok && c.beyond(ext) {
				c.adjust()
			}
			continue
		}
		c.adjust()
	}
}

// Open is the bound side of entering AlarmOpenedByUser: remember
// where the bound was and let it take in the out-of-range data.
// It is a user action, so it runs even on a pinned axis.
func (m *BoundManager) Open(e St.Edge) {
	c := m.edges[e]
	c.preOpen = c.bound()
	c.hasPreOpen = true
	c.fixed = false
	if ext, ok := m.window(e); ok && c.beyond(ext) {
		c.adjust()
	}
}

// Close re-fixes the bound at the value cached by Open
func (m *BoundManager) Close(e St.Edge) {
	c := m.edges[e]
	if c.hasPreOpen {
		m.axis.setBound(e, c.preOpen)
	}
	c.fixed = true
}

// ScrolledOff follows alarms that cleared because their breach left
// the window. A fixed edge that was opened goes back to its cached bound.
func (m *BoundManager) ScrolledOff(cleared map[St.Edge]St.AlarmState) {
	for e, from := range cleared {
		c := m.edges[e]
		c.fixed = c.policy == St.Fixed
		if c.policy == St.Fixed && from == St.AlarmOpenedByUser && c.hasPreOpen && !m.axis.IsPinned() {
			m.axis.setBound(e, c.preOpen)
		}
	}
}

// ResetToDefault restores the configured bound, or the bound cached by
// an earlier alarm open, and clears the alarm.
func (m *BoundManager) ResetToDefault(e St.Edge) {
	c := m.edges[e]
	bound := c.def
	if c.hasPreOpen {
		bound = c.preOpen
	}
	m.axis.setBound(e, bound)
	c.hasPreOpen = false
	c.held = false
	c.strategy.onReset(c)
	m.alarms.Reset(e)

	// never leave an empty axis behind
	if m.axis.Min >= m.axis.Max {
		m.axis.Max = m.axis.Min + 1
	}
}

func (m *BoundManager) OnPan() {
	for _, c := range m.edges {
		c.strategy.onPan(c)
	}
}

func (m *BoundManager) OnZoom() {
	for _, c := range m.edges {
		c.strategy.onZoom(c)
	}
}

////////// edge helpers

func (c *edgeContext) bound() float64 { return c.m.axis.Bound(c.edge) }

func (c *edgeContext) opposite() float64 {
	if c.edge == St.EdgeMax {
		return c.m.axis.Min
	}
	return c.m.axis.Max
}

func (c *edgeContext) pinned() bool         { return c.m.axis.IsPinned() }
func (c *edgeContext) state() St.AlarmState { return c.m.alarms.State(c.edge) }

// beyond is strictly outside the current bound
func (c *edgeContext) beyond(v float64) bool {
	if c.edge == St.EdgeMax {
		return v > c.bound()
	}
	return v < c.bound()
}

func (c *edgeContext) breached(v float64) bool {
	return c.m.alarms.Breached(c.edge, v, c.m.axis)
}

// adjust recomputes the bound from the window extremum
func (c *edgeContext) adjust() {
	ext, ok := c.m.window(c.edge)
	if !ok {
		ext = math.Inf(1)
		if c.edge == St.EdgeMax {
			ext = math.Inf(-1)
		}
	}
	c.m.axis.setBound(c.edge, calcWithPadding(c.edge, ext, c.opposite(), c.bound(), c.padding, c.def))
}

// expandTo grows the bound to take in v and never shrinks it
func (c *edgeContext) expandTo(v float64) {
	ext := v
	if w, ok := c.m.window(c.edge); ok {
		if c.edge == St.EdgeMax {
			ext = math.Max(ext, w)
		} else {
			ext = math.Min(ext, w)
		}
	}
	next := calcWithPadding(c.edge, ext, c.opposite(), c.bound(), c.padding, c.def)
	if c.beyond(next) {
		c.m.axis.setBound(c.edge, next)
	}
}

func (c *edgeContext) raise(ts int64) {
	c.m.alarms.fire(c.edge, breachRaise, ts)
}

// openOnBreach is the semi-fixed shortcut straight to AlarmOpenedByUser
func (c *edgeContext) openOnBreach(ts int64, v float64) {
	c.preOpen = c.bound()
	c.hasPreOpen = true
	c.fixed = false
	c.m.alarms.fire(c.edge, breachOpen, ts)
	c.expandTo(v)
}

// followOpen handles points while the alarm is open: the breach time
// follows anything past the old bound and the bound keeps up with the data
func (c *edgeContext) followOpen(ts int64, v float64) {
	if c.hasPreOpen {
		past := v >= c.preOpen
		if c.edge == St.EdgeMin {
			past = v <= c.preOpen
		}
		if past {
			c.m.alarms.touch(c.edge, ts)
		}
	}
	if !c.pinned() && c.beyond(v) {
		c.expandTo(v)
	}
}

// calcWithPadding places an edge so the extremum sits inside it with
// padding measured from the opposite bound.
//
// A non-finite extremum means there is no data and the configured
// default applies. An extremum on the wrong side of the opposite bound
// cannot be padded and leaves the previous bound in place. A zero span
// is nudged by one unit.
func calcWithPadding(e St.Edge, ext, opposite, previous, padding, def float64) float64 {
	if !validValue(ext) {
		return def
	}
	if e == St.EdgeMax {
		span := ext - opposite
		switch {
		case span == 0:
			return ext + 1
		case span < 0:
			return previous
		}
		return opposite + span*(1+padding)
	}

	span := opposite - ext
	switch {
	case span == 0:
		return ext - 1
	case span < 0:
		return previous
	}
	return opposite - span*(1+padding)
}

////////// policies

type autoEdge struct{}

func (autoEdge) onPointPlotted(c *edgeContext, ts int64, v float64) {
	if c.state() == St.AlarmOpenedByUser {
		c.followOpen(ts, v)
		return
	}
	if c.pinned() || c.fixed {
		if c.breached(v) {
			c.raise(ts)
		}
		return
	}
	if c.beyond(v) {
		c.expandTo(v)
	}
}

func (autoEdge) onReset(c *edgeContext) {
	c.fixed = false
	if !c.pinned() {
		c.adjust()
	}
}

// a user pan or zoom holds an auto edge where the user put it
func (autoEdge) onPan(c *edgeContext)  { c.held = true }
func (autoEdge) onZoom(c *edgeContext) { c.held = true }

type fixedEdge struct{}

func (fixedEdge) onPointPlotted(c *edgeContext, ts int64, v float64) {
	if c.state() == St.AlarmOpenedByUser {
		c.followOpen(ts, v)
		return
	}
	if c.breached(v) {
		c.raise(ts)
	}
}

func (fixedEdge) onReset(c *edgeContext) { c.fixed = true }
func (fixedEdge) onPan(c *edgeContext)   {}
func (fixedEdge) onZoom(c *edgeContext)  {}

type semiFixedEdge struct{}

func (semiFixedEdge) onPointPlotted(c *edgeContext, ts int64, v float64) {
	switch c.state() {
	case St.AlarmOpenedByUser:
		c.followOpen(ts, v)
	case St.NoAlarm:
		if !c.breached(v) {
			return
		}
		if c.pinned() {
			c.raise(ts)
			return
		}
		c.openOnBreach(ts, v)
	default:
		if c.breached(v) {
			c.raise(ts)
		}
	}
}

func (semiFixedEdge) onReset(c *edgeContext) { c.fixed = false }
func (semiFixedEdge) onPan(c *edgeContext)   {}
func (semiFixedEdge) onZoom(c *edgeContext)  {}
