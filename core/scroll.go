package scrollplot

import (
	"math"

	St "github.com/maroda/scrollplot/types"
)

// scrollStrategy computes the next time window once the clock has
// passed the end of the current one (lag > 0).
type scrollStrategy interface {
	advance(t *Axis[int64], now int64, padding float64) (min, max int64)
}

var scrollStrategies = map[St.TimeBoundsPolicy]scrollStrategy{
	St.Jump:      jumpScroll{},
	St.Scrunch:   scrunchScroll{},
	St.FixedTime: fixedScroll{},
}

// TimeScroller moves the shared time axis as wall-clock time passes it
type TimeScroller struct {
	axis     *Axis[int64]
	policy   St.TimeBoundsPolicy
	strategy scrollStrategy
	padding  float64
	initMin  int64
	initMax  int64
}

func NewTimeScroller(axis *Axis[int64], policy St.TimeBoundsPolicy, padding float64) *TimeScroller {
	return &TimeScroller{
		axis:     axis,
		policy:   policy,
		strategy: scrollStrategies[policy],
		padding:  padding,
		initMin:  axis.Min,
		initMax:  axis.Max,
	}
}

func (ts *TimeScroller) Policy() St.TimeBoundsPolicy { return ts.policy }

// Advance applies the policy for the current time. It reports the old
// bounds and whether the axis moved. A pinned axis never moves.
func (ts *TimeScroller) Advance(now int64) (oldMin, oldMax int64, moved bool) {
	oldMin, oldMax = ts.axis.Min, ts.axis.Max
	if ts.axis.IsPinned() || now-ts.axis.Max <= 0 {
		return oldMin, oldMax, false
	}
	min, max := ts.strategy.advance(ts.axis, now, ts.padding)
	if min == oldMin && max == oldMax {
		return oldMin, oldMax, false
	}
	ts.axis.SetBounds(min, max)
	return oldMin, oldMax, true
}

// Reset goes back to the configured window and then catches up with now
func (ts *TimeScroller) Reset(now int64) {
	ts.axis.SetBounds(ts.initMin, ts.initMax)
	ts.axis.Zoomed = false
	if now-ts.axis.Max > 0 {
		min, max := ts.strategy.advance(ts.axis, now, ts.padding)
		ts.axis.SetBounds(min, max)
	}
}

// JumpIncrement is the step a jump window moves in. A zero padding
// uses the lag itself as the step (lag/span of the span).
func JumpIncrement(span, lag int64, padding float64) int64 {
	if padding == 0 {
		return max(lag, 1)
	}
	inc := int64(math.Round(math.Abs(padding * float64(span))))
	return max(inc, 1)
}

type jumpScroll struct{}

// shift by the smallest whole number of increments that covers the lag
func (jumpScroll) advance(t *Axis[int64], now int64, padding float64) (int64, int64) {
	lag := now - t.Max
	inc := JumpIncrement(t.Span(), lag, padding)
	shift := ((lag + inc - 1) / inc) * inc
	return t.Min + shift, t.Max + shift
}

type scrunchScroll struct{}

// the start stays where the plot began, the end stretches past now
// by the padding and never comes back
func (scrunchScroll) advance(t *Axis[int64], now int64, padding float64) (int64, int64) {
	next := t.Min + int64(math.Ceil(float64(now-t.Min)*(1+padding)))
	if next < t.Max {
		next = t.Max
	}
	return t.Min, next
}

type fixedScroll struct{}

func (fixedScroll) advance(t *Axis[int64], now int64, padding float64) (int64, int64) {
	return t.Min, t.Max
}
