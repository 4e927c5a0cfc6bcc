package scrollplot

import (
	"fmt"
	"log/slog"
	"math"

	St "github.com/maroda/scrollplot/types"
)

type alarmEvent int

const (
	breachRaise alarmEvent = iota // breach that only gets flagged
	breachOpen                    // breach on an unpinned semi-fixed edge
	buttonPress                   // user pressed the indicator
	scrolledOff                   // window min moved past the breach
)

// alarmTransitions is the whole state machine for one edge.
// A missing entry means the event is ignored in that state.
// Button presses in NoAlarm are absent on purpose: Press panics on them.
var alarmTransitions = map[St.AlarmState]map[alarmEvent]St.AlarmState{
	St.NoAlarm: {
		breachRaise: St.AlarmRaised,
		breachOpen:  St.AlarmOpenedByUser,
	},
	St.AlarmRaised: {
		breachRaise: St.AlarmRaised,
		breachOpen:  St.AlarmRaised,
		buttonPress: St.AlarmOpenedByUser,
		scrolledOff: St.NoAlarm,
	},
	St.AlarmOpenedByUser: {
		buttonPress: St.AlarmClosedByUser,
		scrolledOff: St.NoAlarm,
	},
	St.AlarmClosedByUser: {
		breachRaise: St.AlarmClosedByUser,
		breachOpen:  St.AlarmClosedByUser,
		buttonPress: St.AlarmOpenedByUser,
		scrolledOff: St.NoAlarm,
	},
}

// LimitAlarms holds the two out-of-range machines of one sub-plot
type LimitAlarms struct {
	subplot  int
	state    [2]St.AlarmState
	breachAt [2]int64 // latest breaching timestamp per edge
	pixels   PixelFunc
	notify   func(subplot int, edge St.Edge, from, to St.AlarmState)
}

func NewLimitAlarms(subplot int) *LimitAlarms {
	return &LimitAlarms{subplot: subplot}
}

func (la *LimitAlarms) State(e St.Edge) St.AlarmState { return la.state[e] }
func (la *LimitAlarms) BreachedAt(e St.Edge) int64    { return la.breachAt[e] }

// Visible says whether the indicator for e should be drawn
func (la *LimitAlarms) Visible(e St.Edge) bool { return la.state[e] != St.NoAlarm }

// SetPixelFunc installs the logical to rendered mapping used by
// the one pixel proximity test
func (la *LimitAlarms) SetPixelFunc(f PixelFunc) { la.pixels = f }

// Breached is true when v sits at or beyond the bound of e, or lands
// within one rendered pixel of it. The pixel test is strict: a value
// exactly one pixel inside the bound is not a breach.
func (la *LimitAlarms) Breached(e St.Edge, v float64, axis *Axis[float64]) bool {
	if !validValue(v) {
		return false
	}
	bound := axis.Bound(e)
	if (e == St.EdgeMax && v >= bound) || (e == St.EdgeMin && v <= bound) {
		return true
	}
	if la.pixels == nil {
		return false
	}
	pv := la.pixels(v, axis.Min, axis.Max)
	pb := la.pixels(bound, axis.Min, axis.Max)
	return math.Abs(pv-pb) < 1
}

// fire runs one event through the table and records the breach time
// for breach events that land somewhere.
func (la *LimitAlarms) fire(e St.Edge, ev alarmEvent, ts int64) (St.AlarmState, bool) {
	from := la.state[e]
	to, ok := alarmTransitions[from][ev]
	if !ok {
		return from, false
	}
	if ev == breachRaise || ev == breachOpen {
		la.touch(e, ts)
	}
	la.set(e, to)
	return to, true
}

// touch records a breach without changing state
func (la *LimitAlarms) touch(e St.Edge, ts int64) {
	if la.state[e] == St.NoAlarm || ts > la.breachAt[e] {
		la.breachAt[e] = ts
	}
}

func (la *LimitAlarms) set(e St.Edge, to St.AlarmState) {
	from := la.state[e]
	if from == to {
		return
	}
	la.state[e] = to
	slog.Debug("Alarm transition",
		slog.Int("subplot", la.subplot),
		slog.String("edge", EdgeToString(e)),
		slog.String("from", AlarmStateToString(from)),
		slog.String("to", AlarmStateToString(to)))
	if la.notify != nil {
		la.notify(la.subplot, e, from, to)
	}
}

// Press is the indicator button. Pressing while there is no alarm is
// a caller bug and panics.
func (la *LimitAlarms) Press(e St.Edge) St.AlarmState {
	if la.state[e] == St.NoAlarm {
		panic(fmt.Sprintf("alarm button pressed on sub-plot %d %s edge with no alarm",
			la.subplot, EdgeToString(e)))
	}
	to, _ := la.fire(e, buttonPress, 0)
	return to
}

// ClearBefore drops every alarm whose breach has scrolled below windowMin
// and returns the state each cleared edge was in.
func (la *LimitAlarms) ClearBefore(windowMin int64) map[St.Edge]St.AlarmState {
	cleared := make(map[St.Edge]St.AlarmState)
	for _, e := range []St.Edge{St.EdgeMin, St.EdgeMax} {
		from := la.state[e]
		if from == St.NoAlarm || windowMin <= la.breachAt[e] {
			continue
		}
		if _, ok := la.fire(e, scrolledOff, 0); ok {
			cleared[e] = from
		}
	}
	return cleared
}

// Reset puts an edge back to NoAlarm
func (la *LimitAlarms) Reset(e St.Edge) {
	la.set(e, St.NoAlarm)
	la.breachAt[e] = 0
}
