package scrollplot

import (
	St "github.com/maroda/scrollplot/types"
)

/*

	Everything the engine talks to lives behind these interfaces.
	The renderer, the history cache and the stats registry implement
	them; the engine never reaches for a screen, a socket or a clock.

*/

// AlarmIndicatorSink hears about every alarm transition.
// The rendering layer shows or hides its indicator from this alone.
type AlarmIndicatorSink interface {
	AlarmStateChanged(subplot int, edge St.Edge, from, to St.AlarmState)
}

// BoundsSink receives the "set bounds" effects
type BoundsSink interface {
	TimeBoundsChanged(min, max int64)
	ValueBoundsChanged(subplot int, min, max float64)
}

// DataRequester is asked for data the plot is about to show.
// Implementations must not block; answers come back as a
// cache update phase followed by BufferRangeReady.
type DataRequester interface {
	DataRequest(r St.Range)
	PredictiveDataRequest(r St.Range)
}

// LegendSink refreshes the value text next to a series
type LegendSink interface {
	RefreshLegend(subplot int, series string, last St.DataPoint)
}

// Clock is the time service
type Clock interface {
	CurrentTime() int64
}

// ClockFunc adapts a plain function to Clock
type ClockFunc func() int64

func (f ClockFunc) CurrentTime() int64 { return f() }

// PixelFunc maps a value to its rendered position on an axis
// currently spanning [min,max]. Renderers supply it; without one
// the alarm breach test is purely numeric.
type PixelFunc func(value, min, max float64) float64

// LinearPixels is the mapping of a vertical value axis that is
// height pixels tall with max at the top (row 0).
func LinearPixels(height int) PixelFunc {
	return func(value, min, max float64) float64 {
		span := max - min
		if span == 0 {
			return 0
		}
		return float64(height) * (max - value) / span
	}
}
