package scrollplot

import (
	"math"

	St "github.com/maroda/scrollplot/types"
)

// SubPlot is the per-plot context: its own value axis and alarms,
// a shared pointer to the stack's time axis, and its series.
// Nothing in here is global; the Plot passes it around by reference.
type SubPlot struct {
	Index  int
	Name   string
	Value  *Axis[float64]
	Time   *Axis[int64]
	Bounds *BoundManager
	Alarms *LimitAlarms

	series   map[string]*DataSeries
	order    []string
	capacity int

	lastMin, lastMax float64 // bounds last reported to BoundsSink
}

func newSubPlot(index int, cfg SubPlotConfig, time *Axis[int64], valueInverted bool, capacity int) *SubPlot {
	sp := &SubPlot{
		Index:    index,
		Name:     cfg.Name,
		Value:    NewAxis(cfg.Min.Default, cfg.Max.Default, valueInverted),
		Time:     time,
		Alarms:   NewLimitAlarms(index),
		series:   make(map[string]*DataSeries),
		capacity: capacity,
		lastMin:  math.NaN(),
		lastMax:  math.NaN(),
	}
	sp.Bounds = NewBoundManager(sp.Value, sp.Alarms, cfg.Min, cfg.Max, sp.windowExtremum)
	return sp
}

// windowExtremum is the extremum of every series over the visible window
func (sp *SubPlot) windowExtremum(e St.Edge) (float64, bool) {
	found := false
	var best float64
	for _, key := range sp.order {
		ds := sp.series[key]
		var v float64
		var ok bool
		if e == St.EdgeMax {
			v, ok = ds.MaxValue(sp.Time.Min, sp.Time.Max)
		} else {
			v, ok = ds.MinValue(sp.Time.Min, sp.Time.Max)
		}
		if !ok {
			continue
		}
		if !found || (e == St.EdgeMax && v > best) || (e == St.EdgeMin && v < best) {
			best = v
			found = true
		}
	}
	return best, found
}

func (sp *SubPlot) addSeries(name string) *DataSeries {
	key := seriesKey(name)
	if ds, ok := sp.series[key]; ok {
		return ds
	}
	ds := NewDataSeries(name)
	sp.series[key] = ds
	sp.order = append(sp.order, key)
	return ds
}

// Series looks a series up by name, ignoring case
func (sp *SubPlot) Series(name string) (*DataSeries, bool) {
	ds, ok := sp.series[seriesKey(name)]
	return ds, ok
}

// SeriesNames in the order they were added
func (sp *SubPlot) SeriesNames() []string {
	names := make([]string, 0, len(sp.order))
	for _, key := range sp.order {
		names = append(names, sp.series[key].Name)
	}
	return names
}

// plot stores p and, when it is valid and inside the time window,
// hands it to the bound manager which drives the alarms.
func (sp *SubPlot) plot(ds *DataSeries, p St.DataPoint) {
	ds.Insert(p)
	if sp.capacity > 0 && ds.Len() > sp.capacity {
		ds.Compress(sp.capacity)
	}
	if !validValue(p.Value) || !sp.Time.Contains(p.Timestamp) {
		return
	}
	sp.Bounds.OnPointPlotted(p.Timestamp, p.Value)
}

func (sp *SubPlot) truncate(before int64) int {
	dropped := 0
	for _, ds := range sp.series {
		dropped += ds.Truncate(before)
	}
	return dropped
}

// clearScrolledOff drops alarms whose breach left the window
func (sp *SubPlot) clearScrolledOff() {
	cleared := sp.Alarms.ClearBefore(sp.Time.Min)
	if len(cleared) > 0 {
		sp.Bounds.ScrolledOff(cleared)
	}
}

// PressAlarm is the indicator button of one edge
func (sp *SubPlot) PressAlarm(e St.Edge) St.AlarmState {
	to := sp.Alarms.Press(e)
	switch to {
	case St.AlarmOpenedByUser:
		sp.Bounds.Open(e)
	case St.AlarmClosedByUser:
		sp.Bounds.Close(e)
	}
	return to
}

// boundsMoved reports whether the value axis changed since the last call
func (sp *SubPlot) boundsMoved() bool {
	if sp.Value.Min == sp.lastMin && sp.Value.Max == sp.lastMax {
		return false
	}
	sp.lastMin, sp.lastMax = sp.Value.Min, sp.Value.Max
	return true
}
