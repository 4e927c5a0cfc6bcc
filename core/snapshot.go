package scrollplot

import (
	"slices"

	St "github.com/maroda/scrollplot/types"
)

// PlotState is a copy of everything a renderer or a client needs.
// It shares no memory with the plot and can leave the event loop.
type PlotState struct {
	MinTime     int64          `json:"min_time"`
	MaxTime     int64          `json:"max_time"`
	TimePinned  bool           `json:"time_pinned"`
	TimeZoomed  bool           `json:"time_zoomed"`
	TimePolicy  string         `json:"time_policy"`
	Interacting bool           `json:"interacting"`
	SubPlots    []SubPlotState `json:"subplots"`
}

type SubPlotState struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Min      float64       `json:"min"`
	Max      float64       `json:"max"`
	Pinned   bool          `json:"pinned"`
	Zoomed   bool          `json:"zoomed"`
	MinAlarm string        `json:"min_alarm"`
	MaxAlarm string        `json:"max_alarm"`
	Series   []SeriesState `json:"series"`
}

// SeriesState holds the drawable points of one series. Invalid values
// stay in the series but are left out here.
type SeriesState struct {
	Name   string         `json:"name"`
	Points []St.DataPoint `json:"points"`
}

// Snapshot copies the visible window
func (p *Plot) Snapshot() PlotState {
	ps := PlotState{
		MinTime:     p.Time.Min,
		MaxTime:     p.Time.Max,
		TimePinned:  p.Time.IsPinned(),
		TimeZoomed:  p.Time.Zoomed,
		TimePolicy:  TimePolicyToString(p.cfg.TimePolicy),
		Interacting: p.PanZoom.Interacting(),
		SubPlots:    make([]SubPlotState, 0, len(p.subplots)),
	}
	for _, sp := range p.subplots {
		ss := SubPlotState{
			Index:    sp.Index,
			Name:     sp.Name,
			Min:      sp.Value.Min,
			Max:      sp.Value.Max,
			Pinned:   sp.Value.IsPinned(),
			Zoomed:   sp.Value.Zoomed,
			MinAlarm: AlarmStateToString(sp.Alarms.State(St.EdgeMin)),
			MaxAlarm: AlarmStateToString(sp.Alarms.State(St.EdgeMax)),
		}
		for _, key := range sp.order {
			ds := sp.series[key]
			ss.Series = append(ss.Series, SeriesState{
				Name:   ds.Name,
				Points: slices.DeleteFunc(ds.Between(p.Time.Min, p.Time.Max), func(dp St.DataPoint) bool {
					return !validValue(dp.Value)
				}),
			})
		}
		ps.SubPlots = append(ps.SubPlots, ss)
	}
	return ps
}
