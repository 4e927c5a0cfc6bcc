package scrollplot

import (
	"errors"
	"fmt"

	St "github.com/maroda/scrollplot/types"
)

const DefaultMaxPointsPerSeries = 4096

var ErrTimeRange = errors.New("minimum time must be before maximum time")

// SubPlotConfig is one stacked sub-plot with its own value axis
type SubPlotConfig struct {
	Name string
	Min  EdgeConfig
	Max  EdgeConfig
}

// Config is everything the engine needs at construction
type Config struct {
	Orientation St.AxisOrientation
	XMaximum    St.XAxisMaximumLocation
	YMaximum    St.YAxisMaximumLocation

	TimePolicy  St.TimeBoundsPolicy
	TimePadding float64
	MinTime     int64 // Unix ms
	MaxTime     int64 // Unix ms

	MaxPointsPerSeries int
	SubPlots           []SubPlotConfig
}

func (c Config) Validate() error {
	if c.MinTime >= c.MaxTime {
		return fmt.Errorf("%w: %d >= %d", ErrTimeRange, c.MinTime, c.MaxTime)
	}
	if c.TimePadding < 0 {
		return fmt.Errorf("time padding must not be negative: %v", c.TimePadding)
	}
	if len(c.SubPlots) == 0 {
		return errors.New("at least one sub-plot is required")
	}
	for i, sp := range c.SubPlots {
		if sp.Min.Default >= sp.Max.Default {
			return fmt.Errorf("sub-plot %d (%s): min %v must be below max %v", i, sp.Name, sp.Min.Default, sp.Max.Default)
		}
		if sp.Min.Padding < 0 || sp.Max.Padding < 0 {
			return fmt.Errorf("sub-plot %d (%s): padding must not be negative", i, sp.Name)
		}
	}
	return nil
}

type inversionKey struct {
	o St.AxisOrientation
	x St.XAxisMaximumLocation
	y St.YAxisMaximumLocation
}

// inversions resolves orientation and maximum locations into
// (time inverted, value inverted) once, at construction.
var inversions = map[inversionKey][2]bool{
	{St.TimeOnX, St.MaximumAtRight, St.MaximumAtTop}:    {false, false},
	{St.TimeOnX, St.MaximumAtRight, St.MaximumAtBottom}: {false, true},
	{St.TimeOnX, St.MaximumAtLeft, St.MaximumAtTop}:     {true, false},
	{St.TimeOnX, St.MaximumAtLeft, St.MaximumAtBottom}:  {true, true},
	{St.TimeOnY, St.MaximumAtRight, St.MaximumAtTop}:    {false, false},
	{St.TimeOnY, St.MaximumAtRight, St.MaximumAtBottom}: {true, false},
	{St.TimeOnY, St.MaximumAtLeft, St.MaximumAtTop}:     {false, true},
	{St.TimeOnY, St.MaximumAtLeft, St.MaximumAtBottom}:  {true, true},
}

func (c Config) TimeInverted() bool {
	return inversions[inversionKey{c.Orientation, c.XMaximum, c.YMaximum}][0]
}

func (c Config) ValueInverted() bool {
	return inversions[inversionKey{c.Orientation, c.XMaximum, c.YMaximum}][1]
}
