package types

/*

	These are the "immutable" core types of scrollplot,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here.
	Constructors and parsers are housed in their own packages.

*/

// DataPoint is one sample of one series.
// Timestamp is Unix milliseconds, the unit of the time axis.
// NaN values are stored but never take part in scaling or alarms.
type DataPoint struct {
	Timestamp int64
	Value     float64
}

// AxisOrientation says which screen axis carries time
type AxisOrientation int

const (
	TimeOnX AxisOrientation = iota
	TimeOnY
)

// TimeBoundsPolicy is how the time window follows the clock
type TimeBoundsPolicy int

const (
	Jump      TimeBoundsPolicy = iota // translate a fixed-span window in whole increments
	Scrunch                           // keep the start, stretch the end to now
	FixedTime                         // never move on its own
)

// ValueBoundsPolicy is set independently for the min and max edge of a value axis
type ValueBoundsPolicy int

const (
	Auto      ValueBoundsPolicy = iota // follow the data, expand and contract
	Fixed                              // stay put, raise an alarm on breach
	SemiFixed                          // expand on breach, never contract on its own
)

// AlarmState is the out-of-range indicator state of one edge of one sub-plot.
type AlarmState int

const (
	NoAlarm AlarmState = iota
	AlarmRaised
	AlarmOpenedByUser
	AlarmClosedByUser
)

// Edge names the logical end of a value axis.
// Inversion never changes which edge is Min and which is Max.
type Edge int

const (
	EdgeMin Edge = iota
	EdgeMax
)

// XAxisMaximumLocation and YAxisMaximumLocation together with
// AxisOrientation decide whether an axis is drawn inverted.
type XAxisMaximumLocation int

const (
	MaximumAtRight XAxisMaximumLocation = iota
	MaximumAtLeft
)

type YAxisMaximumLocation int

const (
	MaximumAtTop YAxisMaximumLocation = iota
	MaximumAtBottom
)

// Range is a closed time interval in Unix milliseconds
type Range struct {
	Start int64
	End   int64
}

// SeriesPoint is a DataPoint tagged with its series, the unit of
// storage and replay in the history cache
type SeriesPoint struct {
	Series string
	DataPoint
}
