package scrollplot

import (
	"fmt"
	"strings"

	St "github.com/maroda/scrollplot/types"
)

// String tables for the enums in types, used by config parsing,
// logs and the JSON API.

var alarmStateNames = map[St.AlarmState]string{
	St.NoAlarm:           "no_alarm",
	St.AlarmRaised:       "alarm_raised",
	St.AlarmOpenedByUser: "alarm_opened_by_user",
	St.AlarmClosedByUser: "alarm_closed_by_user",
}

var edgeNames = map[St.Edge]string{
	St.EdgeMin: "min",
	St.EdgeMax: "max",
}

var timePolicyNames = map[string]St.TimeBoundsPolicy{
	"jump":    St.Jump,
	"scrunch": St.Scrunch,
	"fixed":   St.FixedTime,
}

var valuePolicyNames = map[string]St.ValueBoundsPolicy{
	"auto":       St.Auto,
	"fixed":      St.Fixed,
	"semi_fixed": St.SemiFixed,
}

var orientationNames = map[string]St.AxisOrientation{
	"time_on_x": St.TimeOnX,
	"time_on_y": St.TimeOnY,
}

var xMaxNames = map[string]St.XAxisMaximumLocation{
	"right": St.MaximumAtRight,
	"left":  St.MaximumAtLeft,
}

var yMaxNames = map[string]St.YAxisMaximumLocation{
	"top":    St.MaximumAtTop,
	"bottom": St.MaximumAtBottom,
}

func AlarmStateToString(s St.AlarmState) string {
	if name, ok := alarmStateNames[s]; ok {
		return name
	}
	return "unknown"
}

func EdgeToString(e St.Edge) string {
	if name, ok := edgeNames[e]; ok {
		return name
	}
	return "unknown"
}

func TimePolicyToString(p St.TimeBoundsPolicy) string {
	return reverseLookup(timePolicyNames, p)
}

func ValuePolicyToString(p St.ValueBoundsPolicy) string {
	return reverseLookup(valuePolicyNames, p)
}

// ParseEdge accepts "min" or "max"
func ParseEdge(s string) (St.Edge, error) {
	for e, name := range edgeNames {
		if strings.EqualFold(name, s) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown edge: %s", s)
}

// An empty string selects the first (zero) value of every enum.

func ParseTimePolicy(s string) (St.TimeBoundsPolicy, error) {
	return lookup(timePolicyNames, s, "time bounds policy")
}

func ParseValuePolicy(s string) (St.ValueBoundsPolicy, error) {
	return lookup(valuePolicyNames, s, "value bounds policy")
}

func ParseOrientation(s string) (St.AxisOrientation, error) {
	return lookup(orientationNames, s, "axis orientation")
}

func ParseXMaximum(s string) (St.XAxisMaximumLocation, error) {
	return lookup(xMaxNames, s, "x axis maximum location")
}

func ParseYMaximum(s string) (St.YAxisMaximumLocation, error) {
	return lookup(yMaxNames, s, "y axis maximum location")
}

func lookup[T ~int](table map[string]T, s, what string) (T, error) {
	if s == "" {
		return 0, nil
	}
	v, ok := table[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown %s: %s", what, s)
	}
	return v, nil
}

func reverseLookup[T comparable](table map[string]T, v T) string {
	for name, tv := range table {
		if tv == v {
			return name
		}
	}
	return "unknown"
}
