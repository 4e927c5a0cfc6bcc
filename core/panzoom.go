package scrollplot

import (
	"log/slog"

	St "github.com/maroda/scrollplot/types"
)

type AxisKind int

const (
	TimeAxis AxisKind = iota
	ValueAxis
)

type PanDirection int

const (
	PanLeft PanDirection = iota
	PanRight
	PanUp
	PanDown
)

type ZoomDirection int

const (
	ZoomIn ZoomDirection = iota
	ZoomOut
)

// ZoomAnchor is the logical bound that stays put during a zoom
type ZoomAnchor int

const (
	AnchorLow ZoomAnchor = iota
	AnchorCenter
	AnchorHigh
)

const (
	panFraction  = 0.25
	zoomFraction = 0.2
)

type panTarget struct {
	kind      AxisKind
	towardEnd bool // right and up move toward the visual end of an axis
}

// panAxis resolves a screen direction to the axis it moves
var panAxis = map[St.AxisOrientation]map[PanDirection]panTarget{
	St.TimeOnX: {
		PanLeft:  {TimeAxis, false},
		PanRight: {TimeAxis, true},
		PanUp:    {ValueAxis, true},
		PanDown:  {ValueAxis, false},
	},
	St.TimeOnY: {
		PanLeft:  {ValueAxis, false},
		PanRight: {ValueAxis, true},
		PanUp:    {TimeAxis, true},
		PanDown:  {TimeAxis, false},
	},
}

// PanZoomController turns discrete user actions into new bounds.
// Interaction pins are held while the modifier is down; a zoom adds a
// user pin that stays until Reset.
type PanZoomController struct {
	plot        *Plot
	interacting bool

	timeInteract  *Pin
	timeUser      *Pin
	valueInteract []*Pin
	valueUser     []*Pin
}

func newPanZoomController(p *Plot) *PanZoomController {
	pz := &PanZoomController{
		plot:         p,
		timeInteract: p.Time.NewPin(),
		timeUser:     p.Time.NewPin(),
	}
	for _, sp := range p.subplots {
		pz.valueInteract = append(pz.valueInteract, sp.Value.NewPin())
		pz.valueUser = append(pz.valueUser, sp.Value.NewPin())
	}
	return pz
}

func (pz *PanZoomController) Interacting() bool { return pz.interacting }

// EnterInteraction suspends automatic management on every axis
func (pz *PanZoomController) EnterInteraction() {
	pz.interacting = true
	pz.timeInteract.SetPinned(true)
	for _, pin := range pz.valueInteract {
		pin.SetPinned(true)
	}
	slog.Debug("Interaction mode entered")
}

// ExitInteraction releases the interaction pins. Zoomed axes stay pinned.
func (pz *PanZoomController) ExitInteraction() {
	pz.interacting = false
	pz.timeInteract.SetPinned(false)
	for _, pin := range pz.valueInteract {
		pin.SetPinned(false)
	}
	slog.Debug("Interaction mode exited")
}

// Pan moves one axis by a quarter of its span. Which axis depends on
// the orientation, the sign on its inversion.
func (pz *PanZoomController) Pan(sub int, d PanDirection) {
	target := panAxis[pz.plot.cfg.Orientation][d]
	if target.kind == TimeAxis {
		pz.panTime(target.towardEnd != pz.plot.Time.Inverted)
		return
	}

	sp := pz.plot.subplots[sub]
	forward := target.towardEnd != sp.Value.Inverted
	min, max := shifted(sp.Value, panFraction, forward)
	sp.Value.SetBounds(min, max)
	sp.Bounds.OnPan()
	pz.plot.emitValueBounds(sp)
	slog.Debug("Value axis panned", slog.Int("subplot", sub), slog.Float64("min", min), slog.Float64("max", max))
}

// PanTime moves the time window forward (later) or back, regardless
// of how the time axis is drawn
func (pz *PanZoomController) PanTime(forward bool) {
	pz.panTime(forward)
}

func (pz *PanZoomController) panTime(forward bool) {
	t := pz.plot.Time
	oldMin, oldMax := t.Min, t.Max
	t.SetBounds(shifted(t, panFraction, forward))
	pz.plot.timeMovedByUser(oldMin, oldMax)
	slog.Debug("Time axis panned", slog.Int64("min", t.Min), slog.Int64("max", t.Max))
}

// Zoom narrows or widens one axis by a fifth of its span around the
// anchor and leaves it user-pinned and zoomed
func (pz *PanZoomController) Zoom(sub int, kind AxisKind, d ZoomDirection, anchor ZoomAnchor) {
	if kind == TimeAxis {
		t := pz.plot.Time
		oldMin, oldMax := t.Min, t.Max
		min, max, ok := zoomed(t, d, anchor)
		if !ok {
			return
		}
		t.SetBounds(min, max)
		t.Zoomed = true
		pz.timeUser.SetPinned(true)
		pz.plot.timeMovedByUser(oldMin, oldMax)
		return
	}

	sp := pz.plot.subplots[sub]
	min, max, ok := zoomed(sp.Value, d, anchor)
	if !ok {
		return
	}
	sp.Value.SetBounds(min, max)
	sp.Value.Zoomed = true
	pz.valueUser[sub].SetPinned(true)
	sp.Bounds.OnZoom()
	pz.plot.emitValueBounds(sp)
}

// Reset releases the user pin of an axis and restores its default bounds
func (pz *PanZoomController) Reset(sub int, kind AxisKind) {
	if kind == TimeAxis {
		pz.timeUser.SetPinned(false)
		pz.plot.ResetTime()
		return
	}
	pz.valueUser[sub].SetPinned(false)
	pz.plot.ResetValue(sub)
}

// step is a fraction of the span, never zero
func step[T Number](span T, fraction float64) T {
	s := T(float64(span) * fraction)
	if s == 0 {
		s = 1
	}
	return s
}

func shifted[T Number](a *Axis[T], fraction float64, forward bool) (T, T) {
	s := step(a.Span(), fraction)
	if !forward {
		s = -s
	}
	return a.Min + s, a.Max + s
}

// zoomed refuses a zoom in that would collapse the axis
func zoomed[T Number](a *Axis[T], d ZoomDirection, anchor ZoomAnchor) (T, T, bool) {
	s := step(a.Span(), zoomFraction)
	if d == ZoomIn {
		s = -s
	}
	min, max := a.Min, a.Max
	switch anchor {
	case AnchorLow:
		max += s
	case AnchorHigh:
		min -= s
	default:
		half := s / 2
		min -= half
		max += s - half
	}
	return min, max, min < max
}
