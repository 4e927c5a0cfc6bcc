package scrollplot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	Sc "github.com/maroda/scrollplot/core"
	Ss "github.com/maroda/scrollplot/server"
	St "github.com/maroda/scrollplot/types"
)

var arrowPan = map[tcell.Key]Sc.PanDirection{
	tcell.KeyLeft:  Sc.PanLeft,
	tcell.KeyRight: Sc.PanRight,
	tcell.KeyUp:    Sc.PanUp,
	tcell.KeyDown:  Sc.PanDown,
}

type zoomKey struct {
	dir    Sc.ZoomDirection
	anchor Sc.ZoomAnchor
}

var runeZoom = map[rune]zoomKey{
	'+': {Sc.ZoomIn, Sc.AnchorCenter},
	'=': {Sc.ZoomIn, Sc.AnchorCenter},
	'-': {Sc.ZoomOut, Sc.AnchorCenter},
	'[': {Sc.ZoomIn, Sc.AnchorLow},
	']': {Sc.ZoomIn, Sc.AnchorHigh},
	'{': {Sc.ZoomOut, Sc.AnchorLow},
	'}': {Sc.ZoomOut, Sc.AnchorHigh},
}

// Running Loop to handle events
func (v *View) handleEvents(ctx context.Context) {
	for {
		ev := v.Screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			v.ResizeScreen(ctx)
		case *tcell.EventKey:
			if v.HandleKey(ctx, ev) {
				return
			}
			v.UpdateScreen(ctx)
		case *tcell.EventMouse:
			// Button1 is Left Mouse Button
			if ev.Buttons() == tcell.Button1 {
				x, y := ev.Position()
				v.HandleMouseClick(ctx, x, y)
				v.UpdateScreen(ctx)
			}
		}
	}
}

func (v *View) setStatus(format string, args ...any) {
	v.MU.Lock()
	defer v.MU.Unlock()
	v.Status = fmt.Sprintf(format, args...)
}

func (v *View) selected() (int, Sc.AxisKind) {
	v.MU.Lock()
	defer v.MU.Unlock()
	return v.Selected, v.ZoomAxis
}

// onPlot runs fn on the engine loop and waits for it
func (v *View) onPlot(ctx context.Context, fn func(p *Sc.Plot)) error {
	return v.Engine.Loop.Do(ctx, func() { fn(v.Engine.Plot) })
}

// interacting runs fn only while the interaction modifier is held
func (v *View) interacting(ctx context.Context, fn func(p *Sc.Plot)) {
	refused := false
	err := v.onPlot(ctx, func(p *Sc.Plot) {
		if !p.PanZoom.Interacting() {
			refused = true
			return
		}
		fn(p)
	})
	if err != nil {
		slog.Error("Plot action failed", slog.Any("Error", err))
		return
	}
	if refused {
		v.setStatus("press z to pan or zoom")
	}
}

// HandleKey acts on a key press and reports whether the view should quit
func (v *View) HandleKey(ctx context.Context, ev *tcell.EventKey) bool {
	// Catch quit and exit
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return true
	}

	sub, axis := v.selected()

	if d, ok := arrowPan[ev.Key()]; ok {
		v.interacting(ctx, func(p *Sc.Plot) { p.PanZoom.Pan(sub, d) })
		return false
	}
	if ev.Key() != tcell.KeyRune {
		return false
	}

	r := ev.Rune()
	if z, ok := runeZoom[r]; ok {
		v.interacting(ctx, func(p *Sc.Plot) { p.PanZoom.Zoom(sub, axis, z.dir, z.anchor) })
		return false
	}

	switch {
	case r == 'z':
		var now bool
		err := v.onPlot(ctx, func(p *Sc.Plot) {
			if p.PanZoom.Interacting() {
				p.PanZoom.ExitInteraction()
			} else {
				p.PanZoom.EnterInteraction()
			}
			now = p.PanZoom.Interacting()
		})
		if err == nil {
			v.setStatus("interaction %v", now)
		}
	case r == 't':
		v.MU.Lock()
		v.ZoomAxis = Sc.TimeAxis
		v.MU.Unlock()
	case r == 'v':
		v.MU.Lock()
		v.ZoomAxis = Sc.ValueAxis
		v.MU.Unlock()
	case r >= '1' && r <= '9':
		v.Select(int(r - '1'))
	case r == 'm':
		v.press(ctx, sub, St.EdgeMax)
	case r == 'n':
		v.press(ctx, sub, St.EdgeMin)
	case r == 'r':
		v.reset(ctx, sub, axis)
	}
	return false
}

// Select makes sub the target of pan, zoom and alarm keys
func (v *View) Select(sub int) {
	if sub < 0 || sub >= v.Engine.Plot.SubPlots() {
		return
	}
	v.MU.Lock()
	defer v.MU.Unlock()
	v.Selected = sub
}

func (v *View) press(ctx context.Context, sub int, e St.Edge) {
	to, err := v.Engine.PressAlarm(ctx, sub, e)
	switch {
	case errors.Is(err, Ss.ErrNoAlarm):
		v.setStatus("no %s alarm on %d", Sc.EdgeToString(e), sub+1)
	case err != nil:
		slog.Error("Alarm press failed", slog.Any("Error", err))
	default:
		v.setStatus("%s alarm %s", Sc.EdgeToString(e), Sc.AlarmStateToString(to))
	}
}

func (v *View) reset(ctx context.Context, sub int, axis Sc.AxisKind) {
	var err error
	if axis == Sc.TimeAxis {
		err = v.Engine.ResetTime(ctx)
	} else {
		err = v.Engine.ResetValue(ctx, sub)
	}
	if err != nil {
		slog.Error("Reset failed", slog.Any("Error", err))
		return
	}
	v.setStatus("reset")
}

// HandleMouseClick presses the alarm indicator under the click,
// otherwise selects the sub-plot whose band was clicked
func (v *View) HandleMouseClick(ctx context.Context, x, y int) {
	v.MU.Lock()
	hit, onIndicator := v.hotspots[[2]int{x, y}]
	clicked := -1
	for i, b := range v.bands {
		if x >= b.x && x < b.x+b.w && y >= b.y-1 && y < b.y+b.h {
			clicked = i
			break
		}
	}
	v.MU.Unlock()

	if onIndicator {
		v.press(ctx, hit.sub, hit.edge)
		return
	}
	if clicked >= 0 {
		v.Select(clicked)
	}
}
