package scrollplot_test

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	Sc "github.com/maroda/scrollplot/core"
	Sd "github.com/maroda/scrollplot/display"
)

func TestScreen(t *testing.T) {
	s := mkTestScreen(t, "")
	defer s.Fini()
	s.Clear()

	t.Run("Check test screen", func(t *testing.T) {
		b, x, y := s.GetContents()
		if len(b) != x*y || x != 80 || y != 25 {
			t.Fatalf("Contents (%v, %v, %v) wrong", len(b), x, y)
		}
		for i := 0; i < x*y; i++ {
			if len(b[i].Runes) == 1 && b[i].Runes[0] != ' ' {
				t.Errorf("Incorrect contents at %v: %v", i, b[i].Runes)
			}
			if b[i].Style != tcell.StyleDefault {
				t.Errorf("Incorrect style at %v: %v", i, b[i].Style)
			}
		}
	})
}

func TestView_UpdateScreen(t *testing.T) {
	view, s := makeTestScreenView(t)
	ingestBreach(t, view)
	ctx := context.Background()
	view.UpdateScreen(ctx)

	t.Run("Draws the border", func(t *testing.T) {
		if r := cellRune(s, 0, 0); r != tcell.RuneULCorner {
			t.Errorf("got %q at the corner", r)
		}
	})

	t.Run("Title shows the mode and the breach", func(t *testing.T) {
		title := rowText(s, 1)
		assertStringContains(t, title, "LIVE | fixed | zoom:value")
		assertStringContains(t, title, "sub-plot 1 max limit breached")
	})

	t.Run("Headers name each sub-plot with its legend", func(t *testing.T) {
		assertStringContains(t, rowText(s, 2), "1:cpu cpu.user=150")
		assertStringContains(t, rowText(s, 12), "2:net net.in=7")
	})

	t.Run("Raised alarm shows its indicator", func(t *testing.T) {
		assertStringContains(t, rowText(s, 2), "▲MAX")
		if strings.Contains(rowText(s, 2), "▼MIN") {
			t.Errorf("quiet min edge shows an indicator")
		}
	})

	t.Run("Time labels mark the window", func(t *testing.T) {
		assertStringContains(t, rowText(s, 23), Sd.FormatTime(90_000))
		assertStringContains(t, rowText(s, 23), Sd.FormatTime(100_000))
	})

	t.Run("Points inside the value range are drawn", func(t *testing.T) {
		found := false
		for y := 13; y < 22; y++ {
			if strings.ContainsRune(rowText(s, y), '•') {
				found = true
			}
		}
		if !found {
			t.Errorf("no point drawn in the net band")
		}
	})

	t.Run("Points past a fixed bound are not drawn", func(t *testing.T) {
		for y := 3; y < 12; y++ {
			if strings.ContainsRune(rowText(s, y), '•') {
				t.Errorf("point drawn in the cpu band on row %d", y)
			}
		}
	})
}

func TestView_HandleMouseClick(t *testing.T) {
	view, s := makeTestScreenView(t)
	ingestBreach(t, view)
	ctx := context.Background()
	view.UpdateScreen(ctx)

	t.Run("Clicking the indicator presses the alarm", func(t *testing.T) {
		row := rowText(s, 2)
		i := strings.Index(row, "▲MAX")
		if i < 0 {
			t.Fatalf("indicator not drawn")
		}
		x := len([]rune(row[:i]))
		view.HandleMouseClick(ctx, x, 2)
		state, err := view.Engine.Snapshot(ctx)
		assertError(t, err, nil)
		assertString(t, state.SubPlots[0].MaxAlarm, "alarm_opened_by_user")
	})

	t.Run("Clicking a band selects it", func(t *testing.T) {
		view.HandleMouseClick(ctx, 30, 15)
		assertInt(t, view.Selected, 1)
	})
}

func TestView_HandleKey(t *testing.T) {
	view, _ := makeTestScreenView(t)
	ingestBreach(t, view)
	ctx := context.Background()

	snapshot := func(t *testing.T) Sc.PlotState {
		t.Helper()
		state, err := view.Engine.Snapshot(ctx)
		assertError(t, err, nil)
		return state
	}

	t.Run("Panning needs interaction", func(t *testing.T) {
		quit := view.HandleKey(ctx, tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
		if quit {
			t.Fatalf("arrow key quit the view")
		}
		assertString(t, view.Status, "press z to pan or zoom")
		assertInt64(t, snapshot(t).MinTime, 90_000)
	})

	t.Run("z enters interaction", func(t *testing.T) {
		view.HandleKey(ctx, runeKey('z'))
		if !snapshot(t).Interacting {
			t.Errorf("not interacting after z")
		}
	})

	t.Run("Left pans the time window back", func(t *testing.T) {
		view.HandleKey(ctx, tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
		state := snapshot(t)
		if state.MinTime >= 90_000 {
			t.Errorf("time window did not move back, min %d", state.MinTime)
		}
		if !state.TimePinned {
			t.Errorf("time axis not pinned while interacting")
		}
	})

	t.Run("Plus zooms the selected value axis", func(t *testing.T) {
		view.HandleKey(ctx, runeKey('+'))
		state := snapshot(t)
		if !state.SubPlots[0].Zoomed {
			t.Errorf("cpu value axis not zoomed")
		}
		if state.SubPlots[1].Zoomed {
			t.Errorf("net value axis zoomed")
		}
	})

	t.Run("r on the time axis restores the window", func(t *testing.T) {
		view.HandleKey(ctx, runeKey('t'))
		view.HandleKey(ctx, runeKey('r'))
		state := snapshot(t)
		assertInt64(t, state.MinTime, 90_000)
		assertInt64(t, state.MaxTime, 100_000)
	})

	t.Run("Number keys select a sub-plot", func(t *testing.T) {
		view.HandleKey(ctx, runeKey('2'))
		assertInt(t, view.Selected, 1)
		view.HandleKey(ctx, runeKey('9'))
		assertInt(t, view.Selected, 1)
	})

	t.Run("n on a quiet edge is refused", func(t *testing.T) {
		view.HandleKey(ctx, runeKey('n'))
		assertString(t, view.Status, "no min alarm on 2")
	})

	t.Run("m presses the max alarm", func(t *testing.T) {
		view.HandleKey(ctx, runeKey('1'))
		view.HandleKey(ctx, runeKey('m'))
		assertString(t, snapshot(t).SubPlots[0].MaxAlarm, "alarm_opened_by_user")
	})

	t.Run("ESC quits", func(t *testing.T) {
		if !view.HandleKey(ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
			t.Errorf("ESC did not quit")
		}
	})
}

// Helpers //

func mkTestScreen(t *testing.T, charset string) tcell.SimulationScreen {
	s := tcell.NewSimulationScreen(charset)
	if s == nil {
		t.Fatalf("Failed to get SimulationScreen")
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	return s
}

func makeTestScreenView(t *testing.T) (*Sd.View, tcell.SimulationScreen) {
	t.Helper()
	s := mkTestScreen(t, "")
	t.Cleanup(s.Fini)
	view := makeTestView(t)
	view.Screen = s
	return view, s
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func cellRune(s tcell.SimulationScreen, x, y int) rune {
	cells, w, _ := s.GetContents()
	c := cells[y*w+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

// rowText reads one screen row back as a string
func rowText(s tcell.SimulationScreen, y int) string {
	_, w, _ := s.GetContents()
	var sb strings.Builder
	for x := range w {
		sb.WriteRune(cellRune(s, x, y))
	}
	return sb.String()
}
