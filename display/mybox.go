package scrollplot

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

/*

Telemetry worth trying this against, netdata exposes every metric
as key=value lines:
curl -s 'http://localhost:19999/api/v3/allmetrics'

*/

func GetTTY() (tcell.Screen, error) {
	defStyle := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset)

	// New screen
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("could not get new screen: %w", err)
	}

	// Initialize screen
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("could not initialize screen: %w", err)
	}
	s.SetStyle(defStyle)
	s.EnableMouse()
	s.EnablePaste()
	s.Clear()

	return s, nil
}

// WriteBar fills a rectangle with style
// x1 = starting X axis (from left), x2 = ending X axis (from left)
// y1 = starting Y axis (from top), y2 = ending Y axis (from top)
func WriteBar(s tcell.Screen, x1, y1, x2, y2 int, style tcell.Style) {
	for row := y1; row < y2; row++ {
		for col := x1; col < x2; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
}
