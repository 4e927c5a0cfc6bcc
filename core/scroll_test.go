package scrollplot_test

import (
	"testing"

	Sc "github.com/maroda/scrollplot/core"
	St "github.com/maroda/scrollplot/types"
)

func TestJumpIncrement(t *testing.T) {
	tests := []struct {
		name    string
		span    int64
		lag     int64
		padding float64
		want    int64
	}{
		{"Quarter of the span", 1000, 10, 0.25, 250},
		{"Rounds to the nearest millisecond", 999, 10, 0.1, 100},
		{"Never below one", 3, 10, 0.1, 1},
		{"Zero padding steps by the lag", 1000, 37, 0, 37},
		{"Zero padding and zero lag", 1000, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertInt64(t, Sc.JumpIncrement(tt.span, tt.lag, tt.padding), tt.want)
		})
	}
}

func TestTimeScroller_Advance(t *testing.T) {
	tests := []struct {
		name     string
		policy   St.TimeBoundsPolicy
		padding  float64
		now      int64
		min, max int64
		moved    bool
	}{
		{"Jump by one increment", St.Jump, 0.25, 1100, 250, 1250, true},
		{"Jump by several increments", St.Jump, 0.25, 1600, 750, 1750, true},
		{"Jump exactly one increment of lag", St.Jump, 0.25, 1250, 250, 1250, true},
		{"Jump with zero padding lands on now", St.Jump, 0, 1100, 100, 1100, true},
		{"Scrunch keeps the start and stretches the end", St.Scrunch, 0.5, 1100, 0, 1650, true},
		{"Scrunch without padding ends at now", St.Scrunch, 0, 1100, 0, 1100, true},
		{"Fixed never moves", St.FixedTime, 0.25, 5000, 0, 1000, false},
		{"No lag no move", St.Jump, 0.25, 1000, 0, 1000, false},
		{"Clock behind the window", St.Scrunch, 0.5, 10, 0, 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis := Sc.NewAxis[int64](0, 1000, false)
			ts := Sc.NewTimeScroller(axis, tt.policy, tt.padding)
			oldMin, oldMax, moved := ts.Advance(tt.now)
			assertBool(t, moved, tt.moved)
			assertInt64(t, oldMin, 0)
			assertInt64(t, oldMax, 1000)
			assertInt64(t, axis.Min, tt.min)
			assertInt64(t, axis.Max, tt.max)
		})
	}
}

func TestTimeScroller_Scrunch(t *testing.T) {
	axis := Sc.NewAxis[int64](0, 1000, false)
	ts := Sc.NewTimeScroller(axis, St.Scrunch, 0.5)

	t.Run("Start never changes and the end only grows", func(t *testing.T) {
		last := axis.Max
		for _, now := range []int64{1100, 1700, 1800, 4000} {
			ts.Advance(now)
			assertInt64(t, axis.Min, 0)
			if axis.Max < last {
				t.Errorf("scrunch contracted from %d to %d", last, axis.Max)
			}
			if axis.Max < now {
				t.Errorf("scrunch window ends at %d before now %d", axis.Max, now)
			}
			last = axis.Max
		}
	})

	t.Run("Inverted axis scrunches the same logical bounds", func(t *testing.T) {
		inv := Sc.NewAxis[int64](0, 1000, true)
		Sc.NewTimeScroller(inv, St.Scrunch, 0.5).Advance(1100)
		assertInt64(t, inv.Min, 0)
		assertInt64(t, inv.Max, 1650)
		assertInt64(t, inv.Start(), 1650)
	})
}

func TestTimeScroller_Pinned(t *testing.T) {
	axis := Sc.NewAxis[int64](0, 1000, false)
	ts := Sc.NewTimeScroller(axis, St.Jump, 0.25)
	pin := axis.NewPin()
	pin.SetPinned(true)

	_, _, moved := ts.Advance(5000)
	assertBool(t, moved, false)
	assertInt64(t, axis.Max, 1000)

	t.Run("A second holder keeps it pinned", func(t *testing.T) {
		other := axis.NewPin()
		other.SetPinned(true)
		pin.SetPinned(false)
		_, _, moved := ts.Advance(5000)
		assertBool(t, moved, false)

		other.SetPinned(false)
		_, _, moved = ts.Advance(5000)
		assertBool(t, moved, true)
	})
}

func TestTimeScroller_Reset(t *testing.T) {
	axis := Sc.NewAxis[int64](0, 1000, false)
	ts := Sc.NewTimeScroller(axis, St.Jump, 0.25)
	axis.SetBounds(300, 400)
	axis.Zoomed = true

	t.Run("Restores the initial window when the clock is inside it", func(t *testing.T) {
		ts.Reset(500)
		assertInt64(t, axis.Min, 0)
		assertInt64(t, axis.Max, 1000)
		assertBool(t, axis.Zoomed, false)
	})

	t.Run("Catches up with the clock", func(t *testing.T) {
		ts.Reset(1100)
		assertInt64(t, axis.Min, 250)
		assertInt64(t, axis.Max, 1250)
	})
}
