package plugin_test

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	Sp "github.com/maroda/scrollplot/plugin"
)

func TestCalcRate(t *testing.T) {
	currtime := time.Now()
	timeago := currtime.Add(-5 * time.Second)

	t.Run("Returns rate calculation", func(t *testing.T) {
		// The rate of 400 -> 420 over 5 seconds is 4 (20/5)
		got := Sp.CalcRate(420, 400, currtime, timeago)
		assertFloat(t, got, 4)
	})

	t.Run("Handles counter reset to 0", func(t *testing.T) {
		got := Sp.CalcRate(0, 400, currtime, timeago)
		assertFloat(t, got, 0)
	})

	t.Run("Counts everything since a reset", func(t *testing.T) {
		got := Sp.CalcRate(10, 400, currtime, timeago)
		assertFloat(t, got, 2)
	})

	t.Run("Zero elapsed time is no rate", func(t *testing.T) {
		got := Sp.CalcRate(420, 400, currtime, currtime)
		assertFloat(t, got, 0)
	})
}

func TestCalcRatePlugin(t *testing.T) {
	metric := "CPU1"
	currtime := time.Now()
	timeago := currtime.Add(-5 * time.Second)

	t.Run("HysteresisReq returns the correct value", func(t *testing.T) {
		plugin := Sp.CalcRatePlugin{}
		assertInt(t, plugin.HysteresisReq(), 1)
	})

	t.Run("Type returns the correct value", func(t *testing.T) {
		plugin := Sp.CalcRatePlugin{}
		assertStringContains(t, plugin.Type(), "calc_rate")
	})

	t.Run("Returns transformation for CalcRate", func(t *testing.T) {
		plugin := Sp.CalcRatePlugin{
			PrevVal:  map[string]float64{metric: 400},
			PrevTime: map[string]time.Time{metric: timeago},
		}

		rate, err := plugin.Transform(metric, 420, []float64{400}, currtime)
		assertError(t, err, nil)
		assertFloat(t, rate, 4)
	})

	t.Run("Starts new rate measurement series with no previous metric", func(t *testing.T) {
		plugin := Sp.CalcRatePlugin{}

		rate, err := plugin.Transform(metric, 420, []float64{400}, currtime)
		assertError(t, err, nil)
		assertFloat(t, rate, 0)
		assertFloat(t, plugin.PrevVal[metric], 420)
	})

	t.Run("Follows a sequence of readings", func(t *testing.T) {
		plugin := Sp.CalcRatePlugin{}
		start := time.Now()
		readings := []float64{100, 110, 130, 160}
		want := []float64{0, 10, 20, 30}

		var history []float64
		for i, r := range readings {
			rate, err := plugin.Transform(metric, r, history, start.Add(time.Duration(i)*time.Second))
			assertError(t, err, nil)
			assertFloat(t, rate, want[i])
			history = append(history, r)
		}
	})

	t.Run("Returns zero when Hysteresis Requirement is not met", func(t *testing.T) {
		plugin := Sp.CalcRatePlugin{
			PrevVal:  map[string]float64{metric: 400},
			PrevTime: map[string]time.Time{metric: timeago},
		}

		rate, err := plugin.Transform(metric, 420, []float64{}, currtime)
		assertError(t, err, nil)
		assertFloat(t, rate, 0)
	})
}

/// Helpers

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertGotError(t testing.TB, got error) {
	t.Helper()
	if got == nil {
		t.Errorf("Expected an error but got %q", got)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertInt64(t *testing.T, got, want int64) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertFloat(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("did not get correct value, got %v, want %v", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}
