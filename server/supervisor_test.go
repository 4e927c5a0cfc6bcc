package scrollplot_test

import (
	"context"
	"strings"
	"testing"
	"time"

	Sc "github.com/maroda/scrollplot/core"
	Ss "github.com/maroda/scrollplot/server"
)

func TestTickSupervisor(t *testing.T) {
	kvbody := `CPU=44
NET=555`
	metricsServer := makeMockWebServBody(0, kvbody)
	defer metricsServer.Close()

	clock := &fakeNow{t: time.UnixMilli(100_000)}
	// Scrunch so the window keeps up with the clock
	config := strings.Replace(engineConfig, "http://127.0.0.1:1", metricsServer.URL, 1)
	config = strings.Replace(config, `"fixed",`, `"scrunch",`, 1)
	cf, err := Ss.LoadConfig(strings.NewReader(config))
	assertError(t, err, nil)
	engine, err := Ss.NewEngine(cf, Ss.WithNow(clock.Now))
	assertError(t, err, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Loop.Run(ctx)

	t.Run("Creates new struct", func(t *testing.T) {
		if engine.Supervisor.Engine != engine {
			t.Errorf("supervisor engine = %v, want %v", engine.Supervisor.Engine, engine)
		}
		if engine.Supervisor.Interval != time.Second {
			t.Errorf("interval = %v, want 1s", engine.Supervisor.Interval)
		}
	})

	t.Run("A tick polls and plots", func(t *testing.T) {
		engine.Supervisor.Tick(ctx)
		state, err := engine.Snapshot(ctx)
		assertError(t, err, nil)
		cpu := state.SubPlots[0].Series[0]
		assertInt(t, len(cpu.Points), 1)
		assertFloat(t, cpu.Points[0].Value, 44)
		assertFloat(t, state.SubPlots[1].Series[0].Points[0].Value, 555)
	})

	ts := Ss.NewTickSupervisor(engine, 50*time.Millisecond)

	t.Run("Starts ticking", func(t *testing.T) {
		clock.Set(time.UnixMilli(100_500))
		ts.Start()
		defer ts.Stop()

		if ts.StopChan == nil {
			t.Errorf("StopChan should be initialized, not nil")
		}
		if ts.Ticker == nil {
			t.Errorf("Ticker should be initialized, not nil")
		}

		state := waitForState(t, engine, func(s Sc.PlotState) bool {
			return len(s.SubPlots[0].Series[0].Points) == 2
		})
		assertInt(t, len(state.SubPlots[0].Series[0].Points), 2)
	})

	t.Run("Stops ticking", func(t *testing.T) {
		ts.Start()

		done := make(chan struct{})
		go func() {
			ts.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("Ticking did not stop after timeout")
		}
	})

	t.Run("Stop twice is harmless", func(t *testing.T) {
		ts.Start()
		ts.Stop()
		ts.Stop()
	})

	t.Run("Restarts ticking", func(t *testing.T) {
		ts.Start()
		ts.Restart()
		clock.Set(time.UnixMilli(101_000))

		state := waitForState(t, engine, func(s Sc.PlotState) bool {
			return len(s.SubPlots[0].Series[0].Points) == 3
		})
		assertInt(t, len(state.SubPlots[0].Series[0].Points), 3)
		ts.Stop()
	})
}
