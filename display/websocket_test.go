package scrollplot_test

import (
	"errors"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	Sc "github.com/maroda/scrollplot/core"
	Sd "github.com/maroda/scrollplot/display"
)

func TestView_WebsocketHandler(t *testing.T) {
	view := makeTestView(t)
	ingestBreach(t, view)

	Sd.PushInterval = 20 * time.Millisecond
	serv := httptest.NewServer(view.SetupMux())
	defer serv.Close()

	url := "ws" + strings.TrimPrefix(serv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assertError(t, err, nil)
	defer conn.Close()

	t.Run("First message is the current snapshot", func(t *testing.T) {
		var state Sc.PlotState
		err := conn.ReadJSON(&state)
		assertError(t, err, nil)
		assertInt(t, len(state.SubPlots), 2)
		assertString(t, state.SubPlots[0].MaxAlarm, "alarm_raised")
	})

	t.Run("Snapshots keep arriving", func(t *testing.T) {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		for range 3 {
			var state Sc.PlotState
			err := conn.ReadJSON(&state)
			assertError(t, err, nil)
		}
	})

	t.Run("Client messages are ignored", func(t *testing.T) {
		err := conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"plot"}`))
		assertError(t, err, nil)

		var state Sc.PlotState
		err = conn.ReadJSON(&state)
		assertError(t, err, nil)
		assertInt64(t, state.MaxTime, 100_000)
	})
}

// Helpers //

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertStatus(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct status, got %d, want %d", got, want)
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

func assertString(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct string, got %q, want %q", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}
