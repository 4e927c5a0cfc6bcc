package scrollplot_test

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	Ss "github.com/maroda/scrollplot/server"
)

func TestNewFeedsFromConfig(t *testing.T) {
	t.Run("Series defaults to the key", func(t *testing.T) {
		feeds, err := Ss.NewFeedsFromConfig([]Ss.FeedFile{{
			ID:      "local",
			Metrics: []Ss.MetricFile{{Key: "CPU"}},
		}})
		assertError(t, err, nil)
		assertString(t, feeds[0].Metrics[0].Series, "CPU")
		if feeds[0].Metrics[0].Transformer != nil {
			t.Errorf("expected no transformer")
		}
	})

	t.Run("Looks up transformers", func(t *testing.T) {
		feeds, err := Ss.NewFeedsFromConfig([]Ss.FeedFile{{
			ID:      "local",
			Metrics: []Ss.MetricFile{{Key: "NET", Transform: "calc_rate"}},
		}})
		assertError(t, err, nil)
		assertString(t, feeds[0].Metrics[0].Transformer.Type(), "calc_rate")
	})

	t.Run("Errors on an unknown transformer", func(t *testing.T) {
		_, err := Ss.NewFeedsFromConfig([]Ss.FeedFile{{
			ID:      "local",
			Metrics: []Ss.MetricFile{{Key: "NET", Transform: "craquemattic"}},
		}})
		assertGotError(t, err)
	})
}

func TestFeed_Poll(t *testing.T) {
	kvbody := `CPU=44.5
MEM=555
IDLE=NaN
BAD=forty
# comment
`
	mockWWW := makeMockWebServBody(0, kvbody)
	defer mockWWW.Close()
	now := time.UnixMilli(1_000_000)

	feeds, err := Ss.NewFeedsFromConfig([]Ss.FeedFile{{
		ID:    "local",
		URL:   mockWWW.URL,
		Delim: "=",
		Metrics: []Ss.MetricFile{
			{Key: "CPU", Series: "cpu", SubPlot: 0},
			{Key: "MEM", Series: "mem", SubPlot: 1},
			{Key: "IDLE", Series: "idle", SubPlot: 1},
			{Key: "BAD", Series: "bad", SubPlot: 0},
			{Key: "GONE", Series: "gone", SubPlot: 0},
		},
	}})
	assertError(t, err, nil)
	feed := feeds[0]

	samples, err := feed.Poll(now)
	assertError(t, err, nil)

	t.Run("Returns a sample per parseable metric", func(t *testing.T) {
		assertInt(t, len(samples), 3)
	})

	t.Run("Passes a NaN reading through", func(t *testing.T) {
		assertString(t, samples[2].Series, "idle")
		if !math.IsNaN(samples[2].Value) {
			t.Errorf("got %v, want NaN", samples[2].Value)
		}
	})

	t.Run("Carries series, sub-plot and timestamp", func(t *testing.T) {
		assertString(t, samples[0].Series, "cpu")
		assertFloat(t, samples[0].Value, 44.5)
		assertInt64(t, samples[0].Timestamp, 1_000_000)
		assertString(t, samples[1].Series, "mem")
		assertInt(t, samples[1].SubPlot, 1)
	})

	t.Run("Errors on a failing endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Internal Server Error", 500)
		}))
		defer server.Close()

		f := &Ss.Feed{ID: "broken", URL: server.URL, Metrics: feed.Metrics}
		_, err := f.Poll(now)
		assertGotError(t, err)
		assertStringContains(t, err.Error(), "500")
	})
}

func TestFeed_PollTransforms(t *testing.T) {
	t.Run("Rate needs a previous reading", func(t *testing.T) {
		body := "NET=100"
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		defer server.Close()

		feeds, err := Ss.NewFeedsFromConfig([]Ss.FeedFile{{
			ID:      "rate",
			URL:     server.URL,
			Metrics: []Ss.MetricFile{{Key: "NET", Series: "net", Transform: "calc_rate"}},
		}})
		assertError(t, err, nil)

		start := time.UnixMilli(0)
		first, err := feeds[0].Poll(start)
		assertError(t, err, nil)
		assertInt(t, len(first), 0)

		body = "NET=150"
		second, err := feeds[0].Poll(start.Add(5 * time.Second))
		assertError(t, err, nil)
		assertInt(t, len(second), 1)
		assertFloat(t, second[0].Value, 10)
	})

	t.Run("json_key reads the whole body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"bitcoin":{"usd":111580}}`))
		}))
		defer server.Close()

		feeds, err := Ss.NewFeedsFromConfig([]Ss.FeedFile{{
			ID:      "crypto",
			URL:     server.URL,
			Metrics: []Ss.MetricFile{{Key: "btc", Series: "btc", Transform: "json_key:bitcoin.usd"}},
		}})
		assertError(t, err, nil)

		samples, err := feeds[0].Poll(time.Now())
		assertError(t, err, nil)
		assertInt(t, len(samples), 1)
		assertFloat(t, samples[0].Value, 111580)
	})
}
