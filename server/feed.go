package scrollplot

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	Sp "github.com/maroda/scrollplot/plugin"
	St "github.com/maroda/scrollplot/types"
)

// historyDepth is how many raw readings a feed keeps per metric
// for transformers that look backwards
const historyDepth = 8

// Feed is one polled endpoint and the series it produces
type Feed struct {
	ID      string
	URL     string
	Delim   string
	Metrics []FeedMetric
	Client  HTTPClient

	raw map[string][]float64 // recent readings by key, newest last
}

// FeedMetric maps a remote key onto a series in a sub-plot
type FeedMetric struct {
	Key         string
	Series      string
	SubPlot     int
	Transformer Sp.MetricTransformer // nil plots the raw value
}

// Sample is one polled value bound for the plot
type Sample struct {
	SubPlot int
	St.SeriesPoint
}

// NewFeedsFromConfig builds the feeds and looks up their transformers
func NewFeedsFromConfig(cf []FeedFile) ([]*Feed, error) {
	var feeds []*Feed
	for _, c := range cf {
		f := &Feed{
			ID:     c.ID,
			URL:    c.URL,
			Delim:  c.Delim,
			Client: sharedHTTPClient,
			raw:    make(map[string][]float64),
		}
		for _, m := range c.Metrics {
			fm := FeedMetric{Key: m.Key, Series: m.Series, SubPlot: m.SubPlot}
			if fm.Series == "" {
				fm.Series = m.Key
			}
			if m.Transform != "" {
				tr, err := Sp.TransformerLookup(m.Transform)
				if err != nil {
					slog.Error("Failed to look up transformer",
						slog.String("feed", c.ID),
						slog.String("key", m.Key),
						slog.Any("Error", err))
					return nil, fmt.Errorf("feed %s: %w", c.ID, err)
				}
				fm.Transformer = tr
			}
			f.Metrics = append(f.Metrics, fm)
		}
		feeds = append(feeds, f)
	}
	return feeds, nil
}

// Poll fetches the endpoint once and returns a sample per metric.
// Values that do not parse are logged and skipped; a fetch failure
// or non-2xx status fails the whole feed for this tick.
func (f *Feed) Poll(now time.Time) ([]Sample, error) {
	client := f.Client
	if client == nil {
		client = sharedHTTPClient
	}
	code, body, err := SingleFetchWithClient(f.URL, client)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", f.ID, err)
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("feed %s: status %d", f.ID, code)
	}

	kv, err := ParseMetricKV(bytes.NewReader(body), f.Delim)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", f.ID, err)
	}

	ts := now.UnixMilli()
	samples := make([]Sample, 0, len(f.Metrics))
	for _, m := range f.Metrics {
		v, ok := f.value(m, kv, string(body), now)
		if !ok {
			continue
		}
		samples = append(samples, Sample{
			SubPlot:     m.SubPlot,
			SeriesPoint: St.SeriesPoint{Series: m.Series, DataPoint: St.DataPoint{Timestamp: ts, Value: v}},
		})
	}

	slog.Debug("Feed polled", slog.String("feed", f.ID), slog.Int("samples", len(samples)))
	return samples, nil
}

// value resolves one metric: the raw KV value, or the transformer
// output. json_key reads the whole body rather than a single key.
func (f *Feed) value(m FeedMetric, kv map[string]string, body string, now time.Time) (float64, bool) {
	if m.Transformer != nil && m.Transformer.Type() == "json_key" {
		v, err := m.Transformer.Transform(body, 0, nil, now)
		if err != nil {
			slog.Error("Transform failed", slog.String("feed", f.ID), slog.Any("Error", err))
			return 0, false
		}
		return v, true
	}

	s, ok := kv[m.Key]
	if !ok {
		slog.Debug("Metric missing from feed", slog.String("feed", f.ID), slog.String("key", m.Key))
		return 0, false
	}
	raw, err := strconv.ParseFloat(s, 64)
	if err != nil {
		slog.Error("invalid syntax in metric", slog.String("key", m.Key), slog.String("value", s))
		return 0, false
	}
	// stored and plotted as reported, kept out of transformer history
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		slog.Warn("Non-finite metric", slog.String("feed", f.ID), slog.String("key", m.Key))
		return raw, true
	}

	history := f.raw[m.Key]
	f.remember(m.Key, raw)
	if m.Transformer == nil {
		return raw, true
	}

	v, err := m.Transformer.Transform(m.Key, raw, history, now)
	if err != nil {
		slog.Error("Transform failed", slog.String("feed", f.ID), slog.Any("Error", err))
		return 0, false
	}
	if len(history) < m.Transformer.HysteresisReq() {
		return 0, false
	}
	return v, true
}

func (f *Feed) remember(key string, v float64) {
	if f.raw == nil {
		f.raw = make(map[string][]float64)
	}
	h := append(f.raw[key], v)
	if len(h) > historyDepth {
		h = h[len(h)-historyDepth:]
	}
	f.raw[key] = h
}
