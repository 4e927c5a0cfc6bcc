package scrollplot

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	Sc "github.com/maroda/scrollplot/core"
	So "github.com/maroda/scrollplot/obvy"
	Sp "github.com/maroda/scrollplot/plugin"
	St "github.com/maroda/scrollplot/types"
)

// HistoryRequester answers the plot's data requests from the store.
// Requests arrive on the loop and must not block, so each query runs
// in its own goroutine and the answer is posted back as one cache
// update phase followed by BufferRangeReady.
type HistoryRequester struct {
	Store Sp.PointStore
	Loop  *Loop
	Plot  *Sc.Plot
	Stats *So.StatsInternal
	Now   func() int64 // ready ranges are stamped no later than this

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func (h *HistoryRequester) DataRequest(r St.Range) {
	h.fetch("request", r)
}

func (h *HistoryRequester) PredictiveDataRequest(r St.Range) {
	h.fetch("predictive", r)
}

// Wait blocks until every outstanding query has posted its answer
func (h *HistoryRequester) Wait() {
	h.wg.Wait()
}

// Stop refuses new queries and waits for the ones in flight
func (h *HistoryRequester) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *HistoryRequester) fetch(kind string, r St.Range) {
	id := uuid.NewString()
	slog.Debug("History request",
		slog.String("id", id),
		slog.String("kind", kind),
		slog.Int64("start", r.Start),
		slog.Int64("end", r.End))

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		slog.Debug("History stopped, request dropped", slog.String("id", id))
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		start := time.Now()

		// Buffered live points belong in the answer too
		if err := h.Store.Flush(); err != nil {
			slog.Error("History flush failed", slog.String("id", id), slog.Any("Error", err))
		}
		// nothing past now is in the store yet
		if h.Now != nil {
			r.End = min(r.End, max(r.Start, h.Now()))
		}

		points, err := h.Store.QueryRange(r.Start, r.End)
		if err != nil {
			slog.Error("History query failed", slog.String("id", id), slog.Any("Error", err))
			h.record(kind, "error")
			return
		}
		h.record(kind, "ok")

		h.Loop.Post(func() { h.replay(r, points) })

		slog.Debug("History answered",
			slog.String("id", id),
			slog.Int("points", len(points)),
			slog.Duration("took", time.Since(start)))
	}()
}

// replay runs on the loop
func (h *HistoryRequester) replay(r St.Range, points []St.SeriesPoint) {
	h.Plot.StartCacheUpdate()
	for _, p := range points {
		h.Plot.PointPlotted(p.Series, p.Timestamp, p.Value)
	}
	h.Plot.CompleteCacheUpdate()
	if r.Start < r.End {
		h.Plot.BufferRangeReady(r)
	}
	if h.Stats != nil {
		h.Stats.RecPoints("cache", len(points))
	}
}

func (h *HistoryRequester) record(kind, result string) {
	if h.Stats != nil {
		h.Stats.RecHistory(kind, result)
	}
}
