package scrollplot

import (
	"net/http"
	"strconv"

	Sc "github.com/maroda/scrollplot/core"
	St "github.com/maroda/scrollplot/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal is the prometheus registry for scrollplot itself.
// It is also an alarm and bounds sink for the plot, so /metrics
// carries the live alarm states and axis bounds.
type StatsInternal struct {
	Registry *prometheus.Registry

	wwwRequests  *prometheus.CounterVec
	pollDuration prometheus.Histogram
	tickDuration prometheus.Histogram
	points       *prometheus.CounterVec
	alarmChanges *prometheus.CounterVec
	alarmState   *prometheus.GaugeVec
	timeShifts   prometheus.Counter
	timeBounds   *prometheus.GaugeVec
	valueBounds  *prometheus.GaugeVec
	cacheQueries *prometheus.CounterVec
}

func NewStatsInternal() *StatsInternal {
	s := &StatsInternal{
		Registry: prometheus.NewRegistry(),
		wwwRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollplot_http_requests_total",
			Help: "HTTP requests served, by code and method",
		}, []string{"code", "method"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scrollplot_poll_duration_seconds",
			Help:    "Time spent polling all feeds",
			Buckets: prometheus.DefBuckets,
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scrollplot_tick_duration_seconds",
			Help:    "Time spent in a full supervisor tick",
			Buckets: prometheus.DefBuckets,
		}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollplot_points_total",
			Help: "Points plotted, by source (live or cache)",
		}, []string{"source"}),
		alarmChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollplot_alarm_transitions_total",
			Help: "Limit alarm transitions, by sub-plot, edge and new state",
		}, []string{"subplot", "edge", "state"}),
		alarmState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scrollplot_alarm_state",
			Help: "Current alarm state per sub-plot edge (0 none, 1 raised, 2 opened, 3 closed)",
		}, []string{"subplot", "edge"}),
		timeShifts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrollplot_time_bounds_changes_total",
			Help: "Times the shared time window moved",
		}),
		timeBounds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scrollplot_time_bound_ms",
			Help: "Shared time window bounds in Unix ms",
		}, []string{"edge"}),
		valueBounds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scrollplot_value_bound",
			Help: "Value axis bounds per sub-plot",
		}, []string{"subplot", "edge"}),
		cacheQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollplot_history_requests_total",
			Help: "History cache requests, by kind and result",
		}, []string{"kind", "result"}),
	}

	s.Registry.MustRegister(
		s.wwwRequests,
		s.pollDuration,
		s.tickDuration,
		s.points,
		s.alarmChanges,
		s.alarmState,
		s.timeShifts,
		s.timeBounds,
		s.valueBounds,
		s.cacheQueries,
	)

	return s
}

// Handler serves this registry only
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

func (s *StatsInternal) RecWWW(code, method string) {
	s.wwwRequests.WithLabelValues(code, method).Inc()
}

func (s *StatsInternal) RecPollTimer(seconds float64) { s.pollDuration.Observe(seconds) }
func (s *StatsInternal) RecTickTimer(seconds float64) { s.tickDuration.Observe(seconds) }

func (s *StatsInternal) RecPoints(source string, n int) {
	s.points.WithLabelValues(source).Add(float64(n))
}

func (s *StatsInternal) RecHistory(kind, result string) {
	s.cacheQueries.WithLabelValues(kind, result).Inc()
}

// AlarmStateChanged records a transition
func (s *StatsInternal) AlarmStateChanged(subplot int, edge St.Edge, from, to St.AlarmState) {
	sub := strconv.Itoa(subplot)
	e := Sc.EdgeToString(edge)
	s.alarmChanges.WithLabelValues(sub, e, Sc.AlarmStateToString(to)).Inc()
	s.alarmState.WithLabelValues(sub, e).Set(float64(to))
}

func (s *StatsInternal) TimeBoundsChanged(min, max int64) {
	s.timeShifts.Inc()
	s.timeBounds.WithLabelValues("min").Set(float64(min))
	s.timeBounds.WithLabelValues("max").Set(float64(max))
}

func (s *StatsInternal) ValueBoundsChanged(subplot int, min, max float64) {
	sub := strconv.Itoa(subplot)
	s.valueBounds.WithLabelValues(sub, "min").Set(min)
	s.valueBounds.WithLabelValues(sub, "max").Set(max)
}
