package scrollplot

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	Sc "github.com/maroda/scrollplot/core"
	Ss "github.com/maroda/scrollplot/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket pushing plot snapshots
// - Version for programmatic use
// - Plot state and user actions
func (v *View) SetupMux() http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)
	api.HandleFunc("/version", v.VersionHandler).Methods(http.MethodGet)
	api.HandleFunc("/plot", v.PlotHandler).Methods(http.MethodGet)
	api.HandleFunc("/alarm/{sub}/{edge}", v.AlarmHandler).Methods(http.MethodPost)
	api.HandleFunc("/reset/{sub}", v.ResetHandler).Methods(http.MethodPost)

	return otelhttp.NewHandler(r, "scrollplot")
}

var Version = "dev"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Could not encode response", slog.Any("Error", err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// PlotHandler answers with the current plot snapshot
func (v *View) PlotHandler(w http.ResponseWriter, r *http.Request) {
	state, err := v.Engine.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// AlarmHandler presses the alarm indicator of one edge
func (v *View) AlarmHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sub, err := strconv.Atoi(vars["sub"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	edge, err := Sc.ParseEdge(vars["edge"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	to, err := v.Engine.PressAlarm(r.Context(), sub, edge)
	switch {
	case errors.Is(err, Ss.ErrNoSubPlot):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, Ss.ErrNoAlarm):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"state": Sc.AlarmStateToString(to)})
	}
}

// ResetHandler returns a value axis, or the time axis for "time",
// to its configured bounds
func (v *View) ResetHandler(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["sub"]
	if target == "time" {
		if err := v.Engine.ResetTime(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"reset": target})
		return
	}

	sub, err := strconv.Atoi(target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = v.Engine.ResetValue(r.Context(), sub)
	switch {
	case errors.Is(err, Ss.ErrNoSubPlot):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"reset": target})
	}
}
