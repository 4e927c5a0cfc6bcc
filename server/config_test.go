package scrollplot_test

import (
	"context"
	"os"
	"strings"
	"testing"

	Ss "github.com/maroda/scrollplot/server"
	St "github.com/maroda/scrollplot/types"
	"github.com/sethvargo/go-envconfig"
)

const testConfig = `{
  "orientation": "time_on_x",
  "x_maximum": "right",
  "y_maximum": "top",
  "time_policy": "jump",
  "time_padding": 0.25,
  "window_seconds": 30,
  "subplots": [
    {"name": "cpu", "min": {"policy": "fixed", "default": 0}, "max": {"policy": "fixed", "default": 100}},
    {"name": "net", "min": {"policy": "auto", "default": 0}, "max": {"policy": "semi_fixed", "padding": 0.1, "default": 10}}
  ],
  "feeds": [
    {"id": "NETDATA", "url": "http://localhost:19999/api/v3/allmetrics", "delim": "=",
     "metrics": [
       {"key": "CPU_USER", "series": "user", "subplot": 0},
       {"key": "NET_IN", "series": "in", "subplot": 1, "transform": "calc_rate"}
     ]}
  ],
  "history": {"path": "/tmp/scrollplot", "batch_size": 16}
}`

// Temporary OS file to use for testing configurations
func createTempFile(t testing.TB, data string) (*os.File, func()) {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "db")
	if err != nil {
		t.Fatalf("could not create temp file %v", err)
	}

	tmpfile.Write([]byte(data))
	removeFile := func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
	}
	return tmpfile, removeFile
}

func TestLoadConfigFileName(t *testing.T) {
	configFile, delConfig := createTempFile(t, testConfig)
	defer delConfig()
	fileName := configFile.Name()

	t.Run("Loads sub-plots and feeds", func(t *testing.T) {
		cf, err := Ss.LoadConfigFileName(fileName)
		assertError(t, err, nil)
		assertInt(t, len(cf.SubPlots), 2)
		assertInt(t, len(cf.Feeds), 1)
		assertString(t, cf.Feeds[0].Delim, "=")
		assertString(t, cf.Feeds[0].Metrics[1].Transform, "calc_rate")
		assertInt(t, cf.History.BatchSize, 16)
	})

	t.Run("Errors with malformed JSON", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, `{"subplots": "cpu"}`)
		defer delConfig()

		_, err := Ss.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with an unknown field", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, strings.Replace(testConfig, `"time_policy"`, `"time_polcy"`, 1))
		defer delConfig()

		_, err := Ss.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with an unknown policy", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, strings.Replace(testConfig, `"semi_fixed"`, `"sometimes"`, 1))
		defer delConfig()

		_, err := Ss.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors when a metric names a missing sub-plot", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, strings.Replace(testConfig, `"subplot": 1`, `"subplot": 4`, 1))
		defer delConfig()

		_, err := Ss.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with an empty file", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, ``)
		defer delConfig()

		_, err := Ss.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with missing file", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, ``)
		delConfig()

		_, err := Ss.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})
}

func TestConfigFile_ToPlotConfig(t *testing.T) {
	cf, err := Ss.LoadConfig(strings.NewReader(testConfig))
	assertError(t, err, nil)

	cfg, err := cf.ToPlotConfig(100_000)
	assertError(t, err, nil)

	t.Run("Window ends now", func(t *testing.T) {
		assertInt64(t, cfg.MaxTime, 100_000)
		assertInt64(t, cfg.MinTime, 70_000)
	})

	t.Run("Policies are parsed", func(t *testing.T) {
		if cfg.TimePolicy != St.Jump {
			t.Errorf("time policy = %v, want jump", cfg.TimePolicy)
		}
		if cfg.SubPlots[1].Max.Policy != St.SemiFixed {
			t.Errorf("net max policy = %v, want semi_fixed", cfg.SubPlots[1].Max.Policy)
		}
		assertFloat(t, cfg.SubPlots[1].Max.Padding, 0.1)
		assertFloat(t, cfg.TimePadding, 0.25)
	})

	t.Run("Empty enums take the first value", func(t *testing.T) {
		bare, err := Ss.LoadConfig(strings.NewReader(`{"subplots": [{"name": "a", "max": {"default": 1}}]}`))
		assertError(t, err, nil)
		cfg, err := bare.ToPlotConfig(0)
		assertError(t, err, nil)
		if cfg.Orientation != St.TimeOnX || cfg.TimePolicy != St.Jump || cfg.SubPlots[0].Min.Policy != St.Auto {
			t.Errorf("defaults not applied: %+v", cfg)
		}
		assertInt64(t, cfg.MaxTime-cfg.MinTime, 60_000)
	})

	t.Run("No sub-plots is invalid", func(t *testing.T) {
		_, err := Ss.LoadConfig(strings.NewReader(`{"time_policy": "fixed"}`))
		assertGotError(t, err)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("Applies defaults", func(t *testing.T) {
		env, err := Ss.LoadEnvWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
		assertError(t, err, nil)
		assertString(t, env.Config, "config.json")
		assertString(t, env.StatsAddr, ":8090")
		assertString(t, env.HistoryPath, "")
	})

	t.Run("Reads overrides", func(t *testing.T) {
		env, err := Ss.LoadEnvWith(context.Background(), envconfig.MapLookuper(map[string]string{
			"SCROLLPLOT_CONFIG":       "/etc/scrollplot.json",
			"SCROLLPLOT_STATS_ADDR":   ":9999",
			"SCROLLPLOT_HISTORY_PATH": "/var/lib/scrollplot",
			"SCROLLPLOT_OTEL":         "otlp",
		}))
		assertError(t, err, nil)
		assertString(t, env.Config, "/etc/scrollplot.json")
		assertString(t, env.StatsAddr, ":9999")
		assertString(t, env.HistoryPath, "/var/lib/scrollplot")
		assertString(t, env.OTel, "otlp")
	})
}
