package scrollplot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	Sc "github.com/maroda/scrollplot/core"
	"github.com/sethvargo/go-envconfig"
)

const defaultWindowSeconds = 60

// ConfigFile is the on-disk JSON configuration
type ConfigFile struct {
	Orientation   string          `json:"orientation"`    // time_on_x | time_on_y
	XMaximum      string          `json:"x_maximum"`      // right | left
	YMaximum      string          `json:"y_maximum"`      // top | bottom
	TimePolicy    string          `json:"time_policy"`    // jump | scrunch | fixed
	TimePadding   float64         `json:"time_padding"`   // fraction of the span
	WindowSeconds int64           `json:"window_seconds"` // span of the initial window, ending now
	MaxPoints     int             `json:"max_points"`     // per series
	SubPlots      []SubPlotFile   `json:"subplots"`
	Feeds         []FeedFile      `json:"feeds"`
	History       HistoryFileConf `json:"history"`
}

type SubPlotFile struct {
	Name string   `json:"name"`
	Min  EdgeFile `json:"min"`
	Max  EdgeFile `json:"max"`
}

type EdgeFile struct {
	Policy  string  `json:"policy"` // auto | fixed | semi_fixed
	Padding float64 `json:"padding"`
	Default float64 `json:"default"`
}

// FeedFile is one polled endpoint
type FeedFile struct {
	ID      string       `json:"id"`
	URL     string       `json:"url"`
	Delim   string       `json:"delim"`
	Metrics []MetricFile `json:"metrics"`
}

// MetricFile maps one remote key to a plotted series
type MetricFile struct {
	Key       string `json:"key"`
	Series    string `json:"series"`
	SubPlot   int    `json:"subplot"`
	Transform string `json:"transform"` // registry name, optionally "name:arg"
}

type HistoryFileConf struct {
	Path      string `json:"path"`
	BatchSize int    `json:"batch_size"`
}

// Env holds the runtime overrides read from the environment
type Env struct {
	Config      string `env:"SCROLLPLOT_CONFIG, default=config.json"`
	StatsAddr   string `env:"SCROLLPLOT_STATS_ADDR, default=:8090"`
	HistoryPath string `env:"SCROLLPLOT_HISTORY_PATH"`
	OTel        string `env:"SCROLLPLOT_OTEL"`
	LogLevel    string `env:"SCROLLPLOT_LOG_LEVEL, default=info"`
}

// LoadEnv processes the environment into Env
func LoadEnv(ctx context.Context) (*Env, error) {
	return LoadEnvWith(ctx, envconfig.OsLookuper())
}

// LoadEnvWith reads from the given lookuper, tests use a map
func LoadEnvWith(ctx context.Context, l envconfig.Lookuper) (*Env, error) {
	var env Env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: l,
	}); err != nil {
		slog.Error("Could not process environment", slog.Any("Error", err))
		return nil, fmt.Errorf("environment error: %w", err)
	}
	return &env, nil
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) (*ConfigFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("Error", err))
		return nil, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

// LoadConfig decodes and checks a configuration. Unknown fields are
// rejected so a typo in a policy key does not silently become a default.
func LoadConfig(r io.Reader) (*ConfigFile, error) {
	var config ConfigFile
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		slog.Error("could not decode file")
		return nil, fmt.Errorf("config decode error: %w", err)
	}

	// Build once against a fixed clock so bad enums and bounds fail at load
	if _, err := config.ToPlotConfig(0); err != nil {
		slog.Error("invalid configuration", slog.Any("Error", err))
		return nil, err
	}

	return &config, nil
}

// ToPlotConfig converts the file into an engine Config whose window
// ends at now (Unix ms)
func (cf *ConfigFile) ToPlotConfig(now int64) (Sc.Config, error) {
	var cfg Sc.Config
	var err error

	if cfg.Orientation, err = Sc.ParseOrientation(cf.Orientation); err != nil {
		return cfg, err
	}
	if cfg.XMaximum, err = Sc.ParseXMaximum(cf.XMaximum); err != nil {
		return cfg, err
	}
	if cfg.YMaximum, err = Sc.ParseYMaximum(cf.YMaximum); err != nil {
		return cfg, err
	}
	if cfg.TimePolicy, err = Sc.ParseTimePolicy(cf.TimePolicy); err != nil {
		return cfg, err
	}

	window := cf.WindowSeconds
	if window == 0 {
		window = defaultWindowSeconds
	}
	if window < 0 {
		return cfg, fmt.Errorf("window_seconds must be positive: %d", window)
	}
	cfg.TimePadding = cf.TimePadding
	cfg.MinTime = now - window*1000
	cfg.MaxTime = now
	cfg.MaxPointsPerSeries = cf.MaxPoints

	for i, spf := range cf.SubPlots {
		spc := Sc.SubPlotConfig{Name: spf.Name}
		if spc.Min, err = spf.Min.toEdgeConfig(); err != nil {
			return cfg, fmt.Errorf("subplot %d min: %w", i, err)
		}
		if spc.Max, err = spf.Max.toEdgeConfig(); err != nil {
			return cfg, fmt.Errorf("subplot %d max: %w", i, err)
		}
		cfg.SubPlots = append(cfg.SubPlots, spc)
	}

	for _, f := range cf.Feeds {
		for _, m := range f.Metrics {
			if m.SubPlot < 0 || m.SubPlot >= len(cf.SubPlots) {
				return cfg, fmt.Errorf("feed %s metric %s: no subplot %d", f.ID, m.Key, m.SubPlot)
			}
		}
	}

	return cfg, cfg.Validate()
}

func (ef EdgeFile) toEdgeConfig() (Sc.EdgeConfig, error) {
	policy, err := Sc.ParseValuePolicy(ef.Policy)
	if err != nil {
		return Sc.EdgeConfig{}, err
	}
	return Sc.EdgeConfig{Policy: policy, Padding: ef.Padding, Default: ef.Default}, nil
}
