package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	Sd "github.com/maroda/scrollplot/display"
	So "github.com/maroda/scrollplot/obvy"
	Ss "github.com/maroda/scrollplot/server"
	"github.com/spf13/cobra"
)

// view mode owns the terminal, so logs go here instead
const viewLogFile = "scrollplot.log"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "scrollplot",
		Short: "Scrolling multi-series telemetry plot",
		Long: `scrollplot polls key=value and JSON telemetry feeds and plots them
as scrolling sub-plots with limit alarms, pan and zoom.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Plot config file (default: $SCROLLPLOT_CONFIG)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "view",
		Short: "Plot in the terminal and serve the data API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), true)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the data API and websocket without a terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), false)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Sd.Version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, terminal bool) error {
	env, err := Ss.LoadEnv(ctx)
	if err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	var out io.Writer = os.Stderr
	if terminal {
		f, err := os.OpenFile(viewLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel(env.LogLevel)})))

	if configPath == "" {
		configPath = env.Config
	}
	cf, err := Ss.LoadConfigFileName(configPath)
	if err != nil {
		slog.Error("Could not load config", slog.String("file", configPath), slog.Any("Error", err))
		return err
	}

	shutdown, err := So.InitOTel(ctx, env.OTel)
	if err != nil {
		slog.Error("Could not start tracing", slog.Any("Error", err))
		return err
	}
	defer shutdown()

	opts := Sd.Options{
		StatsAddr:   env.StatsAddr,
		HistoryPath: env.HistoryPath,
	}
	if terminal {
		return Sd.StartView(ctx, cf, opts)
	}
	return Sd.StartServe(ctx, cf, opts)
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
