package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"weightduel/internal/config"
	"weightduel/internal/domain"
	"weightduel/internal/logger"
	"weightduel/internal/metrics"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "weightduel",
	Short:         "Two-person weight challenge bot",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file (default $CONFIG_FILE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "weightduel:", err)
		os.Exit(1)
	}
}

// runtime holds what every command needs once configuration is loaded.
type runtime struct {
	cfg      config.Config
	loc      *time.Location
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
	closers  []io.Closer
}

func setup() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log, closer, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &runtime{
		cfg:      cfg,
		loc:      loc,
		logger:   log,
		registry: reg,
		metrics:  metrics.NewCollector(reg),
		closers:  []io.Closer{closer},
	}, nil
}

func (rt *runtime) onClose(c io.Closer) {
	rt.closers = append(rt.closers, c)
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			rt.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}

// wallClock reports the current day in the challenge zone without a store.
type wallClock struct {
	loc *time.Location
}

func (c wallClock) Today() domain.Day { return domain.DayOf(time.Now(), c.loc) }

func (c wallClock) Location() *time.Location { return c.loc }

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
