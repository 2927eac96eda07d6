// Package main implements objkit, a demonstration of the object toolkit: it
// builds a kernel perceptron from configuration, trains clones of it in
// parallel while observers report progress, and prints their parameters,
// hashes and equality.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/objkit/config"
	"github.com/c360/objkit/env"
	"github.com/c360/objkit/metric"
)

// Build information
const (
	Version   = "1.0.0"
	BuildTime = "dev"
	appName   = "objkit"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if err := validateFlags(cli); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cli.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s (%s)\n", appName, Version, BuildTime)
		return nil
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	logger := setupLogger(stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if cli.Validate {
		logger.Info("Configuration is valid", "config_path", cli.ConfigPath)
		return nil
	}

	logger.Info("Starting objkit",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cli.ConfigPath)

	registry := metric.NewMetricsRegistry()
	e, err := env.Init(cfg, logger, registry)
	if err != nil {
		return fmt.Errorf("init environment: %w", err)
	}
	defer env.Exit()

	var srv *metric.Server
	if cfg.Metrics.Enabled {
		srv = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	}

	obs, err := newObservers(ctx, cfg, logger, registry, srv)
	if err != nil {
		return err
	}
	defer obs.Close()

	if srv != nil {
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
		logger.Info("Serving metrics", "address", srv.Address())
	}

	var params []byte
	if cli.ParamsPath != "" {
		if params, err = os.ReadFile(cli.ParamsPath); err != nil {
			return fmt.Errorf("read parameters: %w", err)
		}
	}

	return runDemo(ctx, demoOptions{
		Env:        e,
		Iterations: cli.Iterations,
		Clones:     cli.Clones,
		Params:     params,
		SavePath:   cli.SavePath,
		Observers:  obs,
		Out:        stdout,
	})
}

// loadConfig merges the configuration file over the defaults and applies
// the flags that override it.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(false)
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}
	if cli.NATSURL != "" {
		cfg.Observers.NATS.URL = cli.NATSURL
	}
	if cli.MetricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = cli.MetricsPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
