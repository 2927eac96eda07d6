package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
)

// CLIConfig holds command-line configuration. Empty strings and zero ports
// leave the configuration file's value in place.
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Iterations  int
	Clones      int
	MetricsPort int
	NATSURL     string
	ParamsPath  string
	SavePath    string
	Validate    bool
	ShowVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.ConfigPath, "config", getEnv("OBJKIT_CONFIG", ""),
		"Path to a YAML or JSON configuration file (env: OBJKIT_CONFIG)")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("OBJKIT_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: OBJKIT_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("OBJKIT_LOG_FORMAT", ""),
		"Log format: json, text (env: OBJKIT_LOG_FORMAT)")
	fs.IntVar(&cfg.Iterations, "iterations", getEnvInt("OBJKIT_ITERATIONS", 20),
		"Maximum training passes of the demo model (env: OBJKIT_ITERATIONS)")
	fs.IntVar(&cfg.Clones, "clones", getEnvInt("OBJKIT_CLONES", 4),
		"Number of clones trained in parallel (env: OBJKIT_CLONES)")
	fs.IntVar(&cfg.MetricsPort, "metrics-port", getEnvInt("OBJKIT_METRICS_PORT", 0),
		"Serve Prometheus metrics on this port, 0 keeps the config setting (env: OBJKIT_METRICS_PORT)")
	fs.StringVar(&cfg.NATSURL, "nats-url", getEnv("OBJKIT_NATS_URL", ""),
		"Publish observations to this NATS server (env: OBJKIT_NATS_URL)")
	fs.StringVar(&cfg.ParamsPath, "params", "",
		"JSON document of demo model parameters, checked against its schema")
	fs.StringVar(&cfg.SavePath, "save", "",
		"Write the best trained clone as YAML to this file")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "%s - parameterized object toolkit demo\n\nUsage: %s [options]\n\nOptions:\n", appName, appName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}
	if cfg.LogLevel != "" && !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "" && !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	if cfg.Iterations < 1 {
		return fmt.Errorf("invalid iterations: %d", cfg.Iterations)
	}
	if cfg.Clones < 1 {
		return fmt.Errorf("invalid clones: %d", cfg.Clones)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
