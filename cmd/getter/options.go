package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ligustah/getter/internal/config"
	"github.com/ligustah/getter/internal/downloader"
	gethttp "github.com/ligustah/getter/internal/http"
	"github.com/ligustah/getter/internal/progress"
	"github.com/ligustah/getter/internal/transport"
)

// sourceFlags are the flags shared by commands that talk to an HTTP server.
// Zero values mean "not given" so that config file and environment values
// survive the merge.
type sourceFlags struct {
	configPath    *string
	envFile       *string
	url           *string
	workers       *int
	port          *int
	dialTimeout   *time.Duration
	ioTimeout     *time.Duration
	bufferSize    *string
	legacyHeaders *bool
	verbose       *bool
}

func addSourceFlags(fs *flag.FlagSet) *sourceFlags {
	return &sourceFlags{
		configPath:    fs.String("config", "", "YAML config file"),
		envFile:       fs.String("env-file", ".env", "File with GETTER_* variables, ignored if missing"),
		url:           fs.String("url", "", "Resource as host[:port]/path (required)"),
		workers:       fs.Int("workers", 0, "Number of parallel workers (default 4)"),
		port:          fs.Int("port", 0, "Port used when the URL names none (default 80)"),
		dialTimeout:   fs.Duration("dial-timeout", 0, "Connect timeout (default 10s)"),
		ioTimeout:     fs.Duration("io-timeout", 0, "Per-connection I/O deadline (0 = none)"),
		bufferSize:    fs.String("buffer-size", "", "Initial response buffer size (default 64KB)"),
		legacyHeaders: fs.Bool("legacy-headers", false, "Match HEAD headers literally and case-sensitively"),
		verbose:       fs.Bool("verbose", false, "Log chunk activity to stderr"),
	}
}

// loadConfig layers defaults, the config file, the environment and flags.
func (f *sourceFlags) loadConfig(override config.Config) (config.Config, error) {
	cfg := config.Default()
	if *f.configPath != "" {
		loaded, err := config.LoadFromFile(*f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if err := config.LoadDotEnv(*f.envFile); err != nil {
		return config.Config{}, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	override.URL = *f.url
	override.Workers = *f.workers
	override.Port = *f.port
	override.DialTimeout = *f.dialTimeout
	override.IOTimeout = *f.ioTimeout
	override.LegacyHeaders = *f.legacyHeaders
	if *f.bufferSize != "" {
		size, err := progress.ParseBytes(*f.bufferSize)
		if err != nil {
			return config.Config{}, fmt.Errorf("invalid buffer size: %w", err)
		}
		override.BufferSize = size
	}

	return cfg.Merge(override), nil
}

func (f *sourceFlags) logger() *slog.Logger {
	if !*f.verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// resolveTarget parses the configured URL. The configured port applies only
// when the URL names none.
func resolveTarget(cfg config.Config) (gethttp.Target, error) {
	t, err := gethttp.SplitURL(cfg.URL)
	if err != nil {
		return gethttp.Target{}, err
	}
	if !hasExplicitPort(cfg.URL) && cfg.Port != 0 {
		t.Port = cfg.Port
	}
	return t, nil
}

func hasExplicitPort(raw string) bool {
	if _, rest, ok := strings.Cut(raw, "://"); ok {
		raw = rest
	}
	hostport, _, _ := strings.Cut(raw, "/")
	return strings.Contains(hostport, ":")
}

// downloaderOptions maps the configuration onto downloader options.
func downloaderOptions(cfg config.Config, logger *slog.Logger) downloader.Options {
	headers := gethttp.StructuredHeaders
	if cfg.LegacyHeaders {
		headers = gethttp.LegacyHeaders
	}

	topts := transport.DefaultOptions()
	if cfg.DialTimeout > 0 {
		topts.DialTimeout = cfg.DialTimeout
	}
	topts.IOTimeout = cfg.IOTimeout

	hopts := gethttp.DefaultOptions()
	hopts.Headers = headers
	hopts.Transport = topts
	if cfg.BufferSize > 0 {
		hopts.BufferSize = int(cfg.BufferSize)
	}

	return downloader.Options{
		Workers:                cfg.Workers,
		HTTPOptions:            hopts,
		MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
		Logger:                 logger,
	}
}
