// Command roamdb loads a travel dataset into memory and serves it over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/roamdb/roamdb/httpapi"
	"github.com/roamdb/roamdb/loader"
	"github.com/roamdb/roamdb/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "roamdb:", err)
		os.Exit(1)
	}
}

func run() error {
	viper.SetDefault("listen.address", ":8080")
	viper.SetDefault("server.workers", 64)
	viper.SetDefault("data.archive", "/tmp/data/data.zip")
	viper.SetDefault("data.options", "/tmp/data/options.txt")
	viper.SetDefault("log.level", "info")

	viper.SetEnvPrefix("ROAMDB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	logger := newLogger(viper.GetString("log.level"))

	// The dataset carries its own notion of "now"; age cutoffs are fixed
	// to it so results stay stable across the server's lifetime.
	now := time.Now()
	options, err := loader.ReadOptions(viper.GetString("data.options"))
	switch {
	case err == nil:
		now = time.Unix(options.Now, 0)
		logger.Info("dataset options loaded",
			"now", now.UTC().Format(time.RFC3339), "full", options.Full)
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("options file missing, using wall clock",
			"path", viper.GetString("data.options"))
	default:
		return fmt.Errorf("reading options: %w", err)
	}

	config := store.DefaultConfig()
	config.Now = now
	config.Logger = logger
	s := store.New(config)

	archive := viper.GetString("data.archive")
	start := time.Now()
	if err := loader.New(s, logger).Load(archive); err != nil {
		return fmt.Errorf("loading %s: %w", archive, err)
	}
	logger.Info("dataset loaded", "archive", archive, "elapsed", time.Since(start))

	api := httpapi.NewAPI(httpapi.APIConfig{
		Store:   s,
		Logger:  logger,
		Workers: viper.GetInt("server.workers"),
	})
	server := httpapi.NewServer(httpapi.ServerConfig{
		Address: viper.GetString("listen.address"),
		Handler: api.Handler(),
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
