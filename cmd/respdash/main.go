package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/roman-kulish/respiration-monitor/cmd/respdash/app"
)

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: &logLevel, TimeFormat: time.DateTime}))

	config, err := app.NewConfigFromCLI(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	level, _ := config.Settings.Settings.Level()
	if config.Verbose {
		level = slog.LevelDebug
	}
	logLevel.Set(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, logger); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
