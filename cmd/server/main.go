package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iffduels/overlay-server/internal/app"
	"github.com/iffduels/overlay-server/internal/auth"
	"github.com/iffduels/overlay-server/internal/config"
	"github.com/iffduels/overlay-server/internal/log"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file")
		hashKey     = flag.String("hash-access-key", "", "print the bcrypt hash of the given access key and exit")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config)")
		logLevel    = flag.String("log-level", "", "log level (overrides config)")
		databaseURL = flag.String("db", "", "SQLite database path (overrides config)")
	)
	flag.Parse()

	if *hashKey != "" {
		hash, err := auth.HashAccessKey(*hashKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash access key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	bootLogger := log.New("info")
	cfg, cfgPath, err := config.Load(bootLogger, *configPath)
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	cfg.UpdateFrom(config.Config{
		Addr:         *addr,
		LogLevel:     *logLevel,
		DatabasePath: *databaseURL,
	})

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", cfgPath).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting overlay server")
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
