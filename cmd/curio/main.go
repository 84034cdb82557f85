package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"curio/internal/config"
	"curio/internal/logging"
	"curio/internal/sentiment"
	"curio/internal/server"
	"curio/internal/store"
	"curio/internal/theme"
)

func main() {
	var (
		configPath = pflag.String("config", "", "path to a yaml config file")
		addr       = pflag.String("addr", "", "listen address, overrides the config file")
		logLevel   = pflag.String("log-level", "info", "zap log level")
	)
	pflag.Parse()

	theme.PrintBanner()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("open store", zap.String("path", cfg.Storage.DBPath), zap.Error(err))
	}
	defer db.Close()

	analyzer := sentiment.New(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.APIKey)
	srv := server.New(cfg, db, log, analyzer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server", zap.Error(err))
	}
	log.Info("shutdown complete")
}
