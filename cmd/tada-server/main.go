package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/server"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/store/rediscache"
	"github.com/idilsaglam/tada/internal/store/sqlstore"
)

func main() {
	configFile := flag.StringP("config", "c", "", "extra config file merged last")
	listen := flag.StringP("listen", "l", "", "listen address")
	dsn := flag.String("db", "", "sqlite file or postgres DSN")
	redisAddr := flag.String("redis", "", "redis address for the card cache (optional)")
	token := flag.String("token", "", "bearer token required on /api (optional)")
	seedFile := flag.String("seed", "", "JSON card fixtures to load before serving")
	flag.Parse()

	paths := []string{config.GlobalPath(), config.ProjectPath()}
	if *configFile != "" {
		paths = append(paths, *configFile)
	}
	cfg, err := config.LoadFrom(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if flag.CommandLine.Changed("listen") {
		cfg.Serve.Listen = *listen
	}
	if flag.CommandLine.Changed("db") {
		cfg.Serve.Database = *dsn
	}
	if flag.CommandLine.Changed("redis") {
		cfg.Serve.RedisAddr = *redisAddr
	}
	if flag.CommandLine.Changed("token") {
		cfg.Serve.Token = *token
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, *seedFile, log); err != nil {
		log.Error("server stopped", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, seedFile string, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := sqlstore.Open(cfg.Serve.Database, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	if seedFile != "" {
		cards, err := jsonstore.Load(seedFile)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		n, err := repo.Seed(ctx, cards)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Info("seeded cards", "file", seedFile, "created", n, "total", len(cards))
	}
	ids, err := repo.ListCardIDs(ctx)
	if err != nil {
		return fmt.Errorf("list cards: %w", err)
	}
	log.Info("cards available", "count", len(ids), "ids", ids)

	rc := server.RouterConfig{Repo: repo, Token: cfg.Serve.Token, Log: log}
	if cfg.Serve.RedisAddr != "" {
		cache, err := rediscache.New(cfg.Serve.RedisAddr, cfg.Serve.RedisTTL, log)
		if err != nil {
			log.Warn("redis unavailable, serving without card cache", "error", err)
		} else {
			defer cache.Close()
			rc.Cache = cache
		}
	}

	srv := &http.Server{
		Addr:              cfg.Serve.Listen,
		Handler:           server.NewRouter(rc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Serve.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
