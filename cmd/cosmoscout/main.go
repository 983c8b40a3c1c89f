package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cosmoscout/cosmoscout/internal/config"
	"github.com/cosmoscout/cosmoscout/internal/engine"
	"github.com/cosmoscout/cosmoscout/internal/fetch"
	"github.com/cosmoscout/cosmoscout/internal/httpapi"
	"github.com/cosmoscout/cosmoscout/internal/knowledge"
)

func main() {
	// a local .env is a convenience, its absence is not an error
	_ = godotenv.Load()

	var (
		configPath string
		addr       string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	flag.StringVar(&addr, "addr", "", "Listen address, overrides config")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		if err := config.LoadFile(&cfg, configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(2)
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	setupLogging(cfg, verbose)

	client := &fetch.Client{
		UserAgents:        cfg.Fetch.UserAgents,
		MaxAttempts:       cfg.Fetch.MaxAttempts,
		PerRequestTimeout: cfg.Fetch.Timeout,
		RetryDelayMin:     cfg.Fetch.RetryDelayMin,
		RetryDelayMax:     cfg.Fetch.RetryDelayMax,
		BlockMinBodyBytes: cfg.Fetch.BlockMinBodyBytes,
		PerHostRPS:        cfg.Fetch.PerHostRPS,
	}

	kb, err := knowledge.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load knowledge base")
	}

	eng := &engine.Engine{
		Schedule: engine.DefaultSchedule(client),
		KB:       kb,
		Timeout:  cfg.SearchTimeout,
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.NewRouter(eng),
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func setupLogging(cfg config.Config, verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var out io.Writer = console
	if cfg.Log.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, rotating)
	}
	log.Logger = log.Output(out)

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}
