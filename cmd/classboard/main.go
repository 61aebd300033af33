package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/marcogenualdo/classboard/internal/auth"
	"github.com/marcogenualdo/classboard/internal/classroom"
	"github.com/marcogenualdo/classboard/internal/config"
	"github.com/marcogenualdo/classboard/internal/dashboard"
	"github.com/marcogenualdo/classboard/internal/server"
	"github.com/marcogenualdo/classboard/internal/session"
	"github.com/marcogenualdo/classboard/internal/statestore"
	"github.com/marcogenualdo/classboard/internal/view"
)

const (
	version           = "1.0.0"
	defaultConfigPath = "/etc/classboard/config.yaml"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	configPathShort := flag.String("c", defaultConfigPath, "path to configuration file (short)")
	showVersion := flag.Bool("version", false, "show version and exit")
	showHelp := flag.Bool("help", false, "show help and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Classboard v%s\n", version)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Println("Classboard - a Google Classroom dashboard")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfgPath := *configPath
	if *configPathShort != defaultConfigPath {
		cfgPath = *configPathShort
	}

	if err := run(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.Info("starting classboard", "version", version)

	clock := clockwork.NewRealClock()

	store, err := statestore.New(cfg.Cache, cfg.OAuth.StateTTL, clock)
	if err != nil {
		return fmt.Errorf("failed to create credential store: %w", err)
	}
	logger.Info("credential store initialized", "type", cfg.Cache.Type, "ttl", cfg.OAuth.StateTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	oauth, err := auth.New(ctx, cfg.OAuth, strings.TrimSuffix(cfg.Server.BaseURL, "/")+"/oauth/callback", store, clock, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create oauth client: %w", err)
	}
	logger.Info("oauth client initialized", "issuer", cfg.OAuth.Issuer, "verify_id_token", cfg.OAuth.VerifyIDToken)

	key, err := cfg.SessionKey()
	if err != nil {
		store.Close()
		return err
	}
	codec, err := session.NewCodec(key, cfg.Server, clock)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create session codec: %w", err)
	}

	renderer, err := view.New()
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to load templates: %w", err)
	}

	deps := server.Deps{
		Store:    store,
		OAuth:    oauth,
		Codec:    codec,
		Engine:   dashboard.NewEngine(cfg.Classroom, logger),
		Clients:  classroom.NewFactory(&http.Client{Timeout: cfg.Classroom.Timeout}, cfg.Classroom.Endpoint),
		Renderer: renderer,
	}

	srv, err := server.New(*cfg, deps, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), nil
}
