package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/pressline/internal/cdn"
	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/content"
	"git.home.luguber.info/inful/pressline/internal/daemon"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/pipeline"
	"git.home.luguber.info/inful/pressline/internal/sitebuild"
	"git.home.luguber.info/inful/pressline/internal/storage"
	"git.home.luguber.info/inful/pressline/internal/thumbnail"
	"git.home.luguber.info/inful/pressline/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pressline.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run struct {
		Draft     bool `help:"Publish the generated articles as drafts"`
		BuildOnly bool `help:"Skip content generation and only rebuild the site"`
	} `cmd:"" help:"Execute one publishing run and exit"`

	Daemon struct{} `cmd:"" help:"Run continuously with schedules, config watching and the admin API"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Invalidate struct{} `cmd:"" help:"Submit a full-path CDN invalidation without running the pipeline"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Vars{"version": version.String()})

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	var err error
	switch ctx.Command() {
	case "run":
		err = runRun(logger)
	case "daemon":
		err = runDaemon(logger)
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "invalidate":
		err = runInvalidate(logger)
	}
	if err != nil {
		// HandleError logs, prints to stderr and exits with the category code.
		perrors.NewCLIErrorAdapter(CLI.Verbose, logger).HandleError(err)
	}
}

// loadConfig loads the configured file, classifying failures so the CLI
// adapter exits with the configuration error code.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, perrors.WrapError(err, perrors.CategoryConfig, "failed to load configuration")
	}
	return cfg, nil
}

func runRun(logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	langs, err := content.ParseLangs(cfg.Content.Languages)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close content store", "error", err)
		}
	}()

	tools := sitebuild.NewToolCache(cfg.Build, logger)
	deps := pipeline.Deps{
		Generator: content.NewGenerator(store, content.DigestSource{}, cfg.Content.Root, logger),
		Renderer:  thumbnail.NewRenderer(store, cfg.Content, logger),
		Builder:   sitebuild.NewBuilder(store, tools, cfg.Site, cfg.Build, cfg.Content.Root, logger),
		Langs:     langs,
		Logger:    logger,
		Triggers:  cfg.Triggers,
	}
	if cfg.CDN.Enabled {
		deps.Invalidator = cdn.NewHTTPInvalidator(cfg.CDN, logger)
		deps.DistributionID = cfg.CDN.DistributionID
	}

	orch, err := pipeline.NewOrchestrator(deps)
	if err != nil {
		return err
	}

	slog.Info("Starting publishing run",
		"draft", CLI.Run.Draft,
		"build_only", CLI.Run.BuildOnly,
		"languages", len(langs))

	view, err := orch.Execute(ctx, pipeline.RunRequest{
		Kind:        pipeline.KindManual,
		TriggeredAt: time.Now(),
		IsDraft:     CLI.Run.Draft,
		BuildOnly:   CLI.Run.BuildOnly,
	})
	if err != nil {
		return err
	}

	for _, b := range view.Branches {
		if b.Succeeded {
			slog.Info("Branch published",
				"lang", b.Lang,
				"content_key", b.ContentKey,
				"words", b.WordCount)
		} else {
			slog.Warn("Branch failed",
				"lang", b.Lang,
				"stage", b.FailedStage,
				"error", b.Error)
		}
	}
	if view.Artifact != nil {
		slog.Info("Site built",
			"location", view.Artifact.Location,
			"tool_version", view.Artifact.ToolVersion,
			"duration_ms", view.Artifact.DurationMS)
	}
	if view.Invalidation != nil {
		slog.Info("Cache invalidated", "invalidation_id", view.Invalidation.InvalidationID)
	}

	slog.Info("Run completed", "run_id", view.ID, "status", string(view.Status))
	return nil
}

func runDaemon(logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.NewDaemon(cfg, logger)
	if err != nil {
		return err
	}

	slog.Info("Starting daemon mode", "config", CLI.Config)

	// Start blocks until a shutdown signal arrives or the admin server
	// fails, and runs graceful teardown before returning.
	return d.Start(ctx)
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", "path", configPath, "force", force)
	return config.Init(configPath, force)
}

func runInvalidate(logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.CDN.Enabled {
		return perrors.ConfigRequired("cdn.enabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	invalidator := cdn.NewHTTPInvalidator(cfg.CDN, logger)
	ack, err := invalidator.Invalidate(ctx, cfg.CDN.DistributionID, uuid.NewString())
	if err != nil {
		return err
	}

	slog.Info("Invalidation submitted",
		"invalidation_id", ack.InvalidationID,
		"caller_reference", ack.CallerReference)
	return nil
}
