package sitebuild

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"git.home.luguber.info/inful/pressline/internal/config"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/storage"
)

// Builder runs the external site tool over the exported content tree.
type Builder struct {
	store       storage.ObjectStore
	tool        ToolResolver
	site        config.SiteConfig
	build       config.BuildConfig
	contentRoot string
	logger      *slog.Logger
}

func NewBuilder(store storage.ObjectStore, tool ToolResolver, site config.SiteConfig, build config.BuildConfig, contentRoot string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		store:       store,
		tool:        tool,
		site:        site,
		build:       build,
		contentRoot: contentRoot,
		logger:      logger,
	}
}

// Build exports the full content tree from storage, resolves the tool and
// invokes it under the configured wall-clock timeout, then verifies the
// artifact. The artifact is returned for every outcome; a non-nil error says
// why Success is false. A failed build is not retried within the run.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (BuildArtifact, error) {
	start := time.Now()
	artifact := BuildArtifact{ToolVersion: b.build.ToolVersion}
	fail := func(err error) (BuildArtifact, error) {
		artifact.Duration = time.Since(start)
		return artifact, err
	}

	siteDir := filepath.Join(b.build.Root, "site")
	contentDir := filepath.Join(siteDir, "content")
	destDir := filepath.Join(b.build.Root, b.build.BuildID)

	count, err := exportTree(ctx, b.store, b.contentRoot, contentDir)
	if err != nil {
		return fail(perrors.BuildFailed("export", err))
	}

	binPath, err := b.tool.Ensure(ctx, b.build.ToolVersion)
	if err != nil {
		return fail(perrors.BuildFailed("tool", err))
	}

	logPath, logFile, err := b.openLog(req.RunID)
	if err != nil {
		return fail(perrors.BuildFailed("log", err))
	}
	artifact.LogRef = logPath

	// Stale output from an earlier run must not leak into this artifact.
	if err := os.RemoveAll(destDir); err != nil {
		_ = logFile.Close()
		return fail(perrors.BuildFailed("prepare", err))
	}

	buildCtx, cancel := context.WithTimeout(ctx, b.build.TimeoutDuration())
	defer cancel()

	args := []string{"--source", siteDir, "--destination", destDir}
	if req.IsDraft {
		args = append(args, "--drafts")
	}
	cmd := exec.CommandContext(buildCtx, binPath, args...)
	cmd.Env = append(os.Environ(),
		EnvBaseURL+"="+b.site.BaseURL,
		EnvEnvironment+"="+string(b.site.Environment),
		EnvCommentsEnabled+"="+strconv.FormatBool(b.site.CommentsEnabled),
		EnvAnalyticsID+"="+b.site.AnalyticsID,
	)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	b.logger.Info("build started",
		logfields.RunID(req.RunID),
		logfields.ToolVersion(b.build.ToolVersion),
		slog.Int("content_files", count),
		slog.Bool("drafts", req.IsDraft),
	)

	runErr := cmd.Run()
	closeErr := logFile.Close()
	artifact.Duration = time.Since(start)

	if errors.Is(buildCtx.Err(), context.DeadlineExceeded) {
		return artifact, perrors.BuildTimeout(buildCtx.Err())
	}
	if runErr != nil {
		return artifact, perrors.BuildFailed("execute", runErr)
	}
	if closeErr != nil {
		return artifact, perrors.BuildFailed("log", closeErr)
	}

	if err := VerifyArtifact(destDir); err != nil {
		return artifact, err
	}

	artifact.Success = true
	artifact.ArtifactLocation = destDir
	b.logger.Info("build succeeded",
		logfields.RunID(req.RunID),
		logfields.Path(destDir),
		logfields.DurationMS(float64(artifact.Duration.Milliseconds())),
	)
	return artifact, nil
}

func (b *Builder) openLog(runID string) (string, *os.File, error) {
	logDir := filepath.Join(b.build.Root, "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return "", nil, err
	}
	logPath := filepath.Join(logDir, runID+".log")
	f, err := os.Create(filepath.Clean(logPath))
	if err != nil {
		return "", nil, err
	}
	return logPath, f, nil
}
