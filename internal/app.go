package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"shortforge/internal/editor"
	"shortforge/internal/pexels"
	"shortforge/internal/pipeline"
	"shortforge/internal/thumbnail"
	"shortforge/internal/youtube"
	"shortforge/pkg/logger"
)

var log = logger.Get("Core")

const logFileName = "shortforge.log"

// App is the top-level object for the automation machine. It owns the
// working directories, the log file sink and the wired pipeline, and
// is constructed exactly once at startup then passed by reference.
type App struct {
	config   Config
	pipeline *pipeline.Pipeline
}

func New(config Config) (*App, error) {
	for _, dir := range []string{config.ContentDirPath, config.TempDirPath, config.LogDirPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := logger.Log.SetFileSink(filepath.Join(config.LogDirPath, logFileName)); err != nil {
		return nil, err
	}

	musicDir := filepath.Join(config.ContentDirPath, "music")

	app := &App{
		config: config,
		pipeline: pipeline.New(
			pexels.New(config.PexelsAPIKey, config.ContentDirPath),
			editor.New(config.FontPath, musicDir),
			thumbnail.New(config.FontPath),
			youtube.New(config.YoutubeClientID, config.YoutubeClientSecret, config.YoutubeRefreshToken),
			config.TempDirPath,
			config.TargetDuration,
		),
	}

	return app, nil
}

// Run registers the niche schedules and starts the background job
// runner. It does not return until the provided context is cancelled,
// at which point the scheduler is drained before returning.
func (app *App) Run(parent context.Context, niches []pipeline.NicheConfig) error {
	if err := app.pipeline.Schedule(niches); err != nil {
		return err
	}

	app.pipeline.Start()
	log.Emit(logger.INFO, "scheduler started with %d niche(s)\n", len(niches))

	<-parent.Done()

	log.Emit(logger.INFO, "shutting down scheduler\n")
	app.pipeline.Stop()
	logger.Log.Close()

	return nil
}

// RunOnce executes a single pipeline pass for the niche, bypassing
// the scheduler.
func (app *App) RunOnce(ctx context.Context, niche pipeline.NicheConfig) (string, error) {
	return app.pipeline.Run(ctx, niche.Niche, niche.Query)
}
