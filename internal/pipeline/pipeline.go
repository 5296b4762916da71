// Package pipeline sequences one content run — download, edit,
// thumbnail, metadata assembly, upload, cleanup — and schedules the
// sequence recurrently per niche.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"shortforge/internal/youtube"
	"shortforge/pkg/logger"
)

var log = logger.Get("Pipeline")

const (
	captionText = "5 SECONDS HACKS! 🚀"
	titleText   = "WATCH NOW!"
)

// NicheConfig drives one recurring upload: a content category, the
// stock-footage query for it and the daily firing time.
type NicheConfig struct {
	Niche  string
	Query  string
	Hour   int
	Minute int
}

// Downloader fetches stock footage matching a query and returns the
// path of the downloaded asset.
type Downloader interface {
	Fetch(ctx context.Context, query string, targetDuration int, runID string) (string, error)
}

// Editor standardizes a clip and overlays the caption.
type Editor interface {
	Process(ctx context.Context, input string, output string, caption string) error
}

// Thumbnailer renders the upload thumbnail from the finished clip.
type Thumbnailer interface {
	Generate(ctx context.Context, video string, output string, title string) error
}

// Uploader publishes the video plus metadata and thumbnail.
type Uploader interface {
	Upload(ctx context.Context, videoPath string, meta youtube.Metadata, thumbnailPath string) (*youtube.UploadResult, error)
}

// Pipeline owns the stage collaborators and the recurring-job runner.
// Runs for the same niche are serialized behind a per-niche lock;
// runs for different niches are independent.
type Pipeline struct {
	downloader     Downloader
	editor         Editor
	thumbnailer    Thumbnailer
	uploader       Uploader
	tempDir        string
	targetDuration int

	cron *cron.Cron

	mu         sync.Mutex
	nicheLocks map[string]*sync.Mutex
}

func New(downloader Downloader, editor Editor, thumbnailer Thumbnailer, uploader Uploader, tempDir string, targetDuration int) *Pipeline {
	return &Pipeline{
		downloader:     downloader,
		editor:         editor,
		thumbnailer:    thumbnailer,
		uploader:       uploader,
		tempDir:        tempDir,
		targetDuration: targetDuration,
		cron:           cron.New(),
		nicheLocks:     make(map[string]*sync.Mutex),
	}
}

// Run executes one complete content run for the niche and returns the
// provider-assigned video id. Every stage failure is logged with
// context and returned unchanged; the three intermediate files are
// removed best-effort regardless of outcome.
func (p *Pipeline) Run(ctx context.Context, niche string, query string) (string, error) {
	lock := p.lockFor(niche)
	lock.Lock()
	defer lock.Unlock()

	runID := newRunID()
	log.Emit(logger.INFO, "starting run %s for niche %q\n", runID, niche)

	downloadPath, err := p.downloader.Fetch(ctx, query, p.targetDuration, runID)
	if err != nil {
		log.Emit(logger.ERROR, "run %s: %s\n", runID, err)
		return "", err
	}

	processedPath := filepath.Join(p.tempDir, fmt.Sprintf("processed_%s.mp4", runID))
	thumbnailPath := filepath.Join(p.tempDir, fmt.Sprintf("thumbnail_%s.jpg", runID))
	defer cleanupFiles(downloadPath, processedPath, thumbnailPath)

	if err := p.editor.Process(ctx, downloadPath, processedPath, captionText); err != nil {
		log.Emit(logger.ERROR, "run %s: %s\n", runID, err)
		return "", err
	}

	if err := p.thumbnailer.Generate(ctx, processedPath, thumbnailPath, titleText); err != nil {
		log.Emit(logger.ERROR, "run %s: %s\n", runID, err)
		return "", err
	}

	meta := BuildMetadata(niche)
	result, err := p.uploader.Upload(ctx, processedPath, meta, thumbnailPath)
	if err != nil {
		var uploadErr *youtube.UploadError
		if errors.As(err, &uploadErr) && uploadErr.VideoID != "" {
			log.Emit(logger.WARNING, "run %s: video %s exists without its thumbnail\n", runID, uploadErr.VideoID)
		}
		log.Emit(logger.ERROR, "run %s: %s\n", runID, err)
		return "", err
	}

	log.Emit(logger.SUCCESS, "run %s uploaded video %s\n", runID, result.VideoID)
	return result.VideoID, nil
}

// Schedule registers one recurring daily trigger per niche config.
// The scheduler does not fire until Start is called.
func (p *Pipeline) Schedule(configs []NicheConfig) error {
	for _, config := range configs {
		config := config
		if _, err := p.cron.AddFunc(cronSpec(config), func() {
			if _, err := p.Run(context.Background(), config.Niche, config.Query); err != nil {
				log.Emit(logger.ERROR, "scheduled run for niche %q failed: %s\n", config.Niche, err)
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule niche %q: %w", config.Niche, err)
		}

		log.Emit(logger.INFO, "scheduled niche %q daily at %02d:%02d\n", config.Niche, config.Hour, config.Minute)
	}

	return nil
}

func (p *Pipeline) Start() {
	p.cron.Start()
}

// Stop halts the scheduler and waits for any in-flight run to finish.
func (p *Pipeline) Stop() {
	<-p.cron.Stop().Done()
}

func (p *Pipeline) lockFor(niche string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.nicheLocks[niche]
	if !ok {
		lock = &sync.Mutex{}
		p.nicheLocks[niche] = lock
	}

	return lock
}

func newRunID() string {
	return uuid.NewString()[:8]
}

func cronSpec(config NicheConfig) string {
	return fmt.Sprintf("%d %d * * *", config.Minute, config.Hour)
}

// cleanupFiles removes the run's intermediate files, tolerating files
// that were never created or are already gone. Safe to call twice.
func cleanupFiles(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Emit(logger.WARNING, "failed to remove intermediate file %s: %s\n", path, err)
		}
	}
}
