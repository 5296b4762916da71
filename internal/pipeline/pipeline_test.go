package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortforge/internal/youtube"
)

type fakeDownloader struct {
	err   error
	calls int
	dir   string
}

func (f *fakeDownloader) Fetch(_ context.Context, _ string, _ int, runID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}

	path := filepath.Join(f.dir, "pexels_1_"+runID+".mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeEditor struct {
	err   error
	calls int
}

func (f *fakeEditor) Process(_ context.Context, _ string, output string, _ string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(output, []byte("processed"), 0o644)
}

type fakeThumbnailer struct {
	err   error
	calls int
}

func (f *fakeThumbnailer) Generate(_ context.Context, _ string, output string, _ string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(output, []byte("thumb"), 0o644)
}

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	result  *youtube.UploadResult
	calls   int
	meta    youtube.Metadata
	release chan struct{}
}

func (f *fakeUploader) Upload(_ context.Context, _ string, meta youtube.Metadata, _ string) (*youtube.UploadResult, error) {
	f.mu.Lock()
	f.calls++
	f.meta = meta
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeUploader) lastMeta() youtube.Metadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta
}

func newTestPipeline(t *testing.T, uploader *fakeUploader) (*Pipeline, *fakeDownloader, *fakeUploader) {
	t.Helper()

	tempDir := t.TempDir()
	downloader := &fakeDownloader{dir: tempDir}
	if uploader == nil {
		uploader = &fakeUploader{result: &youtube.UploadResult{VideoID: "abc123", ThumbnailSet: true}}
	}

	p := New(downloader, &fakeEditor{}, &fakeThumbnailer{}, uploader, tempDir, 15)
	return p, downloader, uploader
}

func Test_Run_Success(t *testing.T) {
	p, _, uploader := newTestPipeline(t, nil)

	videoID, err := p.Run(context.Background(), "fitness", "exercise motivation")
	require.NoError(t, err)
	assert.Equal(t, "abc123", videoID)
	assert.NotEmpty(t, videoID, "a successful run must never yield an empty id")
	assert.Equal(t, 1, uploader.callCount())
	assert.Equal(t, "5 Second Fitness Hacks! 🚀", uploader.lastMeta().Title)
}

func Test_Run_CleansUpIntermediates(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	_, err := p.Run(context.Background(), "fitness", "exercise motivation")
	require.NoError(t, err)

	leftovers, err := filepath.Glob(filepath.Join(p.tempDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "all intermediate files must be removed after a run")
}

func Test_Run_DownloadFailurePropagates(t *testing.T) {
	p, downloader, uploader := newTestPipeline(t, nil)
	downloader.err = errors.New("no videos found matching criteria")

	_, err := p.Run(context.Background(), "fitness", "exercise motivation")
	require.Error(t, err)
	assert.ErrorIs(t, err, downloader.err, "stage errors must propagate unchanged")
	assert.Zero(t, uploader.callCount(), "later stages must not run after a failure")
}

func Test_Run_UploadFailureSurfacesPartialState(t *testing.T) {
	uploadErr := &youtube.UploadError{Phase: youtube.PhaseThumbnail, VideoID: "vid42", Err: errors.New("boom")}
	p, _, _ := newTestPipeline(t, &fakeUploader{err: uploadErr})

	_, err := p.Run(context.Background(), "fitness", "exercise motivation")
	require.Error(t, err)

	var got *youtube.UploadError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, youtube.PhaseThumbnail, got.Phase)
	assert.Equal(t, "vid42", got.VideoID)
}

func Test_Run_SameNicheSerialized(t *testing.T) {
	release := make(chan struct{})
	uploader := &fakeUploader{result: &youtube.UploadResult{VideoID: "abc123"}, release: release}
	p, _, _ := newTestPipeline(t, uploader)

	first := make(chan struct{})
	go func() {
		defer close(first)
		_, _ = p.Run(context.Background(), "fitness", "exercise motivation")
	}()

	// Wait for the first run to reach the uploader and hold the lock.
	require.Eventually(t, func() bool { return uploader.callCount() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan struct{})
	go func() {
		defer close(second)
		_, _ = p.Run(context.Background(), "fitness", "exercise motivation")
	}()

	select {
	case <-second:
		t.Fatal("second run for the same niche completed while the first still held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-first
	<-second
	assert.Equal(t, 2, uploader.callCount())
}

func Test_CleanupIdempotent(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "processed_x.mp4")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))
	missing := filepath.Join(dir, "never_created.jpg")

	assert.NotPanics(t, func() {
		cleanupFiles(existing, missing)
		cleanupFiles(existing, missing)
	})

	_, err := os.Stat(existing)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func Test_BuildMetadata_Deterministic(t *testing.T) {
	meta := BuildMetadata("fitness")

	assert.Equal(t, "5 Second Fitness Hacks! 🚀", meta.Title)
	assert.Equal(t, "Amazing fitness tips you need to try!", meta.Description)
	assert.Contains(t, meta.Tags, "fitness")
	assert.Contains(t, meta.Tags, "shorts")
	assert.Contains(t, meta.Tags, "viral")
	assert.Equal(t, meta, BuildMetadata("fitness"))
}

func Test_CronSpec(t *testing.T) {
	tests := []struct {
		config NicheConfig
		want   string
	}{
		{NicheConfig{Niche: "fitness", Hour: 17, Minute: 0}, "0 17 * * *"},
		{NicheConfig{Niche: "cooking", Hour: 9, Minute: 30}, "30 9 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.config.Niche, func(t *testing.T) {
			spec := cronSpec(tt.config)
			assert.Equal(t, tt.want, spec)

			_, err := cron.ParseStandard(spec)
			assert.NoError(t, err, "derived spec must be a valid cron expression")
		})
	}
}

func Test_Schedule_RegistersAllNiches(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	err := p.Schedule([]NicheConfig{
		{Niche: "fitness", Query: "exercise motivation", Hour: 17, Minute: 0},
		{Niche: "cooking", Query: "kitchen hacks", Hour: 9, Minute: 30},
	})
	require.NoError(t, err)
	assert.Len(t, p.cron.Entries(), 2)
}
