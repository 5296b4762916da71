// Package thumbnail renders an upload thumbnail from the finished
// clip: one frame sampled away from the clip's edges, with a stroked
// title painted over the centre.
package thumbnail

import (
	"context"
	"fmt"
	"image/jpeg"
	"math/rand"
	"os"
	"time"

	"github.com/fogleman/gg"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"shortforge/internal/media"
	"shortforge/pkg/logger"
)

const (
	titleFontPoints = 100
	jpegQuality     = 90

	// strokeOffset is the diagonal pixel offset used when painting the
	// title's outline; the text is painted once per corner offset in
	// black before the white fill goes on top.
	strokeOffset = 2
)

// ThumbnailError is raised when any step of thumbnail generation
// fails: probing, frame extraction, font loading or rendering.
type ThumbnailError struct {
	Video string
	Err   error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("thumbnail generation for %s failed: %s", e.Video, e.Err)
}

func (e *ThumbnailError) Unwrap() error { return e.Err }

type Generator struct {
	fontPath string
	rng      *rand.Rand
	log      logger.Logger
}

func New(fontPath string) *Generator {
	return &Generator{
		fontPath: fontPath,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      logger.Get("Thumbnail"),
	}
}

// Generate extracts one frame from the video at a random timestamp
// strictly inside (1, duration-1), paints the title over it and saves
// the result as a JPEG at output.
func (g *Generator) Generate(_ context.Context, video string, output string, title string) error {
	meta, err := media.Probe(video)
	if err != nil {
		return &ThumbnailError{Video: video, Err: err}
	}

	timestamp, err := sampleTimestamp(g.rng, meta.Duration)
	if err != nil {
		return &ThumbnailError{Video: video, Err: err}
	}

	framePath := output + ".frame.jpg"
	defer os.Remove(framePath)

	if err := extractFrame(video, framePath, timestamp); err != nil {
		return &ThumbnailError{Video: video, Err: err}
	}

	if err := g.renderTitle(framePath, output, title); err != nil {
		return &ThumbnailError{Video: video, Err: err}
	}

	g.log.Emit(logger.INFO, "generated thumbnail %s from frame at %.2fs\n", output, timestamp)
	return nil
}

// sampleTimestamp picks a uniformly random timestamp strictly within
// (1, duration-1). The first and last second are excluded to avoid
// black frames; clips of two seconds or less have no valid window and
// must be rejected rather than sampled.
func sampleTimestamp(rng *rand.Rand, duration float64) (float64, error) {
	if duration <= 2 {
		return 0, fmt.Errorf("clip duration %.2fs leaves no frame window to sample", duration)
	}

	fraction := rng.Float64()
	for fraction == 0 {
		fraction = rng.Float64()
	}

	return 1 + fraction*(duration-2), nil
}

func extractFrame(video string, dest string, timestamp float64) error {
	err := ffmpeg.Input(video, ffmpeg.KwArgs{"ss": timestamp}).
		Output(dest, ffmpeg.KwArgs{"frames:v": 1, "q:v": 2}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("failed to extract frame at %.2fs: %w", timestamp, err)
	}

	return nil
}

// renderTitle paints the title over the extracted frame with a cheap
// outlined-text effect: four black passes at diagonal offsets, then
// the white fill once on top.
func (g *Generator) renderTitle(framePath string, output string, title string) error {
	frame, err := gg.LoadImage(framePath)
	if err != nil {
		return fmt.Errorf("failed to load extracted frame: %w", err)
	}

	dc := gg.NewContextForImage(frame)
	if err := dc.LoadFontFace(g.fontPath, titleFontPoints); err != nil {
		return fmt.Errorf("failed to load font %s: %w", g.fontPath, err)
	}

	cx := float64(dc.Width()) / 2
	cy := float64(dc.Height()) / 2

	dc.SetRGB(0, 0, 0)
	for _, offset := range [][2]float64{{-strokeOffset, -strokeOffset}, {-strokeOffset, strokeOffset}, {strokeOffset, -strokeOffset}, {strokeOffset, strokeOffset}} {
		dc.DrawStringAnchored(title, cx+offset[0], cy+offset[1], 0.5, 0.5)
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(title, cx, cy, 0.5, 0.5)

	out, err := os.Create(output)
	if err != nil {
		return err
	}

	if err := jpeg.Encode(out, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return out.Close()
}
