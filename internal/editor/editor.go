// Package editor standardizes downloaded footage for vertical
// publishing: it reframes the clip to 1080x1920, overlays a stroked
// caption and optionally mixes a random background track underneath.
package editor

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"shortforge/internal/media"
	"shortforge/pkg/logger"
)

const (
	frameWidth  = 1080
	frameHeight = 1920

	captionFontSize    = 60
	captionBorderWidth = 2

	musicVolume = "0.3"
)

// ProcessingError is raised for any failure in the editing pipeline:
// corrupt input, missing font asset or encode failure. There is no
// partial-result recovery.
type ProcessingError struct {
	Input string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("video processing of %s failed: %s", e.Input, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Editor re-encodes clips with a fixed profile (libx264/aac, four
// threads, "fast" preset).
type Editor struct {
	fontPath string
	musicDir string
	rng      *rand.Rand
	log      logger.Logger
}

func New(fontPath string, musicDir string) *Editor {
	return &Editor{
		fontPath: fontPath,
		musicDir: musicDir,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      logger.Get("Editor"),
	}
}

// Process reads the clip at input and writes the standardized result
// to output. Encoding carries no caller-imposed timeout and relies on
// the underlying ffmpeg process to terminate.
func (e *Editor) Process(_ context.Context, input string, output string, caption string) error {
	meta, err := media.Probe(input)
	if err != nil {
		return &ProcessingError{Input: input, Err: err}
	}

	videoStream := ffmpeg.Input(input).Video().
		Filter("scale", ffmpeg.Args{fmt.Sprintf("-2:%d", frameHeight)}).
		Filter("crop", ffmpeg.Args{fmt.Sprintf("%d:%d:(in_w-%d)/2:0", frameWidth, frameHeight, frameWidth)}).
		Filter("drawtext", ffmpeg.Args{}, ffmpeg.KwArgs{
			"text":        escapeDrawtext(caption),
			"fontfile":    e.fontPath,
			"fontsize":    captionFontSize,
			"fontcolor":   "white",
			"bordercolor": "black",
			"borderw":     captionBorderWidth,
			"x":           "(w-text_w)/2",
			"y":           "(h-text_h)/2",
		})

	encodeArgs := ffmpeg.KwArgs{
		"c:v":     "libx264",
		"threads": 4,
		"preset":  "fast",
	}

	var out *ffmpeg.Stream
	if track := e.pickMusicTrack(); track != "" {
		e.log.Emit(logger.INFO, "mixing in background track %s\n", filepath.Base(track))
		audioStream := ffmpeg.Input(track).Audio().
			Filter("volume", ffmpeg.Args{musicVolume})

		encodeArgs["c:a"] = "aac"
		// Cap the output at the clip's own duration so a long track
		// cannot stretch the video.
		encodeArgs["t"] = meta.Duration
		out = ffmpeg.Output([]*ffmpeg.Stream{videoStream, audioStream}, output, encodeArgs)
	} else {
		out = videoStream.Output(output, encodeArgs)
	}

	if err := out.OverWriteOutput().Run(); err != nil {
		return &ProcessingError{Input: input, Err: err}
	}

	e.log.Emit(logger.INFO, "processed %s -> %s (%.1fs)\n", input, output, meta.Duration)
	return nil
}

// pickMusicTrack returns a random .mp3 from the music directory, or
// the empty string when the directory is absent or empty.
func (e *Editor) pickMusicTrack() string {
	if e.musicDir == "" {
		return ""
	}

	tracks, err := filepath.Glob(filepath.Join(e.musicDir, "*.mp3"))
	if err != nil || len(tracks) == 0 {
		return ""
	}

	return tracks[e.rng.Intn(len(tracks))]
}

// escapeDrawtext neutralises the characters the drawtext filter treats
// specially inside its text value.
func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}
