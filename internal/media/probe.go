// Package media holds the ffprobe helpers shared by the editing and
// thumbnailing stages.
package media

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Metadata describes the stream properties the pipeline cares about.
type Metadata struct {
	Duration float64
	Width    int
	Height   int
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe extracts duration and dimensions for the first video stream of
// the file at path using ffprobe.
func Probe(path string) (*Metadata, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to probe %s", path)
	}

	var decoded probeOutput
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode ffprobe output")
	}

	var videoStream *probeStream
	for i := range decoded.Streams {
		if decoded.Streams[i].CodecType == "video" {
			videoStream = &decoded.Streams[i]
			break
		}
	}

	if videoStream == nil {
		return nil, errors.Errorf("no video stream found in %s", path)
	}

	duration := parseSeconds(videoStream.Duration)
	if duration == 0 {
		duration = parseSeconds(decoded.Format.Duration)
	}
	if duration == 0 {
		return nil, errors.Errorf("could not determine duration of %s", path)
	}

	return &Metadata{
		Duration: duration,
		Width:    videoStream.Width,
		Height:   videoStream.Height,
	}, nil
}

func parseSeconds(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return parsed
}
