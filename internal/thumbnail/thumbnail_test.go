package thumbnail

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SampleTimestamp_WithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	durations := []float64{2.01, 3, 5, 15.7, 120}
	for _, duration := range durations {
		for i := 0; i < 1000; i++ {
			ts, err := sampleTimestamp(rng, duration)
			require.NoError(t, err)
			assert.Greater(t, ts, 1.0, "timestamp must exclude the first second (duration %.2f)", duration)
			assert.Less(t, ts, duration-1, "timestamp must exclude the last second (duration %.2f)", duration)
		}
	}
}

func Test_SampleTimestamp_ShortClipRejected(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, duration := range []float64{0, 1, 1.5, 2} {
		_, err := sampleTimestamp(rng, duration)
		assert.Error(t, err, "duration %.2f leaves no valid sampling window", duration)
	}
}

func Test_Generate_ShortClipRaisesThumbnailError(t *testing.T) {
	// A nonexistent video fails at the probe step, which must still be
	// reported as a ThumbnailError.
	generator := New("nonexistent.ttf")

	err := generator.Generate(context.Background(), "does-not-exist.mp4", "out.jpg", "WATCH NOW!")
	require.Error(t, err)

	var thumbErr *ThumbnailError
	assert.ErrorAs(t, err, &thumbErr)
	assert.Equal(t, "does-not-exist.mp4", thumbErr.Video)
}
