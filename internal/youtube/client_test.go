package youtube

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	ytapi "google.golang.org/api/youtube/v3"
)

func Test_BuildDescription(t *testing.T) {
	tests := []struct {
		summary string
		meta    Metadata
		want    string
	}{
		{
			summary: "simple niche",
			meta:    Metadata{Description: "Amazing fitness tips you need to try!", Niche: "fitness"},
			want:    "Amazing fitness tips you need to try!\n\n#Shorts #Viral #Trending\n#fitness",
		},
		{
			summary: "niche with spaces collapses into one hashtag",
			meta:    Metadata{Description: "desc", Niche: "home decor"},
			want:    "desc\n\n#Shorts #Viral #Trending\n#homedecor",
		},
		{
			summary: "missing niche falls back to content",
			meta:    Metadata{Description: "desc"},
			want:    "desc\n\n#Shorts #Viral #Trending\n#content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDescription(tt.meta))
		})
	}
}

func Test_UploadError_Phases(t *testing.T) {
	cause := errors.New("token revoked")
	err := error(&UploadError{Phase: PhaseAuth, Err: cause})

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, PhaseAuth, uploadErr.Phase)
	assert.Empty(t, uploadErr.VideoID)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "auth phase")
}

func Test_UploadError_ThumbnailPhaseCarriesVideoID(t *testing.T) {
	err := error(&UploadError{Phase: PhaseThumbnail, VideoID: "vid42", Err: errors.New("set failed")})

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "vid42", uploadErr.VideoID, "thumbnail-phase failures must surface the created video")
	assert.Contains(t, err.Error(), "vid42")
}

func Test_Upload_AuthFailure(t *testing.T) {
	client := New("id", "secret", "refresh")
	client.newService = func(_ context.Context, _ oauth2.TokenSource) (*ytapi.Service, error) {
		return nil, errors.New("service construction failed")
	}

	_, err := client.Upload(context.Background(), "video.mp4", Metadata{Niche: "fitness"}, "thumb.jpg")
	require.Error(t, err)

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, PhaseAuth, uploadErr.Phase)
}
