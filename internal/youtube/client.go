// Package youtube publishes finished clips: it builds short-lived
// credentials from a long-lived refresh token, performs a resumable
// upload of the video plus metadata and then attaches the thumbnail
// with a second, independent API call.
package youtube

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"shortforge/pkg/logger"
)

const (
	// Category 24 is "Entertainment".
	categoryID = "24"

	privacyStatus = "public"

	uploadChunkSize = 8 * 1024 * 1024
)

var defaultHashtags = []string{"#Shorts", "#Viral", "#Trending"}

// Phase identifies which step of the upload state machine an
// UploadError originated from.
type Phase string

const (
	PhaseAuth      Phase = "auth"
	PhaseCreate    Phase = "create"
	PhaseThumbnail Phase = "thumbnail"
)

// UploadError is raised for any failure while publishing. VideoID is
// populated once the video resource exists, so a thumbnail-phase
// failure surfaces the partially-published state to the caller rather
// than masking it.
type UploadError struct {
	Phase   Phase
	VideoID string
	Err     error
}

func (e *UploadError) Error() string {
	if e.VideoID != "" {
		return fmt.Sprintf("upload failed during %s phase (video %s created): %s", e.Phase, e.VideoID, e.Err)
	}
	return fmt.Sprintf("upload failed during %s phase: %s", e.Phase, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Metadata is the deterministic, per-run description of the video
// being published.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	Niche       string
}

// UploadResult reports the provider-assigned identifier and whether
// the thumbnail made it on to the created video.
type UploadResult struct {
	VideoID      string
	ThumbnailSet bool
}

// Client uploads to YouTube using the refresh-token OAuth flow. No
// access token is cached across runs; every upload re-authenticates.
type Client struct {
	clientID     string
	clientSecret string
	refreshToken string
	log          logger.Logger

	// newService is swapped by tests to avoid real API construction.
	newService func(context.Context, oauth2.TokenSource) (*ytapi.Service, error)
}

func New(clientID, clientSecret, refreshToken string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		log:          logger.Get("YouTube"),
		newService:   newYoutubeService,
	}
}

func newYoutubeService(ctx context.Context, source oauth2.TokenSource) (*ytapi.Service, error) {
	return ytapi.NewService(ctx, option.WithTokenSource(source))
}

// Upload walks the state machine unauthenticated -> authenticated ->
// uploading -> (completed | failed). The video is created via a
// resumable chunked transfer whose fractional progress is logged; the
// thumbnail is attached afterwards as its own call.
func (client *Client) Upload(ctx context.Context, videoPath string, meta Metadata, thumbnailPath string) (*UploadResult, error) {
	service, err := client.authenticate(ctx)
	if err != nil {
		return nil, &UploadError{Phase: PhaseAuth, Err: err}
	}

	videoID, err := client.createVideo(ctx, service, videoPath, meta)
	if err != nil {
		return nil, &UploadError{Phase: PhaseCreate, Err: err}
	}
	client.log.Emit(logger.SUCCESS, "video created with id %s\n", videoID)

	if thumbnailPath != "" {
		if err := client.attachThumbnail(ctx, service, videoID, thumbnailPath); err != nil {
			return nil, &UploadError{Phase: PhaseThumbnail, VideoID: videoID, Err: err}
		}
	}

	return &UploadResult{VideoID: videoID, ThumbnailSet: thumbnailPath != ""}, nil
}

func (client *Client) authenticate(ctx context.Context) (*ytapi.Service, error) {
	conf := &oauth2.Config{
		ClientID:     client.clientID,
		ClientSecret: client.clientSecret,
		Endpoint:     google.Endpoint,
	}

	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: client.refreshToken})
	service, err := client.newService(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to construct youtube service: %w", err)
	}

	return service, nil
}

func (client *Client) createVideo(ctx context.Context, service *ytapi.Service, videoPath string, meta Metadata) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video for upload: %w", err)
	}
	defer file.Close()

	body := &ytapi.Video{
		Snippet: &ytapi.VideoSnippet{
			Title:       meta.Title,
			Description: buildDescription(meta),
			CategoryId:  categoryID,
			Tags:        meta.Tags,
		},
		Status: &ytapi.VideoStatus{
			PrivacyStatus:           privacyStatus,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, body).
		Media(file, googleapi.ChunkSize(uploadChunkSize)).
		ProgressUpdater(func(current, total int64) {
			if total > 0 {
				client.log.Emit(logger.INFO, "upload progress: %d%%\n", current*100/total)
			}
		}).
		Context(ctx)

	created, err := call.Do()
	if err != nil {
		return "", err
	}

	return created.Id, nil
}

func (client *Client) attachThumbnail(ctx context.Context, service *ytapi.Service, videoID string, thumbnailPath string) error {
	file, err := os.Open(thumbnailPath)
	if err != nil {
		return fmt.Errorf("failed to open thumbnail: %w", err)
	}
	defer file.Close()

	if _, err := service.Thumbnails.Set(videoID).Media(file).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to set thumbnail: %w", err)
	}

	return nil
}

// buildDescription joins the free-text description with the fixed
// hashtag list and a hashtag derived from the niche itself.
func buildDescription(meta Metadata) string {
	niche := meta.Niche
	if niche == "" {
		niche = "content"
	}

	return strings.Join([]string{
		meta.Description,
		"",
		strings.Join(defaultHashtags, " "),
		"#" + strings.ReplaceAll(niche, " ", ""),
	}, "\n")
}
