// Package pexels acquires stock footage from the Pexels video search
// API: it queries for portrait clips near a target duration, picks a
// candidate at random and downloads the binary with bounded retries.
package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"shortforge/pkg/logger"
)

const (
	searchEndpoint = "https://api.pexels.com/videos/search"
	userAgent      = "ShortForge/1.0"

	maxCandidates    = 20
	downloadAttempts = 3
	attemptTimeout   = 10 * time.Second
)

// ErrNoResults indicates the search returned zero candidates for the
// query. It is permanent for the run; no download is attempted.
var ErrNoResults = errors.New("no videos found matching criteria")

// DownloadError is raised when footage acquisition fails, either
// because the search produced nothing usable or because the binary
// transfer exhausted its retries.
type DownloadError struct {
	Query string
	URL   string
	Err   error
}

func (e *DownloadError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("download for query %q failed: %s", e.Query, e.Err)
	}
	return fmt.Sprintf("video search for query %q failed: %s", e.Query, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

type video struct {
	ID         int         `json:"id"`
	Duration   int         `json:"duration"`
	VideoFiles []videoFile `json:"video_files"`
}

type videoFile struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

type searchResponse struct {
	Videos []video `json:"videos"`
}

// Client talks to the Pexels video API. The zero value is not usable;
// construct with New.
type Client struct {
	apiKey     string
	contentDir string
	httpClient *http.Client
	rng        *rand.Rand
	log        logger.Logger

	// searchOverride redirects search calls to a test server.
	searchOverride string
}

func New(apiKey string, contentDir string) *Client {
	return &Client{
		apiKey:     apiKey,
		contentDir: contentDir,
		httpClient: &http.Client{Timeout: attemptTimeout},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		log:        logger.Get("Pexels"),
	}
}

// Fetch searches for portrait clips matching the query within
// targetDuration +/- 2 seconds, selects one candidate uniformly at
// random and downloads it to the content directory. The returned path
// embeds both the provider's asset id and the caller's run id so
// concurrent runs cannot collide on disk.
func (client *Client) Fetch(ctx context.Context, query string, targetDuration int, runID string) (string, error) {
	candidates, err := client.search(ctx, query, targetDuration)
	if err != nil {
		return "", &DownloadError{Query: query, Err: err}
	}

	if len(candidates) == 0 {
		return "", &DownloadError{Query: query, Err: ErrNoResults}
	}

	selected := candidates[client.rng.Intn(len(candidates))]
	if len(selected.VideoFiles) == 0 {
		return "", &DownloadError{Query: query, Err: fmt.Errorf("candidate %d has no downloadable files", selected.ID)}
	}

	link := selected.VideoFiles[0].Link
	dest := filepath.Join(client.contentDir, fmt.Sprintf("pexels_%d_%s.mp4", selected.ID, runID))
	if err := client.download(ctx, link, dest); err != nil {
		return "", &DownloadError{Query: query, URL: link, Err: err}
	}

	client.log.Emit(logger.INFO, "downloaded asset %d for query %q to %s\n", selected.ID, query, dest)
	return dest, nil
}

func (client *Client) search(ctx context.Context, query string, targetDuration int) ([]video, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", "portrait")
	params.Set("per_page", strconv.Itoa(maxCandidates))
	params.Set("min_duration", strconv.Itoa(targetDuration-2))
	params.Set("max_duration", strconv.Itoa(targetDuration+2))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.searchURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", client.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %s", resp.Status)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return decoded.Videos, nil
}

// download fetches the binary at link in to dest, making up to
// downloadAttempts attempts before giving up. Each failed attempt is
// logged as a warning; the terminal error names the URL.
func (client *Client) download(ctx context.Context, link string, dest string) error {
	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		if err := client.attemptDownload(ctx, link, dest); err != nil {
			lastErr = err
			client.log.Emit(logger.WARNING, "download attempt %d/%d failed: %s\n", attempt, downloadAttempts, err)
			continue
		}

		return nil
	}

	return fmt.Errorf("failed to download %s after %d attempts: %w", link, downloadAttempts, lastErr)
}

func (client *Client) attemptDownload(ctx context.Context, link string, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}

	return out.Close()
}

// searchURL exists so tests can point the client at a local server.
func (client *Client) searchURL() string {
	if client.searchOverride != "" {
		return client.searchOverride
	}
	return searchEndpoint
}
