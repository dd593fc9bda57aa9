package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tunepipe/internal/core"
)

// HostedTier pulls media from a hosted conversion API. The audio endpoint
// streams the file directly; the video endpoint answers with a JSON body
// pointing at the actual download URL. Every failure here is recoverable by
// the next tier, so the only Fatal outcome is context cancellation.
type HostedTier struct {
	client       *http.Client
	audioBase    string
	videoBase    string
	downloadsDir string
	logger       *zap.Logger
}

func NewHostedTier(cfg *core.AcquireConfig, logger *zap.Logger) *HostedTier {
	return &HostedTier{
		client:       &http.Client{Timeout: cfg.ExtractorTimeout},
		audioBase:    cfg.AudioAPIURL,
		videoBase:    cfg.VideoAPIURL,
		downloadsDir: cfg.DownloadsDir,
		logger:       logger,
	}
}

func (t *HostedTier) Name() string { return "hosted-api" }

func (t *HostedTier) Fetch(ctx context.Context, track *core.ResolvedTrack, wantVideo bool) Outcome {
	if wantVideo {
		return t.fetchVideo(ctx, track)
	}
	return t.fetchAudio(ctx, track)
}

func (t *HostedTier) fetchAudio(ctx context.Context, track *core.ResolvedTrack) Outcome {
	if t.audioBase == "" {
		return Outcome{Verdict: TryNext, Reason: "no audio endpoint configured"}
	}

	dest := filepath.Join(t.downloadsDir, track.ID+".mp3")
	if err := t.streamToFile(ctx, t.audioBase+track.ID, dest); err != nil {
		if ctx.Err() != nil {
			return Outcome{Verdict: Fatal, Reason: ctx.Err().Error()}
		}
		return Outcome{Verdict: TryNext, Reason: err.Error()}
	}
	return Outcome{Verdict: Success, Path: dest}
}

func (t *HostedTier) fetchVideo(ctx context.Context, track *core.ResolvedTrack) Outcome {
	if t.videoBase == "" {
		return Outcome{Verdict: TryNext, Reason: "no video endpoint configured"}
	}

	directURL, err := t.resolveVideoURL(ctx, track.ID)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Verdict: Fatal, Reason: ctx.Err().Error()}
		}
		return Outcome{Verdict: TryNext, Reason: err.Error()}
	}

	dest := filepath.Join(t.downloadsDir, track.ID+".mp4")
	if err := t.streamToFile(ctx, directURL, dest); err != nil {
		if ctx.Err() != nil {
			return Outcome{Verdict: Fatal, Reason: ctx.Err().Error()}
		}
		return Outcome{Verdict: TryNext, Reason: err.Error()}
	}
	return Outcome{Verdict: Success, Path: dest}
}

// resolveVideoURL asks the video endpoint for the direct download URL.
func (t *HostedTier) resolveVideoURL(ctx context.Context, videoID string) (string, error) {
	reqURL := fmt.Sprintf("%s%s&format=4k", t.videoBase, videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video endpoint status %d", resp.StatusCode)
	}

	var payload struct {
		DownloadURL string `json:"download_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding video endpoint response: %w", err)
	}
	if payload.DownloadURL == "" {
		return "", fmt.Errorf("video endpoint returned no download URL")
	}
	return payload.DownloadURL, nil
}

// streamToFile downloads url into dest, removing the partial file on error.
func (t *HostedTier) streamToFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("streaming to %s: %w", dest, err)
	}
	return out.Close()
}
