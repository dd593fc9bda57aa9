package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tunepipe/internal/core"
)

const (
	videoFormat = "bestvideo[ext=mp4][height<=1080]+bestaudio[ext=m4a]/best[ext=mp4][height<=1080]"
	audioFormat = "bestaudio[ext=m4a]/bestaudio[ext=mp4]/bestaudio/best"
)

// Request describes one extractor invocation.
type Request struct {
	VideoID             string
	Video               bool
	OutputDir           string
	Proxy               string
	CookieFile          string
	Retries             int
	FragmentConcurrency int
	SocketTimeoutSecs   int
	ThrottledRate       string
}

// Args builds the extractor command line. The final --print directive makes
// the process emit the moved file's path on stdout, which is the only
// reliable way to learn where the file ended up.
func (r Request) Args() []string {
	format := audioFormat
	if r.Video {
		format = videoFormat
	}

	args := []string{
		"--no-warnings",
		"--quiet",
		"--geo-bypass",
		"--retries", strconv.Itoa(r.Retries),
		"--continue",
		"--no-part",
		"--concurrent-fragments", strconv.Itoa(r.FragmentConcurrency),
		"--socket-timeout", strconv.Itoa(r.SocketTimeoutSecs),
		"-o", filepath.Join(r.OutputDir, "%(id)s.%(ext)s"),
		"--no-write-thumbnail",
		"--no-write-info-json",
		"--no-embed-metadata",
		"--no-embed-chapters",
		"--no-embed-subs",
		"--throttled-rate", r.ThrottledRate,
		"--retry-sleep", "1",
		"-f", format,
	}

	switch {
	case r.Proxy != "":
		args = append(args, "--proxy", r.Proxy)
	case r.CookieFile != "":
		args = append(args, "--cookies", r.CookieFile)
	}

	args = append(args, core.WatchURL(r.VideoID), "--print", "after_move:filepath")
	return args
}

// Response is the raw result of an extractor run.
type Response struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// FilePath returns the produced file's path. An exit code of zero with an
// empty stdout still counts as failure: without the printed path there is
// no file to hand back.
func (r Response) FilePath() (string, bool) {
	if r.ExitCode != 0 {
		return "", false
	}
	path := strings.TrimSpace(r.Stdout)
	if path == "" {
		return "", false
	}
	return path, true
}

// Runner executes one extractor invocation.
type Runner interface {
	Run(ctx context.Context, req Request) (Response, error)
}

type execRunner struct {
	binary string
}

func (e *execRunner) Run(ctx context.Context, req Request) (Response, error) {
	cmd := exec.CommandContext(ctx, e.binary, req.Args()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	resp := Response{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			resp.ExitCode = exitErr.ExitCode()
			return resp, nil
		}
		return resp, err
	}
	return resp, nil
}

// ExtractorTier shells out to the extractor binary as the last-resort
// acquisition path. A proxy takes precedence over credentials; the two are
// never combined because authenticated traffic through a shared proxy gets
// the account flagged.
type ExtractorTier struct {
	runner Runner
	cfg    *core.AcquireConfig
	creds  CredentialSource
	logger *zap.Logger
}

func NewExtractorTier(cfg *core.AcquireConfig, creds CredentialSource, logger *zap.Logger) *ExtractorTier {
	return &ExtractorTier{
		runner: &execRunner{binary: cfg.ExtractorPath},
		cfg:    cfg,
		creds:  creds,
		logger: logger,
	}
}

// NewExtractorTierWithRunner is the test constructor.
func NewExtractorTierWithRunner(runner Runner, cfg *core.AcquireConfig, creds CredentialSource, logger *zap.Logger) *ExtractorTier {
	return &ExtractorTier{runner: runner, cfg: cfg, creds: creds, logger: logger}
}

func (t *ExtractorTier) Name() string { return "extractor" }

func (t *ExtractorTier) Fetch(ctx context.Context, track *core.ResolvedTrack, wantVideo bool) Outcome {
	req := Request{
		VideoID:             track.ID,
		Video:               wantVideo,
		OutputDir:           t.cfg.DownloadsDir,
		Proxy:               t.cfg.Proxy,
		Retries:             t.cfg.ExtractorRetries,
		FragmentConcurrency: t.cfg.FragmentConcurrency,
		SocketTimeoutSecs:   t.cfg.SocketTimeoutSecs,
		ThrottledRate:       t.cfg.ThrottledRate,
	}

	if req.Proxy == "" && t.creds != nil {
		if cookieFile, ok := t.creds.Next(); ok {
			req.CookieFile = cookieFile
		}
	}

	if err := os.MkdirAll(t.cfg.DownloadsDir, 0o755); err != nil {
		return Outcome{Verdict: TryNext, Reason: err.Error()}
	}

	runCtx := ctx
	if t.cfg.ExtractorTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.cfg.ExtractorTimeout)
		defer cancel()
	}

	resp, err := t.runner.Run(runCtx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Verdict: Fatal, Reason: ctx.Err().Error()}
		}
		return Outcome{Verdict: TryNext, Reason: fmt.Sprintf("extractor spawn: %v", err)}
	}

	path, ok := resp.FilePath()
	if !ok {
		t.logger.Warn("Extractor produced no file",
			zap.String("video_id", track.ID),
			zap.Int("exit_code", resp.ExitCode),
			zap.String("stderr", strings.TrimSpace(resp.Stderr)))
		if ctx.Err() != nil {
			return Outcome{Verdict: Fatal, Reason: ctx.Err().Error()}
		}
		return Outcome{Verdict: TryNext, Reason: fmt.Sprintf("exit code %d without a file path", resp.ExitCode)}
	}

	return Outcome{Verdict: Success, Path: path}
}
