package acquire

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"tunepipe/internal/core"
)

func baseRequest() Request {
	return Request{
		VideoID:             "dQw4w9WgXcQ",
		OutputDir:           "/tmp/downloads",
		Retries:             2,
		FragmentConcurrency: 3,
		SocketTimeoutSecs:   10,
		ThrottledRate:       "100K",
	}
}

func TestRequestArgsAudio(t *testing.T) {
	args := baseRequest().Args()
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--no-warnings",
		"--geo-bypass",
		"--retries 2",
		"--concurrent-fragments 3",
		"--socket-timeout 10",
		"--throttled-rate 100K",
		"-f " + audioFormat,
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ --print after_move:filepath",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "--proxy") || strings.Contains(joined, "--cookies") {
		t.Errorf("unexpected proxy or cookies flag:\n%s", joined)
	}
}

func TestRequestArgsVideoFormat(t *testing.T) {
	req := baseRequest()
	req.Video = true

	joined := strings.Join(req.Args(), " ")
	if !strings.Contains(joined, "-f "+videoFormat) {
		t.Errorf("args missing video format selector:\n%s", joined)
	}
}

func TestRequestArgsProxyWinsOverCookies(t *testing.T) {
	req := baseRequest()
	req.Proxy = "socks5://127.0.0.1:9050"
	req.CookieFile = "/etc/cookies/a.txt"

	joined := strings.Join(req.Args(), " ")
	if !strings.Contains(joined, "--proxy socks5://127.0.0.1:9050") {
		t.Errorf("args missing proxy:\n%s", joined)
	}
	if strings.Contains(joined, "--cookies") {
		t.Errorf("cookies must not be combined with a proxy:\n%s", joined)
	}
}

func TestRequestArgsCookies(t *testing.T) {
	req := baseRequest()
	req.CookieFile = "/etc/cookies/a.txt"

	joined := strings.Join(req.Args(), " ")
	if !strings.Contains(joined, "--cookies /etc/cookies/a.txt") {
		t.Errorf("args missing cookies flag:\n%s", joined)
	}
}

func TestResponseFilePath(t *testing.T) {
	tests := []struct {
		name     string
		resp     Response
		wantPath string
		wantOK   bool
	}{
		{"success", Response{ExitCode: 0, Stdout: "/tmp/d/dQw4w9WgXcQ.m4a\n"}, "/tmp/d/dQw4w9WgXcQ.m4a", true},
		{"nonzero exit", Response{ExitCode: 1, Stdout: "/tmp/d/x.m4a"}, "", false},
		{"zero exit without path", Response{ExitCode: 0, Stdout: "  \n"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := tt.resp.FilePath()
			if path != tt.wantPath || ok != tt.wantOK {
				t.Errorf("FilePath() = (%q, %v), want (%q, %v)", path, ok, tt.wantPath, tt.wantOK)
			}
		})
	}
}

type stubRunner struct {
	resp    Response
	err     error
	lastReq Request
}

func (s *stubRunner) Run(_ context.Context, req Request) (Response, error) {
	s.lastReq = req
	return s.resp, s.err
}

func extractorConfig(t *testing.T) *core.AcquireConfig {
	t.Helper()
	cfg := core.DefaultConfig().Acquire
	cfg.DownloadsDir = t.TempDir()
	return &cfg
}

func TestExtractorTierSuccess(t *testing.T) {
	runner := &stubRunner{resp: Response{ExitCode: 0, Stdout: "/tmp/d/dQw4w9WgXcQ.m4a\n"}}
	tier := NewExtractorTierWithRunner(runner, extractorConfig(t), nil, zap.NewNop())

	out := tier.Fetch(context.Background(), testTrack(), false)
	if out.Verdict != Success || out.Path != "/tmp/d/dQw4w9WgXcQ.m4a" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestExtractorTierZeroExitNoPath(t *testing.T) {
	runner := &stubRunner{resp: Response{ExitCode: 0, Stdout: ""}}
	tier := NewExtractorTierWithRunner(runner, extractorConfig(t), nil, zap.NewNop())

	out := tier.Fetch(context.Background(), testTrack(), false)
	if out.Verdict != TryNext {
		t.Errorf("verdict = %v, want TryNext", out.Verdict)
	}
}

func TestExtractorTierRotatesCredentials(t *testing.T) {
	runner := &stubRunner{resp: Response{ExitCode: 0, Stdout: "/tmp/d/x.m4a"}}
	creds := NewRoundRobin([]string{"/c/a.txt", "/c/b.txt"})
	tier := NewExtractorTierWithRunner(runner, extractorConfig(t), creds, zap.NewNop())

	tier.Fetch(context.Background(), testTrack(), false)
	first := runner.lastReq.CookieFile
	tier.Fetch(context.Background(), testTrack(), false)
	second := runner.lastReq.CookieFile

	if first != "/c/a.txt" || second != "/c/b.txt" {
		t.Errorf("cookie rotation = %q then %q", first, second)
	}
}

func TestExtractorTierProxySuppressesCredentials(t *testing.T) {
	runner := &stubRunner{resp: Response{ExitCode: 0, Stdout: "/tmp/d/x.m4a"}}
	cfg := extractorConfig(t)
	cfg.Proxy = "socks5://127.0.0.1:9050"
	creds := NewRoundRobin([]string{"/c/a.txt"})
	tier := NewExtractorTierWithRunner(runner, cfg, creds, zap.NewNop())

	tier.Fetch(context.Background(), testTrack(), false)
	if runner.lastReq.CookieFile != "" {
		t.Errorf("CookieFile = %q, want empty when a proxy is set", runner.lastReq.CookieFile)
	}
	if runner.lastReq.Proxy != cfg.Proxy {
		t.Errorf("Proxy = %q", runner.lastReq.Proxy)
	}
}

func TestRoundRobinEmpty(t *testing.T) {
	if _, ok := NewRoundRobin(nil).Next(); ok {
		t.Error("expected no credential from an empty source")
	}
}

func TestDirSourceMissingDir(t *testing.T) {
	if _, ok := NewDirSource("/nonexistent-dir-for-test").Next(); ok {
		t.Error("expected no credential from a missing directory")
	}
}
