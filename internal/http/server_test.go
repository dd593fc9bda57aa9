package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunepipe/internal/core"
)

type stubResolver struct {
	track *core.ResolvedTrack
	batch *core.CollectionBatch
	path  string
	err   error
}

func (s *stubResolver) GetInfo(context.Context, string) (*core.ResolvedTrack, error) {
	return s.track, s.err
}

func (s *stubResolver) Search(context.Context, string) (*core.CollectionBatch, error) {
	return s.batch, s.err
}

func (s *stubResolver) GetTrack(context.Context, string) (*core.ResolvedTrack, error) {
	return s.track, s.err
}

func (s *stubResolver) DownloadTrack(context.Context, *core.ResolvedTrack, bool) (string, error) {
	return s.path, s.err
}

func testServer(t *testing.T, resolver Resolver) *httptest.Server {
	t.Helper()
	config := &core.ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	s := NewServer(config, zap.NewNop())
	if resolver != nil {
		s.SetResolver(resolver)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(body)
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, nil)

	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"ok"`) {
		t.Errorf("body = %q", body)
	}
}

func TestReadyzBeforeAndAfterWiring(t *testing.T) {
	config := &core.ServerConfig{Host: "127.0.0.1", ReadTimeout: time.Second, WriteTimeout: time.Second}
	s := NewServer(config, zap.NewNop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status before wiring = %d, want 503", resp.StatusCode)
	}

	s.SetResolver(&stubResolver{})
	resp, _ = get(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status after wiring = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	config := &core.ServerConfig{Host: "127.0.0.1", ReadTimeout: time.Second, WriteTimeout: time.Second}
	s := NewServer(config, zap.NewNop())
	s.RecordResolution("single", "ok")
	s.SetLedgerSize(42)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "tunepipe_resolutions_total") {
		t.Errorf("metrics output missing resolutions counter:\n%s", body)
	}
	if !strings.Contains(body, "tunepipe_ledger_size 42") {
		t.Errorf("metrics output missing ledger gauge:\n%s", body)
	}
}

func TestInfoEndpoint(t *testing.T) {
	srv := testServer(t, &stubResolver{track: &core.ResolvedTrack{
		ID:    "dQw4w9WgXcQ",
		Title: "Never Gonna Give You Up",
	}})

	resp, body := get(t, srv.URL+"/api/info?q=https://youtu.be/dQw4w9WgXcQ")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Never Gonna Give You Up") {
		t.Errorf("body = %q", body)
	}
}

func TestInfoEndpointMissingQuery(t *testing.T) {
	srv := testServer(t, &stubResolver{})

	resp, _ := get(t, srv.URL+"/api/info")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInfoEndpointNoResults(t *testing.T) {
	srv := testServer(t, &stubResolver{err: core.ErrNoResults})

	resp, _ := get(t, srv.URL+"/api/info?q=whatever")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSearchEndpointUpstreamDown(t *testing.T) {
	srv := testServer(t, &stubResolver{err: core.ErrUpstreamUnavailable})

	resp, _ := get(t, srv.URL+"/api/search?q=halo")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv := testServer(t, &stubResolver{batch: &core.CollectionBatch{Tracks: []core.TrackSnippet{
		{ID: "vid00000001", Title: "Hit"},
	}}})

	resp, body := get(t, srv.URL+"/api/search?q=halo")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"results"`) || !strings.Contains(body, "vid00000001") {
		t.Errorf("body = %q", body)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	srv := testServer(t, &stubResolver{
		track: &core.ResolvedTrack{ID: "dQw4w9WgXcQ"},
		path:  "/downloads/dQw4w9WgXcQ.m4a",
	})

	resp, err := http.Post(srv.URL+"/api/download", "application/json",
		strings.NewReader(`{"id": "dQw4w9WgXcQ"}`))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "/downloads/dQw4w9WgXcQ.m4a") {
		t.Errorf("body = %q", body)
	}
}

func TestDownloadEndpointExhausted(t *testing.T) {
	srv := testServer(t, &stubResolver{
		track: &core.ResolvedTrack{ID: "dQw4w9WgXcQ"},
		err:   core.ErrAcquisitionExhausted,
	})

	resp, err := http.Post(srv.URL+"/api/download", "application/json",
		strings.NewReader(`{"id": "dQw4w9WgXcQ"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	// GetTrack fails first with the same stub error, which is still a 5xx.
	if resp.StatusCode < 500 {
		t.Errorf("status = %d, want a server error", resp.StatusCode)
	}
}

func TestDownloadEndpointRejectsGet(t *testing.T) {
	srv := testServer(t, &stubResolver{})

	resp, _ := get(t, srv.URL+"/api/download")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
