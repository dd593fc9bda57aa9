// Package pipeline ties link classification, metadata resolution and media
// acquisition together behind the operations the API surface exposes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"tunepipe/internal/core"
	"tunepipe/internal/metadata"
	"tunepipe/pkg/ytlink"
)

// Metrics is the observer hook the HTTP layer plugs in. The pipeline works
// fine with the no-op default.
type Metrics interface {
	RecordResolution(kind, status string)
	RecordAcquisition(mode, status string)
	RecordUpstreamError(source string)
	ObserveAcquisition(mode string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordResolution(string, string)          {}
func (nopMetrics) RecordAcquisition(string, string)         {}
func (nopMetrics) RecordUpstreamError(string)               {}
func (nopMetrics) ObserveAcquisition(string, time.Duration) {}

// Pipeline is the top-level resolver and acquirer.
type Pipeline struct {
	fetcher  core.MetadataSource
	acquirer core.Acquirer
	ledger   core.Ledger
	cache    *lru.Cache[string, *core.ResolvedTrack]
	metrics  Metrics
	logger   *zap.Logger
}

func New(fetcher core.MetadataSource, acquirer core.Acquirer, ledger core.Ledger, cacheSize int, logger *zap.Logger) (*Pipeline, error) {
	cache, err := lru.New[string, *core.ResolvedTrack](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating track cache: %w", err)
	}
	return &Pipeline{
		fetcher:  fetcher,
		acquirer: acquirer,
		ledger:   ledger,
		cache:    cache,
		metrics:  nopMetrics{},
		logger:   logger,
	}, nil
}

// SetMetrics replaces the no-op metrics hook.
func (p *Pipeline) SetMetrics(m Metrics) {
	if m != nil {
		p.metrics = m
	}
}

// GetInfo resolves a platform URL to a single full track record. For a
// collection URL the first usable entry stands in for the whole.
func (p *Pipeline) GetInfo(ctx context.Context, rawURL string) (*core.ResolvedTrack, error) {
	id := ytlink.Classify(rawURL)

	switch id.Kind {
	case core.KindSingle:
		res, err := p.fetcher.Fetch(ctx, id)
		if err != nil {
			p.recordFetchError(id.Kind.String(), err)
			return nil, err
		}
		p.metrics.RecordResolution(id.Kind.String(), "ok")
		return res.Track, nil

	case core.KindCollection:
		res, err := p.fetcher.Fetch(ctx, id)
		if err != nil {
			p.recordFetchError(id.Kind.String(), err)
			return nil, err
		}
		if len(res.Batch.Tracks) == 0 {
			p.metrics.RecordResolution(id.Kind.String(), "empty")
			return nil, fmt.Errorf("collection %s has no usable entries: %w", id.ID, core.ErrNoResults)
		}
		p.metrics.RecordResolution(id.Kind.String(), "ok")
		track := metadata.Resolve(res.Batch.Tracks[0])
		return &track, nil

	default:
		p.metrics.RecordResolution(id.Kind.String(), "rejected")
		return nil, fmt.Errorf("not a recognized platform URL: %w", core.ErrNoResults)
	}
}

// Search accepts either a platform URL or free text. URLs resolve through
// classification; a single video comes back as a one-entry batch.
func (p *Pipeline) Search(ctx context.Context, query string) (*core.CollectionBatch, error) {
	id := ytlink.Classify(query)

	if id.Kind == core.KindSingle {
		res, err := p.fetcher.Fetch(ctx, id)
		if err != nil {
			p.recordFetchError(id.Kind.String(), err)
			return nil, err
		}
		p.metrics.RecordResolution(id.Kind.String(), "ok")
		track := res.Track
		return &core.CollectionBatch{Tracks: []core.TrackSnippet{{
			ID:           track.ID,
			Title:        track.Title,
			Artist:       track.Artist,
			DurationSecs: track.DurationSecs,
			Thumbnail:    track.Thumbnail,
			Platform:     track.Platform,
		}}}, nil
	}

	res, err := p.fetcher.Fetch(ctx, id)
	if err != nil {
		p.recordFetchError(id.Kind.String(), err)
		return nil, err
	}
	p.metrics.RecordResolution(id.Kind.String(), "ok")
	return res.Batch, nil
}

// GetTrack resolves a bare video ID or URL to a full track record through a
// read-through cache.
func (p *Pipeline) GetTrack(ctx context.Context, idOrURL string) (*core.ResolvedTrack, error) {
	id := ytlink.Classify(idOrURL)
	if id.Kind != core.KindSingle {
		// A bare video ID is not a URL; treat the input as one.
		id = core.CanonicalID{
			Kind:      core.KindSingle,
			ID:        idOrURL,
			SourceURL: core.WatchURL(idOrURL),
		}
	}

	if track, ok := p.cache.Get(id.ID); ok {
		p.metrics.RecordResolution("track", "cache_hit")
		return track, nil
	}

	res, err := p.fetcher.Fetch(ctx, id)
	if err != nil {
		p.recordFetchError("track", err)
		return nil, err
	}

	p.cache.Add(id.ID, res.Track)
	p.metrics.RecordResolution("track", "ok")
	return res.Track, nil
}

func (p *Pipeline) recordFetchError(kind string, err error) {
	p.metrics.RecordResolution(kind, "error")
	if errors.Is(err, core.ErrUpstreamUnavailable) {
		p.metrics.RecordUpstreamError("metadata")
	}
}

// DownloadTrack acquires the media file for a resolved track, consulting the
// ledger first so a file already on disk is never fetched twice.
func (p *Pipeline) DownloadTrack(ctx context.Context, track *core.ResolvedTrack, wantVideo bool) (string, error) {
	mode := "audio"
	if wantVideo {
		mode = "video"
	}
	key := track.ID + ":" + mode

	if path, ok := p.ledger.Path(key); ok {
		if _, err := os.Stat(path); err == nil {
			p.metrics.RecordAcquisition(mode, "ledger_hit")
			return path, nil
		}
		p.logger.Debug("Ledger entry points at a missing file",
			zap.String("key", key),
			zap.String("path", path))
	}

	start := time.Now()
	result := p.acquirer.Acquire(ctx, track, wantVideo)
	p.metrics.ObserveAcquisition(mode, time.Since(start))

	if !result.Success {
		p.metrics.RecordAcquisition(mode, "exhausted")
		return "", fmt.Errorf("acquire %s (%s): %w", track.ID, mode, core.ErrAcquisitionExhausted)
	}

	p.ledger.Add(key, result.FilePath)
	p.metrics.RecordAcquisition(mode, "ok")
	return result.FilePath, nil
}
