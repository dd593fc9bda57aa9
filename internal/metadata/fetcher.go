package metadata

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tunepipe/internal/core"
	"tunepipe/pkg/textnorm"
	"tunepipe/pkg/ytlink"
)

// Fetcher resolves canonical identifiers to track records. Single videos go
// through the oEmbed endpoint first because it is cheap and never
// rate-limited; the search source is the fallback. Collections always go
// through the browse source.
type Fetcher struct {
	search SearchSource
	coll   CollectionSource
	oembed OEmbedSource
	limit  int
	logger *zap.Logger
}

func NewFetcher(search SearchSource, coll CollectionSource, oembed OEmbedSource, searchLimit int, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		search: search,
		coll:   coll,
		oembed: oembed,
		limit:  searchLimit,
		logger: logger,
	}
}

// Fetch resolves a classified link. Invalid identifiers fall back to a
// free-text search over the raw input.
func (f *Fetcher) Fetch(ctx context.Context, id core.CanonicalID) (*core.FetchResult, error) {
	switch id.Kind {
	case core.KindSingle:
		track, err := f.fetchSingle(ctx, id)
		if err != nil {
			return nil, err
		}
		return &core.FetchResult{Track: track}, nil

	case core.KindCollection:
		batch, err := f.fetchCollection(ctx, id)
		if err != nil {
			return nil, err
		}
		return &core.FetchResult{Batch: batch}, nil

	default:
		batch, err := f.SearchText(ctx, id.SourceURL)
		if err != nil {
			return nil, err
		}
		return &core.FetchResult{Batch: batch}, nil
	}
}

func (f *Fetcher) fetchSingle(ctx context.Context, id core.CanonicalID) (*core.ResolvedTrack, error) {
	data, err := f.oembed.Lookup(ctx, id.SourceURL)
	if err == nil {
		track := ResolveOEmbed(id.ID, *data)
		return &track, nil
	}
	f.logger.Debug("oembed lookup failed, falling back to search",
		zap.String("video_id", id.ID),
		zap.Error(err))

	items, err := f.search.Search(ctx, id.SourceURL, 1)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id.ID, core.ErrUpstreamUnavailable)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("resolve %s: %w", id.ID, core.ErrNoResults)
	}
	track := Resolve(Snippet(items[0]))
	return &track, nil
}

func (f *Fetcher) fetchCollection(ctx context.Context, id core.CanonicalID) (*core.CollectionBatch, error) {
	items, err := f.coll.Entries(ctx, id.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", id.ID, core.ErrUpstreamUnavailable)
	}

	snippets := make([]core.TrackSnippet, 0, len(items))
	for _, item := range items {
		snippets = append(snippets, Snippet(item))
	}
	batch := core.NewCollectionBatch(snippets)
	f.logger.Debug("collection resolved",
		zap.String("collection_id", id.ID),
		zap.Int("entries", len(items)),
		zap.Int("usable", len(batch.Tracks)))
	return batch, nil
}

// SearchText runs a free-text query and returns the top matches as a batch.
// Text that turns out to be a single-item link resolves through the link
// path instead. Zero hits is a distinct condition from an unreachable
// upstream.
func (f *Fetcher) SearchText(ctx context.Context, query string) (*core.CollectionBatch, error) {
	if id := ytlink.Classify(query); id.Kind == core.KindSingle {
		track, err := f.fetchSingle(ctx, id)
		if err != nil {
			return nil, err
		}
		return core.NewCollectionBatch([]core.TrackSnippet{{
			ID:           track.ID,
			Title:        track.Title,
			Artist:       track.Artist,
			DurationSecs: track.DurationSecs,
			Thumbnail:    track.Thumbnail,
			Platform:     track.Platform,
		}}), nil
	}

	cleaned := textnorm.NormalizeQuery(ytlink.CleanQuery(query))
	if cleaned == "" {
		return nil, fmt.Errorf("empty query: %w", core.ErrNoResults)
	}

	items, err := f.search.Search(ctx, cleaned, f.limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", cleaned, core.ErrUpstreamUnavailable)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("search %q: %w", cleaned, core.ErrNoResults)
	}

	snippets := make([]core.TrackSnippet, 0, len(items))
	for _, item := range items {
		snippets = append(snippets, Snippet(item))
	}
	return core.NewCollectionBatch(snippets), nil
}
