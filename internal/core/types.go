package core

import (
	"context"
)

// LinkKind classifies what a user-supplied query turned out to be.
type LinkKind int

const (
	// KindInvalid means the input matched no known link shape; it is treated
	// as a free-text search phrase, not as an error.
	KindInvalid LinkKind = iota
	// KindSingle represents a link to exactly one media item.
	KindSingle
	// KindCollection represents a playlist or other multi-item link.
	KindCollection
)

func (k LinkKind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindCollection:
		return "collection"
	default:
		return "invalid"
	}
}

// PlatformYouTube is the source platform tag stamped on every record.
const PlatformYouTube = "youtube"

// NoneSentinel marks optional string fields that the upstream did not
// provide. Downstream formatting relies on it being a non-empty literal.
const NoneSentinel = "None"

// WatchURL builds the canonical playback URL for a video ID. Upstream-provided
// URLs are never trusted for this; the derived form is stable across sources.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// CanonicalID is the normalized, source-agnostic reference produced once per
// input query. It is immutable; KindInvalid inputs never progress past
// classification.
type CanonicalID struct {
	Kind      LinkKind
	ID        string
	SourceURL string
}

// TrackSnippet is a lightweight search hit or collection entry. It may lack a
// playable URL and is read-only after construction; playback requests
// supersede it with a ResolvedTrack rather than mutating it.
type TrackSnippet struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	DurationSecs int    `json:"duration"`
	Thumbnail    string `json:"thumbnail"`
	Platform     string `json:"platform"`
}

// ResolvedTrack is fully normalized metadata sufficient to attempt
// acquisition. ID is non-empty and maps deterministically to exactly one
// upstream media item.
type ResolvedTrack struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	DurationSecs int    `json:"duration"`
	Thumbnail    string `json:"thumbnail"`
	Lyrics       string `json:"lyrics"`
	Year         int    `json:"year"`
	Platform     string `json:"platform"`
	SourceURL    string `json:"url"`
	CDNURL       string `json:"cdn_url"`
	CDNKey       string `json:"cdn_key"`
}

// AcquisitionResult reports the outcome of one acquisition request. FilePath
// is populated only when Success is true; a failed acquisition never leaves a
// partial file behind.
type AcquisitionResult struct {
	FilePath string
	Success  bool
}

// CollectionBatch is an ordered sequence of snippets, one per collection
// entry or search hit.
type CollectionBatch struct {
	Tracks []TrackSnippet `json:"tracks"`
}

// NewCollectionBatch builds a batch from raw snippets, dropping entries that
// are missing a required ID rather than retaining placeholders.
func NewCollectionBatch(tracks []TrackSnippet) *CollectionBatch {
	valid := make([]TrackSnippet, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		valid = append(valid, t)
	}
	return &CollectionBatch{Tracks: valid}
}

// FetchResult is the tri-shaped outcome of a metadata fetch: exactly one of
// Track (single item) or Batch (collection or search results) is set.
type FetchResult struct {
	Track *ResolvedTrack
	Batch *CollectionBatch
}

// MetadataSource retrieves track metadata for a classified identifier.
type MetadataSource interface {
	Fetch(ctx context.Context, link CanonicalID) (*FetchResult, error)
	SearchText(ctx context.Context, query string) (*CollectionBatch, error)
}

// Acquirer obtains the media file for a resolved track.
type Acquirer interface {
	Acquire(ctx context.Context, track *ResolvedTrack, wantVideo bool) AcquisitionResult
}

// Ledger remembers files already acquired so repeat requests can be served
// without touching the upstream again.
type Ledger interface {
	Path(key string) (string, bool)
	Add(key, path string)
	Size() int
}
