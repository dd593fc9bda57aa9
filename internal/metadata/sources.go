// Package metadata resolves canonical identifiers into track metadata,
// falling back across sources in a fixed order: the cheap unauthenticated
// oEmbed lookup first, the richer search source second.
package metadata

import (
	"context"
)

// Thumbnail is one entry of an ascending-quality-ordered thumbnail list.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SearchItem is the per-item shape shared by the search and collection
// sources: {id, title, channel.name, duration, thumbnails[]}.
type SearchItem struct {
	ID         string
	Title      string
	Channel    string
	Duration   string
	Thumbnails []Thumbnail
}

// OEmbedData is the usable subset of an oEmbed payload.
type OEmbedData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// SearchSource queries the metadata source with a bounded result count.
type SearchSource interface {
	Search(ctx context.Context, query string, limit int) ([]SearchItem, error)
}

// CollectionSource enumerates all entries of a collection in one call.
type CollectionSource interface {
	Entries(ctx context.Context, collectionURL string) ([]SearchItem, error)
}

// OEmbedSource performs the fast unauthenticated single-item lookup.
type OEmbedSource interface {
	Lookup(ctx context.Context, watchURL string) (*OEmbedData, error)
}
