package metadata

import (
	"tunepipe/internal/core"
	"tunepipe/pkg/textnorm"
)

const (
	defaultTitle  = "Unknown Title"
	defaultArtist = "Unknown Artist"
	defaultAlbum  = "YouTube"
)

// Snippet converts a raw search item into the lightweight track shape used
// in search results and collection listings. The upstream orders thumbnails
// from smallest to largest, so the last one is the best quality.
func Snippet(item SearchItem) core.TrackSnippet {
	thumb := ""
	if n := len(item.Thumbnails); n > 0 {
		thumb = item.Thumbnails[n-1].URL
	}
	return core.TrackSnippet{
		ID:           item.ID,
		Title:        item.Title,
		Artist:       item.Channel,
		DurationSecs: ParseDuration(item.Duration),
		Thumbnail:    thumb,
		Platform:     core.PlatformYouTube,
	}
}

// Resolve expands a snippet into the full track record.
func Resolve(s core.TrackSnippet) core.ResolvedTrack {
	return Normalize(core.ResolvedTrack{
		ID:           s.ID,
		Title:        s.Title,
		Artist:       s.Artist,
		DurationSecs: s.DurationSecs,
		Thumbnail:    s.Thumbnail,
	})
}

// ResolveOEmbed builds a full track record from an oEmbed payload. The
// oEmbed endpoint carries no duration, so it stays zero.
func ResolveOEmbed(videoID string, d OEmbedData) core.ResolvedTrack {
	return Normalize(core.ResolvedTrack{
		ID:        videoID,
		Title:     d.Title,
		Artist:    d.AuthorName,
		Thumbnail: d.ThumbnailURL,
	})
}

// Normalize fills in the fixed fields of a track record and applies the
// defaults for anything the source left blank. It is pure and idempotent;
// applying it twice yields the same record.
func Normalize(t core.ResolvedTrack) core.ResolvedTrack {
	t.Title = textnorm.CleanTitle(t.Title)
	if t.Title == "" {
		t.Title = defaultTitle
	}
	if t.Artist == "" {
		t.Artist = defaultArtist
	}
	if t.Album == "" {
		t.Album = defaultAlbum
	}
	if t.Lyrics == "" {
		t.Lyrics = core.NoneSentinel
	}
	if t.CDNURL == "" {
		t.CDNURL = core.NoneSentinel
	}
	if t.CDNKey == "" {
		t.CDNKey = core.NoneSentinel
	}
	t.Platform = core.PlatformYouTube
	t.SourceURL = core.WatchURL(t.ID)
	return t
}
