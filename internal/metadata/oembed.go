package metadata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// OEmbedEndpoint is the YouTube oEmbed API endpoint.
const OEmbedEndpoint = "https://www.youtube.com/oembed"

// OEmbedClient implements OEmbedSource against the public oEmbed endpoint.
// The lookup is cheap and unauthenticated; duration is not part of the
// payload and is reported as unknown by the normalizer.
type OEmbedClient struct {
	http   *retryClient
	logger *zap.Logger
}

func NewOEmbedClient(timeout time.Duration, logger *zap.Logger) *OEmbedClient {
	// A single retry is enough here: the fetcher has its own search fallback.
	return &OEmbedClient{
		http:   newRetryClient(timeout, 1, 250*time.Millisecond, logger),
		logger: logger,
	}
}

func (c *OEmbedClient) Lookup(ctx context.Context, watchURL string) (*OEmbedData, error) {
	reqURL := fmt.Sprintf("%s?url=%s&format=json", OEmbedEndpoint, url.QueryEscape(watchURL))

	var data OEmbedData
	if err := c.http.getJSON(ctx, reqURL, &data); err != nil {
		return nil, fmt.Errorf("oembed lookup: %w", err)
	}

	if data.Title == "" && data.AuthorName == "" {
		return nil, fmt.Errorf("oembed lookup: empty payload")
	}

	return &data, nil
}
