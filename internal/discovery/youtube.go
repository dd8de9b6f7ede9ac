// Package discovery lists trending videos from the YouTube Data API.
package discovery

import (
	"context"
	"log"

	"github.com/jonathan/trend-relay/internal/types"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Discoverer returns the trending videos for a region, most trending first.
type Discoverer interface {
	Discover(ctx context.Context, region string, maxResults int) ([]types.VideoCandidate, error)
}

// YouTubeDiscoverer implements Discoverer with videos.list chart=mostPopular.
type YouTubeDiscoverer struct {
	service *youtube.Service
	// CategoryID optionally restricts the chart to one video category.
	CategoryID string
}

// NewYouTubeDiscoverer creates a discoverer. Pass option.WithAPIKey or an
// authenticated option.WithHTTPClient.
func NewYouTubeDiscoverer(ctx context.Context, opts ...option.ClientOption) (*YouTubeDiscoverer, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, &DiscoveryError{Message: "create YouTube client", Cause: err}
	}
	return &YouTubeDiscoverer{service: svc}, nil
}

// Discover lists up to maxResults trending videos. Items whose duration
// cannot be read are dropped since no duration ceiling could apply to them.
// Live and upcoming broadcasts report a zero duration and are dropped too.
func (d *YouTubeDiscoverer) Discover(ctx context.Context, region string, maxResults int) ([]types.VideoCandidate, error) {
	call := d.service.Videos.List([]string{"snippet", "contentDetails"}).
		Chart("mostPopular").
		RegionCode(region).
		MaxResults(int64(maxResults)).
		Context(ctx)
	if d.CategoryID != "" {
		call = call.VideoCategoryId(d.CategoryID)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, &DiscoveryError{Region: region, Message: "videos.list failed", Cause: err}
	}

	candidates := make([]types.VideoCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == "" {
			continue
		}
		c := types.VideoCandidate{ID: item.Id}
		if item.Snippet != nil {
			c.Title = item.Snippet.Title
			if live := item.Snippet.LiveBroadcastContent; live != "" && live != "none" {
				log.Printf("[DISCOVERY] Dropping %s: broadcast is %s", item.Id, live)
				continue
			}
		}
		if item.ContentDetails == nil {
			log.Printf("[DISCOVERY] Dropping %s: no content details", item.Id)
			continue
		}
		secs, err := ParseISODuration(item.ContentDetails.Duration)
		if err != nil {
			log.Printf("[DISCOVERY] Dropping %s: %v", item.Id, err)
			continue
		}
		if secs <= 0 {
			log.Printf("[DISCOVERY] Dropping %s: zero duration", item.Id)
			continue
		}
		c.DurationSeconds = secs
		candidates = append(candidates, c)
	}

	log.Printf("[DISCOVERY] Region %s returned %d candidates", region, len(candidates))
	return candidates, nil
}
