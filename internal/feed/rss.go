package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/youcap/youcap/internal/validation"
	"github.com/youcap/youcap/internal/youtube"
)

var channelFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id="

// ChannelUploads fetches a channel's recent uploads from YouTube's public RSS
// feed. No API key or token required, so it works as a preview path when the
// user is logged out or quota-limited. Counts stay zero; the mute filter
// still applies.
func (a *Aggregator) ChannelUploads(ctx context.Context, channelID string) ([]youtube.Video, error) {
	id, err := validation.ValidateChannelID(channelID)
	if err != nil {
		return nil, err
	}

	if a.IsChannelMuted(id) {
		return []youtube.Video{}, nil
	}

	parser := gofeed.NewParser()
	parsed, err := parser.ParseURLWithContext(channelFeedURL+id, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching channel feed: %w", err)
	}

	videos := make([]youtube.Video, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		videoID := extensionValue(item, "yt", "videoId")
		if videoID == "" {
			continue
		}

		publishedAt := ""
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		}

		videos = append(videos, youtube.Video{
			ID:           videoID,
			Title:        item.Title,
			Channel:      parsed.Title,
			ChannelID:    id,
			ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/mqdefault.jpg", videoID),
			PublishedAt:  publishedAt,
		})
	}

	return videos, nil
}

func extensionValue(item *gofeed.Item, namespace, name string) string {
	exts, ok := item.Extensions[namespace]
	if !ok {
		return ""
	}
	values, ok := exts[name]
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0].Value
}
