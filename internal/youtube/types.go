// Package youtube provides a client for the YouTube Data API v3.
package youtube

import (
	"bytes"
	"encoding/json"
)

// Video is one result row from search or feed aggregation. PublishedAt keeps
// the API's RFC 3339 string form; ranking parses it lazily so an unparseable
// timestamp degrades instead of failing the whole response.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	ChannelID    string `json:"channel_id"`
	ThumbnailURL string `json:"thumbnail_url"`
	PublishedAt  string `json:"published_at"`
	ViewCount    uint64 `json:"view_count"`
	LikeCount    uint64 `json:"like_count"`
	Duration     string `json:"duration"`
}

// Stats holds the enrichment fields from the videos endpoint.
type Stats struct {
	ViewCount uint64
	LikeCount uint64
	Duration  string
}

// resourceID decodes the two shapes the API uses for an item's "id" field:
// the search endpoint nests the video id in an object, the videos endpoint
// returns a bare string.
type resourceID struct {
	VideoID string
}

func (r *resourceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.VideoID)
	}
	var obj struct {
		VideoID string `json:"videoId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.VideoID = obj.VideoID
	return nil
}

type thumbnails struct {
	Medium struct {
		URL string `json:"url"`
	} `json:"medium"`
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

// best prefers the medium variant, falling back to default.
func (t thumbnails) best() string {
	if t.Medium.URL != "" {
		return t.Medium.URL
	}
	return t.Default.URL
}

type snippet struct {
	Title        string `json:"title"`
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   thumbnails `json:"thumbnails"`
	ResourceID   struct {
		ChannelID string `json:"channelId"`
		VideoID   string `json:"videoId"`
	} `json:"resourceId"`
}

type searchResponse struct {
	Items []struct {
		ID      resourceID `json:"id"`
		Snippet snippet    `json:"snippet"`
	} `json:"items"`
}

type subscriptionsResponse struct {
	Items []struct {
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID         resourceID `json:"id"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}
