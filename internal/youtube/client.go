package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com"

// ErrMissingAPIKey is returned by unauthenticated endpoints when no API key
// is configured.
var ErrMissingAPIKey = errors.New("API key missing, set YOUCAP_API_KEY")

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// Client is a YouTube Data API client. Authenticated calls take a bearer
// token per request; unauthenticated calls use the configured API key.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPClient
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Search runs a keyword search for up to 25 video results. Requires an API
// key, not a token.
func (c *Client) Search(ctx context.Context, query string) ([]Video, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("maxResults", "25")
	q.Set("q", query)
	q.Set("type", "video")
	q.Set("key", c.apiKey)

	body, err := c.doRequest(ctx, "", "/youtube/v3/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Channel:      item.Snippet.ChannelTitle,
			ChannelID:    item.Snippet.ChannelID,
			ThumbnailURL: item.Snippet.Thumbnails.best(),
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}

	return videos, nil
}

// Subscriptions lists up to 50 channel ids the authenticated user is
// subscribed to.
func (c *Client) Subscriptions(ctx context.Context, token string) ([]string, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("mine", "true")
	q.Set("maxResults", "50")

	body, err := c.doRequest(ctx, token, "/youtube/v3/subscriptions?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp subscriptionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing subscriptions response: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if id := item.Snippet.ResourceID.ChannelID; id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// UploadsPlaylists resolves channel ids to their "uploads" playlist ids,
// preserving input order. Uses the API key when configured so the call works
// without a bearer token.
func (c *Client) UploadsPlaylists(ctx context.Context, token string, channelIDs []string) ([]string, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("id", strings.Join(channelIDs, ","))
	q.Set("maxResults", "50")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	body, err := c.doRequest(ctx, token, "/youtube/v3/channels?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp channelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing channels response: %w", err)
	}

	uploads := make(map[string]string, len(resp.Items))
	for _, item := range resp.Items {
		uploads[item.ID] = item.ContentDetails.RelatedPlaylists.Uploads
	}

	playlists := make([]string, 0, len(channelIDs))
	for _, channelID := range channelIDs {
		if playlistID := uploads[channelID]; playlistID != "" {
			playlists = append(playlists, playlistID)
		}
	}

	return playlists, nil
}

// PlaylistItems fetches the most recent items of a playlist.
func (c *Client) PlaylistItems(ctx context.Context, token, playlistID string, max int) ([]Video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("playlistId", playlistID)
	q.Set("maxResults", strconv.Itoa(max))

	body, err := c.doRequest(ctx, token, "/youtube/v3/playlistItems?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp playlistItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing playlist items response: %w", err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet.ResourceID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			ID:           item.Snippet.ResourceID.VideoID,
			Title:        item.Snippet.Title,
			Channel:      item.Snippet.ChannelTitle,
			ChannelID:    item.Snippet.ChannelID,
			ThumbnailURL: item.Snippet.Thumbnails.best(),
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}

	return videos, nil
}

// VideoStats fetches view/like counts and duration for the given video ids.
func (c *Client) VideoStats(ctx context.Context, token string, videoIDs []string) (map[string]Stats, error) {
	if len(videoIDs) == 0 {
		return map[string]Stats{}, nil
	}

	q := url.Values{}
	q.Set("part", "statistics,contentDetails")
	q.Set("id", strings.Join(videoIDs, ","))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	body, err := c.doRequest(ctx, token, "/youtube/v3/videos?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp videosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing videos response: %w", err)
	}

	stats := make(map[string]Stats, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		viewCount, _ := strconv.ParseUint(item.Statistics.ViewCount, 10, 64)
		likeCount, _ := strconv.ParseUint(item.Statistics.LikeCount, 10, 64)
		stats[item.ID.VideoID] = Stats{
			ViewCount: viewCount,
			LikeCount: likeCount,
			Duration:  item.ContentDetails.Duration,
		}
	}

	return stats, nil
}

func (c *Client) doRequest(ctx context.Context, token, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode)
	}

	return body, nil
}

func apiError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("YouTube API authentication failed, log in again")
	case http.StatusForbidden:
		return fmt.Errorf("YouTube API access denied, check quota and OAuth scope")
	case http.StatusTooManyRequests:
		return fmt.Errorf("YouTube API rate limit exceeded, try again later")
	default:
		return fmt.Errorf("YouTube API error: status %d", statusCode)
	}
}
