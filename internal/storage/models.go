package storage

import (
	"time"
)

// Transcript is a cleaned-up subtitle text fetched for a video, cached so it
// can be re-read and searched without invoking the downloader again.
type Transcript struct {
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	Channel   string    `json:"channel"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}
