package tui

import (
	"github.com/youcap/youcap/internal/feed"
	"github.com/youcap/youcap/internal/youtube"
)

type View int

const (
	ViewFeed View = iota
	ViewSearch
	ViewSearchInput
	ViewTranscript
	ViewMutes
)

type feedLoadedMsg struct {
	videos []youtube.Video
}

type searchResultsMsg struct {
	query  string
	videos []youtube.Video
}

type transcriptMsg struct {
	videoID string
	title   string
	channel string
	text    string
}

type mutesChangedMsg struct {
	muted []feed.MutedChannel
}

type playStartedMsg struct {
	videoID string
}

type errorMsg struct {
	err error
}
