package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/youcap/youcap/internal/debuglog"
	"github.com/youcap/youcap/internal/storage"
	"github.com/youcap/youcap/internal/youtube"
)

const commandTimeout = 60 * time.Second

func (a *App) loadFeed() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		a.flow.Restore(ctx)

		videos, err := a.aggregator.FetchSubscriptionFeed(ctx, a.flow.AccessToken())
		if err != nil {
			return errorMsg{err: err}
		}
		return feedLoadedMsg{videos: videos}
	}
}

func (a *App) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		videos, err := a.client.Search(ctx, query)
		if err != nil {
			return errorMsg{err: err}
		}
		return searchResultsMsg{query: query, videos: videos}
	}
}

func (a *App) loadTranscript(video youtube.Video) tea.Cmd {
	return func() tea.Msg {
		// Serve from the cache when we already fetched this one.
		if cached, err := a.store.GetTranscript(video.ID); err == nil {
			return transcriptMsg{
				videoID: cached.VideoID,
				title:   cached.Title,
				channel: cached.Channel,
				text:    cached.Text,
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		text, err := a.fetcher.Fetch(ctx, video.ID)
		if err != nil {
			return errorMsg{err: err}
		}

		transcript := &storage.Transcript{
			VideoID:   video.ID,
			Title:     video.Title,
			Channel:   video.Channel,
			Text:      text,
			FetchedAt: time.Now(),
		}
		if err := a.store.SaveTranscript(transcript); err != nil {
			debuglog.Warnf("tui: caching transcript: %v", err)
		} else if a.index != nil {
			if err := a.index.Add(transcript); err != nil {
				debuglog.Warnf("tui: indexing transcript: %v", err)
			}
		}

		return transcriptMsg{
			videoID: video.ID,
			title:   video.Title,
			channel: video.Channel,
			text:    text,
		}
	}
}

func (a *App) muteChannel(video youtube.Video) tea.Cmd {
	return func() tea.Msg {
		a.aggregator.MuteChannel(video.ChannelID, video.Channel)
		return mutesChangedMsg{muted: a.aggregator.MutedChannels()}
	}
}

func (a *App) unmuteChannel(channelID string) tea.Cmd {
	return func() tea.Msg {
		a.aggregator.UnmuteChannel(channelID)
		return mutesChangedMsg{muted: a.aggregator.MutedChannels()}
	}
}

func (a *App) playVideo(video youtube.Video) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Play(video.ID); err != nil {
			return errorMsg{err: err}
		}
		return playStartedMsg{videoID: video.ID}
	}
}
