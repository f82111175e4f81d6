// Package feed aggregates a user's subscriptions into a ranked video list.
//
// One fetch runs four sequential network stages: subscriptions, channel
// resolution, a concurrent playlist fan-out, and a single statistics
// enrichment call over the accumulated ids. Per-playlist failures degrade to
// zero items; a statistics failure degrades to an unranked list.
package feed

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/youcap/youcap/internal/debuglog"
	"github.com/youcap/youcap/internal/youtube"
)

const (
	// Fan-out cap: playlists beyond this are not queried, protecting users
	// with hundreds of subscriptions from unbounded request bursts.
	maxPlaylistFanout = 20
	itemsPerPlaylist  = 5
	// The videos endpoint accepts at most 50 ids per call.
	maxStatsIDs = 50
)

var (
	ErrNotAuthenticated = errors.New("not authenticated, log in first")
	ErrFetchInFlight    = errors.New("a feed fetch is already in flight")
)

// MuteStore is the persistence boundary for the muted-channel set.
type MuteStore interface {
	Mutes() map[string]string
	SaveMutes(mutes map[string]string)
}

// MutedChannel is one entry of the mute list, for display.
type MutedChannel struct {
	ID   string
	Name string
}

// Aggregator orchestrates the staged subscription-feed pipeline and owns the
// muted-channel set.
type Aggregator struct {
	client *youtube.Client
	store  MuteStore

	fetchGate sync.Mutex // single-flight guard for FetchSubscriptionFeed

	mu    sync.Mutex
	muted map[string]string
}

func NewAggregator(client *youtube.Client, store MuteStore) *Aggregator {
	return &Aggregator{
		client: client,
		store:  store,
		muted:  store.Mutes(),
	}
}

// FetchSubscriptionFeed returns the user's subscription uploads, mute-filtered
// and ranked by decayed popularity. A second call while one is in flight is
// rejected rather than sharing accumulator state.
func (a *Aggregator) FetchSubscriptionFeed(ctx context.Context, accessToken string) ([]youtube.Video, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	if !a.fetchGate.TryLock() {
		return nil, ErrFetchInFlight
	}
	defer a.fetchGate.Unlock()

	// Snapshot the mute set: a mute arriving mid-fetch applies to the next
	// fetch, not this one.
	muted := a.mutedSnapshot()

	// Stage 1: subscribed channels.
	channelIDs, err := a.client.Subscriptions(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if len(channelIDs) == 0 {
		return []youtube.Video{}, nil
	}

	// Stage 2: resolve each channel to its uploads playlist.
	playlists, err := a.client.UploadsPlaylists(ctx, accessToken, channelIDs)
	if err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		return []youtube.Video{}, nil
	}

	if len(playlists) > maxPlaylistFanout {
		playlists = playlists[:maxPlaylistFanout]
	}

	// Stage 3: concurrent playlist fan-out into a shared accumulator. A
	// failed call contributes zero items and never aborts the batch.
	var (
		accMu       sync.Mutex
		accumulated []youtube.Video
		wg          sync.WaitGroup
	)

	for _, playlistID := range playlists {
		wg.Add(1)
		go func(playlistID string) {
			defer wg.Done()

			items, err := a.client.PlaylistItems(ctx, accessToken, playlistID, itemsPerPlaylist)
			if err != nil {
				debuglog.Warnf("feed: playlist %s fetch failed: %v", playlistID, err)
				return
			}

			kept := items[:0]
			for _, v := range items {
				if isUnavailableTitle(v.Title) {
					continue
				}
				if _, isMuted := muted[v.ChannelID]; isMuted {
					continue
				}
				kept = append(kept, v)
			}

			accMu.Lock()
			accumulated = append(accumulated, kept...)
			accMu.Unlock()
		}(playlistID)
	}
	wg.Wait()

	if len(accumulated) == 0 {
		return []youtube.Video{}, nil
	}

	// Stage 4: one statistics call over the accumulated ids. Videos past the
	// id cap, or missing from the response, keep zero counts but stay in the
	// output.
	ids := make([]string, 0, len(accumulated))
	for _, v := range accumulated {
		ids = append(ids, v.ID)
	}
	if len(ids) > maxStatsIDs {
		ids = ids[:maxStatsIDs]
	}

	stats, err := a.client.VideoStats(ctx, accessToken, ids)
	if err != nil {
		// Partial data beats no data: surface the accumulated list unranked.
		debuglog.Warnf("feed: statistics enrichment failed: %v", err)
		return accumulated, nil
	}

	for i := range accumulated {
		if s, ok := stats[accumulated[i].ID]; ok {
			accumulated[i].ViewCount = s.ViewCount
			accumulated[i].LikeCount = s.LikeCount
			accumulated[i].Duration = s.Duration
		}
	}

	rank(accumulated, time.Now())

	return accumulated, nil
}

// isUnavailableTitle reports whether a playlist item is the placeholder for a
// private or deleted video.
func isUnavailableTitle(title string) bool {
	switch strings.ToLower(strings.TrimSpace(title)) {
	case "private video", "deleted video":
		return true
	}
	return false
}

// MuteChannel adds a channel to the mute set. Idempotent: muting an already
// muted channel does not persist again.
func (a *Aggregator) MuteChannel(channelID, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.muted[channelID]; ok {
		return
	}
	a.muted[channelID] = name
	a.persistMutesLocked()
}

// UnmuteChannel removes a channel from the mute set. Unmuting a channel that
// is not muted is a no-op.
func (a *Aggregator) UnmuteChannel(channelID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.muted[channelID]; !ok {
		return
	}
	delete(a.muted, channelID)
	a.persistMutesLocked()
}

func (a *Aggregator) IsChannelMuted(channelID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.muted[channelID]
	return ok
}

// MutedChannels lists the mute set sorted by channel name.
func (a *Aggregator) MutedChannels() []MutedChannel {
	a.mu.Lock()
	defer a.mu.Unlock()

	channels := make([]MutedChannel, 0, len(a.muted))
	for id, name := range a.muted {
		channels = append(channels, MutedChannel{ID: id, Name: name})
	}
	sort.Slice(channels, func(i, j int) bool {
		if channels[i].Name != channels[j].Name {
			return strings.ToLower(channels[i].Name) < strings.ToLower(channels[j].Name)
		}
		return channels[i].ID < channels[j].ID
	})
	return channels
}

func (a *Aggregator) mutedSnapshot() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := make(map[string]string, len(a.muted))
	for id, name := range a.muted {
		snapshot[id] = name
	}
	return snapshot
}

func (a *Aggregator) persistMutesLocked() {
	copied := make(map[string]string, len(a.muted))
	for id, name := range a.muted {
		copied[id] = name
	}
	a.store.SaveMutes(copied)
}
