package tui

import (
	"fmt"
	"time"

	"github.com/youcap/youcap/internal/feed"
	"github.com/youcap/youcap/internal/youtube"
)

type videoItem struct {
	video youtube.Video
}

func (i videoItem) Title() string { return i.video.Title }

func (i videoItem) Description() string {
	desc := i.video.Channel
	if i.video.ViewCount > 0 {
		desc = fmt.Sprintf("%s · %s views", desc, formatCount(i.video.ViewCount))
	}
	if age := formatAge(i.video.PublishedAt); age != "" {
		desc = fmt.Sprintf("%s · %s", desc, age)
	}
	return desc
}

func (i videoItem) FilterValue() string { return i.video.Title + " " + i.video.Channel }

type muteItem struct {
	channel feed.MutedChannel
}

func (i muteItem) Title() string       { return i.channel.Name }
func (i muteItem) Description() string { return i.channel.ID }
func (i muteItem) FilterValue() string { return i.channel.Name }

func formatCount(n uint64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func formatAge(publishedAt string) string {
	published, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return ""
	}

	age := time.Since(published)
	switch {
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
