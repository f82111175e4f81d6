package feed

import (
	"math"
	"sort"
	"time"

	"github.com/youcap/youcap/internal/youtube"
)

// Score returns the time-decayed popularity of a video: raw views divided by
// a growing power of its age, so a recent upload with solid engagement beats
// an older viral one. Age is clamped at zero to absorb clock skew.
func Score(viewCount uint64, ageHours float64) float64 {
	if ageHours < 0 {
		ageHours = 0
	}
	return float64(viewCount) / math.Pow(ageHours+2.0, 1.5)
}

// ageHours computes the video's age relative to now. An unparseable
// publishedAt is treated as published just now.
func ageHours(publishedAt string, now time.Time) float64 {
	published, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return 0
	}
	hours := now.Sub(published).Hours()
	if hours < 0 {
		return 0
	}
	return hours
}

// rank sorts videos by descending score. The sort is stable so ties keep
// their accumulation order.
func rank(videos []youtube.Video, now time.Time) {
	type scored struct {
		video youtube.Video
		score float64
	}

	rows := make([]scored, len(videos))
	for i, v := range videos {
		rows[i] = scored{video: v, score: Score(v.ViewCount, ageHours(v.PublishedAt, now))}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].score > rows[j].score
	})

	for i, row := range rows {
		videos[i] = row.video
	}
}
