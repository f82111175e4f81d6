package transcript

import (
	"regexp"
	"strings"
)

// NoTranscriptText is returned when cleanup leaves nothing displayable.
const NoTranscriptText = "No transcript text found."

const (
	// A paragraph break is inserted once more than this many words have
	// accumulated since the last break.
	paragraphWordLimit = 20
	// A line already present in this many trailing characters of output is
	// dropped. Auto-captions repeat overlapping text across adjacent cues.
	duplicateWindow = 60
)

var (
	cueTagPattern = regexp.MustCompile(`<[^>]*>`)
	timingPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[.,]\d{3}\s+-->`)
)

// CleanVTT reflows a WebVTT subtitle file into paragraph text: markup tags,
// header lines, cue timings and blanks are stripped, near-duplicate cue lines
// are suppressed, and paragraph breaks are inserted every ~20 words.
func CleanVTT(raw string) string {
	var out strings.Builder
	wordsSinceBreak := 0

	for _, line := range strings.Split(raw, "\n") {
		line = cueTagPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "WEBVTT") ||
			strings.HasPrefix(line, "Kind:") ||
			strings.HasPrefix(line, "Language:") {
			continue
		}
		if timingPattern.MatchString(line) {
			continue
		}

		accumulated := out.String()
		tail := accumulated
		if len(tail) > duplicateWindow {
			tail = tail[len(tail)-duplicateWindow:]
		}
		if strings.Contains(tail, line) {
			continue
		}

		if out.Len() > 0 && !strings.HasSuffix(accumulated, "\n") {
			out.WriteByte(' ')
		}
		out.WriteString(line)

		wordsSinceBreak += len(strings.Fields(line))
		if wordsSinceBreak > paragraphWordLimit {
			out.WriteString("\n\n")
			wordsSinceBreak = 0
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return NoTranscriptText
	}
	return text
}
