package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// YouTube resource ids end up in API query strings and in subprocess argv
// (the transcript downloader), so anything that is not a plain id token is
// rejected before it reaches either.
var (
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	channelIDPattern = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
)

// ValidateVideoID checks that input looks like a YouTube video id.
func ValidateVideoID(input string) (string, error) {
	id := strings.TrimSpace(input)
	if id == "" {
		return "", fmt.Errorf("video id cannot be empty")
	}
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid video id: %q", input)
	}
	return id, nil
}

// ValidateChannelID checks that input looks like a YouTube channel id.
func ValidateChannelID(input string) (string, error) {
	id := strings.TrimSpace(input)
	if id == "" {
		return "", fmt.Errorf("channel id cannot be empty")
	}
	if !channelIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid channel id: %q", input)
	}
	return id, nil
}
