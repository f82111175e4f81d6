package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolRegistry(t *testing.T) {
	registry, err := NewToolRegistry()
	require.NoError(t, err)

	ytdlp, ok := registry.Lookup("yt-dlp")
	require.True(t, ok)
	assert.Contains(t, ytdlp.Args, "--skip-download")
	assert.Contains(t, ytdlp.Args, "--write-auto-subs")

	_, ok = registry.Lookup("youtube-dl")
	assert.True(t, ok)

	_, ok = registry.Lookup("curl")
	assert.False(t, ok)
}
