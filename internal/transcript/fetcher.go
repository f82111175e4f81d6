// Package transcript retrieves video subtitles through an external downloader
// and reflows them into readable paragraph text.
package transcript

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/youcap/youcap/internal/config"
	"github.com/youcap/youcap/internal/debuglog"
	"github.com/youcap/youcap/internal/validation"
)

// Runner executes the downloader. Injectable so tests substitute a fake
// instead of spawning yt-dlp.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

type FetcherOption func(*Fetcher)

func WithRunner(runner Runner) FetcherOption {
	return func(f *Fetcher) { f.runner = runner }
}

// Fetcher runs the configured downloader tool in a throwaway directory and
// cleans up the first subtitle file it produces.
type Fetcher struct {
	tool     string
	timeout  time.Duration
	runner   Runner
	registry *ToolRegistry
}

func NewFetcher(cfg config.TranscriptConfig, opts ...FetcherOption) (*Fetcher, error) {
	registry, err := NewToolRegistry()
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		tool:     cfg.Tool,
		timeout:  cfg.Timeout,
		runner:   execRunner{},
		registry: registry,
	}
	for _, opt := range opts {
		opt(f)
	}

	if _, ok := f.registry.Lookup(f.tool); !ok {
		return nil, fmt.Errorf("unknown transcript tool %q", f.tool)
	}

	return f, nil
}

// Fetch retrieves and cleans the subtitles for a video. On a downloader
// failure the captured error stream is returned as the text, so the caller
// always has something to display. The scratch directory is removed on every
// path.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	id, err := validation.ValidateVideoID(videoID)
	if err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "youcap-subs-*")
	if err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	def, _ := f.registry.Lookup(f.tool)
	args := append([]string{}, def.Args...)
	args = append(args,
		"-o", filepath.Join(tmpDir, "%(id)s.%(ext)s"),
		"https://www.youtube.com/watch?v="+id,
	)

	runCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	stderr, err := f.runner.Run(runCtx, f.tool, args...)
	if err != nil {
		debuglog.Warnf("transcript: %s failed for %s: %v", f.tool, id, err)
		if text := strings.TrimSpace(stderr); text != "" {
			return text, nil
		}
		return err.Error(), nil
	}

	subFile, err := firstSubtitleFile(tmpDir)
	if err != nil {
		return NoTranscriptText, nil
	}

	data, err := os.ReadFile(subFile)
	if err != nil {
		return "", fmt.Errorf("reading subtitle file: %w", err)
	}

	return CleanVTT(string(data)), nil
}

// firstSubtitleFile returns the lexically first .vtt file in dir.
func firstSubtitleFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".vtt") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no subtitle file produced")
	}

	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}
