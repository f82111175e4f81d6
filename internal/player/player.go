// Package player hands a video off to an external media player.
package player

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/youcap/youcap/internal/config"
	"github.com/youcap/youcap/internal/validation"
)

const watchURL = "https://www.youtube.com/watch?v="

// Launcher picks the first available configured player for the current
// platform, falling back to the system opener.
type Launcher struct {
	player        string
	defaultOpener string
}

func NewLauncher(cfg *config.Config) *Launcher {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = cfg.Player.Darwin
	case "linux":
		candidates = cfg.Player.Linux
	case "windows":
		candidates = cfg.Player.Windows
	default:
		candidates = cfg.Player.Linux
	}

	l := &Launcher{
		player:        findCommand(candidates...),
		defaultOpener: cfg.Player.DefaultOpener,
	}
	if l.player == "" {
		l.player = l.defaultOpener
	}

	return l
}

// Play launches the player detached with the video's watch URL.
func (l *Launcher) Play(videoID string) error {
	id, err := validation.ValidateVideoID(videoID)
	if err != nil {
		return err
	}

	if l.player == "" {
		return fmt.Errorf("no video player found")
	}

	cmd := exec.Command(l.player, watchURL+id)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.player, err)
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
