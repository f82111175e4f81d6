package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	API        APIConfig        `mapstructure:"api"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
	Player     PlayerConfig     `mapstructure:"player"`
	UI         UIConfig         `mapstructure:"ui"`
}

type StorageConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

// APIConfig holds credentials and client settings for the YouTube Data API.
// Key is used for unauthenticated endpoints (search), ClientID/ClientSecret
// for the OAuth login flow. All three may also arrive via environment
// (YOUCAP_API_KEY, YOUCAP_API_CLIENT_ID, YOUCAP_API_CLIENT_SECRET).
type APIConfig struct {
	Key          string        `mapstructure:"key"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
}

type TranscriptConfig struct {
	Tool    string        `mapstructure:"tool"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PlayerConfig struct {
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".youcap.db")
	searchIndexPath := filepath.Join(homeDir, ".youcap", "index.bleve")

	return &Config{
		Storage: StorageConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		API: APIConfig{
			HTTPTimeout: 20 * time.Second,
		},
		Transcript: TranscriptConfig{
			Tool:    "yt-dlp",
			Timeout: 60 * time.Second,
		},
		Player: PlayerConfig{
			Darwin:        []string{"iina", "mpv", "vlc"},
			Linux:         []string{"mpv", "vlc", "mplayer"},
			Windows:       []string{"mpv", "vlc"},
			DefaultOpener: getDefaultOpener(),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#89B4FA",
				Secondary: "#B4BEFE",
				Text:      "#CDD6F4",
				Muted:     "#A6ADC8",
				Error:     "#F38BA8",
				Success:   "#A6E3A1",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("api", cfg.API)
	v.SetDefault("transcript", cfg.Transcript)
	v.SetDefault("player", cfg.Player)
	v.SetDefault("ui", cfg.UI)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "youcap")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("YOUCAP")
	v.AutomaticEnv()

	// Credentials usually come from the environment, not the config file
	_ = v.BindEnv("api.key", "YOUCAP_API_KEY", "YOUTUBE_API_KEY")
	_ = v.BindEnv("api.client_id", "YOUCAP_API_CLIENT_ID", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("api.client_secret", "YOUCAP_API_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Storage.SearchIndex = expandPath(cfg.Storage.SearchIndex)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	storageCfg := map[string]interface{}{
		"path":         config.Storage.Path,
		"timeout":      config.Storage.Timeout.String(),
		"search_index": config.Storage.SearchIndex,
	}

	apiCfg := map[string]interface{}{
		"http_timeout": config.API.HTTPTimeout.String(),
	}

	transcriptCfg := map[string]interface{}{
		"tool":    config.Transcript.Tool,
		"timeout": config.Transcript.Timeout.String(),
	}

	v.Set("storage", storageCfg)
	v.Set("api", apiCfg)
	v.Set("transcript", transcriptCfg)
	v.Set("player", config.Player)
	v.Set("ui", config.UI)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
