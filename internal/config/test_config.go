package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:    ":memory:", // Use in-memory database for tests
			Timeout: 1 * time.Second,
		},
		API: APIConfig{
			Key:          "test-api-key",
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			HTTPTimeout:  5 * time.Second,
		},
		Transcript: TranscriptConfig{
			Tool:    "yt-dlp",
			Timeout: 5 * time.Second,
		},
		Player: defaultConfig().Player,
		UI:     defaultConfig().UI,
	}
}
