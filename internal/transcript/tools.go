package transcript

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed tools.toml
var toolsTOML []byte

// ToolDefinition defines how a subtitle downloader is invoked. Args carry the
// subtitle-selection flags; the fetcher appends the output template and URL.
type ToolDefinition struct {
	Description string   `toml:"description"`
	Args        []string `toml:"args"`
}

// ToolsConfig holds all downloader definitions
type ToolsConfig struct {
	Tools map[string]ToolDefinition `toml:"tools"`
}

// ToolRegistry manages downloader definitions
type ToolRegistry struct {
	tools map[string]ToolDefinition
}

// NewToolRegistry creates a registry from the embedded TOML, then overlays
// the user's custom definitions if present.
func NewToolRegistry() (*ToolRegistry, error) {
	var config ToolsConfig
	if err := toml.Unmarshal(toolsTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing tools.toml: %w", err)
	}

	registry := &ToolRegistry{
		tools: config.Tools,
	}

	registry.loadUserConfig()

	return registry, nil
}

// loadUserConfig merges ~/.config/youcap/tools.toml over the embedded
// definitions. Missing or malformed user files are ignored.
func (r *ToolRegistry) loadUserConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	data, err := os.ReadFile(filepath.Join(home, ".config", "youcap", "tools.toml"))
	if err != nil {
		return
	}

	var config ToolsConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return
	}

	for name, def := range config.Tools {
		r.tools[name] = def
	}
}

// Lookup returns the definition for a tool name.
func (r *ToolRegistry) Lookup(name string) (ToolDefinition, bool) {
	def, ok := r.tools[name]
	return def, ok
}
