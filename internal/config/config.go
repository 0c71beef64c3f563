package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	json "github.com/goccy/go-json"
)

// Config holds all configurable paths and render settings for the preview
// tools.
type Config struct {
	// Paths
	ModelDir   string `json:"model_dir"`
	TextureDir string `json:"texture_dir"`
	OutputDir  string `json:"output_dir"`

	// Render settings
	RenderSize  int `json:"render_size"`
	Supersample int `json:"supersample"`
	Workers     int `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults. CLI flags take priority
// when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.ModelDir != "" {
		c.ModelDir = flags.ModelDir
	}
	if flags.TextureDir != "" {
		c.TextureDir = flags.TextureDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.RenderSize > 0 {
		c.RenderSize = flags.RenderSize
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.ModelDir == "" {
		c.ModelDir = "."
	}
	if c.TextureDir == "" {
		c.TextureDir = filepath.Join(c.ModelDir, "textures")
	}
	if c.OutputDir == "" {
		c.OutputDir = "previews"
	}

	// Defaults for render settings
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	ModelDir   string
	TextureDir string
	OutputDir  string
	RenderSize int
	Workers    int
}
