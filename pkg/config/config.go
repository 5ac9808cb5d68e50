// Package config loads beatgrid settings from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/james-see/beatgrid/pkg/beatmap"
)

// Batch controls the batch encoder
type Batch struct {
	Workers   int    `yaml:"workers" toml:"workers"`
	OutputDir string `yaml:"output_dir" toml:"output_dir"`
	Manifest  string `yaml:"manifest" toml:"manifest"`
}

// File is the on-disk settings layout
type File struct {
	Codec beatmap.Config `yaml:"codec" toml:"codec"`
	Batch Batch          `yaml:"batch" toml:"batch"`
}

// Default returns settings that match beatmap.DefaultConfig and use one
// worker per CPU
func Default() File {
	return File{
		Codec: beatmap.DefaultConfig(),
		Batch: Batch{Workers: runtime.NumCPU()},
	}
}

// Load reads path on top of Default. The decoder is chosen by extension:
// .yaml/.yml or .toml. An empty path returns the defaults.
func Load(path string) (File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".toml":
		err = toml.Unmarshal(data, &f)
	default:
		return f, fmt.Errorf("%w: unsupported config extension %q", beatmap.ErrInvalidConfig, ext)
	}
	if err != nil {
		return f, fmt.Errorf("%w: %s: %v", beatmap.ErrInvalidConfig, path, err)
	}

	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

// Validate checks the codec settings and the batch section
func (f File) Validate() error {
	if err := f.Codec.Validate(); err != nil {
		return err
	}
	if f.Batch.Workers < 1 {
		return fmt.Errorf("%w: batch.workers must be at least 1, got %d", beatmap.ErrInvalidConfig, f.Batch.Workers)
	}
	return nil
}
