package converter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/james-see/beatgrid/pkg/beatmap"
)

// Marshal serializes an encoded unit. Identical units produce identical bytes.
func Marshal(e *EncodedBeatmap) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil encoded beatmap", beatmap.ErrCorruptEncoding)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", e.Name, err)
	}
	return data, nil
}

// Unmarshal parses and validates an encoded unit
func Unmarshal(data []byte) (*EncodedBeatmap, error) {
	var e EncodedBeatmap
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", beatmap.ErrCorruptEncoding, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Validate checks the container tag, the step and both sparse tensors
func (e *EncodedBeatmap) Validate() error {
	if e.Format != ContainerFormat {
		return fmt.Errorf("%w: format %q, want %q", beatmap.ErrCorruptEncoding, e.Format, ContainerFormat)
	}
	if e.Step <= 0 {
		return fmt.Errorf("%w: step %d", beatmap.ErrCorruptEncoding, e.Step)
	}
	if _, err := e.Dense(); err != nil {
		return err
	}
	pm, err := e.Points()
	if err != nil {
		return err
	}
	if pm.Sliders != e.Stats.Sliders {
		return fmt.Errorf("%w: %d slider rows, stats say %d", beatmap.ErrCorruptEncoding, pm.Sliders, e.Stats.Sliders)
	}
	return nil
}

// ReadEncodedFile loads an encoded unit from disk
func ReadEncodedFile(filename string) (*EncodedBeatmap, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded file: %w", err)
	}
	return Unmarshal(data)
}

// WriteEncodedFile writes an encoded unit. The data goes to a temporary file
// in the same directory first, so a failure never leaves a partial unit behind.
func WriteEncodedFile(e *EncodedBeatmap, filename string) error {
	data, err := Marshal(e)
	if err != nil {
		return err
	}
	return WriteFile(filename, data)
}

// WriteFile replaces filename with data through a temporary file in the same
// directory
func WriteFile(filename string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, filename); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
