package converter

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/james-see/beatgrid/pkg/beatmap"
)

// ParseActivation reads an activation sequence: one number per slot,
// separated by commas, whitespace or newlines. Lines starting with # are
// comments.
func ParseActivation(data []byte) ([]float64, error) {
	if err := ValidateActivation(data); err != nil {
		return nil, err
	}
	var out []float64
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, tok := range strings.FieldsFunc(line, isSeparator) {
			v, _ := strconv.ParseFloat(tok, 64)
			out = append(out, v)
		}
	}
	return out, nil
}

// ParseActivationFile reads an activation file from disk
func ParseActivationFile(filename string) ([]float64, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read activation file: %w", err)
	}
	return ParseActivation(data)
}

// GenerateActivation renders one value per line
func GenerateActivation(activations []float64) []byte {
	var buf bytes.Buffer
	for _, a := range activations {
		buf.WriteString(strconv.FormatFloat(a, 'f', -1, 64))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ValidateActivation checks that data holds at least one value and nothing
// but numbers
func ValidateActivation(data []byte) error {
	n := 0
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, tok := range strings.FieldsFunc(line, isSeparator) {
			if _, err := strconv.ParseFloat(tok, 64); err != nil {
				return fmt.Errorf("%w: line %d: %q is not a number", beatmap.ErrCorruptEncoding, i+1, tok)
			}
			n++
		}
	}
	if n == 0 {
		return beatmap.ErrEmptyActivation
	}
	return nil
}

func isSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\t' || r == '\r'
}
