package converter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/james-see/beatgrid/pkg/beatmap"
)

func TestMarshalUnmarshal(t *testing.T) {
	e, err := newTestConverter().Encode("chart", []byte(testChart))
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Name != e.Name || got.Step != e.Step || got.Difficulty != e.Difficulty || got.Stats != e.Stats {
		t.Errorf("Unmarshal() = %+v, want %+v", got, e)
	}

	g1, _ := e.Dense()
	g2, err := got.Dense()
	if err != nil {
		t.Fatal(err)
	}
	if !g1.Equal(g2) {
		t.Error("grid changed across Marshal/Unmarshal")
	}
	p1, _ := e.Points()
	p2, _ := got.Points()
	if !p1.Equal(p2) {
		t.Error("slider points changed across Marshal/Unmarshal")
	}
}

func TestUnmarshalCorrupt(t *testing.T) {
	e, err := newTestConverter().Encode("chart", []byte(testChart))
	if err != nil {
		t.Fatal(err)
	}
	good, err := Marshal(e)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"wrong format", strings.Replace(string(good), ContainerFormat, "other/v9", 1)},
		{"zero step", strings.Replace(string(good), `"step":10`, `"step":0`, 1)},
		{"slider count", strings.Replace(string(good), `"sliders":1`, `"sliders":2`, 1)},
		{"huge grid", strings.Replace(string(good), `"shape":[7,8]`, `"shape":[1152921504606846976,8]`, 1)},
		{"huge points", strings.Replace(string(good), `"shape":[1,2,2]`, `"shape":[1,1152921504606846976,2]`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			if !errors.Is(err, beatmap.ErrCorruptEncoding) {
				t.Errorf("Unmarshal() error = %v, want ErrCorruptEncoding", err)
			}
		})
	}
}

func TestMarshalNil(t *testing.T) {
	if _, err := Marshal(nil); !errors.Is(err, beatmap.ErrCorruptEncoding) {
		t.Errorf("Marshal(nil) error = %v, want ErrCorruptEncoding", err)
	}
}

func TestWriteEncodedFile(t *testing.T) {
	e, err := newTestConverter().Encode("chart", []byte(testChart))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "chart.osg")
	if err := WriteEncodedFile(e, path); err != nil {
		t.Fatalf("WriteEncodedFile() error = %v", err)
	}
	got, err := ReadEncodedFile(path)
	if err != nil {
		t.Fatalf("ReadEncodedFile() error = %v", err)
	}
	if got.Stats != e.Stats {
		t.Errorf("Stats = %+v, want %+v", got.Stats, e.Stats)
	}

	if _, err := ReadEncodedFile(filepath.Join(t.TempDir(), "missing.osg")); err == nil {
		t.Error("ReadEncodedFile() on a missing file should fail")
	}
}
