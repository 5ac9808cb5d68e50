package beatmap

import (
	"errors"
	"strings"
	"testing"
)

const sampleChart = `osu file format v14

[General]
AudioFilename: audio.mp3
Mode: 0

[Difficulty]
HPDrainRate:6
CircleSize:4
OverallDifficulty:4
ApproachRate:9
SliderMultiplier:1.4
SliderTickRate:1

[TimingPoints]
0,600,4,1,0,100,1,0
1200,-50,4,2,0,80,0,1

[HitObjects]
0,0,0,1,0
0,0,10,1,0
0,0,25,1,0
`

func TestParseSectionsDifficulty(t *testing.T) {
	s, err := ParseSectionsString(sampleChart, DefaultConfig())
	if err != nil {
		t.Fatalf("ParseSectionsString() error = %v", err)
	}

	want := Difficulty{6, 4, 4, 9, 1.4, 1}
	if s.Difficulty != want {
		t.Errorf("Difficulty = %v, want %v", s.Difficulty, want)
	}
	if s.Difficulty.Multiplier() != 1.4 {
		t.Errorf("Multiplier() = %v, want 1.4", s.Difficulty.Multiplier())
	}
}

func TestParseSectionsKeysAnyOrder(t *testing.T) {
	chart := `[Difficulty]
SliderTickRate:2
ApproachRate: 8.5
CircleSize:3
SliderMultiplier:1.8
HPDrainRate:5
OverallDifficulty:7

[HitObjects]
`
	s, err := ParseSectionsString(chart, DefaultConfig())
	if err != nil {
		t.Fatalf("ParseSectionsString() error = %v", err)
	}
	want := Difficulty{5, 3, 7, 8.5, 1.8, 2}
	if s.Difficulty != want {
		t.Errorf("Difficulty = %v, want %v", s.Difficulty, want)
	}
	if len(s.EventLines) != 0 {
		t.Errorf("EventLines = %v, want none", s.EventLines)
	}
}

func TestParseSectionsMissingKey(t *testing.T) {
	keys := DefaultConfig().DifficultyKeys
	for drop := range keys {
		t.Run(keys[drop], func(t *testing.T) {
			var b strings.Builder
			b.WriteString("[Difficulty]\n")
			for i, k := range keys {
				if i != drop {
					b.WriteString(k + ":1\n")
				}
			}
			b.WriteString("\n[HitObjects]\n0,0,0,1,0\n")

			_, err := ParseSectionsString(b.String(), DefaultConfig())
			if !errors.Is(err, ErrInvalidDifficulty) {
				t.Fatalf("error = %v, want ErrInvalidDifficulty", err)
			}
			if !strings.Contains(err.Error(), keys[drop]) {
				t.Errorf("error %q does not name %s", err, keys[drop])
			}
		})
	}
}

func TestParseSectionsStopsAtUnknownLine(t *testing.T) {
	chart := `[Difficulty]
HPDrainRate:6
CircleSize:4
OverallDifficulty:4
Stray:1
ApproachRate:9
SliderMultiplier:1.4
SliderTickRate:1
[HitObjects]
`
	_, err := ParseSectionsString(chart, DefaultConfig())
	if !errors.Is(err, ErrInvalidDifficulty) {
		t.Errorf("error = %v, want ErrInvalidDifficulty", err)
	}
}

func TestParseSectionsNoDifficulty(t *testing.T) {
	_, err := ParseSectionsString("[HitObjects]\n0,0,0,1,0\n", DefaultConfig())
	if !errors.Is(err, ErrInvalidDifficulty) {
		t.Errorf("error = %v, want ErrInvalidDifficulty", err)
	}
}

func TestParseSectionsNonNumericDifficulty(t *testing.T) {
	chart := strings.Replace(sampleChart, "CircleSize:4", "CircleSize:four", 1)
	_, err := ParseSectionsString(chart, DefaultConfig())
	if !errors.Is(err, ErrInvalidDifficulty) {
		t.Errorf("error = %v, want ErrInvalidDifficulty", err)
	}
}

func TestParseSectionsNonFiniteDifficulty(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Infinity", "1e400"} {
		chart := strings.Replace(sampleChart, "HPDrainRate:6", "HPDrainRate:"+v, 1)
		_, err := ParseSectionsString(chart, DefaultConfig())
		if !errors.Is(err, ErrInvalidDifficulty) {
			t.Errorf("HPDrainRate:%s error = %v, want ErrInvalidDifficulty", v, err)
		}
	}
}

func TestParseSectionsMissingHitObjects(t *testing.T) {
	chart := strings.Split(sampleChart, "[HitObjects]")[0]
	_, err := ParseSectionsString(chart, DefaultConfig())
	if !errors.Is(err, ErrMissingHitObjectSection) {
		t.Errorf("error = %v, want ErrMissingHitObjectSection", err)
	}
}

func TestParseSectionsEventLines(t *testing.T) {
	chart := strings.ReplaceAll(sampleChart, "\n", "\r\n") + "\r\n\r\n"
	s, err := ParseSectionsString(chart, DefaultConfig())
	if err != nil {
		t.Fatalf("ParseSectionsString() error = %v", err)
	}
	want := []string{"0,0,0,1,0", "0,0,10,1,0", "0,0,25,1,0"}
	if len(s.EventLines) != len(want) {
		t.Fatalf("EventLines = %q, want %q", s.EventLines, want)
	}
	for i := range want {
		if s.EventLines[i] != want[i] {
			t.Errorf("EventLines[%d] = %q, want %q", i, s.EventLines[i], want[i])
		}
	}
}

func TestParseSectionsTimingPoints(t *testing.T) {
	s, err := ParseSectionsString(sampleChart, DefaultConfig())
	if err != nil {
		t.Fatalf("ParseSectionsString() error = %v", err)
	}
	if len(s.TimingPoints) != 2 {
		t.Fatalf("TimingPoints = %v, want 2 entries", s.TimingPoints)
	}
	if s.TimingPoints[0] != DefaultTimingPoint {
		t.Errorf("TimingPoints[0] = %+v, want %+v", s.TimingPoints[0], DefaultTimingPoint)
	}
	tp := s.TimingPoints[1]
	if tp.Time != 1200 || tp.BeatLength != -50 || tp.Uninherited || tp.Effects != 1 || tp.Volume != 80 {
		t.Errorf("TimingPoints[1] = %+v", tp)
	}
}

func TestParseSectionsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Step = 0
	_, err := ParseSectionsString(sampleChart, cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}
