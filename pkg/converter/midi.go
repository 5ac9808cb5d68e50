package converter

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/beatgrid/pkg/beatmap"
	"github.com/james-see/beatgrid/pkg/grid"
)

// General MIDI percussion notes used for the rhythm preview
const (
	NoteCircle  uint8 = 76 // hi wood block
	NoteSlider  uint8 = 77 // low wood block
	NoteSpinner uint8 = 56 // cowbell

	drumChannel = 9
)

// MIDIConverter renders grids as percussion click tracks and reads click
// tracks back into activation sequences
type MIDIConverter struct {
	ticksPerQuarter uint16
	tempo           float64
}

// NewMIDIConverter creates a converter whose tick is exactly one millisecond
// (480 ticks per quarter at 125 BPM)
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
		tempo:           125.0,
	}
}

type click struct {
	ms       uint32
	note     uint8
	velocity uint8
}

// GenerateMIDI renders every occupied slot of g as a drum hit
func (m *MIDIConverter) GenerateMIDI(g *grid.Grid) ([]byte, error) {
	if g == nil {
		return nil, errors.New("nil grid")
	}
	var clicks []click
	for i, row := range g.Rows {
		if row[grid.ColPresent] == 0 {
			continue
		}
		c := click{ms: uint32(i * g.Step), note: NoteCircle, velocity: 100}
		flags := beatmap.TypeFlags(row[grid.ColKind])
		switch {
		case flags&beatmap.TypeSlider != 0:
			c.note = NoteSlider
		case flags&beatmap.TypeSpinner != 0:
			c.note = NoteSpinner
		}
		if flags&beatmap.TypeNewCombo != 0 {
			c.velocity = 127
		}
		clicks = append(clicks, c)
	}
	return m.writeClicks(clicks, g.Step)
}

// GenerateActivationMIDI renders every non-zero activation as a drum hit
func (m *MIDIConverter) GenerateActivationMIDI(activations []float64, step int) ([]byte, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %d", beatmap.ErrInvalidConfig, step)
	}
	var clicks []click
	for i, a := range activations {
		if a == 0 {
			continue
		}
		clicks = append(clicks, click{ms: uint32(i * step), note: NoteCircle, velocity: 100})
	}
	return m.writeClicks(clicks, step)
}

func (m *MIDIConverter) writeClicks(clicks []click, step int) ([]byte, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var track smf.Track

	microsecondsPerBeat := uint32(60000000.0 / m.tempo)
	tempoData := smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	})
	track.Add(0, tempoData)

	// Time signature (4/4)
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	ticksPerMs := float64(m.ticksPerQuarter) * m.tempo / 60000.0
	gate := uint32(math.Max(1, float64(step)*ticksPerMs*3/4))

	var currentTick uint32
	for _, c := range clicks {
		tick := uint32(math.Round(float64(c.ms) * ticksPerMs))
		track.Add(tick-currentTick, midi.NoteOn(drumChannel, c.note, c.velocity))
		track.Add(gate, midi.NoteOff(drumChannel, c.note))
		currentTick = tick + gate
	}

	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseMIDI reads note starts from every track and snaps each to the nearest
// slot of the given step. Tempo changes are honored.
func (m *MIDIConverter) ParseMIDI(data []byte, step int) ([]float64, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %d", beatmap.ErrInvalidConfig, step)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse MIDI: %v", beatmap.ErrCorruptEncoding, err)
	}

	resolution := m.ticksPerQuarter
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok && mt.Resolution() > 0 {
		resolution = mt.Resolution()
	}

	type event struct {
		tick  int64
		tempo uint32 // microseconds per beat, 0 for note starts
	}
	var events []event
	for _, track := range s.Tracks {
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			msg := ev.Message

			// Tempo meta message (FF 51 03 tt tt tt)
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				us := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if us > 0 {
					events = append(events, event{tick: tick, tempo: us})
				}
				continue
			}
			// Note On (0x90-0x9F) with non-zero velocity
			if len(msg) >= 3 && msg[0] >= 0x90 && msg[0] <= 0x9F && msg[2] > 0 {
				events = append(events, event{tick: tick})
			}
		}
	}
	// Tempo changes sort before notes on the same tick
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].tempo != 0 && events[j].tempo == 0
	})

	usPerBeat := 500000.0
	var lastTick int64
	var ms float64
	var slots []int
	for _, ev := range events {
		ms += float64(ev.tick-lastTick) * usPerBeat / float64(resolution) / 1000
		lastTick = ev.tick
		if ev.tempo != 0 {
			usPerBeat = float64(ev.tempo)
			continue
		}
		slot := math.Round(ms / float64(step))
		if slot >= grid.MaxRows {
			return nil, fmt.Errorf("%w: note at %.0fms needs slot %.0f, limit %d", beatmap.ErrGridTooLarge, ms, slot, grid.MaxRows)
		}
		slots = append(slots, int(slot))
	}
	if len(slots) == 0 {
		return nil, beatmap.ErrEmptyActivation
	}

	out := make([]float64, slots[len(slots)-1]+1)
	for _, slot := range slots {
		out[slot] = 1
	}
	return out, nil
}

// ParseMIDIFile reads a MIDI file and returns its activation sequence
func (m *MIDIConverter) ParseMIDIFile(filename string, step int) ([]float64, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return m.ParseMIDI(data, step)
}
