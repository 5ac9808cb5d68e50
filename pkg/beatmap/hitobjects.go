package beatmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodeEvents classifies and decodes every raw hit object line. Output keeps
// input order. The first bad line aborts the whole decode.
func DecodeEvents(lines []string, cfg Config) ([]HitEvent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	events := make([]HitEvent, 0, len(lines))
	for i, line := range lines {
		ev, err := DecodeEvent(line, cfg)
		if err != nil {
			return nil, &LineError{Line: i + 1, Text: line, Err: err}
		}
		events = append(events, ev)
	}
	return events, nil
}

// DecodeEvent decodes one line of the form x,y,time,type,hitSound[,params...].
//
// Sliders (type bit 2) read curveType|x:y|..., slides and length from fields
// 6 to 8. Spinners (type bit 8) read the end time from field 6. Everything
// else is a circle.
func DecodeEvent(line string, cfg Config) (HitEvent, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < 5 {
		return nil, fmt.Errorf("%w: want at least 5 fields, got %d", ErrIncompleteHitObjectSection, len(parts))
	}

	var base Base
	var flags int
	for i, dst := range []*int{&base.X, &base.Y, &base.Time, &flags, &base.HitSound} {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %v", ErrIncompleteHitObjectSection, i+1, err)
		}
		*dst = v
	}
	base.Type = TypeFlags(flags)

	switch {
	case base.Type&TypeSlider != 0:
		return decodeSlider(base, parts, cfg)
	case base.Type&TypeSpinner != 0:
		if len(parts) < 6 {
			return nil, fmt.Errorf("%w: spinner without end time", ErrIncompleteHitObjectSection)
		}
		end, err := strconv.Atoi(strings.TrimSpace(parts[5]))
		if err != nil {
			return nil, fmt.Errorf("%w: spinner end time: %v", ErrIncompleteHitObjectSection, err)
		}
		return Spinner{Base: base, EndTime: end}, nil
	default:
		return Circle{Base: base}, nil
	}
}

func decodeSlider(base Base, parts []string, cfg Config) (HitEvent, error) {
	if len(parts) < 8 {
		return nil, fmt.Errorf("%w: want 8 fields, got %d", ErrMalformedSliderRecord, len(parts))
	}

	path := strings.Split(strings.TrimSpace(parts[5]), "|")
	curve, err := cfg.CurveCode(strings.TrimSpace(path[0]))
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(path)-1)
	for _, tok := range path[1:] {
		xy := strings.Split(strings.TrimSpace(tok), ":")
		if len(xy) != 2 {
			return nil, fmt.Errorf("%w: control point %q", ErrMalformedSliderRecord, tok)
		}
		x, errX := strconv.Atoi(xy[0])
		y, errY := strconv.Atoi(xy[1])
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: control point %q", ErrMalformedSliderRecord, tok)
		}
		points = append(points, Point{X: x, Y: y})
	}

	slides, err := strconv.Atoi(strings.TrimSpace(parts[6]))
	if err != nil {
		return nil, fmt.Errorf("%w: slides: %v", ErrMalformedSliderRecord, err)
	}
	length, err := strconv.ParseFloat(strings.TrimSpace(parts[7]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: length: %v", ErrMalformedSliderRecord, err)
	}
	if math.IsNaN(length) || math.IsInf(length, 0) {
		return nil, fmt.Errorf("%w: length %q is not finite", ErrMalformedSliderRecord, parts[7])
	}

	return Slider{
		Base:   base,
		Curve:  curve,
		Points: points,
		Slides: slides,
		Length: length,
	}, nil
}

// DecodeFile runs the section parser and the event decoder over one chart
func DecodeFile(path string, cfg Config) (*Sections, []HitEvent, error) {
	s, err := ParseFile(path, cfg)
	if err != nil {
		return nil, nil, err
	}
	events, err := DecodeEvents(s.EventLines, cfg)
	if err != nil {
		return nil, nil, err
	}
	return s, events, nil
}
