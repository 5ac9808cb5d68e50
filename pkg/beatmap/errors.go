package beatmap

import (
	"errors"
	"fmt"
)

// Per-file failures. Every one of them abandons the whole file.
var (
	ErrInvalidDifficulty          = errors.New("invalid difficulty section")
	ErrMissingHitObjectSection    = errors.New("missing hit object section")
	ErrUnknownCurveType           = errors.New("unknown curve type")
	ErrMalformedSliderRecord      = errors.New("malformed slider record")
	ErrEmptyEventStream           = errors.New("empty event stream")
	ErrIncompleteHitObjectSection = errors.New("incomplete hit object section")
	ErrInvalidConfig              = errors.New("invalid codec config")
	ErrCorruptEncoding            = errors.New("corrupt encoding")
	ErrEmptyActivation            = errors.New("empty activation sequence")
	ErrGridTooLarge               = errors.New("grid too large")
)

// LineError attaches the 1-based position of an event line to a decode failure
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("hit object %d (%q): %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidDifficulty, "InvalidDifficulty"},
	{ErrMissingHitObjectSection, "MissingHitObjectSection"},
	{ErrUnknownCurveType, "UnknownCurveType"},
	{ErrMalformedSliderRecord, "MalformedSliderRecord"},
	{ErrEmptyEventStream, "EmptyEventStream"},
	{ErrIncompleteHitObjectSection, "IncompleteHitObjectSection"},
	{ErrInvalidConfig, "InvalidConfig"},
	{ErrCorruptEncoding, "CorruptEncoding"},
	{ErrEmptyActivation, "EmptyActivation"},
	{ErrGridTooLarge, "GridTooLarge"},
}

// ErrorKind names the failure class of err, "IO" for anything outside the
// codec taxonomy and "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "IO"
}
