package pattern

import (
	"errors"

	"github.com/vk/patterngridgo/internal/rational"
)

// ErrNoEvents is returned by CalculateBounds for an empty event list, where
// bounds are undefined.
var ErrNoEvents = errors.New("pattern: bounds undefined for empty event list")

// Bounds is the derived bounding box of a pattern's events: the pitch
// extremes and the time span from the earliest start to the latest note
// end. It is a cache, never authoritative; any code replacing a pattern's
// events must recompute it.
type Bounds struct {
	MinPitch int
	MaxPitch int
	MinTime  rational.Rational
	MaxTime  rational.Rational
}

// Clone returns a Bounds whose rationals are backed by fresh storage.
func (b Bounds) Clone() Bounds {
	return Bounds{
		MinPitch: b.MinPitch,
		MaxPitch: b.MaxPitch,
		MinTime:  b.MinTime.Clone(),
		MaxTime:  b.MaxTime.Clone(),
	}
}

// Equal reports whether two bounds describe the same box.
func (b Bounds) Equal(o Bounds) bool {
	return b.MinPitch == o.MinPitch &&
		b.MaxPitch == o.MaxPitch &&
		b.MinTime.Equal(o.MinTime) &&
		b.MaxTime.Equal(o.MaxTime)
}

// CalculateBounds computes the bounding box of the given events. MaxTime
// accounts for note durations, so an event always ends inside the box.
func CalculateBounds(events []Event) (Bounds, error) {
	if len(events) == 0 {
		return Bounds{}, ErrNoEvents
	}

	b := Bounds{
		MinPitch: events[0].Pitch,
		MaxPitch: events[0].Pitch,
		MinTime:  events[0].Start,
		MaxTime:  events[0].End(),
	}
	for _, e := range events[1:] {
		if e.Pitch < b.MinPitch {
			b.MinPitch = e.Pitch
		}
		if e.Pitch > b.MaxPitch {
			b.MaxPitch = e.Pitch
		}
		b.MinTime = rational.Min(b.MinTime, e.Start)
		b.MaxTime = rational.Max(b.MaxTime, e.End())
	}
	return b, nil
}
