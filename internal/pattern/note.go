package pattern

import (
	"fmt"

	"github.com/vk/patterngridgo/internal/rational"
)

// MaxPitch and MaxVelocity bound the MIDI-style 7-bit ranges used for note
// pitch and velocity.
const (
	MaxPitch    = 127
	MaxVelocity = 127
)

// Note is the pitch/velocity/length payload of an event. Its start time
// lives on the enclosing Event, not on the note itself.
type Note struct {
	Duration rational.Rational
	Pitch    int
	Velocity int
}

// Event places a note at an exact start time within a pattern.
type Event struct {
	Start rational.Rational
	Note
}

// End returns the time at which the event's note stops sounding.
func (e Event) End() rational.Rational {
	return e.Start.Add(e.Duration)
}

// Equal reports whether two events have identical start times and notes.
func (e Event) Equal(o Event) bool {
	return e.Start.Equal(o.Start) &&
		e.Duration.Equal(o.Duration) &&
		e.Pitch == o.Pitch &&
		e.Velocity == o.Velocity
}

// Clone returns an event whose rationals are backed by fresh storage.
func (e Event) Clone() Event {
	return Event{
		Start: e.Start.Clone(),
		Note: Note{
			Duration: e.Duration.Clone(),
			Pitch:    e.Pitch,
			Velocity: e.Velocity,
		},
	}
}

func (e Event) String() string {
	return fmt.Sprintf("event(start=%s dur=%s pitch=%d vel=%d)", e.Start, e.Duration, e.Pitch, e.Velocity)
}

// ClampPitch squeezes p into the representable pitch range [0, 127].
func ClampPitch(p int) int {
	if p < 0 {
		return 0
	}
	if p > MaxPitch {
		return MaxPitch
	}
	return p
}

// ClampVelocity squeezes v into the representable velocity range [0, 127].
func ClampVelocity(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxVelocity {
		return MaxVelocity
	}
	return v
}
