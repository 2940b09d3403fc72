// Package pattern defines the musical value flowing through the transform
// graph: an ordered sequence of note events, an optional explicit duration,
// and a derived bounding box.
//
// Patterns are treated as immutable snapshots. No operation in this package
// or in the transform packages mutates a pattern in place; transforms build
// fresh patterns, which is what makes cached evaluation results safe to
// hand out to multiple readers.
//
// Events are kept sorted ascending by start time. Transform outputs uphold
// that ordering with one exception: sequential concatenation appends the
// shifted per-input runs without a final re-sort, so its output preserves
// per-source order rather than global time order.
package pattern

import (
	"fmt"
	"sort"

	"github.com/vk/patterngridgo/internal/rational"
)

// Pattern is a sequence of events plus an optional explicit duration.
// A nil Duration means the duration derives from the events. Bounds is a
// cache over Events; it is nil exactly when Events is empty and must always
// equal a fresh recomputation otherwise.
type Pattern struct {
	Events   []Event
	Duration *rational.Rational
	Bounds   *Bounds
}

// Empty returns a pattern with no events and derived (zero) duration.
func Empty() *Pattern {
	return &Pattern{}
}

// WithBounds constructs a pattern from the given events and duration,
// recomputing the bounds cache from the events. The events slice is owned
// by the new pattern; callers hand it over rather than retaining it.
// A nil duration leaves the pattern with a derived duration.
func WithBounds(events []Event, duration *rational.Rational) *Pattern {
	p := &Pattern{Events: events, Duration: duration}
	if b, err := CalculateBounds(events); err == nil {
		p.Bounds = &b
	}
	return p
}

// ExplicitDuration wraps d for use as a Pattern.Duration value.
func ExplicitDuration(d rational.Rational) *rational.Rational {
	return &d
}

// EffectiveDuration returns the explicit duration when one is set,
// otherwise the latest event end time, otherwise zero.
func (p *Pattern) EffectiveDuration() rational.Rational {
	if p == nil {
		return rational.Rational{}
	}
	if p.Duration != nil {
		return *p.Duration
	}
	var max rational.Rational
	for _, e := range p.Events {
		max = rational.Max(max, e.End())
	}
	return max
}

// CloneDuration returns a fresh copy of the explicit duration field, or
// nil when the duration is derived. Transforms that preserve the duration
// field use it to carry explicitness through without aliasing.
func (p *Pattern) CloneDuration() *rational.Rational {
	if p == nil || p.Duration == nil {
		return nil
	}
	d := p.Duration.Clone()
	return &d
}

// Clone returns a deep copy: every rational in the events, duration, and
// bounds is backed by fresh storage, so the copy shares nothing with the
// original.
func (p *Pattern) Clone() *Pattern {
	if p == nil {
		return nil
	}
	cp := &Pattern{}
	if p.Events != nil {
		cp.Events = make([]Event, len(p.Events))
		for i, e := range p.Events {
			cp.Events[i] = e.Clone()
		}
	}
	if p.Duration != nil {
		d := p.Duration.Clone()
		cp.Duration = &d
	}
	if p.Bounds != nil {
		b := p.Bounds.Clone()
		cp.Bounds = &b
	}
	return cp
}

// Equal reports whether two patterns have the same events in the same
// order and the same duration field, including whether it is explicit.
// Bounds is derived state and does not participate.
func (p *Pattern) Equal(q *Pattern) bool {
	if p == nil || q == nil {
		return p == q
	}
	if len(p.Events) != len(q.Events) {
		return false
	}
	for i := range p.Events {
		if !p.Events[i].Equal(q.Events[i]) {
			return false
		}
	}
	if (p.Duration == nil) != (q.Duration == nil) {
		return false
	}
	if p.Duration != nil && !p.Duration.Equal(*q.Duration) {
		return false
	}
	return true
}

func (p *Pattern) String() string {
	if p == nil {
		return "pattern(nil)"
	}
	return fmt.Sprintf("pattern(%d events, duration %s)", len(p.Events), p.EffectiveDuration())
}

// SortEventsByStart sorts events ascending by start time in place, keeping
// the relative order of events that share a start.
func SortEventsByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Cmp(events[j].Start) < 0
	})
}
