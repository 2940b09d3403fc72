// Package smf converts patterns to and from standard MIDI files. Rational
// positions are measured in whole notes, so one whole note spans 4*PPQ ticks
// at the file's metric resolution; positions that fall between ticks round
// half-up.
package smf

import (
	"context"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	gosmf "gitlab.com/gomidi/midi/v2/smf"

	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
)

// DefaultPPQ is the metric resolution used when RenderOptions leaves PPQ
// unset.
const DefaultPPQ = 960

// RenderOptions controls the shape of a rendered file. Zero values fall back
// to defaults.
type RenderOptions struct {
	// PPQ is the number of ticks per quarter note. Defaults to DefaultPPQ.
	PPQ uint16

	// Channel is the MIDI channel all notes are emitted on. Defaults to 0.
	Channel uint8

	// BPM sets the tempo meta event. Defaults to 120.
	BPM float64

	// TrackName, when set, is written as the track's name meta event.
	TrackName string
}

// renderMsg is one wire message pinned to an absolute tick. ord sequences
// messages sharing a tick: note-offs first so that a note ending exactly
// where another of the same pitch begins does not cut the new note short.
type renderMsg struct {
	tick uint64
	ord  int
	msg  midi.Message
}

// Render converts a pattern to a single-track SMF. Events with a negative
// start cannot be placed on the tick line and are skipped with a warning.
func Render(ctx context.Context, p *pattern.Pattern, opts RenderOptions) *gosmf.SMF {
	log := ctxlog.FromContext(ctx)
	if p == nil {
		p = pattern.Empty()
	}

	ppq := opts.PPQ
	if ppq == 0 {
		ppq = DefaultPPQ
	}
	bpm := opts.BPM
	if bpm <= 0 {
		bpm = 120
	}

	msgs := make([]renderMsg, 0, 2*len(p.Events))
	for _, e := range p.Events {
		if e.Start.Sign() < 0 {
			log.Warn("Skipping event before the start of the file.",
				"start", e.Start.String(),
				"pitch", e.Pitch)
			continue
		}
		on := toTick(e.Start, ppq)
		off := toTick(e.End(), ppq)
		key := uint8(pattern.ClampPitch(e.Pitch))
		vel := uint8(pattern.ClampVelocity(e.Velocity))

		offOrd := 0
		if off == on {
			// A note collapsed to zero ticks still needs its off after
			// its own on.
			offOrd = 2
		}
		msgs = append(msgs,
			renderMsg{tick: on, ord: 1, msg: midi.NoteOn(opts.Channel, key, vel)},
			renderMsg{tick: off, ord: offOrd, msg: midi.NoteOff(opts.Channel, key)},
		)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].ord < msgs[j].ord
	})

	var tr gosmf.Track
	if opts.TrackName != "" {
		tr.Add(0, gosmf.MetaTrackSequenceName(opts.TrackName))
	}
	tr.Add(0, gosmf.MetaTempo(bpm))

	var cursor uint64
	for _, m := range msgs {
		tr.Add(uint32(m.tick-cursor), m.msg)
		cursor = m.tick
	}

	// Park the end-of-track marker at the pattern's duration so silence at
	// the tail survives the trip to disk.
	end := toTick(p.EffectiveDuration(), ppq)
	var eotDelta uint64
	if end > cursor {
		eotDelta = end - cursor
	}
	tr.Close(uint32(eotDelta))

	out := gosmf.New()
	out.TimeFormat = gosmf.MetricTicks(ppq)
	out.Add(tr)
	return out
}

// toTick converts a whole-note position to an absolute tick, half-up.
func toTick(pos rational.Rational, ppq uint16) uint64 {
	ticks := pos.Mul(rational.FromInt(4 * int64(ppq))).RoundToInt()
	if ticks < 0 {
		return 0
	}
	return uint64(ticks)
}
