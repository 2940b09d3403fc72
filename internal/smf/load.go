package smf

import (
	"context"
	"fmt"
	"io"
	"sort"

	gosmf "gitlab.com/gomidi/midi/v2/smf"

	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
)

// voice identifies one sounding note while its off message is pending.
type voice struct {
	channel uint8
	key     uint8
}

// pendingNote remembers where a sounding note began.
type pendingNote struct {
	tick     uint64
	velocity uint8
}

// Load reads an SMF and rebuilds a pattern from its note-on/note-off pairs.
// All tracks are merged. A note-on with velocity zero counts as a note-off,
// and notes still sounding when their track ends are closed at the track's
// final tick. The library panics on some malformed input, so the parse is
// fenced with a recover.
func Load(ctx context.Context, r io.Reader) (p *pattern.Pattern, err error) {
	log := ctxlog.FromContext(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			p = nil
			err = fmt.Errorf("smf parse panicked | %v", rec)
		}
	}()

	file, err := gosmf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("reading smf: %w", err)
	}

	ticks, ok := file.TimeFormat.(gosmf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v: only metric ticks are supported", file.TimeFormat)
	}
	ppq := uint16(ticks)
	if ppq == 0 {
		return nil, fmt.Errorf("smf declares a resolution of zero ticks per quarter note")
	}

	var events []pattern.Event
	for _, track := range file.Tracks {
		pending := make(map[voice]pendingNote)
		var absTicks uint64
		for _, ev := range track {
			absTicks += uint64(ev.Delta)
			var channel, key, velocity uint8
			switch {
			case ev.Message.GetNoteOn(&channel, &key, &velocity):
				v := voice{channel: channel, key: key}
				if velocity == 0 {
					events = closeVoice(events, pending, v, absTicks, ppq)
					continue
				}
				if _, sounding := pending[v]; sounding {
					// Retrigger: the earlier note ends where the new one
					// begins.
					events = closeVoice(events, pending, v, absTicks, ppq)
				}
				pending[v] = pendingNote{tick: absTicks, velocity: velocity}
			case ev.Message.GetNoteOff(&channel, &key, &velocity):
				events = closeVoice(events, pending, voice{channel: channel, key: key}, absTicks, ppq)
			}
		}
		if len(pending) > 0 {
			log.Warn("Closing unterminated notes at end of track.",
				"count", len(pending),
				"tick", absTicks)
			open := make([]voice, 0, len(pending))
			for v := range pending {
				open = append(open, v)
			}
			sort.Slice(open, func(i, j int) bool {
				if open[i].channel != open[j].channel {
					return open[i].channel < open[j].channel
				}
				return open[i].key < open[j].key
			})
			for _, v := range open {
				events = closeVoice(events, pending, v, absTicks, ppq)
			}
		}
	}

	pattern.SortEventsByStart(events)
	return pattern.WithBounds(events, nil), nil
}

// closeVoice finishes the pending note for v at endTick, if one is sounding.
// A note-off with no matching note-on is silently dropped.
func closeVoice(events []pattern.Event, pending map[voice]pendingNote, v voice, endTick uint64, ppq uint16) []pattern.Event {
	start, ok := pending[v]
	if !ok {
		return events
	}
	delete(pending, v)
	return append(events, pattern.Event{
		Start: fromTick(start.tick, ppq),
		Note: pattern.Note{
			Duration: fromTick(endTick-start.tick, ppq),
			Pitch:    int(v.key),
			Velocity: int(start.velocity),
		},
	})
}

// fromTick converts an absolute tick back to a whole-note position. The
// division is exact, so loading never loses precision beyond what rendering
// already rounded.
func fromTick(tick uint64, ppq uint16) rational.Rational {
	return rational.New(int64(tick), 4*int64(ppq))
}
