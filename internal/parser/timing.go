package parser

import (
	"sort"
	"time"

	"golang.org/x/exp/slices"
)

// TicksPerBeat is the grid resolution of produced events.
const TicksPerBeat = 240

type tempoChange struct {
	ticks int
	bpm   float64
}

// stop halts the scroll for length 192nds of a whole note.
type stop struct {
	ticks  int
	length float64
}

type segment struct {
	ticks     int
	at        time.Duration
	bpm       float64
	afterStop bool // Holds for ticks after a stop, not at it
}

// tempoMap converts tick positions into playback time.
type tempoMap struct {
	segments []segment
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func beatsToDuration(beats, bpm float64) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return seconds(beats * 60 / bpm)
}

func (s segment) timeAt(ticks int) time.Duration {
	return s.at + beatsToDuration(float64(ticks-s.ticks)/TicksPerBeat, s.bpm)
}

// newTempoMap builds the map from the initial tempo and change points.
// A tempo change and a stop on the same tick apply the change first.
func newTempoMap(initial float64, changes []tempoChange, stops []stop) *tempoMap {
	slices.SortStableFunc(changes, func(a, b tempoChange) int { return a.ticks - b.ticks })
	slices.SortStableFunc(stops, func(a, b stop) int { return a.ticks - b.ticks })

	segs := []segment{{bpm: initial}}
	ci, si := 0, 0
	for ci < len(changes) || si < len(stops) {
		last := segs[len(segs)-1]
		if ci < len(changes) && (si >= len(stops) || changes[ci].ticks <= stops[si].ticks) {
			c := changes[ci]
			ci++
			segs = append(segs, segment{ticks: c.ticks, at: last.timeAt(c.ticks), bpm: c.bpm})
			continue
		}
		s := stops[si]
		si++
		segs = append(segs, segment{
			ticks:     s.ticks,
			at:        last.timeAt(s.ticks) + beatsToDuration(s.length/48, last.bpm),
			bpm:       last.bpm,
			afterStop: true,
		})
	}
	return &tempoMap{segments: segs}
}

// At returns the playback time of ticks. Events on a stop's tick sound
// before the stop.
func (m *tempoMap) At(ticks int) time.Duration {
	i := sort.Search(len(m.segments), func(i int) bool {
		s := m.segments[i]
		return s.ticks > ticks || (s.ticks == ticks && s.afterStop)
	})
	return m.segments[i-1].timeAt(ticks)
}

// StopLength returns how long a stop of length 192nds lasts at ticks.
func (m *tempoMap) StopLength(ticks int, length float64) time.Duration {
	return beatsToDuration(length/48, m.tempoAt(ticks))
}

func (m *tempoMap) tempoAt(ticks int) float64 {
	bpm := m.segments[0].bpm
	for _, s := range m.segments {
		if s.ticks > ticks {
			break
		}
		bpm = s.bpm
	}
	return bpm
}
