package game

import (
	"fmt"
	"math"
	"time"
)

type EventKind uint8

const (
	Unknown EventKind = iota
	BitmapChange
	SampleTrigger
	TempoChange
	Pause
	Note
	LongNoteStart
	LongNoteEnd
	BeatReset
)

var eventKindNames = [...]string{
	Unknown:       "unknown",
	BitmapChange:  "bitmap",
	SampleTrigger: "sample",
	TempoChange:   "tempo",
	Pause:         "pause",
	Note:          "note",
	LongNoteStart: "long-start",
	LongNoteEnd:   "long-end",
	BeatReset:     "beat-reset",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Payload is the second data slot of an event. Tempo, pause and beat reset
// events carry a float, everything else an integer such as a resource id.
// Float values are held as their IEEE-754 bit pattern, so two payloads are
// equal exactly when their bits are.
type Payload struct {
	float bool
	bits  uint64
}

func IntPayload(v int64) Payload { return Payload{bits: uint64(v)} }

func FloatPayload(f float64) Payload { return Payload{float: true, bits: math.Float64bits(f)} }

func (p Payload) IsFloat() bool { return p.float }

// Int returns the payload as an integer. For float payloads this is the raw
// bit pattern, not a numeric conversion.
func (p Payload) Int() int64 { return int64(p.bits) }

// Float reinterprets the payload bits as a float64.
func (p Payload) Float() float64 { return math.Float64frombits(p.bits) }

func (p Payload) String() string {
	if p.float {
		return fmt.Sprintf("%g", p.Float())
	}
	return fmt.Sprintf("%d", p.Int())
}

// Event is one entry of a chart timeline. It is a plain value and safe to
// copy.
type Event struct {
	Kind EventKind

	Ticks   int     // Position on the chart's subdivision grid
	Measure int     // Bar index
	Beat    float64 // Position inside the bar, in beats

	Time  time.Duration // Resolved playback time
	Time2 time.Duration // Release time of a long note, or end of a slice

	Data1 int32 // Lane or channel
	Data2 Payload

	SliceStart, SliceEnd time.Duration // Optional sub-range of the triggered sample
}

// IsNote reports whether the event is a playable note.
func (e Event) IsNote() bool {
	return e.Kind == Note || e.Kind == LongNoteStart || e.Kind == LongNoteEnd
}

// Tempo returns the beats per minute of a TempoChange event.
func (e Event) Tempo() float64 { return e.Data2.Float() }

// Beats returns the length in beats of the measure a BeatReset starts.
func (e Event) Beats() float64 { return e.Data2.Float() }

// PauseLength returns how long a Pause event stops the scroll.
func (e Event) PauseLength() time.Duration {
	return time.Duration(e.Data2.Float() * float64(time.Second))
}

// HasSlice reports whether only part of the triggered sample should play.
func (e Event) HasSlice() bool { return e.SliceEnd > e.SliceStart }

func (e Event) String() string {
	return fmt.Sprintf("%v@%v(t=%d m=%d b=%g d1=%d d2=%v)",
		e.Kind, e.Time, e.Ticks, e.Measure, e.Beat, e.Data1, e.Data2)
}

// Same reports whether a and b are the same logical event. Positions match
// when any one of ticks, measure and beat, or time agrees, so a producer can
// find an event before its time is resolved. Same is not transitive.
func Same(a, b Event) bool {
	return a.Kind == b.Kind &&
		(a.Ticks == b.Ticks ||
			(a.Measure == b.Measure && a.Beat == b.Beat) ||
			a.Time == b.Time) &&
		a.Data1 == b.Data1 &&
		a.Data2 == b.Data2
}

// KeyCompare orders events by (time, ticks, measure, beat).
func KeyCompare(a, b Event) int {
	switch {
	case a.Time < b.Time:
		return -1
	case a.Time > b.Time:
		return 1
	case a.Ticks < b.Ticks:
		return -1
	case a.Ticks > b.Ticks:
		return 1
	case a.Measure < b.Measure:
		return -1
	case a.Measure > b.Measure:
		return 1
	case a.Beat < b.Beat:
		return -1
	case a.Beat > b.Beat:
		return 1
	}
	return 0
}

// Compare is KeyCompare, except events that are Same compare equal.
func Compare(a, b Event) int {
	if Same(a, b) {
		return 0
	}
	return KeyCompare(a, b)
}
