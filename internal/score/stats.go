// Package score derives playback statistics from a chart timeline.
package score

import (
	"math"
	"time"

	"git.lost.host/meutraa/bmstl/internal/game"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// SampleLength reports how long the sample with the given id plays.
type SampleLength func(id int64) (time.Duration, bool)

// Window is the span of timeline density is measured over, centred on
// each note.
const Window = time.Second

type Density struct {
	Min, Max        float64 // Notes per second
	Average, Median float64
}

// Distance returns how far now is from the real time of chart time at
// when played back at rate. Positive means at is still ahead.
func Distance(rate float64, at, now time.Duration) time.Duration {
	return time.Duration(math.Round(float64(at)/rate)) - now
}

// Length is the time the chart has finished sounding: the latest event
// time, extended by the length of any sample a note or trigger starts.
func Length(chart *game.Chart, sampleLength SampleLength) time.Duration {
	var end time.Duration
	for _, ev := range chart.Events() {
		at := ev.Time
		if ev.Kind == game.SampleTrigger || ev.Kind == game.Note || ev.Kind == game.LongNoteStart {
			at += soundLength(ev, sampleLength)
		}
		if at > end {
			end = at
		}
	}
	return end
}

func soundLength(ev game.Event, sampleLength SampleLength) time.Duration {
	if nil == sampleLength {
		return 0
	}
	l, ok := sampleLength(ev.Data2.Int())
	if !ok {
		return 0
	}
	if ev.HasSlice() {
		if ev.SliceEnd-ev.SliceStart < l {
			return ev.SliceEnd - ev.SliceStart
		}
	}
	return l
}

// hits returns the time of every note a player presses, long note ends
// excluded.
func hits(chart *game.Chart) []time.Duration {
	var out []time.Duration
	for _, ev := range chart.Events() {
		if ev.Kind == game.Note || ev.Kind == game.LongNoteStart {
			out = append(out, ev.Time)
		}
	}
	return out
}

// Densities returns, for each note, the notes per second inside the
// window around it.
func Densities(chart *game.Chart) []float64 {
	times := hits(chart)
	out := make([]float64, len(times))
	half := Window / 2
	lo, hi := 0, 0
	for i, t := range times {
		for times[lo] < t-half {
			lo++
		}
		for hi < len(times) && times[hi] <= t+half {
			hi++
		}
		out[i] = float64(hi-lo) / Window.Seconds()
	}
	return out
}

// NoteDensity summarises Densities. A chart without notes has zero
// density.
func NoteDensity(chart *game.Chart) Density {
	d := Densities(chart)
	if len(d) == 0 {
		return Density{}
	}
	return Density{
		Min:     lowest(d),
		Max:     highest(d),
		Average: mean(d),
		Median:  median(d),
	}
}

type number interface {
	constraints.Integer | constraints.Float
}

func lowest[T number](vs []T) T {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func highest[T number](vs []T) T {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func mean[T number](vs []T) float64 {
	var sum float64
	for _, v := range vs {
		sum += float64(v)
	}
	return sum / float64(len(vs))
}

func median[T number](vs []T) float64 {
	s := slices.Clone(vs)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return float64(s[n/2])
	}
	return (float64(s[n/2-1]) + float64(s[n/2])) / 2
}
