package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTempoMapConstant(t *testing.T) {
	m := newTempoMap(120, nil, nil)
	assert.Equal(t, time.Duration(0), m.At(0))
	assert.Equal(t, 500*time.Millisecond, m.At(TicksPerBeat))
	assert.Equal(t, 2*time.Second, m.At(4*TicksPerBeat))
}

func TestTempoMapChanges(t *testing.T) {
	// Given out of order on purpose.
	m := newTempoMap(120, []tempoChange{
		{ticks: 8 * TicksPerBeat, bpm: 60},
		{ticks: 4 * TicksPerBeat, bpm: 240},
	}, nil)
	assert.Equal(t, 2*time.Second, m.At(4*TicksPerBeat))
	assert.Equal(t, 3*time.Second, m.At(8*TicksPerBeat))
	assert.Equal(t, 4*time.Second, m.At(9*TicksPerBeat))
	assert.Equal(t, 60.0, m.tempoAt(9*TicksPerBeat))
}

func TestTempoMapStop(t *testing.T) {
	m := newTempoMap(120, nil, []stop{{ticks: 4 * TicksPerBeat, length: 192}})
	// A whole note at 120 BPM lasts two seconds.
	assert.Equal(t, 2*time.Second, m.At(4*TicksPerBeat), "events on the stop sound before it")
	assert.Equal(t, 4*time.Second+500*time.Millisecond, m.At(5*TicksPerBeat))
	assert.Equal(t, 2*time.Second, m.StopLength(4*TicksPerBeat, 192))
}

func TestTempoMapChangeBeforeStop(t *testing.T) {
	m := newTempoMap(120,
		[]tempoChange{{ticks: 4 * TicksPerBeat, bpm: 240}},
		[]stop{{ticks: 4 * TicksPerBeat, length: 48}},
	)
	// The stop is measured at the new tempo: one beat at 240 BPM.
	assert.Equal(t, 2*time.Second, m.At(4*TicksPerBeat))
	assert.Equal(t, 2*time.Second+500*time.Millisecond, m.At(5*TicksPerBeat))
}
