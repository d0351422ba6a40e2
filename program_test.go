package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.lost.host/meutraa/bmstl/internal/audio"
	"git.lost.host/meutraa/bmstl/internal/game"
	"git.lost.host/meutraa/bmstl/internal/input"
	"git.lost.host/meutraa/bmstl/internal/library"
	"git.lost.host/meutraa/bmstl/internal/parser"
	"git.lost.host/meutraa/bmstl/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One measure of quarter notes at 240 BPM, one second long.
const quarters = "#TITLE Quarters\n#ARTIST tester\n#BPM 240\n#WAV01 kick.wav\n#00011:01010101\n"

func newProgram(t *testing.T, out *bytes.Buffer) *Program {
	t.Helper()
	return &Program{
		Parser:   &parser.DefaultParser{},
		Store:    &library.DefaultStore{},
		Renderer: &render.DefaultRenderer{Out: out},
		Out:      out,
		Options: Options{
			Database: filepath.Join(t.TempDir(), "library.db"),
			Density:  true,
			Rate:     4,
			NoAudio:  true,
		},
	}
}

func writeChart(t *testing.T, source string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "song.bms")
	require.NoError(t, os.WriteFile(file, []byte(source), 0o644))
	return file
}

func TestInfo(t *testing.T) {
	var out bytes.Buffer
	p := newProgram(t, &out)
	require.NoError(t, p.Info(writeChart(t, quarters)))

	text := out.String()
	assert.Contains(t, text, "Title     Quarters\n")
	assert.Contains(t, text, "Artist    tester\n")
	assert.Contains(t, text, "BPM       240 (min 240)\n")
	assert.Contains(t, text, "Notes     4 on 1 lanes [11]\n")
	assert.Contains(t, text, "Length    750ms\n")
	assert.Contains(t, text, "Samples   1\n")
	assert.NotContains(t, text, "Random")
}

func TestInfoQuiet(t *testing.T) {
	var out bytes.Buffer
	p := newProgram(t, &out)
	p.Options.Quiet = true
	require.NoError(t, p.Info(writeChart(t, quarters)))
	assert.Equal(t, "Title     Quarters\n", out.String())
}

func TestInfoParseError(t *testing.T) {
	var out bytes.Buffer
	err := newProgram(t, &out).Info(writeChart(t, "#BPM 120\n#00011:0\n"))
	require.Error(t, err)
	line, ok := parser.ErrorLine(err)
	assert.True(t, ok)
	assert.Equal(t, 2, line)
}

func TestPlayAndHistory(t *testing.T) {
	var out bytes.Buffer
	p := newProgram(t, &out)
	file := writeChart(t, quarters)
	require.NoError(t, p.Play(file))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// A beat reset, four notes and the closing line.
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "beat-reset")
	for _, l := range lines[1:5] {
		assert.Contains(t, l, "lane 11 #1")
	}
	assert.True(t, strings.HasPrefix(lines[5], "finished after "), lines[5])
	assert.True(t, strings.HasSuffix(lines[5], ", 5 events"), lines[5])

	plays, err := p.Store.History("")
	assert.Error(t, err, "the store is closed once a play is recorded")
	assert.Nil(t, plays)

	out.Reset()
	require.NoError(t, p.History(file))
	assert.Contains(t, out.String(), "Quarters")
	assert.Contains(t, out.String(), "x4.00")
	assert.Contains(t, out.String(), "5 events")
	assert.Contains(t, out.String(), "lane 11  4")
}

func TestPlayStop(t *testing.T) {
	var out bytes.Buffer
	p := newProgram(t, &out)
	p.Options.Rate = 1
	p.Options.NoRecord = true
	commands := make(chan input.Command, 1)
	commands <- input.Stop
	closed := false
	p.Listen = func() (<-chan input.Command, func(), error) {
		return commands, func() { closed = true }, nil
	}

	start := time.Now()
	require.NoError(t, p.Play(writeChart(t, quarters)))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, closed)
	assert.Contains(t, out.String(), "stopped after 0s, 0 events")
}

type recordingPlayer struct {
	triggered []game.Event
}

func (r *recordingPlayer) Init() error { return nil }

func (r *recordingPlayer) Trigger(ev game.Event) {
	if audio.Sounds(ev) {
		r.triggered = append(r.triggered, ev)
	}
}

func TestPlayTriggersSamples(t *testing.T) {
	var out bytes.Buffer
	p := newProgram(t, &out)
	p.Options.NoAudio = false
	p.Options.NoRecord = true
	p.Options.Quiet = true
	player := &recordingPlayer{}
	p.NewPlayer = func(bank *audio.Bank, rate, volume float64) audio.Player {
		assert.Equal(t, 4.0, rate)
		assert.Equal(t, 1.0, volume)
		return player
	}

	require.NoError(t, p.Play(writeChart(t, quarters)))
	assert.Len(t, player.triggered, 4)
	assert.NotContains(t, out.String(), "lane 11")
}

func TestHistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newProgram(t, &out).History(""))
	assert.Equal(t, "no plays\n", out.String())
}
