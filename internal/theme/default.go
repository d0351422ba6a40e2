package theme

import (
	"math"

	"git.lost.host/meutraa/bmstl/internal/game"
)

type DefaultTheme struct {
}

// EventColor picks notes out by their beat subdivision, everything else by
// kind.
func (t *DefaultTheme) EventColor(ev game.Event) Color {
	if ev.IsNote() {
		return getNoteColor(Snap(ev.Beat))
	}
	col, ok := kindColors[ev.Kind]
	if !ok {
		return noteColors[-1]
	}
	return col
}

func (t *DefaultTheme) Symbol(kind game.EventKind) string {
	if s, ok := syms[kind]; ok {
		return s
	}
	return "?"
}

var (
	syms = map[game.EventKind]string{
		game.BitmapChange:  "▣",
		game.SampleTrigger: "♪",
		game.TempoChange:   "♩",
		game.Pause:         "‖",
		game.Note:          "⬤",
		game.LongNoteStart: "┳",
		game.LongNoteEnd:   "┻",
		game.BeatReset:     "─",
	}
	kindColors = map[game.EventKind]Color{
		game.BitmapChange:  {106, 106, 106},
		game.SampleTrigger: {173, 236, 236},
		game.TempoChange:   {236, 195, 0},
		game.Pause:         {236, 0, 106},
		game.BeatReset:     {110, 147, 89},
	}
	noteColors = map[int]Color{
		1:  {236, 30, 0},    // 1/4 red
		2:  {0, 118, 236},   // 1/8 blue
		3:  {106, 0, 236},   // 1/12 purple
		4:  {236, 195, 0},   // 1/16 yellow
		6:  {236, 0, 106},   // 1/24 pink
		8:  {236, 128, 0},   // 1/32 orange
		12: {173, 236, 236}, // 1/48 light blue
		16: {0, 236, 128},   // 1/64 green
		24: {106, 106, 106}, // 1/96 grey
		48: {110, 147, 89},  // 1/192 olive
		-1: {255, 255, 255}, // other white
	}
	snaps = [...]int{1, 2, 3, 4, 6, 8, 12, 16, 24, 48}
)

// Snap returns the smallest number of divisions of a beat that lands on
// beat, or -1 when none of the usual ones do.
func Snap(beat float64) int {
	frac := beat - math.Floor(beat)
	for _, d := range snaps {
		v := frac * float64(d)
		if math.Abs(v-math.Round(v)) < 1e-6 {
			return d
		}
	}
	return -1
}

func getNoteColor(d int) Color {
	col, ok := noteColors[d]
	if !ok {
		return noteColors[-1]
	}
	return col
}
