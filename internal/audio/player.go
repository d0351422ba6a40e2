package audio

import (
	"fmt"
	"math"
	"time"

	"git.lost.host/meutraa/bmstl/internal/game"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
)

type Player interface {
	Init() error

	// Play whatever sample ev triggers
	Trigger(ev game.Event)
}

// Sounds reports whether playback triggers a sample for ev.
func Sounds(ev game.Event) bool {
	return ev.Kind == game.SampleTrigger || ev.Kind == game.Note || ev.Kind == game.LongNoteStart
}

// DefaultPlayer mixes bank samples on the system speaker.
type DefaultPlayer struct {
	Bank   *Bank
	Rate   float64 // Playback speed, 1 is normal
	Volume float64 // Linear gain, 1 is unchanged
}

func (p *DefaultPlayer) Init() error {
	format := p.Bank.Format()
	rate := beep.SampleRate(math.Round(float64(format.SampleRate) * p.Rate))
	if err := speaker.Init(rate, format.SampleRate.N(time.Second/60)); nil != err {
		return fmt.Errorf("unable to open speaker: %w", err)
	}
	return nil
}

func (p *DefaultPlayer) Trigger(ev game.Event) {
	if !Sounds(ev) {
		return
	}
	s, ok := p.Bank.Streamer(ev)
	if !ok {
		return
	}
	speaker.Play(gain(s, p.Volume))
}

// gain scales s by a linear volume.
func gain(s beep.Streamer, volume float64) beep.Streamer {
	if volume == 1 {
		return s
	}
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   math.Log2(volume),
		Silent:   volume <= 0,
	}
}

// NopPlayer discards every trigger.
type NopPlayer struct{}

func (NopPlayer) Init() error { return nil }

func (NopPlayer) Trigger(game.Event) {}
