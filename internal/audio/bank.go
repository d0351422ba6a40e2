// Package audio decodes chart samples and plays them as events are
// dispatched.
package audio

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.lost.host/meutraa/bmstl/internal/game"
	"git.lost.host/meutraa/bmstl/internal/parser"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// SampleRate is the rate every sample is resampled to.
const SampleRate beep.SampleRate = 44100

// Extensions are tried in order when a sample file is missing, since
// charts often name a .wav that was shipped as .ogg.
var Extensions = []string{".wav", ".ogg", ".mp3"}

const frameBytes = 16 // Two float64 channels

// Bank holds the decoded samples of one chart.
type Bank struct {
	format  beep.Format
	samples map[int64]*beep.Buffer
}

func NewBank() *Bank {
	return &Bank{
		format:  beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2},
		samples: map[int64]*beep.Buffer{},
	}
}

func (b *Bank) Format() beep.Format { return b.format }

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, beep.Format{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	}
	f.Close()
	return nil, beep.Format{}, fmt.Errorf("unsupported sample format %v", filepath.Ext(path))
}

// LoadFile decodes file into the bank as sample id.
func (b *Bank) LoadFile(id int64, file string) error {
	streamer, format, err := decode(file)
	if nil != err {
		return fmt.Errorf("unable to decode %v: %w", file, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != b.format.SampleRate {
		s = beep.Resample(4, format.SampleRate, b.format.SampleRate, streamer)
	}
	buffer := beep.NewBuffer(b.format)
	buffer.Append(s)
	b.samples[id] = buffer
	return nil
}

// Load decodes every sample resource of chart, with paths relative to dir.
// Samples that can not be found or decoded are logged and skipped; the
// number loaded is returned.
func (b *Bank) Load(chart *game.Chart, dir string) int {
	loaded := 0
	for _, r := range chart.Resources(game.ResourceSample) {
		file, err := parser.ResolvePath(dir, r.Path, Extensions...)
		if nil == err {
			err = b.LoadFile(r.ID, file)
		}
		if nil != err {
			log.Printf("skipping sample %v: %v\n", parser.FormatBase36(r.ID, 2), err)
			continue
		}
		loaded++
	}
	return loaded
}

func (b *Bank) Len() int { return len(b.samples) }

// Length reports how long sample id plays.
func (b *Bank) Length(id int64) (time.Duration, bool) {
	buffer, ok := b.samples[id]
	if !ok {
		return 0, false
	}
	return b.format.SampleRate.D(buffer.Len()), true
}

// Bytes is the memory held by decoded samples.
func (b *Bank) Bytes() uint64 {
	var n uint64
	for _, buffer := range b.samples {
		n += uint64(buffer.Len()) * frameBytes
	}
	return n
}

// Streamer returns the sound an event triggers, or false when it carries
// no loaded sample. A slice restricts playback to part of the sample.
func (b *Bank) Streamer(ev game.Event) (beep.StreamSeeker, bool) {
	if ev.Data2.IsFloat() {
		return nil, false
	}
	buffer, ok := b.samples[ev.Data2.Int()]
	if !ok {
		return nil, false
	}
	from, to := 0, buffer.Len()
	if ev.HasSlice() {
		from = clamp(b.format.SampleRate.N(ev.SliceStart), 0, to)
		to = clamp(b.format.SampleRate.N(ev.SliceEnd), from, to)
	}
	return buffer.Streamer(from, to), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
