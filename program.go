package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.lost.host/meutraa/bmstl/internal/audio"
	"git.lost.host/meutraa/bmstl/internal/game"
	"git.lost.host/meutraa/bmstl/internal/input"
	"git.lost.host/meutraa/bmstl/internal/library"
	"git.lost.host/meutraa/bmstl/internal/parser"
	"git.lost.host/meutraa/bmstl/internal/render"
	"git.lost.host/meutraa/bmstl/internal/score"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
)

type Options struct {
	Database string
	Quiet    bool
	Density  bool

	Rate     float64
	Offset   time.Duration
	Delay    time.Duration
	Tail     time.Duration
	NoAudio  bool
	NoRecord bool
}

type Program struct {
	Parser   parser.Parser
	Store    library.Store
	Renderer render.Renderer
	Out      io.Writer
	Options  Options

	// Keyboard commands, playback runs without them when nil
	Listen func() (<-chan input.Command, func(), error)

	// Speaker for a chart's samples, when audio is enabled
	NewPlayer func(bank *audio.Bank, rate, volume float64) audio.Player
}

func (p *Program) load(file string) (*game.Chart, []byte, *audio.Bank, error) {
	chart, source, err := parser.Load(p.Parser, file)
	if nil != err {
		return nil, nil, nil, err
	}
	bank := audio.NewBank()
	if !p.Options.NoAudio {
		bank.Load(chart, filepath.Dir(file))
	}
	return chart, source, bank, nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return durafmt.Parse(d.Round(time.Millisecond)).LimitFirstN(2).String()
}

func joinTitle(main, sub string) string {
	if sub == "" {
		return main
	}
	return main + " " + sub
}

// Info prints what a chart contains.
func (p *Program) Info(file string) error {
	chart, _, bank, err := p.load(file)
	if nil != err {
		return err
	}
	defer chart.Close()

	h := chart.Header()
	length := score.Length(chart, bank.Length)
	w := p.Out
	fmt.Fprintf(w, "%-9v %v\n", "Title", joinTitle(h.Title, h.SubTitle))
	if p.Options.Quiet {
		return nil
	}
	fmt.Fprintf(w, "%-9v %v\n", "Artist", joinTitle(h.Artist, h.SubArtist))
	fmt.Fprintf(w, "%-9v %v\n", "Genre", h.Genre)
	fmt.Fprintf(w, "%-9v %v (rank %v)\n", "Level", h.PlayLevel, h.Rank)
	fmt.Fprintf(w, "%-9v %v (min %v)\n", "BPM", h.BPM, h.MinBPM)

	channels := make([]string, 0)
	for _, ch := range chart.Channels() {
		channels = append(channels, fmt.Sprint(ch))
	}
	fmt.Fprintf(w, "%-9v %v on %v lanes [%v]\n", "Notes", chart.MaxCombos(), len(channels), strings.Join(channels, " "))
	fmt.Fprintf(w, "%-9v %v\n", "Length", formatDuration(length))
	if p.Options.Density {
		d := score.NoteDensity(chart)
		fmt.Fprintf(w, "%-9v %.1f min, %.1f max, %.1f average, %.1f median notes/s\n",
			"Density", d.Min, d.Max, d.Average, d.Median)
	}

	samples := len(chart.Resources(game.ResourceSample))
	if p.Options.NoAudio {
		fmt.Fprintf(w, "%-9v %v\n", "Samples", samples)
	} else {
		fmt.Fprintf(w, "%-9v %v of %v loaded, %v\n", "Samples", bank.Len(), samples, humanize.Bytes(bank.Bytes()))
	}
	fmt.Fprintf(w, "%-9v %v\n", "Bitmaps", len(chart.Resources(game.ResourceBitmap)))
	if h.Randomized {
		fmt.Fprintf(w, "%-9v %v\n", "Random", "every branch taken as 1")
	}
	return nil
}

// Play replays a chart in real time through a dispatcher, printing and
// sounding every event as it is delivered.
func (p *Program) Play(file string) error {
	chart, source, bank, err := p.load(file)
	if nil != err {
		return err
	}
	defer chart.Close()

	opts := p.Options
	length := score.Length(chart, bank.Length)
	end := chart.EndTime()
	if length > end {
		end = length
	}
	end += opts.Tail

	var player audio.Player = audio.NopPlayer{}
	if !opts.NoAudio && nil != p.NewPlayer {
		player = p.NewPlayer(bank, opts.Rate, chart.Header().Volume)
	}
	if err := player.Init(); nil != err {
		log.Println(err, "playing without audio")
		player = audio.NopPlayer{}
	}

	var commands <-chan input.Command
	if nil != p.Listen {
		c, closeInput, err := p.Listen()
		if nil != err {
			log.Println(err, "playing without keyboard commands")
		} else {
			commands = c
			defer closeInput()
		}
	}

	if err := p.Renderer.Init(); nil != err {
		return fmt.Errorf("unable to init renderer: %w", err)
	}
	defer p.Renderer.Deinit()

	dispatcher := chart.NewDispatcher()
	defer dispatcher.Close()

	var dispatched []game.Event
	var wall time.Duration
	dispatcher.Subscribe(func(ev game.Event) {
		dispatched = append(dispatched, ev)
		player.Trigger(ev)
		if !opts.Quiet {
			p.Renderer.Event(ev, -score.Distance(opts.Rate, ev.Time, wall))
		}
	})

	startedAt := time.Now()
	var position, paused, pausedAt time.Duration
	isPaused, stopped := false, false
	var seekErr error
	p.Renderer.RenderLoop(opts.Delay, func(duration time.Duration) bool {
		for i := len(commands); i > 0; i-- {
			switch <-commands {
			case input.Stop:
				stopped = true
				return false
			case input.Pause:
				if isPaused {
					paused += duration - pausedAt
				} else {
					pausedAt = duration
				}
				isPaused = !isPaused
			}
		}
		if isPaused {
			return true
		}

		wall = duration - paused + opts.Offset
		if wall < 0 {
			return true
		}
		position = time.Duration(float64(wall) * opts.Rate)
		if err := dispatcher.Seek(position); nil != err {
			seekErr = err
			return false
		}
		p.Renderer.Status(position, end)
		return position < end
	})
	if nil != seekErr {
		return fmt.Errorf("playback stopped: %w", seekErr)
	}

	status := "finished"
	if stopped {
		status = "stopped"
	}
	p.Renderer.Line(fmt.Sprintf("%v after %v, %v events", status, formatDuration(position), len(dispatched)))

	if opts.NoRecord {
		return nil
	}
	return p.record(file, source, chart, length, library.Play{
		Hash:       library.Hash(source),
		At:         startedAt,
		Rate:       opts.Rate,
		Played:     position,
		Dispatched: len(dispatched),
		Notes:      library.CountNotes(dispatched),
	})
}

func (p *Program) record(file string, source []byte, chart *game.Chart, length time.Duration, play library.Play) error {
	if err := p.Store.Init(p.Options.Database); nil != err {
		return err
	}
	defer p.Store.Deinit()
	if err := p.Store.SaveChart(library.Summarize(file, source, chart, length)); nil != err {
		return err
	}
	return p.Store.RecordPlay(play)
}

// History lists previous plays, of one chart when file is set.
func (p *Program) History(file string) error {
	hash := ""
	if file != "" {
		source, err := os.ReadFile(file)
		if nil != err {
			return fmt.Errorf("unable to read chart: %w", err)
		}
		hash = library.Hash(source)
	}

	if err := p.Store.Init(p.Options.Database); nil != err {
		return err
	}
	defer p.Store.Deinit()

	plays, err := p.Store.History(hash)
	if nil != err {
		return err
	}
	if len(plays) == 0 {
		fmt.Fprintln(p.Out, "no plays")
		return nil
	}
	for _, play := range plays {
		title := play.Title
		if title == "" && len(play.Hash) > 8 {
			title = play.Hash[:8]
		}
		fmt.Fprintf(p.Out, "%-14v %-24v x%.2f  %v, %v events\n",
			humanize.Time(play.At), title, play.Rate, formatDuration(play.Played), play.Dispatched)
		if p.Options.Quiet {
			continue
		}
		for _, lane := range play.Notes {
			fmt.Fprintf(p.Out, "    lane %-3v %v\n", lane.Lane, lane.Count)
		}
	}
	return nil
}
