package main

import (
	"log"
	"os"

	"git.lost.host/meutraa/bmstl/internal/audio"
	"git.lost.host/meutraa/bmstl/internal/config"
	"git.lost.host/meutraa/bmstl/internal/input"
	"git.lost.host/meutraa/bmstl/internal/library"
	"git.lost.host/meutraa/bmstl/internal/parser"
	"git.lost.host/meutraa/bmstl/internal/render"
	"git.lost.host/meutraa/bmstl/internal/theme"
)

func main() {
	command, err := config.Parse(os.Args[1:])
	if nil != err {
		log.Fatalln(err)
	}
	if err := run(command); nil != err {
		log.Fatalln(err)
	}
}

func run(command string) error {
	// Ensure our Default implementations are used as interfaces
	var psr parser.Parser = &parser.DefaultParser{}
	var store library.Store = &library.DefaultStore{}
	var th theme.Theme = &theme.DefaultTheme{}
	var r render.Renderer = &render.DefaultRenderer{Out: os.Stdout, Theme: th, FramePeriod: *config.FramePeriod}

	p := &Program{
		Parser:   psr,
		Store:    store,
		Renderer: r,
		Out:      os.Stdout,
		Listen:   input.Listen,
		NewPlayer: func(bank *audio.Bank, rate, volume float64) audio.Player {
			return &audio.DefaultPlayer{Bank: bank, Rate: rate, Volume: volume}
		},
		Options: Options{
			Database: *config.Database,
			Quiet:    *config.Quiet,
			Density:  *config.InfoDensity,
			Rate:     *config.Rate,
			Offset:   *config.Offset,
			Delay:    *config.Delay,
			Tail:     *config.Tail,
			NoAudio:  *config.NoAudio,
			NoRecord: *config.NoRecord,
		},
	}

	switch command {
	case config.Info:
		return p.Info(*config.InfoChart)
	case config.Play:
		return p.Play(*config.PlayChart)
	case config.History:
		return p.History(*config.HistoryChart)
	}
	return nil
}
