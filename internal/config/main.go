package config

import (
	"fmt"

	"gopkg.in/alecthomas/kingpin.v2"
)

// Commands
const (
	Info    = "info"
	Play    = "play"
	History = "history"
)

var (
	Database = kingpin.Flag("db", "Library database").Default("./bmstl.db").String()
	Quiet    = kingpin.Flag("quiet", "Print less").Short('q').Bool()

	infoCommand = kingpin.Command(Info, "Describe a chart")
	InfoChart   = infoCommand.Arg("chart", "Chart file").Required().ExistingFile()
	InfoDensity = infoCommand.Flag("density", "Print note density").Default("true").Bool()

	playCommand = kingpin.Command(Play, "Play a chart through its dispatcher")
	PlayChart   = playCommand.Arg("chart", "Chart file").Required().ExistingFile()
	Rate        = playCommand.Flag("rate", "Playback speed").Default("1.0").Short('r').Float64()
	Offset      = playCommand.Flag("offset", "Global offset").Default("0ms").Short('o').Duration()
	Delay       = playCommand.Flag("delay", "Start delay").Default("1.5s").Short('d').Duration()
	Tail        = playCommand.Flag("tail", "Time to keep playing after the chart ends").Default("1s").Duration()
	FramePeriod = playCommand.Flag("frame-period", "Seek period").Default("1ms").Short('p').Duration()
	NoAudio     = playCommand.Flag("no-audio", "Do not open the speaker").Bool()
	NoRecord    = playCommand.Flag("no-record", "Do not save the play to the library").Bool()

	historyCommand = kingpin.Command(History, "List previous plays")
	HistoryChart   = historyCommand.Arg("chart", "Only plays of this chart").ExistingFile()
)

func init() {
	kingpin.Version("0.3.0")
}

// Parse reads args into the flags above and returns the command chosen.
func Parse(args []string) (string, error) {
	command, err := kingpin.CommandLine.Parse(args)
	if nil != err {
		return "", err
	}
	if command == Play && *Rate <= 0 {
		return "", fmt.Errorf("rate must be positive, got %v", *Rate)
	}
	return command, nil
}
