package library

import (
	"time"
)

// Store keeps chart summaries and the plays made of them.
type Store interface {
	Init(path string) error
	Deinit()

	// Record what a chart looks like, replacing any summary with its hash
	SaveChart(summary Summary) error

	// Record a finished playback
	RecordPlay(play Play) error

	// Previous plays, newest first. An empty hash lists every chart.
	History(hash string) ([]Play, error)
}

type Summary struct {
	Hash   string
	Path   string
	Title  string
	Artist string
	Combos int
	Length time.Duration
}

type Play struct {
	Hash       string
	Title      string // From the chart summary, when there is one
	At         time.Time
	Rate       float64
	Played     time.Duration
	Dispatched int // Events delivered
	Notes      []LaneCount
}

// LaneCount is how many notes of one lane were delivered.
type LaneCount struct {
	Lane  int32
	Count int
}
