package parser

import (
	"fmt"
	"os"

	"git.lost.host/meutraa/bmstl/internal/game"
)

// Parser turns chart source into chart state. It resets the scopes it is
// asked to rebuild and fills them in; other scopes are left untouched.
type Parser interface {
	Parse(chart *game.Chart, source []byte, scope game.ParseScope) error
}

// Load reads file and parses every scope of it into a new chart. The raw
// source is returned too, for hashing.
func Load(p Parser, file string) (*game.Chart, []byte, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, nil, fmt.Errorf("unable to read chart: %w", err)
	}
	chart := game.NewChart()
	if err := p.Parse(chart, data, game.ScopeAll); nil != err {
		return nil, nil, fmt.Errorf("unable to parse %v: %w", file, err)
	}
	return chart, data, nil
}
