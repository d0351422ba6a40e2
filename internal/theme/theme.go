package theme

import "git.lost.host/meutraa/bmstl/internal/game"

type Color struct {
	R, G, B uint8
}

type Theme interface {
	// Colour of a dispatched event line
	EventColor(ev game.Event) Color

	// Short label for an event kind
	Symbol(kind game.EventKind) string
}
