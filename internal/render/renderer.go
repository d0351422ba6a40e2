package render

import (
	"time"

	"git.lost.host/meutraa/bmstl/internal/game"
	"git.lost.host/meutraa/bmstl/internal/theme"
)

type Renderer interface {
	Init() error
	Deinit() error
	RenderLoop(delay time.Duration, render func(duration time.Duration) bool)

	// Write one dispatched event, lateness is how far behind its real
	// time the event was delivered
	Event(ev game.Event, lateness time.Duration)
	Status(position, end time.Duration)
	Line(message string)
	FillColor(c theme.Color, message string)
}
