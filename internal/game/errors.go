package game

import "errors"

// NotFound is the index returned when no stored event matches.
const NotFound = -1

var (
	// ErrNotFound is returned by lookups that report absence as an error.
	ErrNotFound = errors.New("event not found")

	// ErrDuplicateAmbiguous is reserved for lookups that refuse to pick
	// between several matching events. FindEventIndex always takes the
	// first match and never returns it.
	ErrDuplicateAmbiguous = errors.New("ambiguous duplicate event")

	// ErrStaleDispatcher is returned when a dispatcher's chart is gone.
	ErrStaleDispatcher = errors.New("dispatcher chart has been closed")

	// ErrDispatcherClosed is returned when seeking a closed dispatcher.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)
