package game

import "git.lost.host/meutraa/bmstl/internal/orderedset"

// Staging accumulates candidate events for one parse pass before they are
// committed to a chart. Candidates sharing the sort key of one already staged
// are dropped, the first one wins.
type Staging struct {
	events *orderedset.Set[Event]
}

func NewStaging() *Staging {
	return &Staging{events: orderedset.New(KeyCompare, Same)}
}

// Add stages ev and reports whether it was kept.
func (s *Staging) Add(ev Event) bool {
	_, added := s.events.Add(ev, orderedset.Restricted)
	return added
}

func (s *Staging) Len() int { return s.events.Len() }

// Events returns the staged events in order without draining them.
func (s *Staging) Events() []Event { return s.events.Items() }

// DrainInto appends the staged events to dst in order and empties the
// buffer.
func (s *Staging) DrainInto(dst []Event) []Event {
	s.events.All(func(_ int, ev Event) bool {
		dst = append(dst, ev)
		return true
	})
	s.events.Clear()
	return dst
}
