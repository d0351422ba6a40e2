package game

import (
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

// Dispatcher is a playback cursor over a chart. Each Seek delivers, in
// time order, the events the cursor passed since the previous Seek.
// Dispatchers issued by the same chart are independent of each other.
//
// A dispatcher starts fresh, before the start of time. Seeking backwards
// returns it to fresh without delivering anything, and so does a content
// reset of its chart.
//
// Seek is meant to be driven by one goroutine. Subscribers run on that
// goroutine after the cursor has moved, so they may call back into the
// dispatcher or the chart.
type Dispatcher struct {
	id    uint64
	chart weak.Pointer[Chart]

	mu          sync.Mutex
	positioned  bool
	position    time.Duration
	subscribers []subscriber
	nextSub     int
	closed      bool

	stale atomic.Bool // Set by the chart on content reset
}

type subscriber struct {
	id     int
	handle func(Event)
}

// Subscribe registers fn to receive every dispatched event. The returned
// function removes it.
func (d *Dispatcher) Subscribe(fn func(Event)) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSub++
	id := d.nextSub
	d.subscribers = append(d.subscribers, subscriber{id: id, handle: fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.subscribers {
			if s.id == id {
				d.subscribers = append(d.subscribers[:i:i], d.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Seek moves the cursor to target. Moving forward or staying put delivers
// each event with time in (position, target], or every event up to target
// when fresh. Moving backward makes the dispatcher fresh and delivers
// nothing.
func (d *Dispatcher) Seek(target time.Duration) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	c := d.chart.Value()
	if c == nil {
		d.mu.Unlock()
		return ErrStaleDispatcher
	}
	if d.stale.Swap(false) {
		d.positioned = false
	}
	if d.positioned && target < d.position {
		d.positioned = false
		d.mu.Unlock()
		return nil
	}

	events, err := c.span(!d.positioned, d.position, target)
	if nil != err {
		d.mu.Unlock()
		return err
	}
	d.positioned = true
	d.position = target
	subs := append([]subscriber(nil), d.subscribers...)
	d.mu.Unlock()

	for _, ev := range events {
		for _, s := range subs {
			s.handle(ev)
		}
	}
	return nil
}

// Position returns the cursor and whether it has left the fresh state.
func (d *Dispatcher) Position() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stale.Load() {
		return 0, false
	}
	return d.position, d.positioned
}

// EndTime is the latest event time of the chart, or 0 if it is gone.
func (d *Dispatcher) EndTime() time.Duration {
	if c := d.chart.Value(); c != nil {
		return c.EndTime()
	}
	return 0
}

// Close deregisters the dispatcher from its chart.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.subscribers = nil
	d.mu.Unlock()

	if c := d.chart.Value(); c != nil {
		c.unregister(d.id)
	}
}

func (d *Dispatcher) invalidate() { d.stale.Store(true) }

// Fresh reports whether the next Seek delivers from the start of time.
func (d *Dispatcher) Fresh() bool {
	_, positioned := d.Position()
	return !positioned
}
