package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioChart() *Chart {
	c := NewChart()
	c.AddEvents([]Event{
		{Kind: BeatReset, Data2: FloatPayload(130)},
		note(1, 10, 500*time.Millisecond, 120),
		note(2, 11, time.Second, 240),
	})
	return c
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// take returns and forgets what was recorded so far.
func (r *recorder) take() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := []EventKind{}
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	r.events = nil
	return kinds
}

func TestDispatcherScenario(t *testing.T) {
	c := scenarioChart()
	d := c.NewDispatcher()
	rec := &recorder{}
	d.Subscribe(rec.handle)

	_, positioned := d.Position()
	assert.False(t, positioned)

	require.NoError(t, d.Seek(0))
	assert.Equal(t, []EventKind{BeatReset}, rec.take())

	require.NoError(t, d.Seek(500*time.Millisecond))
	got := rec.events
	assert.Equal(t, []EventKind{Note}, rec.take())
	assert.Equal(t, int32(1), got[0].Data1)

	require.NoError(t, d.Seek(time.Second))
	got = rec.events
	assert.Equal(t, []EventKind{Note}, rec.take())
	assert.Equal(t, int32(2), got[0].Data1)

	require.NoError(t, d.Seek(time.Second))
	assert.Empty(t, rec.take())

	// Rewinding delivers nothing until the next forward seek.
	require.NoError(t, d.Seek(200*time.Millisecond))
	assert.Empty(t, rec.take())
	_, positioned = d.Position()
	assert.False(t, positioned)

	require.NoError(t, d.Seek(500*time.Millisecond))
	got = rec.events
	assert.Equal(t, []EventKind{BeatReset, Note}, rec.take())
	assert.Equal(t, int32(1), got[1].Data1)

	pos, positioned := d.Position()
	assert.True(t, positioned)
	assert.Equal(t, 500*time.Millisecond, pos)
	assert.Equal(t, time.Second, d.EndTime())
}

func TestDispatcherSkipsAheadInOrder(t *testing.T) {
	c := scenarioChart()
	d := c.NewDispatcher()
	rec := &recorder{}
	d.Subscribe(rec.handle)

	require.NoError(t, d.Seek(time.Minute))
	assert.Equal(t, []EventKind{BeatReset, Note, Note}, rec.take())
}

func TestDispatchersAreIndependent(t *testing.T) {
	c := scenarioChart()
	a, b := c.NewDispatcher(), c.NewDispatcher()
	recA, recB := &recorder{}, &recorder{}
	a.Subscribe(recA.handle)
	b.Subscribe(recB.handle)

	require.NoError(t, a.Seek(time.Second))
	assert.Len(t, recA.take(), 3)
	assert.Empty(t, recB.take())
	_, positioned := b.Position()
	assert.False(t, positioned)

	require.NoError(t, b.Seek(0))
	assert.Equal(t, []EventKind{BeatReset}, recB.take())
	assert.Empty(t, recA.take())

	pos, _ := a.Position()
	assert.Equal(t, time.Second, pos)
}

func TestDispatchersConcurrentSeek(t *testing.T) {
	c := scenarioChart()
	var wg sync.WaitGroup
	counts := make([]int, 8)
	for i := range counts {
		d := c.NewDispatcher()
		i := i
		d.Subscribe(func(Event) { counts[i]++ })
		wg.Add(1)
		go func() {
			defer wg.Done()
			for at := time.Duration(0); at <= time.Second; at += 10 * time.Millisecond {
				assert.NoError(t, d.Seek(at))
			}
		}()
	}
	wg.Wait()
	for _, n := range counts {
		assert.Equal(t, 3, n)
	}
}

func TestContentResetRefreshesDispatchers(t *testing.T) {
	c := scenarioChart()
	d := c.NewDispatcher()
	rec := &recorder{}
	d.Subscribe(rec.handle)

	require.NoError(t, d.Seek(time.Second))
	rec.take()

	c.Reset(ScopeContent)
	_, positioned := d.Position()
	assert.False(t, positioned)

	c.AddEvents([]Event{note(1, 1, 250*time.Millisecond, 60), note(1, 2, 2*time.Second, 480)})
	require.NoError(t, d.Seek(time.Second))
	got := rec.events
	assert.Equal(t, []EventKind{Note}, rec.take())
	assert.Equal(t, 250*time.Millisecond, got[0].Time)
}

func TestHeaderResetDoesNotRefresh(t *testing.T) {
	c := scenarioChart()
	d := c.NewDispatcher()
	require.NoError(t, d.Seek(time.Second))

	c.Reset(ScopeHeader | ScopeResources)
	_, positioned := d.Position()
	assert.True(t, positioned)
}

func TestSubscribeCancel(t *testing.T) {
	c := scenarioChart()
	d := c.NewDispatcher()
	rec, other := &recorder{}, &recorder{}
	cancel := d.Subscribe(rec.handle)
	d.Subscribe(other.handle)
	cancel()

	require.NoError(t, d.Seek(time.Second))
	assert.Empty(t, rec.take())
	assert.Len(t, other.take(), 3)
}

func TestSubscriberMayCallBack(t *testing.T) {
	c := scenarioChart()
	d := c.NewDispatcher()
	var positions []time.Duration
	d.Subscribe(func(Event) {
		pos, _ := d.Position()
		positions = append(positions, pos)
		_ = c.Len()
	})
	require.NoError(t, d.Seek(time.Second))
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, positions)
}

func TestStaleDispatcher(t *testing.T) {
	c := scenarioChart()
	d := c.NewDispatcher()
	require.NoError(t, d.Seek(0))

	c.Close()
	assert.ErrorIs(t, d.Seek(time.Second), ErrStaleDispatcher)
	assert.Equal(t, time.Duration(0), d.EndTime())
}

func TestClosedDispatcherDeregisters(t *testing.T) {
	c := scenarioChart()
	a := c.NewDispatcher()
	b := c.NewDispatcher()
	assert.Equal(t, 2, c.LiveDispatchers())

	a.Close()
	a.Close()
	assert.Equal(t, 1, c.LiveDispatchers())
	assert.ErrorIs(t, a.Seek(0), ErrDispatcherClosed)

	// Broadcast tolerates the closed entry.
	c.Reset(ScopeContent)
	assert.NoError(t, b.Seek(0))
}

func TestDispatcherFresh(t *testing.T) {
	c := scenarioChart()
	d := c.NewDispatcher()
	assert.True(t, d.Fresh())
	require.NoError(t, d.Seek(time.Second))
	assert.False(t, d.Fresh())
	require.NoError(t, d.Seek(0))
	assert.True(t, d.Fresh(), "a rewind starts over")
	require.NoError(t, d.Seek(time.Second))
	c.Reset(ScopeContent)
	assert.True(t, d.Fresh(), "a content reset starts over")
}
