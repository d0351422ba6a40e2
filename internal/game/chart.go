package game

import (
	"fmt"
	"math"
	"sync"
	"time"
	"weak"

	"git.lost.host/meutraa/bmstl/internal/orderedset"
	"golang.org/x/exp/slices"
)

// ParseScope selects which sections of a chart a parse pass rebuilds.
type ParseScope uint8

const (
	ScopeNone      ParseScope = 0
	ScopeHeader    ParseScope = 0x1
	ScopeResources ParseScope = 0x2
	ScopeContent   ParseScope = 0x4
	ScopeAll                  = ScopeHeader | ScopeResources | ScopeContent
)

func (s ParseScope) Has(flag ParseScope) bool { return s&flag == flag }

type Header struct {
	Title, SubTitle   string
	Artist, SubArtist string
	Genre             string
	Comments          string
	PlayerCount       int
	BPM               float64 // Initial tempo
	MinBPM            float64 // Lowest tempo seen, +Inf until one is
	PlayLevel         int
	Rank              int
	Volume            float64
	Randomized        bool // Source has random branches
}

func defaultHeader() Header {
	return Header{
		PlayerCount: 1,
		BPM:         130,
		MinBPM:      math.Inf(1),
		Volume:      1,
	}
}

// Chart owns a canonical timeline of events sorted by KeyCompare, the
// resource catalog, and a registry of the dispatchers replaying it.
//
// A chart has a single writer: one goroutine drives Reset, AddResource,
// AddEvent(s) and ReplaceEvent. Dispatchers may read from other goroutines.
type Chart struct {
	mu        sync.RWMutex
	header    Header
	events    *orderedset.Set[Event]
	resources *orderedset.Set[Resource]
	meta      *orderedset.Set[Resource]
	channels  map[int32]int // Note count per Data1
	maxCombos int
	closed    bool

	registryMu  sync.Mutex
	dispatchers map[uint64]weak.Pointer[Dispatcher]
	nextID      uint64
}

func NewChart() *Chart {
	c := &Chart{
		events:      orderedset.New(KeyCompare, orderedset.Distinct[Event]),
		resources:   orderedset.New(compareResource, sameResource),
		meta:        orderedset.New(compareResource, sameResource),
		channels:    map[int32]int{},
		dispatchers: map[uint64]weak.Pointer[Dispatcher]{},
	}
	c.Reset(ScopeAll)
	return c
}

// Reset clears the selected sections. Header restores defaults and drops
// the meta catalog. Resources clears the catalog and reseeds it with meta
// resources. Content clears the timeline and sends every live dispatcher
// back to its fresh state.
func (c *Chart) Reset(scope ParseScope) {
	c.mu.Lock()
	if scope.Has(ScopeHeader) {
		c.header = defaultHeader()
		c.meta.Clear()
	}
	if scope.Has(ScopeResources) {
		c.resources.Clear()
		c.resources.UnionWith(c.meta.Items(), orderedset.Restricted)
	}
	if scope.Has(ScopeContent) {
		c.events.Clear()
		c.channels = map[int32]int{}
		c.maxCombos = 0
	}
	c.mu.Unlock()

	if scope.Has(ScopeContent) {
		c.refresh()
	}
}

func (c *Chart) Header() Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.header
}

// SetHeader lets a producer edit header fields in place.
func (c *Chart) SetHeader(edit func(h *Header)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	edit(&c.header)
}

// ObserveTempo lowers MinBPM to bpm if it is a smaller positive tempo.
func (c *Chart) ObserveTempo(bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bpm > 0 && bpm < c.header.MinBPM {
		c.header.MinBPM = bpm
	}
}

// AddResource stores a descriptor, replacing any with the same kind and id.
func (c *Chart) AddResource(kind ResourceKind, id int64, path string, extra interface{}) {
	r := Resource{Kind: kind, ID: id, Path: path, Extra: extra}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources.Upsert(r)
	if r.IsMeta() {
		c.meta.Upsert(r)
	}
}

func (c *Chart) Resource(kind ResourceKind, id int64) (Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.resources.Index(Resource{Kind: kind, ID: id}, orderedset.Restricted)
	if i < 0 {
		return Resource{}, false
	}
	return c.resources.At(i), true
}

// Resources lists descriptors of kind ordered by id, or every descriptor
// for ResourceUnknown.
func (c *Chart) Resources(kind ResourceKind) []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []Resource{}
	c.resources.All(func(_ int, r Resource) bool {
		if kind == ResourceUnknown || r.Kind == kind {
			out = append(out, r)
		}
		return true
	})
	return out
}

func (c *Chart) count(ev Event) {
	if ev.IsNote() {
		c.channels[ev.Data1]++
		c.maxCombos++
	}
}

func (c *Chart) forget(ev Event) {
	if !ev.IsNote() {
		return
	}
	c.maxCombos--
	c.channels[ev.Data1]--
	if c.channels[ev.Data1] <= 0 {
		delete(c.channels, ev.Data1)
	}
}

// AddEvent inserts ev after any events sharing its sort key and returns
// its index.
func (c *Chart) AddEvent(ev Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count(ev)
	i, _ := c.events.Add(ev, orderedset.OldFirst)
	return i
}

// AddEvents merges a batch into the timeline in one ordered pass. Events
// sharing a sort key keep existing-then-batch order.
func (c *Chart) AddEvents(evs []Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range evs {
		c.count(ev)
	}
	c.events.UnionWith(evs, orderedset.OldFirst)
}

// FindEventIndex returns the index of the first stored event that shares
// ev's sort key and is Same as ev, or NotFound.
func (c *Chart) FindEventIndex(ev Event) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findLocked(ev)
}

func (c *Chart) findLocked(ev Event) int {
	lo, hi := c.events.Range(ev)
	for i := lo; i < hi; i++ {
		if Same(c.events.At(i), ev) {
			return i
		}
	}
	return NotFound
}

// ReplaceEvent swaps the event at index for ev and returns ev's index. A
// replacement with the same sort key is written in place, otherwise the
// original is removed and ev inserted where it sorts.
func (c *Chart) ReplaceEvent(index int, ev Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceLocked(index, ev)
}

func (c *Chart) replaceLocked(index int, ev Event) int {
	original := c.events.At(index)
	c.forget(original)
	c.count(ev)
	if KeyCompare(original, ev) == 0 {
		c.events.ReplaceAt(index, ev)
		return index
	}
	c.events.RemoveAt(index)
	i, _ := c.events.Add(ev, orderedset.OldFirst)
	return i
}

// PatchEvent finds the event matching ev, lets edit change a copy of it,
// and stores the result.
func (c *Chart) PatchEvent(ev Event, edit func(e *Event)) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.findLocked(ev)
	if i == NotFound {
		return NotFound, fmt.Errorf("patch %v: %w", ev, ErrNotFound)
	}
	patched := c.events.At(i)
	edit(&patched)
	return c.replaceLocked(i, patched), nil
}

// Events returns a copy of the timeline.
func (c *Chart) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events.Items()
}

func (c *Chart) EventAt(i int) Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events.At(i)
}

func (c *Chart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events.Len()
}

// Channels returns the distinct Data1 of note events in ascending order.
func (c *Chart) Channels() []int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]int32, 0, len(c.channels))
	for ch := range c.channels {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}

func (c *Chart) HasChannel(ch int32) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[ch] > 0
}

func (c *Chart) MaxCombos() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxCombos
}

// EndTime is the latest event time, or 0 for an empty timeline.
func (c *Chart) EndTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.events.Len() == 0 {
		return 0
	}
	return c.events.At(c.events.Len() - 1).Time
}

// span copies the events a seek must deliver: those with time in
// (from, to], or (-inf, to] when open is set.
func (c *Chart) span(open bool, from, to time.Duration) ([]Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrStaleDispatcher
	}
	start := 0
	if !open {
		start = c.events.Search(func(ev Event) bool { return ev.Time > from })
	}
	end := c.events.Search(func(ev Event) bool { return ev.Time > to })
	if end <= start {
		return nil, nil
	}
	return c.events.Slice(start, end), nil
}

// Close discards the chart's content. Dispatchers issued by it fail with
// ErrStaleDispatcher from then on.
func (c *Chart) Close() {
	c.mu.Lock()
	c.closed = true
	c.events.Clear()
	c.resources.Clear()
	c.meta.Clear()
	c.mu.Unlock()

	c.registryMu.Lock()
	c.dispatchers = map[uint64]weak.Pointer[Dispatcher]{}
	c.registryMu.Unlock()
}

// NewDispatcher issues a playback cursor over this chart. Neither keeps the
// other alive.
func (c *Chart) NewDispatcher() *Dispatcher {
	d := &Dispatcher{chart: weak.Make(c)}
	c.registryMu.Lock()
	defer c.registryMu.Unlock()
	c.nextID++
	d.id = c.nextID
	c.dispatchers[d.id] = weak.Make(d)
	return d
}

// LiveDispatchers prunes collected registrations and returns how many
// remain.
func (c *Chart) LiveDispatchers() int {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()
	c.pruneLocked()
	return len(c.dispatchers)
}

func (c *Chart) pruneLocked() {
	for id, wp := range c.dispatchers {
		if wp.Value() == nil {
			delete(c.dispatchers, id)
		}
	}
}

func (c *Chart) unregister(id uint64) {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()
	delete(c.dispatchers, id)
}

func (c *Chart) refresh() {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()
	c.pruneLocked()
	for _, wp := range c.dispatchers {
		if d := wp.Value(); d != nil {
			d.invalidate()
		}
	}
}
