package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"git.lost.host/meutraa/bmstl/internal/game"
	"golang.org/x/exp/slices"
)

// DefaultParser reads BMS charts (.bms, .bme, .bml, .pms).
//
// Random branches are not resolved: every #RANDOM is taken to roll 1, and
// the chart is flagged Randomized.
type DefaultParser struct{}

// Meta resource ids for header images.
const (
	StageFileID int64 = -1 - iota
	BannerID
	BackBitmapID
)

type object struct {
	line    int
	measure int
	channel string
	column  int // Which line of this channel in its measure, for BGM
	index   int
	count   int
	id      int64
	ticks   int
	bpm     float64 // Resolved tempo of 03 and 08 objects
}

type branch struct {
	active bool
	taken  bool
}

// pass is the state of one Parse call.
type pass struct {
	chart  *game.Chart
	scope  game.ParseScope
	lineNo int

	bpm     float64
	lnobj   int64
	tempos  map[int64]float64
	stops   map[int64]float64
	lengths map[int]float64
	bgm     map[int]int
	objects []object

	branches []branch
	random   bool
}

func (p *DefaultParser) Parse(chart *game.Chart, data []byte, scope game.ParseScope) error {
	chart.Reset(scope)
	s := &pass{
		chart:   chart,
		scope:   scope,
		bpm:     130,
		tempos:  map[int64]float64{},
		stops:   map[int64]float64{},
		lengths: map[int]float64{},
		bgm:     map[int]int{},
	}

	text := strings.ReplaceAll(DecodeSource(data), "\r", "")
	for i, line := range strings.Split(text, "\n") {
		s.lineNo = i + 1
		if err := s.line(strings.TrimSpace(line)); nil != err {
			return lineError(s.lineNo, err)
		}
	}

	s.header(func(h *game.Header) { h.Randomized = s.random })
	if scope.Has(game.ScopeContent) {
		return s.build()
	}
	return nil
}

func (s *pass) header(edit func(h *game.Header)) {
	if s.scope.Has(game.ScopeHeader) {
		s.chart.SetHeader(edit)
	}
}

func (s *pass) resource(kind game.ResourceKind, id int64, path string, extra interface{}) {
	if s.scope.Has(game.ScopeResources) {
		s.chart.AddResource(kind, id, path, extra)
	}
}

func splitCommand(body string) (string, string) {
	i := strings.IndexAny(body, " \t")
	if i < 0 {
		return body, ""
	}
	return body[:i], strings.TrimSpace(body[i+1:])
}

func isChannelLine(body string) bool {
	if len(body) < 6 || body[5] != ':' {
		return false
	}
	for _, c := range body[:3] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (s *pass) active() bool {
	return len(s.branches) == 0 || s.branches[len(s.branches)-1].active
}

func (s *pass) line(l string) error {
	if !strings.HasPrefix(l, "#") {
		return nil
	}
	body := l[1:]
	if isChannelLine(body) {
		if !s.active() || !s.scope.Has(game.ScopeContent) {
			return nil
		}
		return s.channel(body)
	}

	key, value := splitCommand(body)
	key = strings.ToUpper(key)
	if handled, err := s.control(key, value); handled || nil != err {
		return err
	}
	if !s.active() {
		return nil
	}
	return s.command(key, value)
}

// control tracks #RANDOM/#IF nesting.
func (s *pass) control(key, value string) (bool, error) {
	parent := s.active()
	switch key {
	case "RANDOM", "SETRANDOM":
		s.random = true
	case "IF":
		n, err := strconv.Atoi(value)
		if nil != err {
			return true, fmt.Errorf("invalid branch %q", value)
		}
		s.branches = append(s.branches, branch{active: parent && n == 1, taken: n == 1})
	case "ELSEIF", "ELSE":
		if len(s.branches) == 0 {
			return true, fmt.Errorf("#%v without #IF", key)
		}
		top := &s.branches[len(s.branches)-1]
		outer := len(s.branches) == 1 || s.branches[len(s.branches)-2].active
		hit := key == "ELSE" || strings.TrimSpace(value) == "1"
		top.active = outer && !top.taken && hit
		top.taken = top.taken || hit
	case "ENDIF":
		if len(s.branches) == 0 {
			return true, errors.New("#ENDIF without #IF")
		}
		s.branches = s.branches[:len(s.branches)-1]
	case "ENDRANDOM":
	default:
		return false, nil
	}
	return true, nil
}

func parseTempo(value string) (float64, error) {
	bpm, err := strconv.ParseFloat(value, 64)
	if nil != err || bpm <= 0 {
		return 0, fmt.Errorf("invalid tempo %q", value)
	}
	return bpm, nil
}

func (s *pass) command(key, value string) error {
	switch key {
	case "TITLE":
		s.header(func(h *game.Header) { h.Title = value })
	case "SUBTITLE":
		s.header(func(h *game.Header) { h.SubTitle = value })
	case "ARTIST":
		s.header(func(h *game.Header) { h.Artist = value })
	case "SUBARTIST":
		s.header(func(h *game.Header) { h.SubArtist = value })
	case "GENRE":
		s.header(func(h *game.Header) { h.Genre = value })
	case "COMMENT":
		s.header(func(h *game.Header) { h.Comments = strings.Trim(value, `"`) })
	case "BPM":
		bpm, err := parseTempo(value)
		if nil != err {
			return err
		}
		s.bpm = bpm
		s.header(func(h *game.Header) { h.BPM = bpm })
		if s.scope.Has(game.ScopeHeader) {
			s.chart.ObserveTempo(bpm)
		}
	case "PLAYER", "PLAYLEVEL", "RANK":
		n, err := strconv.Atoi(value)
		if nil != err {
			return fmt.Errorf("invalid #%v %q", key, value)
		}
		s.header(func(h *game.Header) {
			switch key {
			case "PLAYER":
				h.PlayerCount = n
			case "PLAYLEVEL":
				h.PlayLevel = n
			case "RANK":
				h.Rank = n
			}
		})
	case "VOLWAV":
		v, err := strconv.ParseFloat(value, 64)
		if nil != err {
			return fmt.Errorf("invalid #VOLWAV %q", value)
		}
		s.header(func(h *game.Header) { h.Volume = v / 100 })
	case "LNOBJ":
		id, err := ParseBase36(value)
		if nil != err {
			return err
		}
		s.lnobj = id
	case "STAGEFILE":
		s.metaBitmap(StageFileID, value)
	case "BANNER":
		s.metaBitmap(BannerID, value)
	case "BACKBMP":
		s.metaBitmap(BackBitmapID, value)
	default:
		return s.definition(key, value)
	}
	return nil
}

// metaBitmap records a header image. It belongs to the header scope, so it
// survives a resources-only reparse.
func (s *pass) metaBitmap(id int64, path string) {
	if s.scope.Has(game.ScopeHeader) {
		s.chart.AddResource(game.ResourceBitmap, id, path, nil)
	}
}

// definition handles #WAVxx, #BMPxx, #BPMxx and #STOPxx.
func (s *pass) definition(key, value string) error {
	var prefix string
	for _, p := range []string{"WAV", "BMP", "BPM", "STOP"} {
		if strings.HasPrefix(key, p) && len(key) == len(p)+2 {
			prefix = p
			break
		}
	}
	if prefix == "" {
		return nil
	}
	id, err := ParseBase36(key[len(prefix):])
	if nil != err {
		return err
	}

	switch prefix {
	case "WAV":
		s.resource(game.ResourceSample, id, value, nil)
	case "BMP":
		s.resource(game.ResourceBitmap, id, value, nil)
	case "BPM":
		bpm, err := parseTempo(value)
		if nil != err {
			return err
		}
		s.tempos[id] = bpm
		s.resource(game.ResourceTempo, id, "", bpm)
	case "STOP":
		length, err := strconv.ParseFloat(value, 64)
		if nil != err || length < 0 {
			return fmt.Errorf("invalid stop length %q", value)
		}
		s.stops[id] = length
		s.resource(game.ResourcePause, id, "", length)
	}
	return nil
}

func (s *pass) channel(body string) error {
	measure, _ := strconv.Atoi(body[:3])
	channel := strings.ToUpper(body[3:5])
	data := strings.TrimSpace(body[6:])

	if channel == "02" {
		length, err := strconv.ParseFloat(data, 64)
		if nil != err || length <= 0 {
			return fmt.Errorf("invalid measure length %q", data)
		}
		s.lengths[measure] = length
		return nil
	}

	if len(data)%2 != 0 {
		return fmt.Errorf("object data has odd length %d", len(data))
	}
	column := 0
	if channel == "01" {
		column = s.bgm[measure]
		s.bgm[measure]++
	}
	count := len(data) / 2
	for i := 0; i < count; i++ {
		v := data[2*i : 2*i+2]
		if v == "00" {
			continue
		}
		var id int64
		var err error
		if channel == "03" {
			id, err = strconv.ParseInt(v, 16, 64)
			if nil != err {
				err = fmt.Errorf("invalid tempo %q", v)
			}
		} else {
			id, err = ParseBase36(v)
		}
		if nil != err {
			return err
		}
		s.objects = append(s.objects, object{
			line:    s.lineNo,
			measure: measure,
			channel: channel,
			column:  column,
			index:   i,
			count:   count,
			id:      id,
		})
	}
	return nil
}

func (s *pass) length(measure int) float64 {
	if l, ok := s.lengths[measure]; ok {
		return l
	}
	return 1
}

func (s *pass) measureTicks(measure int) int {
	return int(math.Round(s.length(measure) * 4 * TicksPerBeat))
}

// lane maps a note channel to its lane and reports whether it is a long
// note channel. ok is false for channels that are not notes.
func lane(channel string) (lane int32, long, ok bool) {
	if len(channel) != 2 || channel[1] < '1' || channel[1] > '9' {
		return 0, false, false
	}
	switch channel[0] {
	case '1', '2':
	case '5', '6':
		long = true
	default:
		return 0, false, false
	}
	n, _ := strconv.Atoi(channel)
	if long {
		n -= 40
	}
	return int32(n), long, true
}

var bitmapLayers = map[string]int32{"04": 0, "06": 1, "07": 2}

// build resolves times and commits the timeline.
func (s *pass) build() error {
	maxMeasure := -1
	for _, o := range s.objects {
		if o.measure > maxMeasure {
			maxMeasure = o.measure
		}
	}
	starts := make([]int, maxMeasure+2)
	for m := 0; m <= maxMeasure; m++ {
		starts[m+1] = starts[m] + s.measureTicks(m)
	}

	var changes []tempoChange
	var stops []stop
	tempoAt := map[int]bool{}
	for i := range s.objects {
		o := &s.objects[i]
		o.ticks = starts[o.measure] + o.index*s.measureTicks(o.measure)/o.count
		switch o.channel {
		case "03", "08":
			o.bpm = float64(o.id)
			if o.channel == "08" {
				bpm, ok := s.tempos[o.id]
				if !ok {
					return lineError(o.line, fmt.Errorf("undefined tempo #BPM%v", FormatBase36(o.id, 2)))
				}
				o.bpm = bpm
			}
			if o.bpm <= 0 {
				return lineError(o.line, fmt.Errorf("invalid tempo %v", o.bpm))
			}
			// The first tempo on a tick wins, as in staging.
			if !tempoAt[o.ticks] {
				tempoAt[o.ticks] = true
				changes = append(changes, tempoChange{ticks: o.ticks, bpm: o.bpm})
			}
		case "09":
			length, ok := s.stops[o.id]
			if !ok {
				return lineError(o.line, fmt.Errorf("undefined stop #STOP%v", FormatBase36(o.id, 2)))
			}
			stops = append(stops, stop{ticks: o.ticks, length: length})
		}
	}
	tm := newTempoMap(s.bpm, changes, stops)

	var events []game.Event
	for m := 0; m <= maxMeasure; m++ {
		events = append(events, game.Event{
			Kind:    game.BeatReset,
			Ticks:   starts[m],
			Measure: m,
			Time:    tm.At(starts[m]),
			Data2:   game.FloatPayload(s.length(m) * 4),
		})
	}

	tempoStage, pauseStage := game.NewStaging(), game.NewStaging()
	var notes []object
	for _, o := range s.objects {
		ev := s.event(o, tm)
		switch o.channel {
		case "01":
			ev.Kind = game.SampleTrigger
			ev.Data1 = int32(o.column)
			events = append(events, ev)
		case "03", "08":
			ev.Kind = game.TempoChange
			ev.Data2 = game.FloatPayload(o.bpm)
			if tempoStage.Add(ev) {
				s.chart.ObserveTempo(o.bpm)
			}
		case "09":
			length := tm.StopLength(o.ticks, s.stops[o.id])
			ev.Kind = game.Pause
			ev.Time2 = ev.Time + length
			ev.Data2 = game.FloatPayload(length.Seconds())
			pauseStage.Add(ev)
		case "04", "06", "07":
			ev.Kind = game.BitmapChange
			ev.Data1 = bitmapLayers[o.channel]
			events = append(events, ev)
		default:
			if _, _, ok := lane(o.channel); ok {
				notes = append(notes, o)
			}
		}
	}
	events = tempoStage.DrainInto(events)
	events = pauseStage.DrainInto(events)
	s.chart.AddEvents(events)

	return s.notes(notes, tm)
}

func (s *pass) event(o object, tm *tempoMap) game.Event {
	return game.Event{
		Ticks:   o.ticks,
		Measure: o.measure,
		Beat:    float64(o.index) / float64(o.count) * s.length(o.measure) * 4,
		Time:    tm.At(o.ticks),
		Data2:   game.IntPayload(o.id),
	}
}

// notes adds playable objects in tick order, pairing long note ends with
// their starts.
func (s *pass) notes(notes []object, tm *tempoMap) error {
	slices.SortStableFunc(notes, func(a, b object) int { return a.ticks - b.ticks })

	open := map[int32]game.Event{}
	last := map[int32]game.Event{}
	for _, o := range notes {
		ev := s.event(o, tm)
		l, long, _ := lane(o.channel)
		ev.Data1 = l

		switch {
		case long:
			start, ok := open[l]
			if !ok {
				ev.Kind = game.LongNoteStart
				s.chart.AddEvent(ev)
				open[l] = ev
				continue
			}
			delete(open, l)
			ev.Kind = game.LongNoteEnd
			s.chart.AddEvent(ev)
			if _, err := s.chart.PatchEvent(start, func(e *game.Event) { e.Time2 = ev.Time }); nil != err {
				return lineError(o.line, err)
			}
		case s.lnobj != 0 && o.id == s.lnobj:
			start, ok := last[l]
			if !ok {
				return lineError(o.line, fmt.Errorf("long note end without a start on lane %d", l))
			}
			delete(last, l)
			if _, err := s.chart.PatchEvent(start, func(e *game.Event) {
				e.Kind = game.LongNoteStart
				e.Time2 = ev.Time
			}); nil != err {
				return lineError(o.line, err)
			}
			ev.Kind = game.LongNoteEnd
			s.chart.AddEvent(ev)
		default:
			ev.Kind = game.Note
			s.chart.AddEvent(ev)
			last[l] = ev
		}
	}
	return nil
}
