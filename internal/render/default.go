package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/bmstl/internal/game"
	"git.lost.host/meutraa/bmstl/internal/theme"
	"golang.org/x/term"
)

// DefaultRenderer writes a running log of dispatched events with a
// progress line under it. Colour and the progress line are only drawn on a
// terminal.
type DefaultRenderer struct {
	Out         io.Writer
	Theme       theme.Theme
	FramePeriod time.Duration

	buffer   strings.Builder
	terminal bool
	width    int
	status   bool // A status line is on screen
}

func (r *DefaultRenderer) Init() error {
	if nil == r.Out {
		r.Out = os.Stdout
	}
	if nil == r.Theme {
		r.Theme = &theme.DefaultTheme{}
	}
	if 0 == r.FramePeriod {
		r.FramePeriod = time.Millisecond
	}
	r.width = 80
	if f, ok := r.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.terminal = true
		if w, _, err := term.GetSize(int(f.Fd())); nil == err && w > 0 {
			r.width = w
		}
		r.buffer.WriteString("\033[?25l") // Make the cursor invisible
		return r.flush()
	}
	return nil
}

func (r *DefaultRenderer) Deinit() error {
	if r.terminal {
		r.clearStatus()
		r.buffer.WriteString("\033[?25h") // Make the cursor visible
	}
	return r.flush()
}

// RenderLoop calls render once per frame period with the time since the
// loop started, less delay, until it returns false.
func (r *DefaultRenderer) RenderLoop(delay time.Duration, render func(duration time.Duration) bool) {
	cont := true
	startTime := time.Now().Add(delay)
	for cont {
		now := time.Now()
		deadline := now.Add(r.FramePeriod)

		cont = render(now.Sub(startTime))

		if err := r.flush(); nil != err {
			return
		}
		time.Sleep(time.Until(deadline))
	}
}

func (r *DefaultRenderer) clearStatus() {
	if r.status {
		r.buffer.WriteString("\r\033[2K")
		r.status = false
	}
}

func (r *DefaultRenderer) Line(message string) {
	r.clearStatus()
	r.buffer.WriteString(message)
	r.buffer.WriteString("\n")
}

func (r *DefaultRenderer) FillColor(c theme.Color, message string) {
	if !r.terminal {
		r.buffer.WriteString(message)
		return
	}
	r.buffer.WriteString("\033[38;2;")
	r.buffer.WriteString(strconv.FormatInt(int64(c.R), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(c.G), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(c.B), 10))
	r.buffer.WriteString("m")
	r.buffer.WriteString(message)
	r.buffer.WriteString("\033[0m")
}

// Describe is the text of an event line, without colour.
func Describe(ev game.Event) string {
	switch ev.Kind {
	case game.TempoChange:
		return fmt.Sprintf("%.2f bpm", ev.Tempo())
	case game.Pause:
		return fmt.Sprintf("for %v", ev.PauseLength())
	case game.BeatReset:
		return fmt.Sprintf("measure %d, %g beats", ev.Measure, ev.Beats())
	case game.BitmapChange:
		return fmt.Sprintf("layer %d #%v", ev.Data1, ev.Data2)
	case game.SampleTrigger:
		return fmt.Sprintf("#%v", ev.Data2)
	case game.LongNoteStart:
		return fmt.Sprintf("lane %d #%v until %v", ev.Data1, ev.Data2, formatTime(ev.Time2))
	}
	if ev.IsNote() {
		return fmt.Sprintf("lane %d #%v", ev.Data1, ev.Data2)
	}
	return ev.String()
}

func formatTime(d time.Duration) string {
	return fmt.Sprintf("%8.3fs", d.Seconds())
}

func (r *DefaultRenderer) Event(ev game.Event, lateness time.Duration) {
	r.clearStatus()
	r.buffer.WriteString(formatTime(ev.Time))
	r.buffer.WriteString("  ")
	r.FillColor(r.Theme.EventColor(ev), fmt.Sprintf("%v %-10v", r.Theme.Symbol(ev.Kind), ev.Kind))
	r.buffer.WriteString(" ")
	r.buffer.WriteString(Describe(ev))
	if lateness > time.Millisecond {
		r.buffer.WriteString(fmt.Sprintf("  (+%v)", lateness.Round(time.Millisecond)))
	}
	r.buffer.WriteString("\n")
}

// Status draws a progress bar on the last line. Off a terminal it does
// nothing.
func (r *DefaultRenderer) Status(position, end time.Duration) {
	if !r.terminal {
		return
	}
	r.clearStatus()
	label := fmt.Sprintf(" %v / %v", position.Truncate(time.Second), end.Truncate(time.Second))
	bar := r.width - len(label) - 2
	if bar > 0 {
		done := 0
		if end > 0 {
			done = int(float64(bar) * float64(position) / float64(end))
		}
		if done > bar {
			done = bar
		}
		if done < 0 {
			done = 0
		}
		r.buffer.WriteString("[")
		r.buffer.WriteString(strings.Repeat("=", done))
		r.buffer.WriteString(strings.Repeat(" ", bar-done))
		r.buffer.WriteString("]")
	}
	r.buffer.WriteString(label)
	r.status = true
}

func (r *DefaultRenderer) flush() error {
	if r.buffer.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(r.Out, r.buffer.String())
	r.buffer.Reset()
	return err
}
