package score

import (
	"math"
	"testing"
	"time"

	"git.lost.host/meutraa/bmstl/internal/game"
	"github.com/stretchr/testify/assert"
)

type distanceTest struct {
	Rate            float64
	Error           time.Duration
	HitTime         time.Duration
	ExpectedHitTime time.Duration
}

func createDistanceTests() []distanceTest {
	tests := []distanceTest{}
	for i := -500; i < 500; i++ {
		if i == 0 {
			continue
		}
		rate := i
		if rate < 0 {
			rate = -rate
		}
		test := distanceTest{
			Rate:            float64(rate) / 100,
			Error:           time.Duration(i) * time.Millisecond,
			ExpectedHitTime: time.Duration(rate) * 100 * time.Millisecond,
		}
		// At rate 2 a note at 2000ms is due at 1000ms, so a hit at 950ms
		// is 50ms early.
		test.HitTime = time.Duration(math.Round(float64(test.ExpectedHitTime)/test.Rate)) - test.Error
		tests = append(tests, test)
	}
	return tests
}

func TestDistance(t *testing.T) {
	for _, test := range createDistanceTests() {
		err := Distance(test.Rate, test.ExpectedHitTime, test.HitTime)
		if err != test.Error {
			t.Log("           Rate:", test.Rate)
			t.Log("ExpectedHitTime:", test.ExpectedHitTime)
			t.Log("  ActualHitTime:", test.HitTime)
			t.Log("Calculated Error", err)
			t.Log("  Expected Error", test.Error)
			t.Fail()
		}
	}
}

var result time.Duration

func BenchmarkDistance(b *testing.B) {
	total := time.Duration(0)
	p, q := time.Millisecond*12456, time.Millisecond*13456
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		total += Distance(1.4, p, q)
	}

	result = total
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func chartOf(evs ...game.Event) *game.Chart {
	c := game.NewChart()
	c.AddEvents(evs)
	return c
}

func TestLength(t *testing.T) {
	c := chartOf(
		game.Event{Kind: game.SampleTrigger, Time: ms(1000), Data2: game.IntPayload(1)},
		game.Event{Kind: game.Note, Time: ms(2000), Data1: 11, Data2: game.IntPayload(2)},
		game.Event{Kind: game.LongNoteEnd, Time: ms(2500), Data1: 11, Data2: game.IntPayload(1)},
		game.Event{Kind: game.BeatReset, Time: ms(2600), Data2: game.FloatPayload(4)},
	)
	lengths := map[int64]time.Duration{1: ms(3000), 2: ms(200)}
	lookup := func(id int64) (time.Duration, bool) {
		l, ok := lengths[id]
		return l, ok
	}

	assert.Equal(t, ms(4000), Length(c, lookup))
	assert.Equal(t, ms(2600), Length(c, nil))

	delete(lengths, 1)
	assert.Equal(t, ms(2600), Length(c, lookup), "unknown samples add nothing")
	assert.Equal(t, time.Duration(0), Length(game.NewChart(), lookup))
}

func TestLengthSlice(t *testing.T) {
	c := chartOf(game.Event{
		Kind:       game.SampleTrigger,
		Time:       ms(1000),
		Data2:      game.IntPayload(1),
		SliceStart: ms(500),
		SliceEnd:   ms(800),
	})
	lookup := func(int64) (time.Duration, bool) { return ms(5000), true }
	assert.Equal(t, ms(1300), Length(c, lookup))
}

func TestNoteDensity(t *testing.T) {
	assert.Equal(t, Density{}, NoteDensity(game.NewChart()))

	c := chartOf(
		game.Event{Kind: game.Note, Time: 0, Data1: 11},
		game.Event{Kind: game.Note, Time: ms(250), Data1: 12},
		game.Event{Kind: game.LongNoteStart, Time: ms(500), Data1: 13},
		game.Event{Kind: game.LongNoteEnd, Time: ms(1500), Data1: 13},
		game.Event{Kind: game.Note, Time: ms(3000), Data1: 11},
		game.Event{Kind: game.SampleTrigger, Time: ms(3000)},
	)
	assert.Equal(t, []float64{3, 3, 3, 1}, Densities(c))

	d := NoteDensity(c)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 3.0, d.Max)
	assert.Equal(t, 2.5, d.Average)
	assert.Equal(t, 3.0, d.Median)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]int{3, 1, 2}))
	assert.Equal(t, 2.5, median([]int{4, 1, 3, 2}))
	assert.Equal(t, 7, highest([]int{7, -1}))
	assert.Equal(t, -1, lowest([]int{7, -1}))
}
