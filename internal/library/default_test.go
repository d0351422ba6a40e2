package library

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"git.lost.host/meutraa/bmstl/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *DefaultStore {
	t.Helper()
	s := &DefaultStore{}
	require.NoError(t, s.Init(filepath.Join(t.TempDir(), "library.db")))
	t.Cleanup(s.Deinit)
	return s
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash([]byte("#TITLE a")), Hash([]byte("#TITLE a")))
	assert.NotEqual(t, Hash([]byte("#TITLE a")), Hash([]byte("#TITLE b")))
	// sha256 is 32 bytes, 44 characters of padded base64
	assert.Len(t, Hash(nil), 44)
}

func TestNotOpen(t *testing.T) {
	s := &DefaultStore{}
	assert.True(t, errors.Is(s.SaveChart(Summary{}), ErrNotOpen))
	assert.True(t, errors.Is(s.RecordPlay(Play{}), ErrNotOpen))
	_, err := s.History("")
	assert.True(t, errors.Is(err, ErrNotOpen))
	s.Deinit()
}

func TestSummarize(t *testing.T) {
	c := game.NewChart()
	c.SetHeader(func(h *game.Header) {
		h.Title = "song"
		h.Artist = "someone"
	})
	c.AddEvent(game.Event{Kind: game.Note, Data1: 11})
	c.AddEvent(game.Event{Kind: game.Note, Data1: 12, Time: time.Second})

	summary := Summarize("a/song.bms", []byte("src"), c, 3*time.Second)
	assert.Equal(t, Summary{
		Hash:   Hash([]byte("src")),
		Path:   "a/song.bms",
		Title:  "song",
		Artist: "someone",
		Combos: 2,
		Length: 3 * time.Second,
	}, summary)
}

func TestCountNotes(t *testing.T) {
	counts := CountNotes([]game.Event{
		{Kind: game.Note, Data1: 12},
		{Kind: game.SampleTrigger, Data1: 0},
		{Kind: game.LongNoteStart, Data1: 11},
		{Kind: game.LongNoteEnd, Data1: 11},
		{Kind: game.Note, Data1: 12},
	})
	assert.Equal(t, []LaneCount{{Lane: 11, Count: 2}, {Lane: 12, Count: 2}}, counts)
	assert.Empty(t, CountNotes(nil))
}

func TestHistory(t *testing.T) {
	s := open(t)
	require.NoError(t, s.SaveChart(Summary{Hash: "a", Title: "first"}))
	require.NoError(t, s.SaveChart(Summary{Hash: "a", Title: "renamed"}))

	base := time.Unix(1700000000, 0)
	require.NoError(t, s.RecordPlay(Play{
		Hash:       "a",
		At:         base,
		Rate:       1,
		Played:     90 * time.Second,
		Dispatched: 10,
		Notes:      []LaneCount{{Lane: 11, Count: 4}},
	}))
	require.NoError(t, s.RecordPlay(Play{Hash: "b", At: base.Add(time.Minute), Rate: 1.5}))
	require.NoError(t, s.RecordPlay(Play{Hash: "a", At: base.Add(2 * time.Minute), Rate: 0.5}))

	all, err := s.History("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 0.5, all[0].Rate)
	assert.Equal(t, "b", all[1].Hash)
	assert.Equal(t, "", all[1].Title, "plays of unknown charts have no title")

	plays, err := s.History("a")
	require.NoError(t, err)
	require.Len(t, plays, 2)
	last := plays[1]
	assert.Equal(t, "renamed", last.Title)
	assert.True(t, base.Equal(last.At))
	assert.Equal(t, 90*time.Second, last.Played)
	assert.Equal(t, 10, last.Dispatched)
	assert.Equal(t, []LaneCount{{Lane: 11, Count: 4}}, last.Notes)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	s := &DefaultStore{}
	require.NoError(t, s.Init(path))
	require.NoError(t, s.RecordPlay(Play{Hash: "a", At: time.Unix(1, 0)}))
	s.Deinit()

	require.NoError(t, s.Init(path))
	defer s.Deinit()
	plays, err := s.History("a")
	require.NoError(t, err)
	assert.Len(t, plays, 1)
}
