package library

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"git.lost.host/meutraa/bmstl/internal/game"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slices"
)

var _ Store = &DefaultStore{}

type DefaultStore struct {
	db *sql.DB
}

var ErrNotOpen = errors.New("library is not open")

const schema = `
create table if not exists charts
  (
	  sum text not null primary key,
	  path text,
	  title text,
	  artist text,
	  combos integer,
	  length integer
  );
create table if not exists plays
  (
	  id integer not null primary key,
	  sum text not null,
	  at integer,
	  rate real,
	  played integer,
	  dispatched integer,
	  notes bytearray
  );
`

func (s *DefaultStore) Init(path string) error {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return fmt.Errorf("unable to open library: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); nil != err {
		db.Close()
		return fmt.Errorf("unable to create library tables: %w", err)
	}

	s.db = db
	return nil
}

func (s *DefaultStore) Deinit() {
	if nil != s.db {
		if err := s.db.Close(); nil != err {
			log.Println("unable to close library", err)
		}
		s.db = nil
	}
}

// Hash identifies a chart by its source bytes.
func Hash(source []byte) string {
	sum := sha256.Sum256(source)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Summarize describes chart for SaveChart.
func Summarize(path string, source []byte, chart *game.Chart, length time.Duration) Summary {
	h := chart.Header()
	return Summary{
		Hash:   Hash(source),
		Path:   path,
		Title:  h.Title,
		Artist: h.Artist,
		Combos: chart.MaxCombos(),
		Length: length,
	}
}

// CountNotes tallies delivered note events per lane, in lane order.
func CountNotes(events []game.Event) []LaneCount {
	counts := map[int32]int{}
	for _, ev := range events {
		if ev.IsNote() {
			counts[ev.Data1]++
		}
	}
	out := make([]LaneCount, 0, len(counts))
	for lane, n := range counts {
		out = append(out, LaneCount{Lane: lane, Count: n})
	}
	slices.SortFunc(out, func(a, b LaneCount) int { return int(a.Lane - b.Lane) })
	return out
}

func (s *DefaultStore) SaveChart(c Summary) error {
	if nil == s.db {
		return ErrNotOpen
	}
	_, err := s.db.Exec(
		"insert or replace into charts(sum, path, title, artist, combos, length) values(?, ?, ?, ?, ?, ?)",
		c.Hash, c.Path, c.Title, c.Artist, c.Combos, int64(c.Length),
	)
	if nil != err {
		return fmt.Errorf("unable to save chart: %w", err)
	}
	return nil
}

func (s *DefaultStore) RecordPlay(p Play) error {
	if nil == s.db {
		return ErrNotOpen
	}
	notes, err := json.Marshal(p.Notes)
	if nil != err {
		return fmt.Errorf("unable to marshal notes: %w", err)
	}
	_, err = s.db.Exec(
		"insert into plays(sum, at, rate, played, dispatched, notes) values(?, ?, ?, ?, ?, ?)",
		p.Hash, p.At.UnixNano(), p.Rate, int64(p.Played), p.Dispatched, notes,
	)
	if nil != err {
		return fmt.Errorf("unable to record play: %w", err)
	}
	return nil
}

func (s *DefaultStore) History(hash string) ([]Play, error) {
	if nil == s.db {
		return nil, ErrNotOpen
	}
	rows, err := s.db.Query(`
		select p.sum, coalesce(c.title, ''), p.at, p.rate, p.played, p.dispatched, p.notes
		from plays p left join charts c on c.sum = p.sum
		where ? = '' or p.sum = ?
		order by p.at desc, p.id desc`, hash, hash)
	if nil != err {
		return nil, fmt.Errorf("unable to load history: %w", err)
	}
	defer rows.Close()

	plays := []Play{}
	for rows.Next() {
		var p Play
		var at, played int64
		var notes []byte
		if err := rows.Scan(&p.Hash, &p.Title, &at, &p.Rate, &played, &p.Dispatched, &notes); nil != err {
			return nil, fmt.Errorf("unable to read play: %w", err)
		}
		p.At = time.Unix(0, at)
		p.Played = time.Duration(played)
		if err := json.Unmarshal(notes, &p.Notes); nil != err {
			log.Println("unable to unmarshal note counts", err)
		}
		plays = append(plays, p)
	}
	return plays, rows.Err()
}
