// Package queue holds the shared play queue as an ordered, keyed
// collection. The server's snapshot order is authoritative; local
// speculative inserts survive only until the next snapshot.
package queue

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/partyaux/partyaux/internal/domain"
)

// Entry is one queued song. Key is unique within the store; Index is
// strictly increasing per insertion and fixes iteration order
// independently of map order.
type Entry struct {
	Key   string
	Song  domain.Song
	Index int
}

// Store is safe for concurrent readers; the room session is the only
// writer.
type Store struct {
	mu      sync.RWMutex
	byKey   map[string]int // key -> position in order
	order   []Entry
	nextIdx int
}

func NewStore() *Store {
	return &Store{byKey: make(map[string]int)}
}

// ReplaceAll clears the store and repopulates it from a full snapshot,
// preserving snapshot order exactly.
func (s *Store) ReplaceAll(snapshot []domain.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey = make(map[string]int, len(snapshot))
	s.order = s.order[:0]
	for _, song := range snapshot {
		s.append(song)
	}
	log.Debug().Str("module", "queue").Int("count", len(s.order)).Msg("snapshot applied")
}

// UpsertLocal speculatively adds or replaces a song before the server
// confirms it. New keys go to the end of iteration order.
func (s *Store) UpsertLocal(key string, song domain.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.byKey[key]; ok {
		s.order[pos].Song = song
		return
	}
	s.append(song)
}

// append assumes the lock is held.
func (s *Store) append(song domain.Song) {
	key := song.ID
	if key == "" {
		// Entries without an id still occupy their queue slot but are
		// never picked to play.
		key = uuid.NewString()
	} else if _, dup := s.byKey[key]; dup {
		key = uuid.NewString()
	}
	s.byKey[key] = len(s.order)
	s.order = append(s.order, Entry{Key: key, Song: song, Index: s.nextIdx})
	s.nextIdx++
}

// FirstPlayable returns the first entry in iteration order with a
// non-empty song id, used only as a fallback when nothing is playing.
func (s *Store) FirstPlayable() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.order, func(e Entry) bool { return e.Song.ID != "" })
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) IsEmpty() bool { return s.Count() == 0 }

// Entries returns a copy of the queue in iteration order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.order))
	copy(out, s.order)
	return out
}

// Songs returns just the songs, in iteration order.
func (s *Store) Songs() []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.order, func(e Entry, _ int) domain.Song { return e.Song })
}
