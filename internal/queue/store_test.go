package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partyaux/partyaux/internal/domain"
)

func song(id, title string) domain.Song {
	return domain.Song{ID: id, Title: title}
}

func TestStore_ReplaceAll_PreservesSnapshotOrder(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]domain.Song{song("c", "C"), song("a", "A"), song("b", "B")})

	ids := make([]string, 0, s.Count())
	for _, e := range s.Entries() {
		ids = append(ids, e.Song.ID)
	}
	require.Equal(t, []string{"c", "a", "b"}, ids)

	// A second snapshot wins completely, order included.
	s.ReplaceAll([]domain.Song{song("b", "B"), song("c", "C")})
	require.Equal(t, []domain.Song{song("b", "B"), song("c", "C")}, s.Songs())
}

func TestStore_ReplaceAll_SupersedesLocalInserts(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]domain.Song{song("a", "A")})
	s.UpsertLocal("x", song("x", "Speculative"))
	require.Equal(t, 2, s.Count())

	s.ReplaceAll([]domain.Song{song("a", "A"), song("b", "B")})
	require.Equal(t, []domain.Song{song("a", "A"), song("b", "B")}, s.Songs())
}

func TestStore_UpsertLocal_ReplacesInPlace(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]domain.Song{song("a", "A"), song("b", "B")})
	s.UpsertLocal("a", song("a", "A2"))

	songs := s.Songs()
	require.Equal(t, "A2", songs[0].Title)
	require.Equal(t, 2, s.Count())
}

func TestStore_FirstPlayable_SkipsEntriesWithoutID(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]domain.Song{song("", "Broken"), song("a", "A")})

	first, ok := s.FirstPlayable()
	require.True(t, ok)
	require.Equal(t, "a", first.Song.ID)
}

func TestStore_FirstPlayable_EmptyStore(t *testing.T) {
	s := NewStore()
	_, ok := s.FirstPlayable()
	require.False(t, ok)
	require.True(t, s.IsEmpty())
}

func TestStore_KeysStayUniqueForDuplicateAndEmptyIDs(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]domain.Song{song("a", "A"), song("a", "A again"), song("", "No ID")})

	entries := s.Entries()
	require.Len(t, entries, 3)
	seen := map[string]bool{}
	for _, e := range entries {
		require.False(t, seen[e.Key], "duplicate key %q", e.Key)
		seen[e.Key] = true
	}
	// Order still matches the snapshot.
	require.Equal(t, "A", entries[0].Song.Title)
	require.Equal(t, "A again", entries[1].Song.Title)
	require.Equal(t, "No ID", entries[2].Song.Title)
}

func TestStore_InsertionIndexStrictlyIncreasing(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]domain.Song{song("a", "A"), song("b", "B")})
	s.UpsertLocal("c", song("c", "C"))

	entries := s.Entries()
	for i := 1; i < len(entries); i++ {
		require.Greater(t, entries[i].Index, entries[i-1].Index)
	}
}
