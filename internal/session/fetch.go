package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/partyaux/partyaux/internal/domain"
	"github.com/partyaux/partyaux/internal/gateway"
)

// Pull fetches are tagged with a sequence number at issue time and run
// on their own goroutines; the apply step re-takes the lock and drops
// anything superseded by a later push (or a later fetch) while it was
// in flight. Late responses are inert, not errors.

// RefreshRoomInfo pull-fetches host identity and the member list, the
// authoritative source for who the host is.
func (s *Session) RefreshRoomInfo() {
	room, seq, ok := s.issue()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.FetchTimeout)
		defer cancel()
		info, err := s.gw.RoomInfo(ctx, room)
		s.applyRoomInfo(room, seq, info, err)
	}()
}

// RefreshQueue pull-fetches the full queue snapshot.
func (s *Session) RefreshQueue() {
	room, seq, ok := s.issue()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.FetchTimeout)
		defer cancel()
		songs, err := s.gw.Queue(ctx, room)
		s.applyQueue(room, seq, songs, err)
	}()
}

// PlayCurrentSong clears the current song and re-fetches it. Used for
// manual refresh and as the last step of a skip. Safe to call with a
// fetch already in flight; the newest sequence wins.
func (s *Session) PlayCurrentSong() {
	s.mu.Lock()
	s.current = domain.Song{}
	s.mu.Unlock()
	s.publish()

	room, seq, ok := s.issue()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.FetchTimeout)
		defer cancel()
		song, err := s.gw.CurrentSong(ctx, room)
		s.applyCurrentSong(room, seq, song, err)
	}()
}

// issue tags a fetch with the next sequence number. ok is false when no
// room is active.
func (s *Session) issue() (domain.RoomCode, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room.IsZero() {
		return "", 0, false
	}
	s.seq++
	return s.room, s.seq, true
}

// stale reports whether a fetch response must be dropped: the session
// left (or switched) the room, a push event touched the same field
// after the fetch was issued, or a newer fetch already applied.
func (s *Session) staleLocked(room domain.RoomCode, seq, pushSeq, fetchSeq uint64) bool {
	if s.room.IsZero() || s.room != room {
		return true
	}
	return seq < pushSeq || seq <= fetchSeq
}

func (s *Session) applyRoomInfo(room domain.RoomCode, seq uint64, info gateway.RoomInfo, err error) {
	s.mu.Lock()
	if s.staleLocked(room, seq, 0, s.infoSeq) {
		s.mu.Unlock()
		log.Debug().Str("module", "session").Uint64("seq", seq).Msg("stale room info discarded")
		return
	}
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.publish()
		return
	}
	s.infoSeq = seq
	s.host = info.Host
	s.members = info.Members
	s.mu.Unlock()
	log.Debug().Str("module", "session").Str("host", string(info.Host)).Int("members", len(info.Members)).Msg("room info applied")
	s.publish()
}

func (s *Session) applyQueue(room domain.RoomCode, seq uint64, songs []domain.Song, err error) {
	s.mu.Lock()
	if s.staleLocked(room, seq, s.queuePushSeq, s.queueSeq) || s.store == nil {
		s.mu.Unlock()
		log.Debug().Str("module", "session").Uint64("seq", seq).Msg("stale queue discarded")
		return
	}
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.publish()
		return
	}
	s.queueSeq = seq
	s.store.ReplaceAll(songs)
	// Fallback: nothing is playing and no push set a song since this
	// fetch went out, so adopt the first playable entry. The adoption
	// counts as a push-driven update so an older in-flight current-song
	// fetch cannot clear it again.
	if s.current.IsZero() && seq >= s.songPushSeq {
		if first, ok := s.store.FirstPlayable(); ok {
			s.seq++
			s.songPushSeq = s.seq
			s.current = first.Song
		}
	}
	s.mu.Unlock()
	s.publish()
}

func (s *Session) applyCurrentSong(room domain.RoomCode, seq uint64, song domain.Song, err error) {
	s.mu.Lock()
	if s.staleLocked(room, seq, s.songPushSeq, s.songFetchSeq) {
		s.mu.Unlock()
		log.Debug().Str("module", "session").Uint64("seq", seq).Msg("stale current song discarded")
		return
	}
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.publish()
		return
	}
	s.songFetchSeq = seq
	s.current = song
	s.mu.Unlock()
	log.Debug().Str("module", "session").Str("song", song.ID).Msg("current song applied")
	s.publish()
}
