package session

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partyaux/partyaux/internal/channel"
	"github.com/partyaux/partyaux/internal/domain"
)

// The session is the channel's handler: events arrive one at a time
// from the channel's read goroutine, never concurrently.
var _ channel.Handler = (*Session)(nil)

// HandleConnState tracks connectivity. The server keeps no durable
// per-connection membership, so the join request is re-sent on every
// reconnect.
func (s *Session) HandleConnState(st channel.ConnState) {
	s.mu.Lock()
	s.connState = st
	room := s.room
	if st != channel.StateConnected {
		s.joined = false
	}
	s.mu.Unlock()

	if st == channel.StateConnected && !room.IsZero() {
		err := s.ch.EmitJoin(string(room), s.cred.Token())
		s.mu.Lock()
		s.joined = err == nil
		if err != nil {
			s.lastErr = err
		} else {
			s.lastErr = nil
		}
		s.mu.Unlock()
		if err != nil {
			log.Warn().Str("module", "session").Err(err).Msg("join emit failed")
		} else {
			log.Info().Str("module", "session").Str("room", string(room)).Msg("joined room")
		}
	}
	s.publish()
}

func (s *Session) HandleConnLost() {
	log.Warn().Str("module", "session").Msg("connection lost")
	s.setLastErr(domain.ErrConnectionLost)
}

// HandleEvent applies one push event. Transient network blips never
// reach here; structural queue events trigger a pull refresh instead of
// speculative local edits, since the server owns exact ordering.
func (s *Session) HandleEvent(ev channel.Event) {
	switch ev.Kind {
	case channel.KindCurrentSong:
		s.mu.Lock()
		s.seq++
		s.songPushSeq = s.seq
		s.current = ev.Song
		s.mu.Unlock()
		s.RefreshQueue()
		s.publish()

	case channel.KindAddSong:
		s.mu.Lock()
		if s.current.IsZero() {
			// First song in an empty room: adopt it right away. Local
			// optimization, confirmed by the next fetch.
			s.seq++
			s.songPushSeq = s.seq
			s.current = ev.Song
		}
		s.mu.Unlock()
		s.RefreshQueue()
		s.publish()

	case channel.KindDeleteHeadSong, channel.KindRemoveSong:
		s.RefreshQueue()

	case channel.KindDownvote:
		s.notify(Notice{Kind: ev.Kind, Song: ev.Song, Downvotes: ev.Downvotes})

	case channel.KindServerMessage:
		s.notify(Notice{Kind: ev.Kind, Message: ev.Message})

	case channel.KindSomeoneLeft:
		s.handleSomeoneLeft(ev.UserID)

	default:
		log.Warn().Str("module", "session").Str("event", string(ev.Kind)).Msg("unknown event")
	}
}

func (s *Session) handleSomeoneLeft(who domain.UserID) {
	s.mu.Lock()
	kept := s.members[:0:0]
	for _, m := range s.members {
		if m.ID != who {
			kept = append(kept, m)
		}
	}
	s.members = kept
	hostLeft := who != "" && who == s.host
	s.mu.Unlock()

	if hostLeft {
		// Give the server a moment to finish host re-election before
		// asking who is in charge now.
		log.Info().Str("module", "session").Str("user", string(who)).Msg("host left, scheduling refresh")
		time.AfterFunc(s.opts.HostSettleDelay, s.RefreshRoomInfo)
	}
	s.publish()
}
