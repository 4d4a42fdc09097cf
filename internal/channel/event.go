package channel

import (
	"encoding/json"
	"fmt"

	"github.com/partyaux/partyaux/internal/domain"
)

// Kind names a server-pushed event.
type Kind string

const (
	KindServerMessage  Kind = "server_message"
	KindCurrentSong    Kind = "current_song"
	KindAddSong        Kind = "add_song"
	KindDeleteHeadSong Kind = "delete_head_song"
	KindRemoveSong     Kind = "remove_song"
	KindDownvote       Kind = "downvote"
	KindSomeoneLeft    Kind = "someone_left"
)

// Client-emitted event names.
const (
	emitJoinRoom  = "join_room"
	emitLeaveRoom = "leave_room"
)

// Event is a decoded push event. Only the fields relevant to the Kind
// are populated.
type Event struct {
	Kind      Kind
	Song      domain.Song   // current_song, add_song, downvote
	Downvotes int           // downvote
	Message   string        // server_message
	UserID    domain.UserID // someone_left
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func decodeEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("bad event frame: %w", err)
	}
	ev := Event{Kind: Kind(env.Event)}
	switch ev.Kind {
	case KindServerMessage:
		var p struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Event{}, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		ev.Message = p.Message
	case KindCurrentSong, KindAddSong:
		var p struct {
			Song domain.SongDict `json:"song"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Event{}, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		ev.Song = p.Song.Song()
	case KindDownvote:
		var p struct {
			Song      domain.SongDict `json:"song"`
			Downvotes int             `json:"downvotes"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Event{}, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		ev.Song = p.Song.Song()
		ev.Downvotes = p.Downvotes
	case KindSomeoneLeft:
		var p struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Event{}, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		ev.UserID = domain.UserID(p.Email)
	case KindDeleteHeadSong, KindRemoveSong:
		// no payload
	default:
		return Event{}, fmt.Errorf("unknown event %q", env.Event)
	}
	return ev, nil
}
