package session

import (
	"github.com/partyaux/partyaux/internal/channel"
	"github.com/partyaux/partyaux/internal/domain"
)

// Snapshot is the published, read-only view of the room. Consumers get
// copies; nothing here aliases session-owned state.
type Snapshot struct {
	RoomCode    domain.RoomCode
	Host        domain.UserID
	Self        domain.UserID
	IsHost      bool
	Members     []domain.Member
	CurrentSong domain.Song
	Queue       []domain.Song
	Joined      bool
	ConnState   channel.ConnState
	// LastError is the most recent transient failure, republished here
	// instead of thrown across the UI boundary.
	LastError error
}

// CurrentSongID returns the id of the song now playing, "" when none.
func (s Snapshot) CurrentSongID() string { return s.CurrentSong.ID }

// Notice is a side-channel notification that does not belong to the
// canonical room state: downvote tallies and server broadcast messages.
type Notice struct {
	Kind      channel.Kind
	Song      domain.Song
	Downvotes int
	Message   string
}
