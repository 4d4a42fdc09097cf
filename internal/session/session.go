// Package session is the room state machine. One Session instance
// serves one active room: create it, join or create a room, and discard
// it after Leave. All state lives behind a single mutex; the event
// channel delivers callbacks one at a time, so every mutation is
// serialized through that one lock.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partyaux/partyaux/internal/auth"
	"github.com/partyaux/partyaux/internal/channel"
	"github.com/partyaux/partyaux/internal/domain"
	"github.com/partyaux/partyaux/internal/gateway"
	"github.com/partyaux/partyaux/internal/queue"
)

// Gateway is the one-shot request/response surface the session pulls
// snapshots from.
type Gateway interface {
	CreateRoom(ctx context.Context, maxDownvotes int) (domain.RoomCode, error)
	RoomInfo(ctx context.Context, room domain.RoomCode) (gateway.RoomInfo, error)
	Queue(ctx context.Context, room domain.RoomCode) ([]domain.Song, error)
	CurrentSong(ctx context.Context, room domain.RoomCode) (domain.Song, error)
	NextSong(ctx context.Context, room domain.RoomCode) error
	AddSong(ctx context.Context, room domain.RoomCode, song domain.Song) error
}

// EventChannel is the persistent push stream the session subscribes to.
type EventChannel interface {
	Connect(ctx context.Context, h channel.Handler) error
	Close()
	EmitJoin(room, token string) error
	EmitLeave(token string) error
}

type Options struct {
	MaxDownvotes    int
	FetchTimeout    time.Duration
	HostSettleDelay time.Duration
	// OnChange fires after every applied state change with a fresh
	// snapshot. Called without the session lock held.
	OnChange func(Snapshot)
	// OnNotice fires for side-channel events (downvotes, broadcasts).
	OnNotice func(Notice)
}

type Session struct {
	cred auth.Credential
	gw   Gateway
	ch   EventChannel
	opts Options

	mu        sync.Mutex
	room      domain.RoomCode
	host      domain.UserID
	members   []domain.Member
	current   domain.Song
	joined    bool
	connState channel.ConnState
	lastErr   error
	store     *queue.Store

	// Ordering marks. seq grows on every fetch issue or push
	// application; a fetch result is applied only when
	// its issue seq is not behind the last push to the same field and
	// strictly ahead of the last applied fetch of that field.
	seq          uint64
	songPushSeq  uint64
	songFetchSeq uint64
	queuePushSeq uint64
	queueSeq     uint64
	infoSeq      uint64
}

func New(cred auth.Credential, gw Gateway, ch EventChannel, opts Options) *Session {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.HostSettleDelay <= 0 {
		opts.HostSettleDelay = 500 * time.Millisecond
	}
	if opts.MaxDownvotes <= 0 {
		opts.MaxDownvotes = 5
	}
	return &Session{cred: cred, gw: gw, ch: ch, opts: opts}
}

// CreateRoom asks the server for a new room and enters it. The creator
// is assumed host until a room-info fetch says otherwise.
func (s *Session) CreateRoom(ctx context.Context) (domain.RoomCode, error) {
	s.mu.Lock()
	if !s.room.IsZero() {
		s.mu.Unlock()
		return "", domain.ErrAlreadyInRoom
	}
	s.mu.Unlock()

	code, err := s.gw.CreateRoom(ctx, s.opts.MaxDownvotes)
	if err != nil {
		s.setLastErr(err)
		return "", err
	}

	s.mu.Lock()
	s.room = code
	s.host = s.cred.Self() // optimistic
	s.store = queue.NewStore()
	s.mu.Unlock()

	log.Info().Str("module", "session").Str("room", string(code)).Msg("room created")
	if err := s.ch.Connect(context.Background(), s); err != nil {
		s.setLastErr(err)
	}
	s.publish()
	return code, nil
}

// JoinRoom enters an existing room by code. Host identity is unknown
// until room info resolves; the room-info fetch goes out immediately,
// without waiting for the channel to connect.
func (s *Session) JoinRoom(ctx context.Context, code domain.RoomCode) error {
	if code.IsZero() {
		return domain.ErrBadRoomCode
	}
	s.mu.Lock()
	if !s.room.IsZero() {
		s.mu.Unlock()
		return domain.ErrAlreadyInRoom
	}
	s.room = code
	s.host = ""
	s.store = queue.NewStore()
	s.mu.Unlock()

	log.Info().Str("module", "session").Str("room", string(code)).Msg("joining room")
	if err := s.ch.Connect(context.Background(), s); err != nil {
		s.setLastErr(err)
	}
	s.RefreshRoomInfo()
	s.RefreshQueue()
	s.PlayCurrentSong()
	s.publish()
	return nil
}

// Leave tells the server we are going (best-effort, never retried) and
// unconditionally tears local state down. The session is spent after
// this call.
func (s *Session) Leave() {
	if err := s.ch.EmitLeave(s.cred.Token()); err != nil {
		log.Debug().Str("module", "session").Err(err).Msg("leave emit failed, leaving anyway")
	}
	s.mu.Lock()
	s.room = ""
	s.host = ""
	s.members = nil
	s.current = domain.Song{}
	s.joined = false
	s.store = nil
	s.mu.Unlock()
	s.ch.Close()
	log.Info().Str("module", "session").Msg("left room")
	s.publish()
}

// AdvanceQueue asks the server for the next song. Safe to retry; a
// failure leaves the current song untouched.
func (s *Session) AdvanceQueue(ctx context.Context) error {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	if room.IsZero() {
		return domain.ErrNoRoom
	}
	if err := s.gw.NextSong(ctx, room); err != nil {
		s.setLastErr(err)
		return err
	}
	return nil
}

// AddSongToQueue submits a song and speculatively appends it locally;
// the next queue snapshot supersedes the speculative entry.
func (s *Session) AddSongToQueue(ctx context.Context, song domain.Song) error {
	s.mu.Lock()
	room := s.room
	store := s.store
	s.mu.Unlock()
	if room.IsZero() || store == nil {
		return domain.ErrNoRoom
	}
	store.UpsertLocal(song.ID, song)
	s.publish()
	if err := s.gw.AddSong(ctx, room, song); err != nil {
		s.setLastErr(err)
		return err
	}
	return nil
}

// ClearCurrentSong drops the current song without fetching a
// replacement, used when the widget reports the track ended.
func (s *Session) ClearCurrentSong() {
	s.mu.Lock()
	s.current = domain.Song{}
	s.mu.Unlock()
	s.publish()
}

// IsHost recomputes host authority at call time, never cached.
func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host != "" && s.host == s.cred.Self()
}

// CurrentSongID returns the id of the song now playing, "" when none.
func (s *Session) CurrentSongID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.ID
}

// Snapshot publishes a copy of the full room state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		RoomCode:    s.room,
		Host:        s.host,
		Self:        s.cred.Self(),
		IsHost:      s.host != "" && s.host == s.cred.Self(),
		Members:     append([]domain.Member(nil), s.members...),
		CurrentSong: s.current,
		Joined:      s.joined,
		ConnState:   s.connState,
		LastError:   s.lastErr,
	}
	if s.store != nil {
		snap.Queue = s.store.Songs()
	}
	return snap
}

func (s *Session) publish() {
	if s.opts.OnChange == nil {
		return
	}
	s.opts.OnChange(s.Snapshot())
}

func (s *Session) notify(n Notice) {
	if s.opts.OnNotice != nil {
		s.opts.OnNotice(n)
	}
}

func (s *Session) setLastErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.publish()
}
