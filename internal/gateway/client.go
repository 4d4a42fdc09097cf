// Package gateway issues the one-shot request/response calls against the
// room server. It is stateless: every call carries the bearer token and,
// where relevant, the room code.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partyaux/partyaux/internal/auth"
	"github.com/partyaux/partyaux/internal/domain"
)

const statusRoomCreated = "Room created successfully"

// RoomInfo is the pull-fetched authoritative view of a room's membership.
type RoomInfo struct {
	Host    domain.UserID
	Members []domain.Member
}

type Client struct {
	baseURL string
	cred    auth.Credential
	http    *http.Client
}

func NewClient(baseURL string, cred auth.Credential, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		cred:    cred,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateRoom asks the server for a fresh room and returns its code.
func (c *Client) CreateRoom(ctx context.Context, maxDownvotes int) (domain.RoomCode, error) {
	var resp struct {
		Status string `json:"status"`
		Code   string `json:"code"`
	}
	body := map[string]any{"jwt": c.cred.Token(), "max_downvotes": maxDownvotes}
	if err := c.post(ctx, "create-room", body, &resp); err != nil {
		return "", err
	}
	if resp.Status != statusRoomCreated {
		return "", &domain.ServerRejection{Op: "create-room", Status: resp.Status}
	}
	return domain.RoomCode(resp.Code), nil
}

// RoomInfo fetches host identity and the member list. This is the only
// authoritative source for who the host is.
func (c *Client) RoomInfo(ctx context.Context, room domain.RoomCode) (RoomInfo, error) {
	var resp struct {
		Status   string `json:"status"`
		RoomInfo struct {
			Host struct {
				Email string `json:"email"`
			} `json:"host"`
			Users []struct {
				Email    string `json:"email"`
				Username string `json:"username"`
			} `json:"users"`
		} `json:"room_info"`
	}
	body := map[string]any{"room": string(room), "jwt": c.cred.Token()}
	if err := c.post(ctx, "get-room-info", body, &resp); err != nil {
		return RoomInfo{}, err
	}
	info := RoomInfo{Host: domain.UserID(resp.RoomInfo.Host.Email)}
	for _, u := range resp.RoomInfo.Users {
		info.Members = append(info.Members, domain.NewMember(domain.UserID(u.Email), u.Username))
	}
	return info, nil
}

// Queue fetches the full queue snapshot in server order.
func (c *Client) Queue(ctx context.Context, room domain.RoomCode) ([]domain.Song, error) {
	var resp struct {
		Queue []domain.SongDict `json:"queue"`
	}
	body := map[string]any{"jwt": c.cred.Token(), "room": string(room)}
	if err := c.post(ctx, "get-queue", body, &resp); err != nil {
		return nil, err
	}
	songs := make([]domain.Song, 0, len(resp.Queue))
	for _, d := range resp.Queue {
		songs = append(songs, d.Song())
	}
	return songs, nil
}

// CurrentSong fetches the song now playing. A zero Song means the room
// has nothing playing.
func (c *Client) CurrentSong(ctx context.Context, room domain.RoomCode) (domain.Song, error) {
	var resp struct {
		Song domain.SongDict `json:"song"`
	}
	body := map[string]any{"jwt": c.cred.Token(), "room": string(room)}
	if err := c.post(ctx, "get-current-song", body, &resp); err != nil {
		return domain.Song{}, err
	}
	return resp.Song.Song(), nil
}

// NextSong asks the server to advance the queue. Idempotent from the
// client's perspective: a failure leaves the current song unchanged and
// the call is safe to retry.
func (c *Client) NextSong(ctx context.Context, room domain.RoomCode) error {
	var resp struct {
		Status string `json:"status"`
	}
	body := map[string]any{"jwt": c.cred.Token(), "room": string(room)}
	return c.post(ctx, "next-song", body, &resp)
}

// AddSong submits a song to the room's queue.
func (c *Client) AddSong(ctx context.Context, room domain.RoomCode, song domain.Song) error {
	body := map[string]any{"room": string(room), "jwt": c.cred.Token(), "song": song.Dict()}
	return c.post(ctx, "add-song-to-queue", body, nil)
}

// post sends a JSON body to /<op> and decodes a JSON response into out
// (out may be nil for ack-only endpoints). Transport failures come back
// as *domain.NetworkError, non-2xx responses as *domain.ServerRejection.
func (c *Client) post(ctx context.Context, op string, body map[string]any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Str("module", "gateway").Str("op", op).Err(err).Msg("request failed")
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		return &domain.ServerRejection{Op: op, Status: resp.Status}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	return nil
}
