// Package channel maintains the persistent event stream between client
// and room server: a websocket that reconnects on its own with capped
// exponential backoff, delivering decoded events to a single handler in
// arrival order.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnState is the channel's connection state as observed by the session.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Handler receives channel callbacks. Events arrive one at a time, in
// delivery order, from a single goroutine.
type Handler interface {
	HandleEvent(Event)
	HandleConnState(ConnState)
	// HandleConnLost fires once per outage when reconnection has been
	// failing longer than the configured ceiling. The channel keeps
	// retrying regardless.
	HandleConnLost()
}

var (
	ErrClosed       = errors.New("channel closed")
	ErrNotConnected = errors.New("channel not connected")
	ErrBackpressure = errors.New("backpressure")
)

const (
	writeWait   = 5 * time.Second
	sendBufSize = 32
)

type Options struct {
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	// LostAfter is how long an outage may last before HandleConnLost
	// fires. Zero disables the notification.
	LostAfter time.Duration
}

// Channel dials url and keeps the connection alive until Close. All
// delivery goes through the Handler passed to Connect.
type Channel struct {
	url  string
	opts Options

	mu      sync.Mutex
	conn    *wsConn
	handler Handler
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

func New(url string, opts Options) *Channel {
	return &Channel{url: url, opts: opts}
}

// Connect starts the dial/read/redial loop. It returns immediately; the
// handler learns about connectivity through HandleConnState.
func (c *Channel) Connect(ctx context.Context, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrClosed
	}
	c.started = true
	c.handler = h
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx)
	return nil
}

// Close tears the connection down and stops reconnecting. Safe to call
// more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	done := c.done
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if conn != nil {
		conn.Close()
	}
	<-done
}

// EmitJoin announces room membership on the live connection. The server
// keeps no durable membership per connection, so the session re-sends
// this on every reconnect.
func (c *Channel) EmitJoin(room, token string) error {
	return c.emit(emitJoinRoom, map[string]string{"room": room, "jwt": token})
}

// EmitLeave is best-effort: the caller tears local state down whether or
// not the frame made it out.
func (c *Channel) EmitLeave(token string) error {
	return c.emit(emitLeaveRoom, map[string]string{"jwt": token})
}

func (c *Channel) emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.TrySend(frame)
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	bo := newBackoff(c.opts.ReconnectMin, c.opts.ReconnectMax)
	var downSince time.Time
	lostReported := false

	for {
		if ctx.Err() != nil {
			c.handler.HandleConnState(StateDisconnected)
			return
		}
		c.handler.HandleConnState(StateConnecting)
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			log.Warn().Str("module", "channel").Err(err).Msg("dial failed")
			c.handler.HandleConnState(StateDisconnected)
			if downSince.IsZero() {
				downSince = time.Now()
			}
			if !lostReported && c.opts.LostAfter > 0 && time.Since(downSince) > c.opts.LostAfter {
				lostReported = true
				c.handler.HandleConnLost()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(bo.Next()):
			}
			continue
		}

		conn := &wsConn{conn: ws, send: make(chan []byte, sendBufSize)}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		bo.Reset()
		downSince = time.Time{}
		lostReported = false

		log.Info().Str("module", "channel").Str("url", c.url).Msg("connected")
		c.handler.HandleConnState(StateConnected)

		go c.writePump(ctx, conn)
		c.readPump(ctx, conn) // blocks until the connection dies

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		c.handler.HandleConnState(StateDisconnected)
		if ctx.Err() != nil {
			return
		}
		downSince = time.Now()
		select {
		case <-ctx.Done():
			c.handler.HandleConnState(StateDisconnected)
			return
		case <-time.After(bo.Next()):
		}
	}
}

func (c *Channel) readPump(ctx context.Context, conn *wsConn) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			log.Warn().Str("module", "channel").Err(err).Msg("read error")
			return
		}
		ev, err := decodeEvent(data)
		if err != nil {
			log.Error().Str("module", "channel").Err(err).Msg("dropping frame")
			continue
		}
		c.handler.HandleEvent(ev)
	}
}

func (c *Channel) writePump(ctx context.Context, conn *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-conn.send:
			if !ok {
				return
			}
			if err := conn.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Str("module", "channel").Err(err).Msg("set write deadline")
				return
			}
			if err := conn.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Str("module", "channel").Err(err).Msg("write error")
				return
			}
		}
	}
}

// wsConn pairs one live websocket with its outbound buffer.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrNotConnected
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
