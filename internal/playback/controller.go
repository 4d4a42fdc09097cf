package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partyaux/partyaux/internal/domain"
)

// Transport is the session surface the controller drives.
type Transport interface {
	IsHost() bool
	AdvanceQueue(ctx context.Context) error
	ClearCurrentSong()
	PlayCurrentSong()
}

// seekAway pushes the playhead far past the end so the widget stops
// producing audio while the server advances the queue.
const seekAway = 1000

// Controller wraps transport intents with the host check. Authority is
// re-checked on every call, never cached: a host demotion between calls
// takes effect immediately.
type Controller struct {
	widget  Widget
	session Transport
	timeout time.Duration

	mu      sync.Mutex
	playing bool
	// Background hold: while the app is backgrounded the OS pauses the
	// widget; with hold on, a pause report is answered with Play.
	hold bool
}

func NewController(w Widget, t Transport, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{widget: w, session: t, timeout: timeout, playing: true}
}

// TogglePlayPause flips play/pause on the widget. Non-hosts get
// domain.ErrNotHost and no widget call at all.
func (c *Controller) TogglePlayPause() error {
	if !c.session.IsHost() {
		return domain.ErrNotHost
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		c.widget.Pause()
		c.playing = false
	} else {
		c.widget.Play()
		c.playing = true
	}
	return nil
}

// Skip advances to the next song: seek the widget away, ask the server
// to advance, then clear and re-fetch the current song. A server
// failure leaves the current song unchanged; the call is safe to retry.
func (c *Controller) Skip(ctx context.Context) error {
	if !c.session.IsHost() {
		return domain.ErrNotHost
	}
	c.widget.Seek(seekAway)
	if err := c.session.AdvanceQueue(ctx); err != nil {
		log.Warn().Str("module", "playback").Err(err).Msg("skip: advance failed")
		return err
	}
	c.session.PlayCurrentSong()
	return nil
}

// HoldWhilePaused toggles the background hold behavior.
func (c *Controller) HoldWhilePaused(on bool) {
	c.mu.Lock()
	c.hold = on
	c.mu.Unlock()
}

// HandleWidgetState reacts to widget state reports. The ended state is
// the one exception to host gating: a finished song is a fact, not a
// control action, so every client advances its local widget; only the
// host's advance request actually moves server state.
func (c *Controller) HandleWidgetState(st State) {
	log.Debug().Str("module", "playback").Str("state", st.String()).Msg("widget state")
	switch st {
	case StateUnstarted:
		c.widget.Play()
		c.mu.Lock()
		c.playing = true
		c.mu.Unlock()
	case StatePlaying:
		c.mu.Lock()
		c.playing = true
		c.mu.Unlock()
	case StatePaused:
		c.mu.Lock()
		hold := c.hold
		c.playing = false
		c.mu.Unlock()
		if hold {
			c.widget.Play()
		}
	case StateEnded:
		c.session.ClearCurrentSong()
		go c.autoAdvance()
	case StateBuffering, StateCued:
		// nothing to do
	}
}

func (c *Controller) autoAdvance() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.session.AdvanceQueue(ctx); err != nil {
		// Non-host advances are expected to be rejected; the host's
		// request (or a push event) moves everyone forward.
		log.Debug().Str("module", "playback").Err(err).Msg("auto-advance not accepted")
		return
	}
	c.session.PlayCurrentSong()
}
