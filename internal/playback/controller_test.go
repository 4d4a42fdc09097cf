package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/partyaux/partyaux/internal/domain"
)

type fakeWidget struct {
	mu    sync.Mutex
	calls []string
}

func (w *fakeWidget) record(c string) {
	w.mu.Lock()
	w.calls = append(w.calls, c)
	w.mu.Unlock()
}

func (w *fakeWidget) recorded() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWidget) Play()        { w.record("play") }
func (w *fakeWidget) Pause()       { w.record("pause") }
func (w *fakeWidget) Seek(float64) { w.record("seek") }

type fakeTransport struct {
	mu       sync.Mutex
	host     bool
	advances int
	clears   int
	plays    int
	nextErr  error
}

func (f *fakeTransport) IsHost() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.host
}

func (f *fakeTransport) AdvanceQueue(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advances++
	return f.nextErr
}

func (f *fakeTransport) ClearCurrentSong() {
	f.mu.Lock()
	f.clears++
	f.mu.Unlock()
}

func (f *fakeTransport) PlayCurrentSong() {
	f.mu.Lock()
	f.plays++
	f.mu.Unlock()
}

func (f *fakeTransport) counts() (advances, clears, plays int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advances, f.clears, f.plays
}

func TestController_NonHostIntentsAreInert(t *testing.T) {
	w := &fakeWidget{}
	tr := &fakeTransport{host: false}
	c := NewController(w, tr, time.Second)

	require.ErrorIs(t, c.TogglePlayPause(), domain.ErrNotHost)
	require.ErrorIs(t, c.Skip(context.Background()), domain.ErrNotHost)

	advances, _, plays := tr.counts()
	require.Zero(t, advances, "no server call for a non-host")
	require.Zero(t, plays)
	require.Empty(t, w.recorded(), "no widget call for a non-host")
}

func TestController_AuthorityRecheckedPerCall(t *testing.T) {
	w := &fakeWidget{}
	tr := &fakeTransport{host: true}
	c := NewController(w, tr, time.Second)

	require.NoError(t, c.TogglePlayPause())

	// Demoted between calls: the next intent is blocked.
	tr.mu.Lock()
	tr.host = false
	tr.mu.Unlock()
	require.ErrorIs(t, c.TogglePlayPause(), domain.ErrNotHost)
}

func TestController_TogglePlayPauseAlternates(t *testing.T) {
	w := &fakeWidget{}
	c := NewController(w, &fakeTransport{host: true}, time.Second)

	require.NoError(t, c.TogglePlayPause())
	require.NoError(t, c.TogglePlayPause())
	require.Equal(t, []string{"pause", "play"}, w.recorded())
}

func TestController_SkipProtocolOrder(t *testing.T) {
	w := &fakeWidget{}
	tr := &fakeTransport{host: true}
	c := NewController(w, tr, time.Second)

	require.NoError(t, c.Skip(context.Background()))

	require.Equal(t, []string{"seek"}, w.recorded(), "widget is seeked away before the server call")
	advances, _, plays := tr.counts()
	require.Equal(t, 1, advances)
	require.Equal(t, 1, plays)
}

func TestController_SkipFailureLeavesCurrentSongAlone(t *testing.T) {
	tr := &fakeTransport{host: true, nextErr: &domain.NetworkError{Op: "next-song"}}
	c := NewController(&fakeWidget{}, tr, time.Second)

	require.Error(t, c.Skip(context.Background()))
	_, clears, plays := tr.counts()
	require.Zero(t, clears)
	require.Zero(t, plays, "a failed advance must not trigger a refetch")
}

func TestController_EndedAutoAdvancesRegardlessOfHost(t *testing.T) {
	tr := &fakeTransport{host: false}
	c := NewController(&fakeWidget{}, tr, time.Second)

	c.HandleWidgetState(StateEnded)
	require.Eventually(t, func() bool {
		advances, clears, plays := tr.counts()
		return advances == 1 && clears == 1 && plays == 1
	}, time.Second, 5*time.Millisecond)
}

func TestController_EndedAdvanceRejectionSkipsRefetch(t *testing.T) {
	tr := &fakeTransport{host: false, nextErr: &domain.ServerRejection{Op: "next-song", Status: "not host"}}
	c := NewController(&fakeWidget{}, tr, time.Second)

	c.HandleWidgetState(StateEnded)
	require.Eventually(t, func() bool {
		advances, _, _ := tr.counts()
		return advances == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	_, _, plays := tr.counts()
	require.Zero(t, plays)
}

func TestController_UnstartedAutoStarts(t *testing.T) {
	w := &fakeWidget{}
	c := NewController(w, &fakeTransport{}, time.Second)

	c.HandleWidgetState(StateUnstarted)
	require.Equal(t, []string{"play"}, w.recorded())
}

func TestController_HoldWhilePausedResumes(t *testing.T) {
	w := &fakeWidget{}
	c := NewController(w, &fakeTransport{}, time.Second)

	c.HandleWidgetState(StatePaused)
	require.Empty(t, w.recorded(), "without hold, pause stays paused")

	c.HoldWhilePaused(true)
	c.HandleWidgetState(StatePaused)
	require.Equal(t, []string{"play"}, w.recorded())
}
