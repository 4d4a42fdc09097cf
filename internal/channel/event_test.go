package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partyaux/partyaux/internal/domain"
)

func TestDecodeEvent_CurrentSong(t *testing.T) {
	raw := []byte(`{"event":"current_song","data":{"song":{"url":"yt:a","title":"A","artist":"Band","album_art":"http://img/a","duration":"3 minutes"}}}`)
	ev, err := decodeEvent(raw)
	require.NoError(t, err)
	require.Equal(t, KindCurrentSong, ev.Kind)
	require.Equal(t, domain.Song{ID: "yt:a", Title: "A", Artist: "Band", AlbumArtURL: "http://img/a"}, ev.Song)
}

func TestDecodeEvent_AddSongDefaultsMissingFields(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"add_song","data":{"song":{"title":"Only Title"}}}`))
	require.NoError(t, err)
	require.Equal(t, KindAddSong, ev.Kind)
	require.Equal(t, "", ev.Song.ID)
	require.Equal(t, "Only Title", ev.Song.Title)
}

func TestDecodeEvent_Downvote(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"downvote","data":{"song":{"url":"yt:a"},"downvotes":4}}`))
	require.NoError(t, err)
	require.Equal(t, 4, ev.Downvotes)
	require.Equal(t, "yt:a", ev.Song.ID)
}

func TestDecodeEvent_SomeoneLeft(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"someone_left","data":{"email":"gone@example.com"}}`))
	require.NoError(t, err)
	require.Equal(t, domain.UserID("gone@example.com"), ev.UserID)
}

func TestDecodeEvent_NoPayloadEvents(t *testing.T) {
	for _, name := range []string{"delete_head_song", "remove_song"} {
		ev, err := decodeEvent([]byte(`{"event":"` + name + `"}`))
		require.NoError(t, err)
		require.Equal(t, Kind(name), ev.Kind)
	}
}

func TestDecodeEvent_ServerMessage(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"event":"server_message","data":{"message":"room closing soon"}}`))
	require.NoError(t, err)
	require.Equal(t, "room closing soon", ev.Message)
}

func TestDecodeEvent_Rejects(t *testing.T) {
	_, err := decodeEvent([]byte(`not json`))
	require.Error(t, err)

	_, err = decodeEvent([]byte(`{"event":"no_such_event"}`))
	require.Error(t, err)

	_, err = decodeEvent([]byte(`{"event":"current_song","data":"nope"}`))
	require.Error(t, err)
}
