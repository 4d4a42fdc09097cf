// Package domain contains entity without logic, just meta-data
package domain

// Song is an immutable description of a playable track. The ID is the
// source URL of the track and is the only field used for equality; every
// other field defaults to "" when the server omits it.
type Song struct {
	ID          string
	Title       string
	Artist      string
	Album       string
	AlbumArtURL string
}

// SongDict is the wire shape the server uses for songs. Duration is a
// free-text string ("2 minutes, 51 seconds") parsed by the UI, not here.
type SongDict struct {
	URL      string `json:"url"`
	AlbumArt string `json:"album_art"`
	Title    string `json:"title"`
	Album    string `json:"album"`
	Artist   string `json:"artist"`
	Duration string `json:"duration"`
}

// Song converts the wire dict into the canonical value type.
func (d SongDict) Song() Song {
	return Song{
		ID:          d.URL,
		Title:       d.Title,
		Artist:      d.Artist,
		Album:       d.Album,
		AlbumArtURL: d.AlbumArt,
	}
}

// Dict converts a Song back to its wire shape, for add-song requests.
func (s Song) Dict() SongDict {
	return SongDict{
		URL:      s.ID,
		AlbumArt: s.AlbumArtURL,
		Title:    s.Title,
		Album:    s.Album,
		Artist:   s.Artist,
	}
}

func (s Song) Equal(other Song) bool { return s.ID == other.ID }

// IsZero reports whether no song is set at all.
func (s Song) IsZero() bool { return s == Song{} }
