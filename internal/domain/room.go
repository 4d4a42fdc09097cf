package domain

import (
	"errors"
	"strings"
)

// RoomCode identifies a room. Empty means "no room".
type RoomCode string

const RoomCodeLen = 6

var ErrBadRoomCode = errors.New("room code must be 6 letters or digits")

// ParseRoomCode normalizes user input the way the join screen does:
// upper-case, alphanumeric only, exactly RoomCodeLen characters.
func ParseRoomCode(raw string) (RoomCode, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() != RoomCodeLen {
		return "", ErrBadRoomCode
	}
	return RoomCode(b.String()), nil
}

func (c RoomCode) IsZero() bool { return c == "" }
