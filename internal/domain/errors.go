package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotHost blocks transport commands issued by a non-host member.
	// It never reaches the network.
	ErrNotHost = errors.New("not the room host")

	// ErrNoRoom means an operation that needs an active room was called
	// without one (or after leaveRoom tore the session down).
	ErrNoRoom = errors.New("no active room")

	ErrAlreadyInRoom = errors.New("already in a room")

	// ErrConnectionLost is reported when the event channel has been
	// failing to reconnect for longer than the configured ceiling.
	ErrConnectionLost = errors.New("connection lost")
)

// NetworkError wraps a transport failure: the request never produced a
// usable response. Retryable at the caller's discretion.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerRejection means the server answered but declined the request.
// Status carries the server's own status string, untranslated.
type ServerRejection struct {
	Op     string
	Status string
}

func (e *ServerRejection) Error() string { return fmt.Sprintf("%s: server rejected: %s", e.Op, e.Status) }
