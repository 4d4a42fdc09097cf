// Package playback gates transport intents behind host authority and
// drives the embedded playback widget. The widget itself is an external
// collaborator; only its control surface and state callbacks appear
// here.
package playback

// State is the widget's playback state, reported through the
// controller's HandleWidgetState.
type State int

const (
	StateUnstarted State = iota
	StateBuffering
	StateCued
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Widget is the control surface of the embedded player.
type Widget interface {
	Play()
	Pause()
	Seek(seconds float64)
}
