// Package player is the playback controller: it loads tracks, owns the
// signal graph, and exposes transport operations (play, pause, seek,
// crossfade) with a wall-clock based position model.
package player

import "time"

// Track describes one playable item. Duration is the nominal length
// from metadata; once the track is decoded the buffer's measured
// duration takes precedence.
type Track struct {
	ID        string
	StreamURL string
	Duration  time.Duration
	Title     string
	Artist    string
	Album     string
	ImageURL  string
}

// State is the controller's playback state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
