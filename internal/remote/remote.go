// Package remote bridges the player to external transport controls:
// now-playing metadata and position updates flow out, play/pause/seek/
// next/previous commands flow back in. The player core depends only on
// the narrow Adapter interface, never on a concrete host integration.
package remote

import "time"

// NowPlaying is the metadata snapshot published to transport surfaces.
type NowPlaying struct {
	TrackID  string        `json:"trackId"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	Artwork  string        `json:"artwork,omitempty"`
	Duration time.Duration `json:"duration"`
	Position time.Duration `json:"position"`
	Rate     float64       `json:"rate"`
	State    string        `json:"state"`
}

// Commands receives transport commands from the host surface. Next and
// Previous are queue decisions the engine cannot make itself; they are
// forwarded to whoever owns the queue.
type Commands interface {
	Play()
	Pause()
	SeekTo(pos time.Duration)
	Next()
	Previous()
}

// Adapter is one transport surface (media keys, lock screen, remote
// UI). Implementations push commands into the handler they are started
// with and render whatever metadata they receive.
type Adapter interface {
	// Start begins accepting commands and forwarding them to cmds.
	Start(cmds Commands) error
	// Publish updates the surface with the current playback snapshot.
	Publish(np NowPlaying)
	Close() error
}

// NopAdapter ignores everything. Used when no transport surface is
// configured.
type NopAdapter struct{}

func (NopAdapter) Start(Commands) error { return nil }
func (NopAdapter) Publish(NowPlaying)   {}
func (NopAdapter) Close() error         { return nil }

var _ Adapter = NopAdapter{}
