package remote

import (
	"sync"
	"time"

	"github.com/perhassle/spotify-mvp-sub001/internal/log"
	"github.com/perhassle/spotify-mvp-sub001/internal/player"
)

// Bridge wires a player to a transport adapter. It publishes a
// now-playing snapshot at a fixed cadence while active and translates
// adapter commands into player calls. Next/previous commands are
// forwarded to the OnNext/OnPrevious callbacks since track selection
// lives outside the engine.
type Bridge struct {
	player  *player.Player
	adapter Adapter

	// OnNext and OnPrevious receive skip commands from the transport
	// surface. May be nil.
	OnNext     func()
	OnPrevious func()

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewBridge creates a bridge publishing through adapter.
func NewBridge(p *player.Player, adapter Adapter) *Bridge {
	return &Bridge{player: p, adapter: adapter}
}

// Start connects the adapter and begins periodic metadata publishing.
func (b *Bridge) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	if err := b.adapter.Start(b); err != nil {
		return err
	}

	b.mu.Lock()
	if b.ticker != nil {
		b.mu.Unlock()
		return nil
	}
	b.ticker = time.NewTicker(interval)
	b.doneChan = make(chan struct{})
	b.stopOnce = sync.Once{}

	ticker := b.ticker
	doneChan := b.doneChan
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ticker.C:
				b.publish()
			case <-doneChan:
				return
			}
		}
	}()
	return nil
}

// Stop halts publishing and closes the adapter.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	if b.ticker == nil {
		b.mu.Unlock()
		return b.adapter.Close()
	}
	b.stopOnce.Do(func() {
		close(b.doneChan)
		b.ticker.Stop()
		b.ticker = nil
	})
	b.mu.Unlock()

	b.wg.Wait()
	return b.adapter.Close()
}

// publish pushes the current snapshot to the adapter. Idle players
// publish an empty snapshot so surfaces can clear themselves.
func (b *Bridge) publish() {
	np := NowPlaying{
		Rate:  b.player.PlaybackRate(),
		State: b.player.State().String(),
	}
	if track := b.player.CurrentTrack(); track != nil {
		np.TrackID = track.ID
		np.Title = track.Title
		np.Artist = track.Artist
		np.Album = track.Album
		np.Artwork = track.ImageURL
		np.Duration = b.player.Duration()
		np.Position = b.player.CurrentTime()
	}
	b.adapter.Publish(np)
}

// Play implements Commands. A paused player resumes; anything else is
// left to the queue owner via OnNext.
func (b *Bridge) Play() {
	if b.player.State() == player.StatePaused {
		if err := b.player.Resume(); err != nil {
			log.Warnf("remote: resume: %v", err)
		}
	}
}

// Pause implements Commands.
func (b *Bridge) Pause() {
	if err := b.player.Pause(); err != nil {
		log.Warnf("remote: pause: %v", err)
	}
}

// SeekTo implements Commands.
func (b *Bridge) SeekTo(pos time.Duration) {
	if err := b.player.SeekTo(pos); err != nil {
		log.Warnf("remote: seek: %v", err)
	}
}

// Next implements Commands.
func (b *Bridge) Next() {
	if b.OnNext != nil {
		b.OnNext()
	}
}

// Previous implements Commands.
func (b *Bridge) Previous() {
	if b.OnPrevious != nil {
		b.OnPrevious()
	}
}

var _ Commands = (*Bridge)(nil)
