package player

import (
	"context"
	"sync"
	"time"

	"github.com/perhassle/spotify-mvp-sub001/internal/buffer"
	"github.com/perhassle/spotify-mvp-sub001/internal/dsp"
	"github.com/perhassle/spotify-mvp-sub001/internal/log"
	"github.com/perhassle/spotify-mvp-sub001/internal/output"
)

const (
	// MinRate and MaxRate bound the playback rate multiplier.
	MinRate = 0.25
	MaxRate = 4.0
)

// Player owns the signal graph and the lifecycle of per-track sources.
// Position is clock-offset based: while playing, the current time is
// pauseOffset + (now - clockStart) * rate, so no per-frame counter needs
// to cross from the render goroutine.
//
// All methods are safe for concurrent use. Callbacks (OnTrackEnd,
// OnError, OnStateChange) run on their own goroutines and may call back
// into the player.
type Player struct {
	loader *buffer.Loader
	graph  *dsp.Graph
	sink   output.Sink
	clock  Clock

	// Non-nil when the audio engine failed to initialize; every
	// transport operation then no-ops with this error.
	initErr *InitError

	crossfadeDur time.Duration
	preloadNext  bool

	mu          sync.Mutex
	state       State
	current     *Track
	currentBuf  *buffer.DecodedBuffer
	next        *Track // pending during a crossfade only
	nextBuf     *buffer.DecodedBuffer
	active      dsp.Slot
	gen         uint64 // bumped by every teardown, invalidates stale callbacks
	fadeTimer   *time.Timer
	fadeStart   time.Time
	pauseOffset time.Duration
	clockStart  time.Time
	rate        float64
	volume      float64

	// OnTrackEnd fires on natural end of the active track.
	OnTrackEnd func(Track)
	// OnError receives load failures surfaced from playback operations.
	OnError func(error)
	// OnStateChange fires after every lifecycle transition.
	OnStateChange func(State)
}

// Options configures a player.
type Options struct {
	CrossfadeDuration time.Duration
	PreloadNext       bool
	Clock             Clock
}

// New creates a player over an initialized graph and sink and starts
// the sink pulling from the graph.
func New(loader *buffer.Loader, graph *dsp.Graph, sink output.Sink, opts Options) (*Player, error) {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.CrossfadeDuration <= 0 {
		opts.CrossfadeDuration = 3 * time.Second
	}

	p := &Player{
		loader:       loader,
		graph:        graph,
		sink:         sink,
		clock:        opts.Clock,
		crossfadeDur: opts.CrossfadeDuration,
		preloadNext:  opts.PreloadNext,
		rate:         1,
		volume:       1,
	}
	if err := sink.Start(graph.Render); err != nil {
		return nil, err
	}
	return p, nil
}

// NewDisabled creates a permanently disabled player. Every transport
// operation is a no-op returning an InitError; getters return zero
// values. Used when the host audio subsystem is unavailable so callers
// never need a nil check.
func NewDisabled(reason string) *Player {
	return &Player{
		initErr: &InitError{Reason: reason},
		rate:    1,
		volume:  1,
	}
}

// Close stops playback and the sink.
func (p *Player) Close() error {
	if p.initErr != nil {
		return nil
	}
	_ = p.Stop()
	return p.sink.Stop()
}

// State returns the current lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentTrack returns the active track, nil when idle.
func (p *Player) CurrentTrack() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Play loads a track and starts it. Any current source, pending
// crossfade or in-flight load is torn down first. Playback starts at
// offset 0 unless the same track was paused, in which case it resumes
// from the stored offset.
func (p *Player) Play(ctx context.Context, track Track) error {
	if p.initErr != nil {
		return p.initErr
	}

	p.mu.Lock()
	offset := time.Duration(0)
	if p.current != nil && p.current.ID == track.ID && p.state == StatePaused {
		offset = p.pauseOffset
	}
	p.teardownLocked()
	myGen := p.gen
	p.current = &track
	p.currentBuf = nil
	p.setStateLocked(StateLoading)
	p.mu.Unlock()

	buf, err := p.loader.Load(ctx, track.ID, track.StreamURL)

	p.mu.Lock()
	if p.gen != myGen {
		// Superseded by a later play/stop while loading.
		p.mu.Unlock()
		return nil
	}
	if err != nil {
		p.current = nil
		p.setStateLocked(StateIdle)
		p.mu.Unlock()
		p.reportError(err)
		return err
	}
	p.currentBuf = buf
	p.startSourceLocked(buf, offset)
	p.setStateLocked(StatePlaying)
	p.mu.Unlock()

	log.Infof("player: playing %s (%s) from %s", track.ID, track.Title, offset.Round(time.Millisecond))
	return nil
}

// Preload begins loading a track's buffer in the background so a later
// Play or CrossfadeToNext finds it cached. Failures are swallowed here
// and resurface when the track is actually played.
func (p *Player) Preload(ctx context.Context, track Track) {
	if p.initErr != nil || !p.preloadNext {
		return
	}
	go func() {
		if _, err := p.loader.Load(ctx, track.ID, track.StreamURL); err != nil {
			log.Debugf("player: preload %s: %v", track.ID, err)
		}
	}()
}

// Pause stops the source and stores the elapsed position. Valid only
// from Playing; otherwise a no-op.
func (p *Player) Pause() error {
	if p.initErr != nil {
		return p.initErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying {
		return nil
	}

	p.pauseOffset = p.positionLocked()
	p.cancelFadeLocked()
	p.graph.Detach(p.active)
	p.gen++
	p.setStateLocked(StatePaused)
	log.Debugf("player: paused at %s", p.pauseOffset.Round(time.Millisecond))
	return nil
}

// Resume restarts the current track from the stored pause offset.
// Valid only from Paused; otherwise a no-op.
func (p *Player) Resume() error {
	if p.initErr != nil {
		return p.initErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePaused || p.currentBuf == nil {
		return nil
	}

	p.startSourceLocked(p.currentBuf, p.pauseOffset)
	p.setStateLocked(StatePlaying)
	return nil
}

// Stop releases all sources, cancels any crossfade and returns to Idle.
func (p *Player) Stop() error {
	if p.initErr != nil {
		return p.initErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked()
	p.current = nil
	p.currentBuf = nil
	p.pauseOffset = 0
	p.setStateLocked(StateIdle)
	return nil
}

// SeekTo moves the position, clamped to [0, duration]. While playing
// the current source restarts at the new offset; while paused only the
// stored offset moves.
func (p *Player) SeekTo(pos time.Duration) error {
	if p.initErr != nil {
		return p.initErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	if d := p.durationLocked(); d > 0 && pos > d {
		pos = d
	}

	switch p.state {
	case StatePlaying:
		if p.currentBuf == nil {
			return nil
		}
		p.cancelFadeLocked()
		p.graph.Detach(p.active)
		p.gen++
		p.startSourceLocked(p.currentBuf, pos)
	case StatePaused:
		p.pauseOffset = pos
	default:
		p.pauseOffset = pos
	}
	return nil
}

// SetVolume sets the output volume, clamped to [0, 1], ramped over a
// short time constant.
func (p *Player) SetVolume(v float64) error {
	if p.initErr != nil {
		return p.initErr
	}

	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
	p.graph.Master().RampTo(v)
	return nil
}

// Volume returns the stored output volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetPlaybackRate sets the rate multiplier, clamped to [MinRate,
// MaxRate]. The position accumulated so far is preserved.
func (p *Player) SetPlaybackRate(r float64) error {
	if p.initErr != nil {
		return p.initErr
	}

	if r < MinRate {
		r = MinRate
	} else if r > MaxRate {
		r = MaxRate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StatePlaying {
		// Rebase the clock so the rate change applies from here on.
		p.pauseOffset = p.positionLocked()
		p.clockStart = p.clock.Now()
	}
	p.rate = r
	// During a crossfade both slots carry a live source; the incoming one
	// becomes current at promotion and must not keep a stale rate.
	for _, slot := range []dsp.Slot{dsp.SlotA, dsp.SlotB} {
		if src, ok := p.graph.Source(slot).(*dsp.BufferSource); ok && src != nil {
			src.SetRate(r)
		}
	}
	return nil
}

// PlaybackRate returns the stored rate multiplier.
func (p *Player) PlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// CurrentTime returns the playback position.
func (p *Player) CurrentTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StatePlaying {
		return p.positionLocked()
	}
	return p.pauseOffset
}

// Duration returns the decoded buffer's measured duration when loaded,
// else the track's nominal duration, else 0.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durationLocked()
}

func (p *Player) durationLocked() time.Duration {
	if p.currentBuf != nil {
		return p.currentBuf.Duration()
	}
	if p.current != nil {
		return p.current.Duration
	}
	return 0
}

// positionLocked computes the clock-offset position while playing.
func (p *Player) positionLocked() time.Duration {
	elapsed := p.clock.Now().Sub(p.clockStart)
	pos := p.pauseOffset + time.Duration(float64(elapsed)*p.rate)
	if d := p.durationLocked(); d > 0 && pos > d {
		pos = d
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// startSourceLocked attaches a fresh source for buf at offset to the
// active slot and rebases the position clock.
func (p *Player) startSourceLocked(buf *buffer.DecodedBuffer, offset time.Duration) {
	myGen := p.gen
	src := dsp.NewBufferSource(
		buf.Data, buf.Channels,
		float64(buf.SampleRate), p.graph.SampleRate(),
		offset.Seconds(),
		func() { go p.handleTrackEnd(myGen) },
	)
	src.SetRate(p.rate)

	stage := p.graph.GainStage(p.active)
	stage.SetRamp(defaultRampTau, p.graph.SampleRate())
	stage.Reset(0)
	stage.RampTo(1)
	p.graph.Attach(p.active, src)

	p.pauseOffset = offset
	p.clockStart = p.clock.Now()
}

// teardownLocked releases all sources and cancels any pending
// crossfade. Every caller observes a fully quiet graph afterwards.
func (p *Player) teardownLocked() {
	p.cancelFadeLocked()
	p.graph.Detach(dsp.SlotA)
	p.graph.Detach(dsp.SlotB)
	p.graph.GainStage(p.active).Reset(1)
	p.graph.GainStage(p.idleSlot()).Reset(0)
	p.gen++
}

func (p *Player) idleSlot() dsp.Slot {
	if p.active == dsp.SlotA {
		return dsp.SlotB
	}
	return dsp.SlotA
}

func (p *Player) setStateLocked(s State) {
	if p.state == s {
		return
	}
	p.state = s
	if p.OnStateChange != nil {
		go p.OnStateChange(s)
	}
}

// handleTrackEnd runs when a source plays out naturally. Stale
// generations (the source was superseded before its end) are ignored.
func (p *Player) handleTrackEnd(gen uint64) {
	p.mu.Lock()
	if p.gen != gen || p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	// Only the incoming source carries the current generation during a
	// crossfade, so if a fade is pending the ended track is the next one.
	if p.next != nil {
		p.current = p.next
		p.currentBuf = p.nextBuf
	}
	ended := *p.current
	p.teardownLocked()
	p.current = nil
	p.currentBuf = nil
	p.pauseOffset = 0
	p.setStateLocked(StateIdle)
	cb := p.OnTrackEnd
	p.mu.Unlock()

	log.Infof("player: track %s ended", ended.ID)
	if cb != nil {
		cb(ended)
	}
}

func (p *Player) reportError(err error) {
	log.Errorf("player: %v", err)
	if p.OnError != nil {
		go p.OnError(err)
	}
}
