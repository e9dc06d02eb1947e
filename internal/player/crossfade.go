package player

import (
	"context"
	"time"

	"github.com/perhassle/spotify-mvp-sub001/internal/dsp"
	"github.com/perhassle/spotify-mvp-sub001/internal/log"
)

// defaultRampTau is the time constant for ordinary (non-crossfade)
// gain ramps: fast enough to feel instant, slow enough to avoid clicks.
const defaultRampTau = 30 * time.Millisecond

// promotionMargin pads the promotion timer past the nominal crossfade
// duration so the exponential ramps have settled before the outgoing
// source is released. The ramps run on the audio clock and the timer on
// the wall clock; the small fixed overlap absorbs the drift between
// them and is intentional.
const promotionMargin = 150 * time.Millisecond

// CrossfadeToNext transitions to the next track with an overlapping
// gain ramp over the configured crossfade duration. Requires an active
// source; when idle or paused it degrades to a hard Play. A crossfade
// already in flight is superseded. When the next track's buffer fails
// to load, playback falls back to a hard Play of the next track rather
// than stalling.
func (p *Player) CrossfadeToNext(ctx context.Context, next Track) error {
	if p.initErr != nil {
		return p.initErr
	}

	p.mu.Lock()
	if p.state != StatePlaying || p.current == nil {
		p.mu.Unlock()
		return p.Play(ctx, next)
	}
	p.cancelFadeLocked()
	loadGen := p.gen
	p.mu.Unlock()

	buf, err := p.loader.Load(ctx, next.ID, next.StreamURL)

	p.mu.Lock()
	if p.gen != loadGen {
		p.mu.Unlock()
		return nil
	}
	if err != nil {
		p.mu.Unlock()
		log.Warnf("player: crossfade load failed, hard-switching: %v", err)
		return p.Play(ctx, next)
	}
	if p.state != StatePlaying {
		p.mu.Unlock()
		return p.Play(ctx, next)
	}

	// Invalidate the outgoing source's end callback; from here the
	// fade owns its lifecycle.
	p.gen++
	fadeGen := p.gen

	incoming := p.idleSlot()
	src := dsp.NewBufferSource(
		buf.Data, buf.Channels,
		float64(buf.SampleRate), p.graph.SampleRate(),
		0,
		func() { go p.handleTrackEnd(fadeGen) },
	)
	src.SetRate(p.rate)

	// Exponential-approach ramps settle in roughly three time
	// constants, so tau is a third of the fade duration.
	tau := p.crossfadeDur / 3
	in := p.graph.GainStage(incoming)
	in.SetRamp(tau, p.graph.SampleRate())
	in.Reset(0)
	in.RampTo(1)
	out := p.graph.GainStage(p.active)
	out.SetRamp(tau, p.graph.SampleRate())
	out.RampTo(0)

	fromID := p.current.ID
	p.graph.Attach(incoming, src)
	p.next = &next
	p.nextBuf = buf
	p.fadeStart = p.clock.Now()
	p.fadeTimer = time.AfterFunc(p.crossfadeDur+promotionMargin, func() {
		p.promote(fadeGen)
	})
	p.mu.Unlock()

	log.Infof("player: crossfading %s -> %s over %s", fromID, next.ID, p.crossfadeDur)
	return nil
}

// promote completes a crossfade: releases the outgoing source, makes
// the incoming slot active, and rebases the position clock to the fade
// start so the new track's position reflects how long it has played.
func (p *Player) promote(gen uint64) {
	p.mu.Lock()
	if p.gen != gen || p.next == nil {
		p.mu.Unlock()
		return
	}

	old := p.active
	p.graph.Detach(old)
	p.active = p.idleSlot()

	// Steady state: active path at full gain, old path parked at 0
	// ready for the next fade.
	p.graph.GainStage(p.active).SetRamp(defaultRampTau, p.graph.SampleRate())
	p.graph.GainStage(p.active).Reset(1)
	p.graph.GainStage(old).SetRamp(defaultRampTau, p.graph.SampleRate())
	p.graph.GainStage(old).Reset(0)

	promoted := *p.next
	p.current = p.next
	p.currentBuf = p.nextBuf
	p.next = nil
	p.nextBuf = nil
	p.pauseOffset = 0
	p.clockStart = p.fadeStart
	p.fadeTimer = nil
	p.mu.Unlock()

	log.Infof("player: crossfade complete, now playing %s", promoted.ID)
}

// cancelFadeLocked aborts a pending crossfade: stops the promotion
// timer, releases the incoming source and parks its gain stage.
func (p *Player) cancelFadeLocked() {
	if p.fadeTimer != nil {
		p.fadeTimer.Stop()
		p.fadeTimer = nil
	}
	if p.next != nil {
		incoming := p.idleSlot()
		p.graph.Detach(incoming)
		stage := p.graph.GainStage(incoming)
		stage.SetRamp(defaultRampTau, p.graph.SampleRate())
		stage.Reset(0)
		p.graph.GainStage(p.active).SetRamp(defaultRampTau, p.graph.SampleRate())
		p.graph.GainStage(p.active).RampTo(1)
		p.next = nil
		p.nextBuf = nil
	}
}
