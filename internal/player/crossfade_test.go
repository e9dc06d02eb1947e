package player_test

import (
	"context"
	"testing"
	"time"

	"github.com/perhassle/spotify-mvp-sub001/internal/dsp"
	"github.com/perhassle/spotify-mvp-sub001/internal/player"
)

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCrossfadeCompletion(t *testing.T) {
	f, trackA := newFixture(t, player.Options{CrossfadeDuration: 100 * time.Millisecond})
	trackB := makeTrack(t, "track-b", 10)
	ctx := context.Background()

	if err := f.player.Play(ctx, trackA); err != nil {
		t.Fatal(err)
	}
	if err := f.player.CrossfadeToNext(ctx, trackB); err != nil {
		t.Fatalf("CrossfadeToNext() error = %v", err)
	}

	// During the fade the original track is still current and both
	// slots carry a source.
	if got := f.player.CurrentTrack(); got == nil || got.ID != "track-a" {
		t.Errorf("CurrentTrack() during fade = %v, want track-a", got)
	}
	if f.graph.Source(dsp.SlotA) == nil || f.graph.Source(dsp.SlotB) == nil {
		t.Error("expected both slots occupied during crossfade")
	}

	waitFor(t, 2*time.Second, func() bool {
		tr := f.player.CurrentTrack()
		return tr != nil && tr.ID == "track-b"
	}, "crossfade never promoted track-b")

	// The outgoing source must have been released.
	if f.graph.Source(dsp.SlotA) != nil {
		t.Error("old source still attached after promotion")
	}
	if f.graph.Source(dsp.SlotB) == nil {
		t.Error("promoted source missing")
	}
	if got := f.player.State(); got != player.StatePlaying {
		t.Errorf("State() = %v, want playing", got)
	}
}

func TestCrossfadePositionRebased(t *testing.T) {
	f, trackA := newFixture(t, player.Options{CrossfadeDuration: 100 * time.Millisecond})
	trackB := makeTrack(t, "track-b", 10)
	ctx := context.Background()

	if err := f.player.Play(ctx, trackA); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(5 * time.Second)
	if err := f.player.CrossfadeToNext(ctx, trackB); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(2 * time.Second)

	waitFor(t, 2*time.Second, func() bool {
		tr := f.player.CurrentTrack()
		return tr != nil && tr.ID == "track-b"
	}, "crossfade never completed")

	// The new track has been audible since the fade started, so its
	// position is the time since then, not zero.
	approx(t, f.player.CurrentTime(), 2*time.Second, 10*time.Millisecond, "position after promotion")
}

func TestCrossfadeFromIdleFallsBackToPlay(t *testing.T) {
	f, _ := newFixture(t, player.Options{CrossfadeDuration: 100 * time.Millisecond})
	trackB := makeTrack(t, "track-b", 10)
	ctx := context.Background()

	if err := f.player.CrossfadeToNext(ctx, trackB); err != nil {
		t.Fatalf("CrossfadeToNext() from idle error = %v", err)
	}
	if got := f.player.State(); got != player.StatePlaying {
		t.Errorf("State() = %v, want playing (hard play fallback)", got)
	}
	if got := f.player.CurrentTrack(); got == nil || got.ID != "track-b" {
		t.Errorf("CurrentTrack() = %v, want track-b", got)
	}
}

func TestStopCancelsPendingCrossfade(t *testing.T) {
	f, trackA := newFixture(t, player.Options{CrossfadeDuration: 200 * time.Millisecond})
	trackB := makeTrack(t, "track-b", 10)
	ctx := context.Background()

	if err := f.player.Play(ctx, trackA); err != nil {
		t.Fatal(err)
	}
	if err := f.player.CrossfadeToNext(ctx, trackB); err != nil {
		t.Fatal(err)
	}
	if err := f.player.Stop(); err != nil {
		t.Fatal(err)
	}

	// Past the would-be promotion point nothing must have revived.
	time.Sleep(500 * time.Millisecond)
	if got := f.player.State(); got != player.StateIdle {
		t.Errorf("State() = %v after stop, want idle", got)
	}
	if got := f.player.CurrentTrack(); got != nil {
		t.Errorf("CurrentTrack() = %v, want nil", got)
	}
	if f.graph.Source(dsp.SlotA) != nil || f.graph.Source(dsp.SlotB) != nil {
		t.Error("sources still attached after cancelled crossfade")
	}
}

func TestNewCrossfadeSupersedesPending(t *testing.T) {
	f, trackA := newFixture(t, player.Options{CrossfadeDuration: 300 * time.Millisecond})
	trackB := makeTrack(t, "track-b", 10)
	trackC := makeTrack(t, "track-c", 10)
	ctx := context.Background()

	if err := f.player.Play(ctx, trackA); err != nil {
		t.Fatal(err)
	}
	if err := f.player.CrossfadeToNext(ctx, trackB); err != nil {
		t.Fatal(err)
	}
	if err := f.player.CrossfadeToNext(ctx, trackC); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, func() bool {
		tr := f.player.CurrentTrack()
		return tr != nil && tr.ID != "track-a"
	}, "no crossfade completed")

	if got := f.player.CurrentTrack(); got.ID != "track-c" {
		t.Errorf("CurrentTrack() = %v, want track-c (second fade wins)", got.ID)
	}
}

func TestCrossfadeLoadFailureHardSwitches(t *testing.T) {
	f, trackA := newFixture(t, player.Options{CrossfadeDuration: 100 * time.Millisecond})
	ctx := context.Background()

	if err := f.player.Play(ctx, trackA); err != nil {
		t.Fatal(err)
	}

	bogus := player.Track{ID: "bogus", StreamURL: "/does/not/exist.wav"}
	err := f.player.CrossfadeToNext(ctx, bogus)

	// The fallback hard play also fails to load; the error surfaces
	// and the engine is quiet but alive.
	if err == nil {
		t.Fatal("CrossfadeToNext() with unloadable track succeeded")
	}
	if got := f.player.State(); got != player.StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}
}

func TestRateChangeDuringCrossfadeReachesIncomingSource(t *testing.T) {
	f, trackA := newFixture(t, player.Options{CrossfadeDuration: 100 * time.Millisecond})
	trackB := makeTrack(t, "track-b", 10)
	ctx := context.Background()

	if err := f.player.Play(ctx, trackA); err != nil {
		t.Fatal(err)
	}
	if err := f.player.CrossfadeToNext(ctx, trackB); err != nil {
		t.Fatal(err)
	}
	if err := f.player.SetPlaybackRate(2); err != nil {
		t.Fatal(err)
	}

	// Mid-fade both sources must follow the new rate.
	for _, slot := range []dsp.Slot{dsp.SlotA, dsp.SlotB} {
		src, ok := f.graph.Source(slot).(*dsp.BufferSource)
		if !ok || src == nil {
			t.Fatalf("slot %v has no buffer source during fade", slot)
		}
		if got := src.Rate(); got != 2 {
			t.Errorf("slot %v rate = %v, want 2", slot, got)
		}
	}

	waitFor(t, 2*time.Second, func() bool {
		tr := f.player.CurrentTrack()
		return tr != nil && tr.ID == "track-b"
	}, "crossfade never promoted track-b")

	// After promotion the surviving source and the reported rate agree.
	src, ok := f.graph.Source(dsp.SlotB).(*dsp.BufferSource)
	if !ok || src == nil {
		t.Fatal("promoted source missing")
	}
	if got := src.Rate(); got != 2 {
		t.Errorf("promoted source rate = %v, want 2", got)
	}
	if got := f.player.PlaybackRate(); got != 2 {
		t.Errorf("PlaybackRate() = %v, want 2", got)
	}
}

func TestCrossfadeGainTargets(t *testing.T) {
	f, trackA := newFixture(t, player.Options{CrossfadeDuration: 150 * time.Millisecond})
	trackB := makeTrack(t, "track-b", 10)
	ctx := context.Background()

	if err := f.player.Play(ctx, trackA); err != nil {
		t.Fatal(err)
	}
	if err := f.player.CrossfadeToNext(ctx, trackB); err != nil {
		t.Fatal(err)
	}

	// Outgoing ramps toward silence, incoming toward full volume.
	if got := f.graph.GainStage(dsp.SlotA).Target(); got != 0 {
		t.Errorf("outgoing gain target = %v, want 0", got)
	}
	if got := f.graph.GainStage(dsp.SlotB).Target(); got != 1 {
		t.Errorf("incoming gain target = %v, want 1", got)
	}
}
