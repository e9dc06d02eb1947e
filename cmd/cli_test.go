package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/perhassle/spotify-mvp-sub001/internal/buffer"
	"github.com/perhassle/spotify-mvp-sub001/internal/dsp"
	"github.com/perhassle/spotify-mvp-sub001/internal/output"
	"github.com/perhassle/spotify-mvp-sub001/internal/player"
	"github.com/perhassle/spotify-mvp-sub001/internal/synth"
)

const testSampleRate = 8000.0

func makeQueueTrack(t *testing.T, dir, id string, seconds float64) player.Track {
	t.Helper()
	path := filepath.Join(dir, id+".wav")
	tone := synth.Sine(id, 220, 0.5, seconds, int(testSampleRate))
	if err := synth.WriteWAV(path, tone); err != nil {
		t.Fatal(err)
	}
	return player.Track{ID: id, StreamURL: path}
}

// The watcher must start the fade while the outgoing track is still
// audible, then the fade promotes the next track.
func TestQueueCrossfadesBeforeTrackEnd(t *testing.T) {
	dir := t.TempDir()
	trackA := makeQueueTrack(t, dir, "track-a", 2)
	trackB := makeQueueTrack(t, dir, "track-b", 2)

	graph := dsp.NewGraph(testSampleRate, 256, nil, nil)
	sink := output.NewNullSink(testSampleRate, 256)
	p, err := player.New(buffer.NewLoader(), graph, sink, player.Options{
		CrossfadeDuration: 400 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	finished := make(chan struct{})
	q := newQueue(p, 400*time.Millisecond, []player.Track{trackA, trackB}, finished)
	p.OnTrackEnd = q.onTrackEnd
	if err := q.start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer q.end()

	// Both slots occupied means the fade began before track-a ended.
	overlap := false
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if graph.Source(dsp.SlotA) != nil && graph.Source(dsp.SlotB) != nil {
			overlap = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !overlap {
		t.Fatal("slots never overlapped: the queue advanced without a crossfade")
	}
	if tr := p.CurrentTrack(); tr == nil || tr.ID != "track-a" {
		t.Errorf("CurrentTrack() during fade = %v, want track-a", tr)
	}

	deadline = time.Now().Add(3 * time.Second)
	for {
		if tr := p.CurrentTrack(); tr != nil && tr.ID == "track-b" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("track-b never promoted")
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-finished:
		t.Error("queue finished while track-b still playing")
	default:
	}
}

func TestQueueAdvanceStopsAtLastTrack(t *testing.T) {
	dir := t.TempDir()
	trackA := makeQueueTrack(t, dir, "track-a", 10)

	graph := dsp.NewGraph(testSampleRate, 256, nil, nil)
	sink := output.NewNullSink(testSampleRate, 256)
	p, err := player.New(buffer.NewLoader(), graph, sink, player.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	finished := make(chan struct{})
	q := newQueue(p, time.Second, []player.Track{trackA}, finished)
	p.OnTrackEnd = q.onTrackEnd
	if err := q.start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer q.end()

	// Nothing to advance to; the track keeps playing.
	q.advance(context.Background())
	if tr := p.CurrentTrack(); tr == nil || tr.ID != "track-a" {
		t.Errorf("CurrentTrack() = %v, want track-a", tr)
	}

	// The end callback on the last track closes the queue.
	q.onTrackEnd(trackA)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Error("queue not finished after final track ended")
	}
}
