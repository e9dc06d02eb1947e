// Package cmd defines the command-line interface: the root command runs
// the playback engine over the tracks given as arguments, with
// subcommands for device listing and test-tone output.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/perhassle/spotify-mvp-sub001/internal/build"
	"github.com/perhassle/spotify-mvp-sub001/internal/config"
	"github.com/perhassle/spotify-mvp-sub001/internal/dsp"
	"github.com/perhassle/spotify-mvp-sub001/internal/engine"
	"github.com/perhassle/spotify-mvp-sub001/internal/log"
	"github.com/perhassle/spotify-mvp-sub001/internal/output"
	"github.com/perhassle/spotify-mvp-sub001/internal/player"
	"github.com/perhassle/spotify-mvp-sub001/internal/synth"
)

// Execute parses arguments and runs the selected command.
func Execute() error {
	info := build.Get()

	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:           info.Name + " [audio files...]",
		Short:         "Real-time audio playback engine with crossfade, EQ and analysis",
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if verbose || cfg.Debug {
				log.SetLevel(log.LevelDebug)
			} else if lvl, ok := log.ParseLevel(cfg.LogLevel); ok {
				log.SetLevel(lvl)
			}
			return runEngine(cfg, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return output.ListDevices()
		},
	}
	rootCmd.AddCommand(devicesCmd)

	var (
		toneFreq float64
		toneSecs float64
		toneOut  string
	)
	toneCmd := &cobra.Command{
		Use:   "tone",
		Short: "Play a test tone through the signal chain, or write it to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if toneOut != "" {
				tone := synth.Sine("tone", toneFreq, 0.5, toneSecs, int(cfg.Audio.SampleRate))
				return synth.WriteWAV(toneOut, tone)
			}
			return runTone(cfg, toneFreq, toneSecs)
		},
	}
	toneCmd.Flags().Float64Var(&toneFreq, "freq", 440, "Tone frequency in Hz")
	toneCmd.Flags().Float64Var(&toneSecs, "duration", 2, "Tone duration in seconds")
	toneCmd.Flags().StringVarP(&toneOut, "output", "o", "", "Write the tone to a WAV file instead of playing it")
	rootCmd.AddCommand(toneCmd)

	return rootCmd.Execute()
}

// runEngine plays the given files in order, crossfading between them,
// then waits for the queue to drain or a termination signal.
func runEngine(cfg *config.Config, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("no audio files given; see --help")
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	tracks := make([]player.Track, len(files))
	for i, f := range files {
		tracks[i] = player.Track{
			ID:        f,
			StreamURL: f,
			Title:     strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)),
		}
	}

	ctx := context.Background()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	finished := make(chan struct{})

	queue := newQueue(eng.Player, cfg.Engine.CrossfadeDuration, tracks, finished)
	eng.Player.OnTrackEnd = queue.onTrackEnd
	if eng.Bridge != nil {
		eng.Bridge.OnNext = func() { queue.advance(context.Background()) }
	}

	if err := queue.start(ctx); err != nil {
		return err
	}
	defer queue.end()

	select {
	case <-done:
		log.Infof("cmd: interrupted, shutting down")
	case <-finished:
		log.Infof("cmd: queue finished")
	}
	return nil
}

// queue is the minimal track list driver for CLI playback. A position
// watcher starts each crossfade one fade-length before the current
// track runs out; the track-end callback catches tracks too short to
// fade and the natural end of the final track. Real queue management
// belongs to the catalog layer; this only feeds the engine.
type queue struct {
	player   *player.Player
	fadeLead time.Duration
	tracks   []player.Track

	mu  sync.Mutex
	pos int

	finish   sync.Once
	finished chan struct{}
	done     chan struct{}
}

func newQueue(p *player.Player, fadeLead time.Duration, tracks []player.Track, finished chan struct{}) *queue {
	return &queue{
		player:   p,
		fadeLead: fadeLead,
		tracks:   tracks,
		finished: finished,
		done:     make(chan struct{}),
	}
}

func (q *queue) start(ctx context.Context) error {
	if err := q.player.Play(ctx, q.tracks[0]); err != nil {
		return err
	}
	if len(q.tracks) > 1 {
		q.player.Preload(ctx, q.tracks[1])
	}
	go q.watch(ctx)
	return nil
}

// watch polls the playback position and fires the crossfade when the
// remaining time drops to the fade length.
func (q *queue) watch(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-q.done:
			return
		case <-ticker.C:
		}

		q.mu.Lock()
		cur := q.tracks[q.pos]
		q.mu.Unlock()

		// Until promotion the previous track is still current; matching
		// IDs keeps one transition from triggering twice.
		tr := q.player.CurrentTrack()
		if tr == nil || tr.ID != cur.ID || q.player.State() != player.StatePlaying {
			continue
		}
		d := q.player.Duration()
		if d <= 0 || d-q.player.CurrentTime() > q.fadeLead {
			continue
		}
		q.advance(ctx)
	}
}

// advance moves to the next track with a crossfade. On the last track
// it does nothing; the end callback closes the queue.
func (q *queue) advance(ctx context.Context) {
	q.mu.Lock()
	if q.pos+1 >= len(q.tracks) {
		q.mu.Unlock()
		return
	}
	q.pos++
	next := q.tracks[q.pos]
	var upcoming *player.Track
	if q.pos+1 < len(q.tracks) {
		upcoming = &q.tracks[q.pos+1]
	}
	q.mu.Unlock()

	if err := q.player.CrossfadeToNext(ctx, next); err != nil {
		log.Errorf("cmd: advancing queue: %v", err)
		q.end()
		return
	}
	if upcoming != nil {
		q.player.Preload(ctx, *upcoming)
	}
}

// onTrackEnd runs when a track plays out before the watcher could fade
// (the player is idle again) or when the final track finishes.
func (q *queue) onTrackEnd(player.Track) {
	q.mu.Lock()
	last := q.pos+1 >= len(q.tracks)
	q.mu.Unlock()
	if last {
		q.end()
		return
	}
	q.advance(context.Background())
}

func (q *queue) end() {
	q.finish.Do(func() {
		close(q.done)
		close(q.finished)
	})
}

// runTone plays a synthesized sine through a standalone graph and sink,
// bypassing the loader.
func runTone(cfg *config.Config, freq, seconds float64) error {
	sampleRate := cfg.Audio.SampleRate
	frames := cfg.Audio.FramesPerBuffer

	tone := synth.Sine("tone", freq, 0.5, seconds, int(sampleRate))
	graph := dsp.NewGraph(sampleRate, frames, nil, nil)

	sink, err := output.NewPortAudioSink(cfg.Audio.OutputDevice, sampleRate, frames, cfg.Audio.LowLatency)
	if err != nil {
		return err
	}

	endedChan := make(chan struct{})
	src := dsp.NewBufferSource(tone.Data, tone.Channels, float64(tone.SampleRate), sampleRate, 0,
		func() { close(endedChan) })
	graph.Attach(dsp.SlotA, src)

	if err := sink.Start(graph.Render); err != nil {
		return err
	}
	defer sink.Stop()

	log.Infof("cmd: playing %.0f Hz tone for %.1fs", freq, seconds)
	select {
	case <-endedChan:
	case <-time.After(time.Duration(seconds*float64(time.Second)) + time.Second):
	}
	return nil
}
