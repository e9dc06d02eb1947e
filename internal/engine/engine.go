// Package engine assembles the playback engine from configuration: the
// decoded-buffer loader, the signal graph, the output sink, the player,
// and the optional analyzer and remote-control surfaces. Everything is
// instance-owned so independent engines can coexist in one process.
package engine

import (
	"fmt"

	"github.com/perhassle/spotify-mvp-sub001/internal/analysis"
	"github.com/perhassle/spotify-mvp-sub001/internal/buffer"
	"github.com/perhassle/spotify-mvp-sub001/internal/config"
	"github.com/perhassle/spotify-mvp-sub001/internal/dsp"
	"github.com/perhassle/spotify-mvp-sub001/internal/equalizer"
	"github.com/perhassle/spotify-mvp-sub001/internal/log"
	"github.com/perhassle/spotify-mvp-sub001/internal/output"
	"github.com/perhassle/spotify-mvp-sub001/internal/player"
	"github.com/perhassle/spotify-mvp-sub001/internal/remote"
	"github.com/perhassle/spotify-mvp-sub001/internal/transport"
)

// Engine bundles the wired components. Fields are exposed so callers
// (CLI, tests, embedding applications) can reach each surface directly.
type Engine struct {
	Config    *config.Config
	Loader    *buffer.Loader
	Graph     *dsp.Graph
	Equalizer *equalizer.Bank
	Player    *player.Player
	Analyzer  *analysis.Analyzer
	Bridge    *remote.Bridge

	closables []func() error
}

// New builds an engine from configuration. A failed audio subsystem
// produces a disabled player rather than an error: every playback call
// then no-ops with an InitError, and the rest of the process keeps
// running.
func New(cfg *config.Config) (*Engine, error) {
	e := &Engine{
		Config: cfg,
		Loader: buffer.NewLoader(),
	}

	sampleRate := cfg.Audio.SampleRate
	frames := cfg.Audio.FramesPerBuffer

	e.Equalizer = equalizer.New(sampleRate)
	e.Equalizer.SetEnabled(cfg.Engine.EnableEqualizer)
	comp := dsp.NewCompressor(sampleRate, dsp.DefaultCompressorParams())
	tap := dsp.NewTap(cfg.AnalysisSize())
	e.Graph = dsp.NewGraph(sampleRate, frames, []dsp.Processor{e.Equalizer, comp}, tap)

	sink, err := output.NewPortAudioSink(cfg.Audio.OutputDevice, sampleRate, frames, cfg.Audio.LowLatency)
	if err != nil {
		log.Errorf("engine: audio output unavailable: %v", err)
		e.Player = player.NewDisabled(err.Error())
		return e, nil
	}

	p, err := player.New(e.Loader, e.Graph, sink, player.Options{
		CrossfadeDuration: cfg.Engine.CrossfadeDuration,
		PreloadNext:       cfg.Engine.PreloadNext,
	})
	if err != nil {
		log.Errorf("engine: output stream failed: %v", err)
		e.Player = player.NewDisabled(err.Error())
		return e, nil
	}
	e.Player = p
	e.closables = append(e.closables, p.Close)

	if cfg.Engine.EnableVisualizer {
		if err := e.setupAnalyzer(tap); err != nil {
			_ = e.Close()
			return nil, err
		}
	}

	if cfg.Remote.Enabled {
		e.Bridge = remote.NewBridge(e.Player, remote.NewWebSocketAdapter(cfg.Remote.Addr))
		if err := e.Bridge.Start(cfg.Visualizer.SendInterval); err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("start remote bridge: %w", err)
		}
		e.closables = append(e.closables, e.Bridge.Stop)
	}

	return e, nil
}

func (e *Engine) setupAnalyzer(tap *dsp.Tap) error {
	cfg := e.Config
	spectrum, err := analysis.NewSpectrum(cfg.AnalysisSize(), cfg.Audio.SampleRate)
	if err != nil {
		return err
	}

	var sinks []transport.Transport
	if cfg.Visualizer.Addr != "" {
		ws := transport.NewWebSocketTransport(cfg.Visualizer.Addr)
		e.closables = append(e.closables, ws.Close)
		sinks = append(sinks, ws)
	}
	if cfg.Visualizer.UDPTarget != "" {
		udp, err := transport.NewUDPTransport(cfg.Visualizer.UDPTarget)
		if err != nil {
			log.Warnf("engine: udp visualizer disabled: %v", err)
		} else {
			e.closables = append(e.closables, udp.Close)
			sinks = append(sinks, udp)
		}
	}
	var trans transport.Transport
	switch len(sinks) {
	case 0:
		trans = transport.NewLoggingTransport()
	case 1:
		trans = sinks[0]
	default:
		trans = transport.NewMulti(sinks...)
	}

	e.Analyzer = analysis.NewAnalyzer(tap, spectrum, cfg.Visualizer.SendInterval, trans, nil)
	bindAnalyzer(e.Player, e.Analyzer)
	e.closables = append(e.closables, func() error {
		e.Analyzer.Stop()
		return nil
	})
	return nil
}

// bindAnalyzer runs the analyzer only while audio is actually playing:
// it starts on the transition to Playing and stops on every other
// state, so no zero-signal samples are published while idle or paused.
func bindAnalyzer(p *player.Player, a *analysis.Analyzer) {
	// State-change callbacks each run on their own goroutine and may
	// arrive out of order; consulting the player's current state means
	// the last callback to run always applies the freshest state.
	p.OnStateChange = func(player.State) {
		if p.State() == player.StatePlaying {
			a.Start()
		} else {
			a.Stop()
		}
	}
}

// Close tears down components in reverse construction order.
func (e *Engine) Close() error {
	var firstErr error
	for i := len(e.closables) - 1; i >= 0; i-- {
		if err := e.closables[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.Loader.Close()
	return firstErr
}
