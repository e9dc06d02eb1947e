package analysis

import (
	"sync"
	"time"

	"github.com/perhassle/spotify-mvp-sub001/internal/dsp"
	"github.com/perhassle/spotify-mvp-sub001/internal/log"
	"github.com/perhassle/spotify-mvp-sub001/internal/transport"
)

// Sample is one analyzer reading, published per tick.
type Sample struct {
	Timestamp   int64     `json:"timestamp"`
	Frequencies []float64 `json:"frequencies"`
	TimeDomain  []float64 `json:"timeDomain"`
	RMS         float64   `json:"rms"`
	Peak        float64   `json:"peak"`
}

// Floats exposes the magnitude array for binary transports that carry a
// bare float payload.
func (s Sample) Floats() []float64 { return s.Frequencies }

// Consumer receives analyzer samples. The slices in the sample are
// reused between ticks; copy them if they outlive the call.
type Consumer func(Sample)

// Analyzer periodically reads the signal tap, computes a spectrum and
// level measurements, and hands the result to a consumer and an optional
// transport. It runs in its own goroutine between Start and Stop.
type Analyzer struct {
	tap      *dsp.Tap
	spectrum *Spectrum
	interval time.Duration

	trans    transport.Transport
	consumer Consumer

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	// Reused between ticks to keep the loop allocation-free.
	samples []float64
	mags    []float64
}

// NewAnalyzer creates an analyzer reading from tap. trans and consumer
// may each be nil. interval defaults to ~60 Hz when invalid.
func NewAnalyzer(tap *dsp.Tap, spectrum *Spectrum, interval time.Duration, trans transport.Transport, consumer Consumer) *Analyzer {
	if interval <= 0 {
		interval = 16 * time.Millisecond
		log.Warnf("analyzer: invalid interval, defaulting to %s", interval)
	}
	return &Analyzer{
		tap:      tap,
		spectrum: spectrum,
		interval: interval,
		trans:    trans,
		consumer: consumer,
		samples:  make([]float64, spectrum.Size()),
		mags:     make([]float64, spectrum.Bins()),
	}
}

// Start launches the analyzer goroutine. Safe to call while running; a
// second call is a no-op.
func (a *Analyzer) Start() {
	a.mu.Lock()
	if a.ticker != nil {
		a.mu.Unlock()
		return
	}
	a.ticker = time.NewTicker(a.interval)
	a.doneChan = make(chan struct{})
	a.stopOnce = sync.Once{}

	ticker := a.ticker
	doneChan := a.doneChan
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log.Debugf("analyzer: started (interval %s, window %d)", a.interval, a.spectrum.Size())
		for {
			select {
			case <-ticker.C:
				a.tick()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the analyzer goroutine and waits for it to exit. Safe to
// call multiple times.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	if a.ticker == nil {
		a.mu.Unlock()
		return
	}
	a.stopOnce.Do(func() {
		close(a.doneChan)
		a.ticker.Stop()
		a.ticker = nil
	})
	a.mu.Unlock()

	a.wg.Wait()
	log.Debugf("analyzer: stopped")
}

func (a *Analyzer) tick() {
	if err := a.tap.SamplesInto(a.samples); err != nil {
		log.Errorf("analyzer: reading tap: %v", err)
		return
	}
	if err := a.spectrum.Compute(a.samples, a.mags); err != nil {
		log.Errorf("analyzer: spectrum: %v", err)
		return
	}
	rms, peak := Levels(a.samples)

	sample := Sample{
		Timestamp:   time.Now().UnixMilli(),
		Frequencies: a.mags,
		TimeDomain:  a.samples,
		RMS:         rms,
		Peak:        peak,
	}
	if a.consumer != nil {
		a.consumer(sample)
	}
	if a.trans != nil {
		if err := a.trans.Send(sample); err != nil {
			log.Debugf("analyzer: transport send: %v", err)
		}
	}
}
