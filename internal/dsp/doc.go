/*
Package dsp implements the signal-processing graph for the playback engine:
per-source gain stages, biquad filters, a dynamics compressor, an analyzer
tap, and a master gain, wired in a fixed topology.

All processing operates on interleaved stereo float64 buffers in the range
[-1, 1]. The hot path is allocation-free after construction: control-side
mutations (gain targets, filter gains, playback rate) are published through
atomics and picked up by the render goroutine with short smoothing ramps,
so parameter changes never click.
*/
package dsp
