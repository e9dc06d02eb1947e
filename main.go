package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/perhassle/spotify-mvp-sub001/cmd"
	"github.com/perhassle/spotify-mvp-sub001/internal/output"
)

// main runs in three phases:
//
// 1. Startup (cold path): initialize PortAudio, parse arguments.
// 2. Playback (hot path): the selected command drives the render loop.
// 3. Shutdown (cold path): commands clean up their own resources;
//    PortAudio terminates on the way out.
func main() {
	// Real-time audio wants few OS threads: one for the render
	// callback, one for control and I/O.
	runtime.GOMAXPROCS(2)

	if err := output.Initialize(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer output.Terminate()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
