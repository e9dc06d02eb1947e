//
// Package build exposes build metadata embedded at compile time via
// -ldflags. The values default to "dev" so binaries built without flags
// (tests, go run) still report something sensible.
package build

// Flags holds build-time information injected during compilation, e.g.:
//
//	go build -ldflags "-X .../internal/build.name=playback -X .../internal/build.version=0.3.0"
type Flags struct {
	Name    string // Application name
	Version string // Semantic version
	Commit  string // Git commit hash
	Time    string // Build timestamp (RFC3339)
}

var (
	name    string
	version string
	commit  string
	time    string
)

// Get returns the build information, substituting "dev" for any field
// that was not set at link time.
func Get() Flags {
	f := Flags{Name: name, Version: version, Commit: commit, Time: time}
	if f.Name == "" {
		f.Name = "playback"
	}
	if f.Version == "" {
		f.Version = "dev"
	}
	if f.Commit == "" {
		f.Commit = "dev"
	}
	if f.Time == "" {
		f.Time = "unknown"
	}
	return f
}
