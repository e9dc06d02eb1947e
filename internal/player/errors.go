package player

// InitError reports an operation attempted on a player whose audio
// engine never initialized. Every transport operation on such a player
// is a no-op returning this error.
type InitError struct {
	Reason string
}

func (e *InitError) Error() string {
	return "player: audio engine unavailable: " + e.Reason
}
