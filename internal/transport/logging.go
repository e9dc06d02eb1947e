package transport

import "github.com/perhassle/spotify-mvp-sub001/internal/log"

// LoggingTransport discards payloads, logging only at debug level. It
// stands in for a real transport when no consumer is configured.
type LoggingTransport struct{}

// NewLoggingTransport creates a logging transport.
func NewLoggingTransport() *LoggingTransport {
	log.Debugf("transport: using logging transport")
	return &LoggingTransport{}
}

// Send logs the payload type at debug level and reports success.
func (t *LoggingTransport) Send(data any) error {
	log.Debugf("transport: drop %T", data)
	return nil
}

// Close is a no-op.
func (t *LoggingTransport) Close() error { return nil }

var _ Transport = (*LoggingTransport)(nil)
