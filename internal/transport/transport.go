// Package transport delivers analyzer and engine events to external
// consumers over WebSocket or UDP.
package transport

// Transport sends processed data or events to a consumer. Send must not
// block the caller; implementations drop data under backpressure.
type Transport interface {
	Send(data any) error
	Close() error
}
