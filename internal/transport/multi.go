package transport

// Multi fans one Send out to several transports. Errors from individual
// transports are collected but do not stop the others.
type Multi struct {
	transports []Transport
}

// NewMulti creates a fanout over the given transports.
func NewMulti(transports ...Transport) *Multi {
	return &Multi{transports: transports}
}

// Send forwards data to every transport, returning the first error.
func (m *Multi) Send(data any) error {
	var firstErr error
	for _, t := range m.transports {
		if err := t.Send(data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every transport, returning the first error.
func (m *Multi) Close() error {
	var firstErr error
	for _, t := range m.transports {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Transport = (*Multi)(nil)
