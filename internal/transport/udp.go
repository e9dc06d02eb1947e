package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/perhassle/spotify-mvp-sub001/internal/log"
)

// UDPTransport sends analyzer payloads as binary datagrams to a single
// target. Payloads must be []float64; other types are dropped.
//
// Packet layout, big-endian:
//
//	uint32  sequence number
//	int64   timestamp, nanoseconds since epoch
//	uint16  value count N
//	N * f32 values
type UDPTransport struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool

	seq    uint32
	f32buf []float32
	packet *bytes.Buffer
}

// NewUDPTransport dials the target address ("host:port").
func NewUDPTransport(target string) (*UDPTransport, error) {
	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("resolve udp target %q: %w", target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp %q: %w", target, err)
	}
	log.Infof("transport: udp connected to %s", conn.RemoteAddr())
	return &UDPTransport{
		conn:   conn,
		packet: new(bytes.Buffer),
	}, nil
}

// Send packs a float payload into a datagram and transmits it. Accepts
// []float64 directly or any payload exposing Floats(); anything else is
// dropped.
func (t *UDPTransport) Send(data any) error {
	var values []float64
	switch v := data.(type) {
	case []float64:
		values = v
	case interface{ Floats() []float64 }:
		values = v.Floats()
	default:
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("udp transport is closed")
	}

	if len(t.f32buf) != len(values) {
		t.f32buf = make([]float32, len(values))
	}
	for i, v := range values {
		t.f32buf[i] = float32(v)
	}

	t.seq++
	t.packet.Reset()
	err := binary.Write(t.packet, binary.BigEndian, t.seq)
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, time.Now().UnixNano())
	}
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, uint16(len(t.f32buf)))
	}
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, t.f32buf)
	}
	if err != nil {
		return fmt.Errorf("pack udp packet: %w", err)
	}

	if _, err := t.conn.Write(t.packet.Bytes()); err != nil {
		return fmt.Errorf("send udp packet: %w", err)
	}
	return nil
}

// Close closes the connection.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}

var _ Transport = (*UDPTransport)(nil)
