// SPDX-License-Identifier: MIT

// Package udp mirrors session events to an external consumer as JSON
// datagrams, one event per packet. Delivery is fire-and-forget: a slow or
// absent consumer must never stall the session loop.
package udp

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"mixengine/internal/log"
	"mixengine/internal/transport"
)

// Sender publishes events to a fixed UDP target.
type Sender struct {
	conn   *net.UDPConn
	mu     sync.Mutex // Protects conn during concurrent Send/Close.
	closed bool
}

// NewSender creates a Sender targeting the specified address, in the
// format "host:port", e.g. "127.0.0.1:9090".
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address %q: %w", targetAddress, err)
	}

	// Sending only, so the local address stays unbound.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP target %q: %w", targetAddress, err)
	}

	log.Infof("udp: mirroring events to %s", conn.RemoteAddr())
	return &Sender{conn: conn}, nil
}

// Send marshals the event to JSON and transmits it as a single datagram.
// Events too large for one datagram are dropped with a log entry rather
// than fragmented.
func (s *Sender) Send(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal UDP event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("UDP sender is closed")
	}

	if _, err := s.conn.Write(payload); err != nil {
		log.Warnf("udp: send failed: %v", err)
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection. Safe to call more than once.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

// Ensure Sender satisfies the transport interface at compile time.
var _ transport.Transport = (*Sender)(nil)
