// SPDX-License-Identifier: MIT

// Package transport defines the side channels the session server mirrors
// its outbound events onto, alongside the primary WebSocket path.
package transport

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}
