// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	"mixengine/internal/log"
)

// LoggingTransport implements the Transport interface by writing each
// event to the debug log. Useful when no external mirror is configured.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{}
}

// Send logs the event's JSON form. A marshal failure falls back to the
// raw value; the logging transport itself never fails to send.
func (lt *LoggingTransport) Send(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Debugf("transport: event (%T): %+v (marshal error: %v)", data, data, err)
		return nil
	}
	log.Debugf("transport: event (%T): %s", data, payload)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
