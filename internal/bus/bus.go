// Package bus provides the pub/sub transport tables use to replicate state.
// Every table mutation travels as a typed event: the emitting peer receives
// its own events through the same path as everyone else, so there is a
// single code path for state mutation regardless of origin.
package bus

import (
	"encoding/json"
	"fmt"
)

// Handler consumes the raw payload of one event. Handlers run sequentially
// on the bus dispatch goroutine and must not block on the bus itself.
type Handler func(payload []byte)

// Bus delivers typed events to every subscriber, including the emitter.
// Delivery is asynchronous with respect to Emit and FIFO per bus. No
// acknowledgement or retry is provided; reliability is the connectivity
// mode's concern.
type Bus interface {
	// Emit broadcasts the payload under the given event name.
	Emit(event string, payload any) error
	// Subscribe registers the handler for the event name. The core uses one
	// handler per event; a repeated Subscribe replaces the previous handler.
	Subscribe(event string, h Handler)
	// Close stops delivery and releases the transport.
	Close() error
}

// Envelope is the wire frame carrying one event.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEnvelope marshals an event and its payload into a wire frame.
func EncodeEnvelope(event string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for event %s: %w", event, err)
	}

	frame, err := json.Marshal(Envelope{Event: event, Payload: body})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope for event %s: %w", event, err)
	}
	return frame, nil
}
