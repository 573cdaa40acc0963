// Package bus carries platform events from the connector to the relay and
// outbound sends from the delivery layer back to the connector.
package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tinyland-inc/tsclaw/pkg/events"
)

// ErrBusClosed is returned when publishing to a closed EventBus.
var ErrBusClosed = errors.New("event bus closed")

// queueDepth bounds each direction; a full queue back-pressures the
// publisher rather than dropping.
const queueDepth = 100

// EventBus is the process-internal seam between the platform connector and
// the relay core: events flow one way, sends flow the other. Both sides
// unblock when the bus closes or the caller's context ends.
type EventBus struct {
	events chan events.Event
	sends  chan OutboundMessage
	done   chan struct{}
	closed atomic.Bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		events: make(chan events.Event, queueDepth),
		sends:  make(chan OutboundMessage, queueDepth),
		done:   make(chan struct{}),
	}
}

// PublishEvent hands a platform event to the relay side.
func (eb *EventBus) PublishEvent(ctx context.Context, ev events.Event) error {
	return offer(eb, eb.events, ctx, ev)
}

// ConsumeEvent blocks for the next platform event; ok is false once the
// bus is closed or ctx ends.
func (eb *EventBus) ConsumeEvent(ctx context.Context) (events.Event, bool) {
	return take(eb, eb.events, ctx)
}

// PublishSend queues one outbound chunk for the connector.
func (eb *EventBus) PublishSend(ctx context.Context, msg OutboundMessage) error {
	return offer(eb, eb.sends, ctx, msg)
}

// ConsumeSend blocks for the next outbound chunk; ok is false once the
// bus is closed or ctx ends.
func (eb *EventBus) ConsumeSend(ctx context.Context) (OutboundMessage, bool) {
	return take(eb, eb.sends, ctx)
}

// Close unblocks every publisher and consumer. Idempotent.
func (eb *EventBus) Close() {
	if eb.closed.CompareAndSwap(false, true) {
		close(eb.done)
	}
}

func offer[T any](eb *EventBus, ch chan<- T, ctx context.Context, v T) error {
	if eb.closed.Load() {
		return ErrBusClosed
	}
	select {
	case ch <- v:
		return nil
	case <-eb.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func take[T any](eb *EventBus, ch <-chan T, ctx context.Context) (T, bool) {
	var zero T
	select {
	case v := <-ch:
		return v, true
	case <-eb.done:
		return zero, false
	case <-ctx.Done():
		return zero, false
	}
}
