// Package delivery routes agent replies back onto the platform. The agent
// call is asynchronous, so the world may have moved on by the time a reply
// arrives: the recipient is re-resolved here, at delivery time, and a reply
// whose recipient vanished is dropped rather than queued.
package delivery

import (
	"context"
	"time"

	"github.com/tinyland-inc/tsclaw/pkg/bus"
	"github.com/tinyland-inc/tsclaw/pkg/events"
	"github.com/tinyland-inc/tsclaw/pkg/logger"
	"github.com/tinyland-inc/tsclaw/pkg/platform"
)

const component = "delivery"

// MaxChunkLen is the platform's per-message limit in runes.
const MaxChunkLen = 1024

// DefaultChunkDelay paces consecutive chunks of one reply so the platform's
// own flood control is not tripped.
const DefaultChunkDelay = 100 * time.Millisecond

// Outcome is the result of a delivery attempt.
type Outcome int

const (
	// Delivered means all chunks were handed to the platform.
	Delivered Outcome = iota
	// RecipientGone means the recipient could no longer be resolved; the
	// reply was dropped. Not an error: the user left, there is no one to
	// tell.
	RecipientGone
)

// Deliverer resolves reply targets against the live roster and publishes
// length-bounded chunks to the outbound side of the bus.
type Deliverer struct {
	resolver      platform.Resolver
	bus           *bus.EventBus
	notifyChannel string // fixed channel for ambient replies, "" = event channel
	chunkLen      int
	chunkDelay    time.Duration
}

// Option configures a Deliverer.
type Option func(*Deliverer)

// WithChunkLen overrides the per-message limit, used by tests.
func WithChunkLen(n int) Option {
	return func(d *Deliverer) { d.chunkLen = n }
}

// WithChunkDelay overrides the pacing delay between chunks.
func WithChunkDelay(delay time.Duration) Option {
	return func(d *Deliverer) { d.chunkDelay = delay }
}

func New(resolver platform.Resolver, eb *bus.EventBus, notifyChannel string, opts ...Option) *Deliverer {
	d := &Deliverer{
		resolver:      resolver,
		bus:           eb,
		notifyChannel: notifyChannel,
		chunkLen:      MaxChunkLen,
		chunkDelay:    DefaultChunkDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver sends text to the target described by route. Each chunk is
// best-effort: a failed send does not cancel the chunks after it.
func (d *Deliverer) Deliver(ctx context.Context, text string, route events.Routing) Outcome {
	if route.Ambient {
		return d.deliverAmbient(ctx, text, route)
	}
	return d.deliverInteractive(ctx, text, route)
}

// deliverInteractive answers a chat. The sender must still be connected,
// whatever the scope: a channel reply to a question whose asker left is
// just noise.
func (d *Deliverer) deliverInteractive(ctx context.Context, text string, route events.Routing) Outcome {
	client, ok := d.resolver.ClientByUID(route.UID)
	if !ok {
		logger.DebugCF(component, "Recipient no longer connected", map[string]any{"uid": route.UID})
		return RecipientGone
	}

	switch route.Scope {
	case events.ScopeChannel:
		if route.Channel != nil {
			if ch, ok := d.resolver.ChannelByID(route.Channel.ID); ok {
				d.sendChunks(ctx, text, bus.TargetChannel, ch.ID)
				return Delivered
			}
		}
		// Channel vanished while the request was in flight; the sender is
		// still here, so answer them directly.
		d.sendChunks(ctx, text, bus.TargetPrivate, client.ID)
		return Delivered
	case events.ScopeBroadcast:
		d.sendChunks(ctx, text, bus.TargetBroadcast, "")
		return Delivered
	default:
		d.sendChunks(ctx, text, bus.TargetPrivate, client.ID)
		return Delivered
	}
}

// deliverAmbient answers a join/leave/move notice. These always land in a
// channel: the fixed notification channel when configured, otherwise the
// channel the event happened in.
func (d *Deliverer) deliverAmbient(ctx context.Context, text string, route events.Routing) Outcome {
	targetID := d.notifyChannel
	if targetID == "" && route.Channel != nil {
		targetID = route.Channel.ID
	}
	if targetID == "" {
		logger.DebugC(component, "Ambient reply has no target channel, dropping")
		return RecipientGone
	}

	ch, ok := d.resolver.ChannelByID(targetID)
	if !ok {
		logger.DebugCF(component, "Target channel no longer exists", map[string]any{"channel": targetID})
		return RecipientGone
	}

	d.sendChunks(ctx, text, bus.TargetChannel, ch.ID)
	return Delivered
}

func (d *Deliverer) sendChunks(ctx context.Context, text string, kind bus.TargetKind, target string) {
	chunks := SplitMessage(text, d.chunkLen)
	logger.DebugCF(component, "Sending reply", map[string]any{
		"kind":   kind.String(),
		"chunks": len(chunks),
	})

	for i, chunk := range chunks {
		if err := d.bus.PublishSend(ctx, bus.OutboundMessage{
			Kind:    kind,
			Target:  target,
			Content: chunk,
		}); err != nil {
			logger.WarnCF(component, "Dropping chunk", map[string]any{
				"chunk": i,
				"error": err.Error(),
			})
			continue
		}

		if i < len(chunks)-1 {
			select {
			case <-time.After(d.chunkDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// SplitMessage cuts text into chunks of at most limit runes, in order, with
// no overlap. Concatenating the chunks reproduces the input exactly.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for pos := 0; pos < len(runes); pos += limit {
		end := pos + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[pos:end]))
	}
	return chunks
}
