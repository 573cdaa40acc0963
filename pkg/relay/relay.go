// Package relay is the pipeline orchestrator: it consumes platform events
// from the bus, gates them (event-type filters, self-loop guard, rate
// limit, sanitization), normalizes them into a payload, dispatches the
// completion call asynchronously and hands successful replies to the
// delivery layer.
//
// The only suspension point is the outbound HTTP call; everything before
// and after it is synchronous. Each event gets its own goroutine for that
// call, so completions of distinct events arrive in no particular order.
package relay

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinyland-inc/tsclaw/pkg/bus"
	"github.com/tinyland-inc/tsclaw/pkg/config"
	"github.com/tinyland-inc/tsclaw/pkg/delivery"
	"github.com/tinyland-inc/tsclaw/pkg/events"
	"github.com/tinyland-inc/tsclaw/pkg/logger"
	"github.com/tinyland-inc/tsclaw/pkg/openclaw"
	"github.com/tinyland-inc/tsclaw/pkg/ratelimit"
	"github.com/tinyland-inc/tsclaw/pkg/sanitize"
)

const component = "relay"

// mentionMarkup matches TeamSpeak's <@clid|nickname> mention syntax, which
// is stripped from triggered messages before they reach the agent.
var mentionMarkup = regexp.MustCompile(`<@\d+\|[^>]+>`)

// Completer performs the completion call. *openclaw.Client implements it.
type Completer interface {
	Complete(ctx context.Context, payload string) (string, error)
}

// Relay wires the pipeline together. One Relay serves one bridge process.
type Relay struct {
	cfg       *config.Config
	bus       *bus.EventBus
	agent     Completer
	limiter   *ratelimit.Limiter
	deliverer *delivery.Deliverer

	mu      sync.Mutex
	selfUID string

	// trigger is non-nil when a trigger prefix is configured; it matches
	// every case-insensitive occurrence of the prefix.
	trigger *regexp.Regexp

	inflight sync.WaitGroup
	now      func() time.Time
}

func New(cfg *config.Config, eb *bus.EventBus, agent Completer, limiter *ratelimit.Limiter, d *delivery.Deliverer) *Relay {
	r := &Relay{
		cfg:       cfg,
		bus:       eb,
		agent:     agent,
		limiter:   limiter,
		deliverer: d,
		now:       time.Now,
	}
	if prefix := strings.TrimSpace(cfg.Bridge.TriggerPrefix); prefix != "" {
		r.trigger = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(prefix))
	}
	return r
}

// SetSelfUID records the bridge's own identity once the connector has
// logged in. Events from this identity are dropped unconditionally.
func (r *Relay) SetSelfUID(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selfUID = uid
}

func (r *Relay) isSelf(uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selfUID != "" && uid == r.selfUID
}

// Run consumes inbound events until the context is canceled or the bus is
// closed. No single-event failure stops the loop.
func (r *Relay) Run(ctx context.Context) {
	for {
		ev, ok := r.bus.ConsumeEvent(ctx)
		if !ok {
			return
		}
		r.handle(ctx, ev)
	}
}

// Wait blocks until every dispatched completion has finished. Used on
// shutdown and by tests.
func (r *Relay) Wait() {
	r.inflight.Wait()
}

func (r *Relay) handle(ctx context.Context, ev events.Event) {
	sender := ev.Sender()
	if r.isSelf(sender.UID) {
		return
	}
	if !r.tracked(ev) {
		return
	}

	ev, ok := r.triggered(ev)
	if !ok {
		return
	}

	if allowed, retryAfter := r.limiter.Allow(sender.UID, r.now()); !allowed {
		logger.DebugCF(component, "Rate limited", map[string]any{
			"uid":         sender.UID,
			"retry_after": retryAfter.String(),
		})
		return
	}

	// Sanitization runs after the rate check: an event the sanitizer
	// rejects has already consumed the sender's window.
	ev, ok = r.sanitized(ev)
	if !ok {
		return
	}

	payload := events.Normalize(ev)
	requestID := uuid.NewString()
	logger.InfoCF(component, "Dispatching event", map[string]any{
		"request_id": requestID,
		"scope":      payload.Routing.Scope.String(),
		"ambient":    payload.Routing.Ambient,
		"sender":     sender.Nickname,
	})

	r.inflight.Add(1)
	go r.complete(ctx, requestID, payload)
}

// tracked applies the per-event-type enable flags.
func (r *Relay) tracked(ev events.Event) bool {
	b := r.cfg.Bridge
	switch e := ev.(type) {
	case events.Chat:
		switch e.Scope {
		case events.ScopeDirect:
			return b.TrackPrivateMessages
		case events.ScopeChannel:
			return b.TrackChannelChat
		case events.ScopeBroadcast:
			return b.TrackServerMessages
		}
		return false
	case events.Join:
		return b.TrackJoins
	case events.Leave:
		return b.TrackLeaves
	case events.Move:
		return b.TrackMoves
	}
	return false
}

// triggered applies the optional trigger prefix to chats: a non-matching
// message is not a qualifying event at all and consumes nothing. Ambient
// events pass through.
func (r *Relay) triggered(ev events.Event) (events.Event, bool) {
	chat, isChat := ev.(events.Chat)
	if !isChat || r.trigger == nil {
		return ev, true
	}

	if !r.trigger.MatchString(chat.Text) {
		return nil, false
	}
	text := strings.TrimSpace(r.trigger.ReplaceAllString(chat.Text, ""))
	text = strings.TrimSpace(mentionMarkup.ReplaceAllString(text, ""))
	if text == "" {
		text = "hello"
	}
	chat.Text = text
	return chat, true
}

// sanitized cleans chat text. Ambient events carry no free text and pass
// through.
func (r *Relay) sanitized(ev events.Event) (events.Event, bool) {
	chat, isChat := ev.(events.Chat)
	if !isChat {
		return ev, true
	}

	clean, err := sanitize.Clean(chat.Text, r.cfg.Bridge.InputValidation)
	if err != nil {
		logger.InfoCF(component, "Invalid input", map[string]any{
			"sender": chat.From.Nickname,
			"error":  err.Error(),
		})
		return nil, false
	}

	chat.Text = clean
	return chat, true
}

// complete runs on its own goroutine: it performs the single network call
// and routes the result. Once dispatched, a request runs to completion or
// timeout; there is no cancellation tied to the triggering context.
func (r *Relay) complete(ctx context.Context, requestID string, payload events.Payload) {
	defer r.inflight.Done()

	reply, err := r.agent.Complete(ctx, payload.Text)
	if err != nil {
		r.completeError(ctx, requestID, payload, err)
		return
	}

	if payload.Routing.Ambient && r.cfg.Bridge.SilentMode {
		logger.DebugCF(component, "Silent mode, suppressing ambient reply", map[string]any{
			"request_id": requestID,
		})
		return
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return
	}

	outcome := r.deliverer.Deliver(ctx, reply, payload.Routing)
	logger.DebugCF(component, "Reply handled", map[string]any{
		"request_id": requestID,
		"delivered":  outcome == delivery.Delivered,
		"length":     len(reply),
	})
}

// completeError logs the failure and, for directly triggered events only,
// tells the user. Ambient events are best-effort notifications: their
// failures are swallowed.
func (r *Relay) completeError(ctx context.Context, requestID string, payload events.Payload, err error) {
	logger.ErrorCF(component, "Completion failed", map[string]any{
		"request_id": requestID,
		"error":      err.Error(),
	})
	if payload.Routing.Ambient {
		return
	}

	detail := err.Error()
	var agentErr *openclaw.Error
	if errors.As(err, &agentErr) {
		detail = agentErr.UserMessage()
	}
	notice := "[OpenClaw] Sorry, something went wrong: " + detail
	r.deliverer.Deliver(ctx, notice, payload.Routing)
}
