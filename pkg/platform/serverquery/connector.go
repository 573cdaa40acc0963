// Package serverquery is the TeamSpeak platform binding: a ServerQuery
// client that turns server notifications into bridge events, keeps a live
// roster of clients and channels for delivery-time resolution, and writes
// outbound messages back to the server.
package serverquery

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tinyland-inc/tsclaw/pkg/bus"
	"github.com/tinyland-inc/tsclaw/pkg/config"
	"github.com/tinyland-inc/tsclaw/pkg/logger"
	"github.com/tinyland-inc/tsclaw/pkg/platform"
)

const component = "serverquery"

// keepaliveInterval is well under the server's 10 minute idle timeout.
const keepaliveInterval = 5 * time.Minute

// queryClientType marks ServerQuery connections in clientlist output;
// they never produce relayed events.
const queryClientType = "1"

// Connector owns the ServerQuery connection and the roster derived from it.
type Connector struct {
	cfg config.TeamSpeakConfig
	bus *bus.EventBus

	conn *Conn

	mu          sync.RWMutex
	clients     map[string]platform.Client  // keyed by clid
	channels    map[string]platform.Channel // keyed by cid
	selfID      string
	selfUID     string
	selfChannel string

	onStateChange func(connected bool)
}

func New(cfg config.TeamSpeakConfig, eb *bus.EventBus) *Connector {
	return &Connector{
		cfg:      cfg,
		bus:      eb,
		clients:  make(map[string]platform.Client),
		channels: make(map[string]platform.Channel),
	}
}

// OnStateChange registers a connected/disconnected callback (health
// readiness). Must be set before Connect.
func (c *Connector) OnStateChange(fn func(connected bool)) {
	c.onStateChange = fn
}

// SelfUID returns the bridge's own identity, valid after Connect.
func (c *Connector) SelfUID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfUID
}

// Connect dials the server, logs in, selects the virtual server,
// subscribes to notifications and loads the initial roster.
func (c *Connector) Connect() error {
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	conn, err := Dial(addr, c.handleNotify)
	if err != nil {
		return err
	}
	c.conn = conn

	steps := []struct {
		name string
		args map[string]string
	}{
		{"login", map[string]string{
			"client_login_name":     c.cfg.Username,
			"client_login_password": c.cfg.Password,
		}},
		{"use", map[string]string{"sid": strconv.Itoa(c.cfg.ServerID)}},
		{"clientupdate", map[string]string{"client_nickname": c.cfg.Nickname}},
		{"servernotifyregister", map[string]string{"event": "server"}},
		{"servernotifyregister", map[string]string{"event": "channel", "id": "0"}},
		{"servernotifyregister", map[string]string{"event": "textserver"}},
		{"servernotifyregister", map[string]string{"event": "textchannel"}},
		{"servernotifyregister", map[string]string{"event": "textprivate"}},
	}
	for _, step := range steps {
		if _, err := conn.Exec(step.name, step.args); err != nil {
			conn.Close()
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	who, err := conn.Exec("whoami", nil)
	if err != nil || len(who) == 0 {
		conn.Close()
		return fmt.Errorf("whoami: %w", err)
	}
	c.mu.Lock()
	c.selfID = who[0]["client_id"]
	c.selfUID = who[0]["client_unique_identifier"]
	c.selfChannel = who[0]["client_channel_id"]
	c.mu.Unlock()

	if err := c.loadRoster(); err != nil {
		conn.Close()
		return err
	}

	logger.InfoCF(component, "Connected", map[string]any{
		"server":   addr,
		"clid":     c.selfID,
		"clients":  c.clientCount(),
		"channels": c.channelCount(),
	})
	if c.onStateChange != nil {
		c.onStateChange(true)
	}
	return nil
}

// Run services outbound messages and keepalives until the context ends,
// the bus closes, or the connection drops.
func (c *Connector) Run(ctx context.Context) error {
	keepaliveDone := make(chan struct{})
	go c.keepalive(ctx, keepaliveDone)
	defer func() {
		<-keepaliveDone
		if c.onStateChange != nil {
			c.onStateChange(false)
		}
	}()

	for {
		select {
		case <-c.conn.Done():
			return ErrConnClosed
		default:
		}

		msg, ok := c.bus.ConsumeSend(ctx)
		if !ok {
			return ctx.Err()
		}
		// Best effort per chunk: a failed send is logged and the next
		// chunk still goes out.
		if err := c.send(msg); err != nil {
			logger.WarnCF(component, "Send failed", map[string]any{
				"kind":  msg.Kind.String(),
				"error": err.Error(),
			})
		}
	}
}

func (c *Connector) keepalive(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := c.conn.Exec("version", nil); err != nil {
				logger.DebugCF(component, "Keepalive failed", map[string]any{"error": err.Error()})
			}
		case <-ctx.Done():
			return
		case <-c.conn.Done():
			return
		}
	}
}

// Close tears down the connection.
func (c *Connector) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// Done reports connection loss, valid after Connect.
func (c *Connector) Done() <-chan struct{} {
	return c.conn.Done()
}

func (c *Connector) loadRoster() error {
	channels, err := c.conn.ExecRaw("channellist")
	if err != nil {
		return fmt.Errorf("channellist: %w", err)
	}
	clients, err := c.conn.ExecRaw("clientlist -uid")
	if err != nil {
		return fmt.Errorf("clientlist: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range channels {
		c.channels[rec["cid"]] = platform.Channel{
			ID:   rec["cid"],
			Name: rec["channel_name"],
		}
	}
	for _, rec := range clients {
		if rec["client_type"] == queryClientType {
			continue
		}
		c.clients[rec["clid"]] = platform.Client{
			ID:        rec["clid"],
			UID:       rec["client_unique_identifier"],
			Nickname:  rec["client_nickname"],
			ChannelID: rec["cid"],
		}
	}
	return nil
}

// send issues one outbound message. Channel messages require the query
// client to sit in the target channel first.
func (c *Connector) send(msg bus.OutboundMessage) error {
	switch msg.Kind {
	case bus.TargetPrivate:
		_, err := c.conn.Exec("sendtextmessage", map[string]string{
			"targetmode": "1",
			"target":     msg.Target,
			"msg":        msg.Content,
		})
		return err
	case bus.TargetChannel:
		if err := c.moveTo(msg.Target); err != nil {
			return err
		}
		_, err := c.conn.Exec("sendtextmessage", map[string]string{
			"targetmode": "2",
			"target":     msg.Target,
			"msg":        msg.Content,
		})
		return err
	case bus.TargetBroadcast:
		_, err := c.conn.Exec("sendtextmessage", map[string]string{
			"targetmode": "3",
			"target":     strconv.Itoa(c.cfg.ServerID),
			"msg":        msg.Content,
		})
		return err
	}
	return fmt.Errorf("unknown target kind %d", msg.Kind)
}

func (c *Connector) moveTo(channelID string) error {
	c.mu.RLock()
	current := c.selfChannel
	selfID := c.selfID
	c.mu.RUnlock()
	if current == channelID {
		return nil
	}

	if _, err := c.conn.Exec("clientmove", map[string]string{
		"clid": selfID,
		"cid":  channelID,
	}); err != nil {
		return fmt.Errorf("clientmove: %w", err)
	}
	c.mu.Lock()
	c.selfChannel = channelID
	c.mu.Unlock()
	return nil
}

// ClientByUID implements platform.Resolver against the live roster.
func (c *Connector) ClientByUID(uid string) (platform.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, client := range c.clients {
		if client.UID == uid {
			return client, true
		}
	}
	return platform.Client{}, false
}

// ChannelByID implements platform.Resolver against the live roster.
func (c *Connector) ChannelByID(id string) (platform.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.channels[id]
	return ch, ok
}

func (c *Connector) clientCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

func (c *Connector) channelCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.channels)
}
