package serverquery

import (
	"context"
	"strings"

	"github.com/tinyland-inc/tsclaw/pkg/events"
	"github.com/tinyland-inc/tsclaw/pkg/logger"
	"github.com/tinyland-inc/tsclaw/pkg/platform"
)

// handleNotify translates a raw notification line into a bridge event and
// keeps the roster in sync. It runs on the connection's read goroutine.
func (c *Connector) handleNotify(line string) {
	name := firstWord(line)
	args := parseArgs(strings.TrimPrefix(line, name+" "))

	switch name {
	case "notifytextmessage":
		c.notifyText(args)
	case "notifycliententerview":
		c.notifyEnter(args)
	case "notifyclientleftview":
		c.notifyLeft(args)
	case "notifyclientmoved":
		c.notifyMoved(args)
	default:
		logger.DebugCF(component, "Ignoring notification", map[string]any{"event": name})
	}
}

func (c *Connector) notifyText(args map[string]string) {
	c.mu.RLock()
	self := c.selfID
	c.mu.RUnlock()
	if args["invokerid"] == self {
		// Echo of our own outbound message.
		return
	}

	scope := events.ScopeDirect
	switch args["targetmode"] {
	case "2":
		scope = events.ScopeChannel
	case "3":
		scope = events.ScopeBroadcast
	}

	chat := events.Chat{
		Text: args["msg"],
		From: events.User{
			UID:      args["invokeruid"],
			Nickname: args["invokername"],
		},
		Scope: scope,
	}
	if scope == events.ScopeChannel {
		ref := c.invokerChannel(args["invokerid"])
		chat.Channel = &ref
	}
	c.publish(chat)
}

func (c *Connector) notifyEnter(args map[string]string) {
	if args["client_type"] == queryClientType {
		return
	}

	client := platform.Client{
		ID:        args["clid"],
		UID:       args["client_unique_identifier"],
		Nickname:  args["client_nickname"],
		ChannelID: args["ctid"],
	}
	c.mu.Lock()
	c.clients[client.ID] = client
	c.mu.Unlock()

	c.publish(events.Join{
		From:    events.User{UID: client.UID, Nickname: client.Nickname},
		Channel: c.channelRef(client.ChannelID),
	})
}

func (c *Connector) notifyLeft(args map[string]string) {
	clid := args["clid"]
	c.mu.Lock()
	client, known := c.clients[clid]
	delete(c.clients, clid)
	c.mu.Unlock()
	if !known {
		return
	}

	reasonID := 0
	switch args["reasonid"] {
	case "3":
		reasonID = events.ReasonLostConnection
	case "5":
		reasonID = events.ReasonKicked
	case "6":
		reasonID = events.ReasonBanned
	}

	c.publish(events.Leave{
		From:      events.User{UID: client.UID, Nickname: client.Nickname},
		ReasonID:  reasonID,
		ReasonMsg: args["reasonmsg"],
	})
}

func (c *Connector) notifyMoved(args map[string]string) {
	clid := args["clid"]
	dst := args["ctid"]

	c.mu.Lock()
	if clid == c.selfID {
		c.selfChannel = dst
		c.mu.Unlock()
		return
	}
	client, known := c.clients[clid]
	src := client.ChannelID
	if known {
		client.ChannelID = dst
		c.clients[clid] = client
	}
	c.mu.Unlock()
	if !known {
		return
	}

	c.publish(events.Move{
		From: events.User{UID: client.UID, Nickname: client.Nickname},
		Src:  c.channelRef(src),
		Dst:  c.channelRef(dst),
	})
}

func (c *Connector) publish(ev events.Event) {
	if err := c.bus.PublishEvent(context.Background(), ev); err != nil {
		logger.WarnCF(component, "Dropping inbound event", map[string]any{"error": err.Error()})
	}
}

// invokerChannel locates the channel a chat message came from via the
// sender's roster entry, falling back to our own channel (channel texts
// only reach us for the channel we sit in).
func (c *Connector) invokerChannel(clid string) events.ChannelRef {
	c.mu.RLock()
	client, ok := c.clients[clid]
	self := c.selfChannel
	c.mu.RUnlock()
	if ok && client.ChannelID != "" {
		return c.channelRef(client.ChannelID)
	}
	return c.channelRef(self)
}

func (c *Connector) channelRef(id string) events.ChannelRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ch, ok := c.channels[id]; ok {
		return events.ChannelRef{ID: ch.ID, Name: ch.Name}
	}
	return events.ChannelRef{ID: id, Name: "Unknown"}
}
