package serverquery

import (
	"context"
	"testing"
	"time"

	"github.com/tinyland-inc/tsclaw/pkg/bus"
	"github.com/tinyland-inc/tsclaw/pkg/config"
	"github.com/tinyland-inc/tsclaw/pkg/events"
	"github.com/tinyland-inc/tsclaw/pkg/platform"
)

func newTestConnector() (*Connector, *bus.EventBus) {
	eb := bus.NewEventBus()
	c := New(config.TeamSpeakConfig{ServerID: 1}, eb)
	c.selfID = "99"
	c.selfUID = "self-uid"
	c.selfChannel = "1"
	c.channels["1"] = platform.Channel{ID: "1", Name: "Lobby"}
	c.channels["2"] = platform.Channel{ID: "2", Name: "AFK"}
	c.clients["10"] = platform.Client{ID: "10", UID: "uid1", Nickname: "Alice", ChannelID: "1"}
	return c, eb
}

func expectInbound(t *testing.T, eb *bus.EventBus) events.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, ok := eb.ConsumeEvent(ctx)
	if !ok {
		t.Fatal("expected an inbound event")
	}
	return ev
}

func expectNoInbound(t *testing.T, eb *bus.EventBus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if ev, ok := eb.ConsumeEvent(ctx); ok {
		t.Fatalf("unexpected inbound event: %+v", ev)
	}
}

func TestHandleNotify_PrivateText(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify(`notifytextmessage targetmode=1 msg=hello\sthere invokerid=10 invokername=Alice invokeruid=uid1`)

	chat, ok := expectInbound(t, eb).(events.Chat)
	if !ok {
		t.Fatal("expected a chat event")
	}
	if chat.Text != "hello there" {
		t.Errorf("text: got %q", chat.Text)
	}
	if chat.Scope != events.ScopeDirect {
		t.Errorf("scope: got %v", chat.Scope)
	}
	if chat.From.UID != "uid1" || chat.From.Nickname != "Alice" {
		t.Errorf("from: got %+v", chat.From)
	}
}

func TestHandleNotify_ChannelTextCarriesChannel(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify(`notifytextmessage targetmode=2 msg=hi invokerid=10 invokername=Alice invokeruid=uid1`)

	chat := expectInbound(t, eb).(events.Chat)
	if chat.Scope != events.ScopeChannel {
		t.Fatalf("scope: got %v", chat.Scope)
	}
	if chat.Channel == nil || chat.Channel.ID != "1" || chat.Channel.Name != "Lobby" {
		t.Errorf("channel: got %+v", chat.Channel)
	}
}

func TestHandleNotify_ServerText(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify(`notifytextmessage targetmode=3 msg=announcement invokerid=10 invokername=Alice invokeruid=uid1`)

	chat := expectInbound(t, eb).(events.Chat)
	if chat.Scope != events.ScopeBroadcast {
		t.Errorf("scope: got %v", chat.Scope)
	}
}

func TestHandleNotify_OwnEchoSkipped(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify(`notifytextmessage targetmode=1 msg=echo invokerid=99 invokername=Bridge invokeruid=self-uid`)
	expectNoInbound(t, eb)
}

func TestHandleNotify_Enter(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify(`notifycliententerview clid=20 ctid=2 client_type=0 client_unique_identifier=uid2 client_nickname=Bob`)

	join, ok := expectInbound(t, eb).(events.Join)
	if !ok {
		t.Fatal("expected a join event")
	}
	if join.From.Nickname != "Bob" || join.Channel.Name != "AFK" {
		t.Errorf("got %+v", join)
	}

	// The roster now resolves the new client.
	if client, ok := c.ClientByUID("uid2"); !ok || client.ChannelID != "2" {
		t.Errorf("roster: got %+v, ok=%v", client, ok)
	}
}

func TestHandleNotify_QueryClientEnterSkipped(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify(`notifycliententerview clid=21 ctid=1 client_type=1 client_unique_identifier=quid client_nickname=OtherQuery`)
	expectNoInbound(t, eb)
}

func TestHandleNotify_LeftReasonMapping(t *testing.T) {
	cases := []struct {
		reasonid string
		want     int
	}{
		{"3", events.ReasonLostConnection},
		{"5", events.ReasonKicked},
		{"6", events.ReasonBanned},
		{"8", 0},
	}
	for _, tc := range cases {
		c, eb := newTestConnector()
		c.handleNotify(`notifyclientleftview clid=10 reasonid=` + tc.reasonid)

		leave, ok := expectInbound(t, eb).(events.Leave)
		if !ok {
			t.Fatalf("reasonid %s: expected a leave event", tc.reasonid)
		}
		if leave.ReasonID != tc.want {
			t.Errorf("reasonid %s: got %d, want %d", tc.reasonid, leave.ReasonID, tc.want)
		}
		if leave.From.Nickname != "Alice" {
			t.Errorf("reasonid %s: from %+v", tc.reasonid, leave.From)
		}
		eb.Close()
	}
}

func TestHandleNotify_LeftRemovesFromRoster(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify("notifyclientleftview clid=10 reasonid=8")
	expectInbound(t, eb)

	if _, ok := c.ClientByUID("uid1"); ok {
		t.Error("departed client still resolvable")
	}
}

func TestHandleNotify_LeftUnknownClientIgnored(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify("notifyclientleftview clid=404 reasonid=8")
	expectNoInbound(t, eb)
}

func TestHandleNotify_Moved(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify("notifyclientmoved clid=10 ctid=2")

	move, ok := expectInbound(t, eb).(events.Move)
	if !ok {
		t.Fatal("expected a move event")
	}
	if move.Src.Name != "Lobby" || move.Dst.Name != "AFK" {
		t.Errorf("got %+v", move)
	}

	if client, _ := c.ClientByUID("uid1"); client.ChannelID != "2" {
		t.Errorf("roster not updated: %+v", client)
	}
}

func TestHandleNotify_SelfMoveUpdatesOwnChannel(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify("notifyclientmoved clid=99 ctid=2")
	expectNoInbound(t, eb)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selfChannel != "2" {
		t.Errorf("selfChannel: got %q", c.selfChannel)
	}
}

func TestHandleNotify_UnknownEventIgnored(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	c.handleNotify("notifychanneledited cid=1")
	expectNoInbound(t, eb)
}

func TestChannelRef_UnknownChannel(t *testing.T) {
	c, eb := newTestConnector()
	defer eb.Close()

	ref := c.channelRef("404")
	if ref.ID != "404" || ref.Name != "Unknown" {
		t.Errorf("got %+v", ref)
	}
}
