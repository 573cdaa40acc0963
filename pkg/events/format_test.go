package events

import "testing"

func TestNormalize_DirectChat(t *testing.T) {
	p := Normalize(Chat{
		Text:  "hi",
		From:  User{UID: "uid1", Nickname: "Alice"},
		Scope: ScopeDirect,
	})
	if p.Text != "[TeamSpeak DM] Alice: hi" {
		t.Errorf("text: got %q", p.Text)
	}
	if p.Routing.Scope != ScopeDirect || p.Routing.UID != "uid1" {
		t.Errorf("routing: got %+v", p.Routing)
	}
	if p.Routing.Ambient {
		t.Error("chat must not be ambient")
	}
}

func TestNormalize_ChannelChat(t *testing.T) {
	p := Normalize(Chat{
		Text:    "hi",
		From:    User{UID: "uid1", Nickname: "Alice"},
		Scope:   ScopeChannel,
		Channel: &ChannelRef{ID: "7", Name: "Lobby"},
	})
	if p.Text != "[TeamSpeak channel] Alice (in Lobby): hi" {
		t.Errorf("text: got %q", p.Text)
	}
	if p.Routing.Channel == nil || p.Routing.Channel.ID != "7" {
		t.Errorf("routing channel: got %+v", p.Routing.Channel)
	}
}

func TestNormalize_ChannelChatMissingChannel(t *testing.T) {
	p := Normalize(Chat{
		Text:  "hi",
		From:  User{Nickname: "Alice"},
		Scope: ScopeChannel,
	})
	if p.Text != "[TeamSpeak channel] Alice (in Unknown): hi" {
		t.Errorf("text: got %q", p.Text)
	}
}

func TestNormalize_ServerChat(t *testing.T) {
	p := Normalize(Chat{
		Text:  "hi",
		From:  User{Nickname: "Alice"},
		Scope: ScopeBroadcast,
	})
	if p.Text != "[TeamSpeak server] Alice: hi" {
		t.Errorf("text: got %q", p.Text)
	}
}

func TestNormalize_Join(t *testing.T) {
	p := Normalize(Join{
		From:    User{UID: "uid1", Nickname: "Bob"},
		Channel: ChannelRef{ID: "3", Name: "Lobby"},
	})
	if p.Text != "[TeamSpeak join] Bob joined (in: Lobby)" {
		t.Errorf("text: got %q", p.Text)
	}
	if !p.Routing.Ambient {
		t.Error("join must be ambient")
	}
	if p.Routing.Channel == nil || p.Routing.Channel.ID != "3" {
		t.Errorf("routing channel: got %+v", p.Routing.Channel)
	}
}

func TestNormalize_LeaveReasons(t *testing.T) {
	cases := []struct {
		name  string
		leave Leave
		want  string
	}{
		{"explicit message wins", Leave{From: User{Nickname: "Bob"}, ReasonID: ReasonKicked, ReasonMsg: "bye"}, "[TeamSpeak leave] Bob disconnected (bye)"},
		{"lost connection", Leave{From: User{Nickname: "Bob"}, ReasonID: ReasonLostConnection}, "[TeamSpeak leave] Bob disconnected (lost connection)"},
		{"kicked", Leave{From: User{Nickname: "Bob"}, ReasonID: ReasonKicked}, "[TeamSpeak leave] Bob disconnected (kicked)"},
		{"banned", Leave{From: User{Nickname: "Bob"}, ReasonID: ReasonBanned}, "[TeamSpeak leave] Bob disconnected (banned)"},
		{"unknown code", Leave{From: User{Nickname: "Bob"}, ReasonID: 42}, "[TeamSpeak leave] Bob disconnected (left)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Normalize(tc.leave)
			if p.Text != tc.want {
				t.Errorf("got %q, want %q", p.Text, tc.want)
			}
			if !p.Routing.Ambient {
				t.Error("leave must be ambient")
			}
			if p.Routing.Channel != nil {
				t.Error("leave routing must have no channel")
			}
		})
	}
}

func TestNormalize_Move(t *testing.T) {
	p := Normalize(Move{
		From: User{UID: "uid1", Nickname: "Bob"},
		Src:  ChannelRef{ID: "1", Name: "Lobby"},
		Dst:  ChannelRef{ID: "2", Name: "AFK"},
	})
	if p.Text != "[TeamSpeak move] Bob moved from Lobby to AFK" {
		t.Errorf("text: got %q", p.Text)
	}
	if p.Routing.Channel == nil || p.Routing.Channel.ID != "2" {
		t.Errorf("routing should target the destination channel, got %+v", p.Routing.Channel)
	}
}

func TestAmbient(t *testing.T) {
	if Ambient(Chat{}) {
		t.Error("chat is not ambient")
	}
	for _, e := range []Event{Join{}, Leave{}, Move{}} {
		if !Ambient(e) {
			t.Errorf("%T should be ambient", e)
		}
	}
}
