package events

import "fmt"

// Routing tells the delivery layer where a reply to this event belongs.
// Everything is captured by value at dispatch time; the live client and
// channel are re-resolved when the reply actually arrives.
type Routing struct {
	Scope   Scope
	UID     string      // recipient identity for direct replies and staleness checks
	Channel *ChannelRef // reply channel for channel-scoped and ambient events
	Ambient bool
}

// Payload is the normalized text sent to the completion service plus the
// routing needed to deliver its reply.
type Payload struct {
	Text    string
	Routing Routing
}

// Normalize converts an event into the self-contained text the agent sees.
// The shapes mirror the bridge's wire vocabulary: the entire message is the
// only context the agent gets, so each line names the event kind, the actor
// and the location.
func Normalize(e Event) Payload {
	switch ev := e.(type) {
	case Chat:
		return normalizeChat(ev)
	case Join:
		return Payload{
			Text: fmt.Sprintf("[TeamSpeak join] %s joined (in: %s)", ev.From.Nickname, ev.Channel.Name),
			Routing: Routing{
				Scope:   ScopeChannel,
				UID:     ev.From.UID,
				Channel: &ChannelRef{ID: ev.Channel.ID, Name: ev.Channel.Name},
				Ambient: true,
			},
		}
	case Leave:
		return Payload{
			Text: fmt.Sprintf("[TeamSpeak leave] %s disconnected (%s)", ev.From.Nickname, leaveReason(ev)),
			Routing: Routing{
				Scope:   ScopeChannel,
				UID:     ev.From.UID,
				Ambient: true,
			},
		}
	case Move:
		return Payload{
			Text: fmt.Sprintf("[TeamSpeak move] %s moved from %s to %s", ev.From.Nickname, ev.Src.Name, ev.Dst.Name),
			Routing: Routing{
				Scope:   ScopeChannel,
				UID:     ev.From.UID,
				Channel: &ChannelRef{ID: ev.Dst.ID, Name: ev.Dst.Name},
				Ambient: true,
			},
		}
	}
	panic(fmt.Sprintf("events: unknown event type %T", e))
}

func normalizeChat(ev Chat) Payload {
	var text string
	switch ev.Scope {
	case ScopeDirect:
		text = fmt.Sprintf("[TeamSpeak DM] %s: %s", ev.From.Nickname, ev.Text)
	case ScopeChannel:
		name := "Unknown"
		if ev.Channel != nil {
			name = ev.Channel.Name
		}
		text = fmt.Sprintf("[TeamSpeak channel] %s (in %s): %s", ev.From.Nickname, name, ev.Text)
	default:
		text = fmt.Sprintf("[TeamSpeak server] %s: %s", ev.From.Nickname, ev.Text)
	}

	r := Routing{Scope: ev.Scope, UID: ev.From.UID}
	if ev.Channel != nil {
		ch := *ev.Channel
		r.Channel = &ch
	}
	return Payload{Text: text, Routing: r}
}

// leaveReason resolves the human-readable disconnect reason: an explicit
// message wins, then the known reason codes, then a generic "left".
func leaveReason(ev Leave) string {
	if ev.ReasonMsg != "" {
		return ev.ReasonMsg
	}
	switch ev.ReasonID {
	case ReasonLostConnection:
		return "lost connection"
	case ReasonKicked:
		return "kicked"
	case ReasonBanned:
		return "banned"
	}
	return "left"
}
