// Package events defines the closed set of platform events the bridge
// relays and the normalization of each event into the text payload sent
// to the agent.
package events

// Scope says whether a chat message was a DM, a channel message, or a
// server-wide message. The values match TeamSpeak's textmessage targetmode.
type Scope int

const (
	ScopeDirect    Scope = 1
	ScopeChannel   Scope = 2
	ScopeBroadcast Scope = 3
)

func (s Scope) String() string {
	switch s {
	case ScopeDirect:
		return "direct"
	case ScopeChannel:
		return "channel"
	case ScopeBroadcast:
		return "broadcast"
	}
	return "unknown"
}

// Leave reason codes as reported by the platform.
const (
	ReasonLostConnection = 3
	ReasonKicked         = 5
	ReasonBanned         = 6
)

// User identifies a platform user. UID is the stable identity used for
// rate limiting and reply routing; Nickname is display-only.
type User struct {
	UID      string
	Nickname string
}

// ChannelRef references a channel by platform ID plus its display name.
type ChannelRef struct {
	ID   string
	Name string
}

// Event is the closed variant type for everything the bridge reacts to.
// The platform adapter decides the concrete variant at the boundary; the
// core switches exhaustively on it.
type Event interface {
	isEvent()
	Sender() User
}

// Chat is a text message. Channel is nil unless Scope is ScopeChannel.
type Chat struct {
	Text    string
	From    User
	Scope   Scope
	Channel *ChannelRef
}

// Join is a user connecting, landing in Channel.
type Join struct {
	From    User
	Channel ChannelRef
}

// Leave is a user disconnecting. ReasonMsg may be empty; ReasonID then
// selects the label.
type Leave struct {
	From      User
	ReasonID  int
	ReasonMsg string
}

// Move is a user switching channels.
type Move struct {
	From User
	Src  ChannelRef
	Dst  ChannelRef
}

func (Chat) isEvent()  {}
func (Join) isEvent()  {}
func (Leave) isEvent() {}
func (Move) isEvent()  {}

func (e Chat) Sender() User  { return e.From }
func (e Join) Sender() User  { return e.From }
func (e Leave) Sender() User { return e.From }
func (e Move) Sender() User  { return e.From }

// Ambient reports whether the event is a best-effort notification
// (join/leave/move) rather than a directly triggered interaction.
func Ambient(e Event) bool {
	switch e.(type) {
	case Chat:
		return false
	default:
		return true
	}
}
