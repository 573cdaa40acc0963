package bus

// TargetKind selects how an outbound message is addressed on the platform.
type TargetKind int

const (
	// TargetPrivate sends to a single client; Target is the client ID.
	TargetPrivate TargetKind = iota
	// TargetChannel sends to a channel; Target is the channel ID.
	TargetChannel
	// TargetBroadcast sends server-wide; Target is unused.
	TargetBroadcast
)

func (k TargetKind) String() string {
	switch k {
	case TargetPrivate:
		return "private"
	case TargetChannel:
		return "channel"
	case TargetBroadcast:
		return "broadcast"
	}
	return "unknown"
}

// OutboundMessage is one platform send: a single chunk addressed to a
// client, a channel, or the whole server.
type OutboundMessage struct {
	Kind    TargetKind
	Target  string
	Content string
}
