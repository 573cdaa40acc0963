package openclaw

import "fmt"

// ErrorKind classifies a failed completion call. Transport problems and
// HTTP statuses collapse into a small taxonomy so the relay can decide
// whether (and how) to tell the user.
type ErrorKind int

const (
	// Unreachable covers network failures and timeouts.
	Unreachable ErrorKind = iota
	// Unauthorized is HTTP 401: bad or missing gateway token.
	Unauthorized
	// NotFound is HTTP 404: wrong gateway URL or unknown agent.
	NotFound
	// ServerError is any HTTP 5xx from the gateway.
	ServerError
	// RequestRejected is any other 4xx.
	RequestRejected
	// EmptyReply means a well-formed response with no usable content.
	EmptyReply
	// MalformedResponse means the body could not be parsed.
	MalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not found"
	case ServerError:
		return "server error"
	case RequestRejected:
		return "request rejected"
	case EmptyReply:
		return "empty reply"
	case MalformedResponse:
		return "malformed response"
	}
	return "unknown"
}

// Error is a typed completion failure.
type Error struct {
	Kind   ErrorKind
	Status int // HTTP status when one was received, else 0
	Detail string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("openclaw: %s (HTTP %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("openclaw: %s: %s", e.Kind, e.Detail)
}

// UserMessage is the short form shown to a user when a directly triggered
// request fails.
func (e *Error) UserMessage() string {
	if e.Status != 0 {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	switch e.Kind {
	case Unreachable:
		return "Connection failed"
	case EmptyReply:
		return "Empty response"
	case MalformedResponse:
		return "Parse error"
	}
	return e.Kind.String()
}
