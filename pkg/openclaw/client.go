// Package openclaw is the client for the OpenClaw gateway's
// OpenAI-compatible completion endpoint. Each relayed event becomes exactly
// one POST to /v1/chat/completions; there are no retries, because a
// duplicated agent reply is worse than a dropped event.
package openclaw

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// SessionKeyHeader routes the request to the right conversation context on
// the gateway.
const SessionKeyHeader = "x-openclaw-session-key"

// requestUser identifies this bridge in the completion request body.
const requestUser = "teamspeak-bridge"

// Config holds the gateway connection parameters.
type Config struct {
	// URL is the gateway base URL, e.g. http://localhost:18789.
	URL string
	// Token is the optional bearer credential.
	Token string
	// SessionKey is the value of the x-openclaw-session-key header.
	SessionKey string
	// AgentID selects the agent; the request model is "openclaw:"+AgentID.
	AgentID string
	// Timeout bounds the whole request.
	Timeout time.Duration
}

// Client performs completion calls against one configured agent.
type Client struct {
	api     openai.Client
	agentID string
}

// NewClient builds a Client. Retries are disabled at the SDK level: the
// no-duplication contract must hold even for 5xx and 429 responses the SDK
// would otherwise retry.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(cfg.URL, "/") + "/v1"),
		option.WithHeader(SessionKeyHeader, cfg.SessionKey),
		option.WithMaxRetries(0),
	}
	if cfg.Token != "" {
		opts = append(opts, option.WithAPIKey(cfg.Token))
	} else {
		// No token means no credential at all: a bare "Bearer " header
		// would read as a malformed credential to a strict gateway.
		opts = append(opts, option.WithAPIKey(""), option.WithHeaderDel("Authorization"))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		api:     openai.NewClient(opts...),
		agentID: cfg.AgentID,
	}
}

// Complete sends one payload as a single-message completion request and
// returns the first choice's content. All failures come back as *Error.
func (c *Client) Complete(ctx context.Context, payload string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel("openclaw:" + c.agentID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(payload),
		},
		User: openai.String(requestUser),
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: EmptyReply, Detail: "no choices in response"}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &Error{Kind: EmptyReply, Detail: "empty message content"}
	}
	return content, nil
}

// classify maps an SDK error onto the bridge's failure taxonomy.
func classify(err error) *Error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		kind := RequestRejected
		switch {
		case apierr.StatusCode >= 500:
			kind = ServerError
		case apierr.StatusCode == 401:
			kind = Unauthorized
		case apierr.StatusCode == 404:
			kind = NotFound
		}
		return &Error{Kind: kind, Status: apierr.StatusCode, Detail: apierr.Message}
	}

	if isTransport(err) {
		return &Error{Kind: Unreachable, Detail: err.Error()}
	}

	// Reached the gateway, got a 2xx, could not make sense of the body.
	return &Error{Kind: MalformedResponse, Detail: err.Error()}
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
