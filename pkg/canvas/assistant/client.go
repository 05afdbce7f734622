// Package assistant talks to the workflow assistant service. The assistant
// answers canvas chat messages with prose plus a list of graph commands for
// the interpreter to apply.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/action"
)

// ErrEmptyReply indicates the assistant returned neither a message nor
// actions.
var ErrEmptyReply = errors.New("assistant returned an empty reply")

// Reply is one assistant turn: a chat message for the user and the graph
// commands the assistant wants applied.
type Reply struct {
	Message string
	Actions []action.Action
}

// Client produces assistant replies for canvas chat messages.
type Client interface {
	SendChatMessage(ctx context.Context, workflowID, message string) (Reply, error)
}

// HTTPClient calls the assistant REST API:
//
//	POST {base}/chat  {"workflow_id": "...", "message": "..."}
//
// Action payloads from language models are frequently almost-JSON, so the
// actions array is decoded leniently; entries that cannot be recovered are
// dropped with a log line rather than failing the whole reply.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
}

var _ Client = (*HTTPClient)(nil)

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient sets the HTTP client used for assistant requests.
func WithHTTPClient(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpc = client
		}
	}
}

// NewHTTPClient creates an assistant client against baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Assistant turns run a language model; allow them time.
		httpc: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendChatMessage implements Client.
func (c *HTTPClient) SendChatMessage(ctx context.Context, workflowID, message string) (Reply, error) {
	payload, err := json.Marshal(struct {
		WorkflowID string `json:"workflow_id"`
		Message    string `json:"message"`
	}{WorkflowID: workflowID, Message: message})
	if err != nil {
		return Reply{}, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return Reply{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Reply{}, fmt.Errorf("chat request: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Message string          `json:"message"`
		Actions json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Model-generated payloads are frequently almost-JSON. Try to
		// repair before giving up.
		repaired, repairErr := jsonrepair.JSONRepair(string(body))
		if repairErr != nil {
			return Reply{}, fmt.Errorf("decode chat response: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &envelope); err != nil {
			return Reply{}, fmt.Errorf("decode chat response: %w", err)
		}
	}

	reply := Reply{Message: envelope.Message}
	if len(envelope.Actions) > 0 && string(envelope.Actions) != "null" {
		actions, err := action.DecodeLenient(envelope.Actions)
		if err != nil {
			slog.Warn("discarding undecodable assistant actions",
				"workflow_id", workflowID,
				"error", err)
		} else {
			reply.Actions = actions
		}
	}

	if reply.Message == "" && len(reply.Actions) == 0 {
		return Reply{}, ErrEmptyReply
	}
	return reply, nil
}
