package foundry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrNoMessage is returned when a thread has no message matching the filter.
var ErrNoMessage = errors.New("foundry: no matching message in thread")

// CreateAgent registers a new agent on the platform.
func (c *Client) CreateAgent(ctx context.Context, params AgentParams) (Agent, error) {
	if params.Model == "" {
		return Agent{}, errors.New("foundry: agent model is required")
	}
	var agent Agent
	if err := c.doJSON(ctx, http.MethodPost, "/assistants", params, &agent); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// GetAgent fetches an agent by id.
func (c *Client) GetAgent(ctx context.Context, agentID string) (Agent, error) {
	if agentID == "" {
		return Agent{}, errors.New("foundry: agent id is required")
	}
	var agent Agent
	if err := c.doJSON(ctx, http.MethodGet, "/assistants/"+url.PathEscape(agentID), nil, &agent); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// DeleteAgent removes an agent. Deleting an already-deleted agent returns
// the platform's not-found error.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return errors.New("foundry: agent id is required")
	}
	return c.doJSON(ctx, http.MethodDelete, "/assistants/"+url.PathEscape(agentID), nil, nil)
}

// GetConnection resolves a project connection by name.
func (c *Client) GetConnection(ctx context.Context, name string) (Connection, error) {
	if name == "" {
		return Connection{}, errors.New("foundry: connection name is required")
	}
	var conn Connection
	if err := c.doJSON(ctx, http.MethodGet, "/connections/"+url.PathEscape(name), nil, &conn); err != nil {
		return Connection{}, err
	}
	return conn, nil
}

// CreateThread opens a new conversation thread.
func (c *Client) CreateThread(ctx context.Context) (Thread, error) {
	var thread Thread
	if err := c.doJSON(ctx, http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
		return Thread{}, err
	}
	return thread, nil
}

// DeleteThread removes a thread and its messages.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	if threadID == "" {
		return errors.New("foundry: thread id is required")
	}
	return c.doJSON(ctx, http.MethodDelete, "/threads/"+url.PathEscape(threadID), nil, nil)
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (Message, error) {
	if threadID == "" {
		return Message{}, errors.New("foundry: thread id is required")
	}
	if role == "" || content == "" {
		return Message{}, errors.New("foundry: message role and content are required")
	}
	in := struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: role, Content: content}
	var wire wireMessage
	if err := c.doJSON(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", in, &wire); err != nil {
		return Message{}, err
	}
	return wire.decode(), nil
}

// GetLastMessageByRole returns the newest message in the thread authored by
// role, or ErrNoMessage when none exists.
func (c *Client) GetLastMessageByRole(ctx context.Context, threadID, role string) (Message, error) {
	if threadID == "" {
		return Message{}, errors.New("foundry: thread id is required")
	}
	if role == "" {
		return Message{}, errors.New("foundry: role is required")
	}
	var page struct {
		Data []wireMessage `json:"data"`
	}
	path := "/threads/" + url.PathEscape(threadID) + "/messages?order=desc&limit=50"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return Message{}, err
	}
	for _, wire := range page.Data {
		if wire.Role == role {
			return wire.decode(), nil
		}
	}
	return Message{}, fmt.Errorf("%w: role %q", ErrNoMessage, role)
}
