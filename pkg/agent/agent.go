// Package agent implements local chat-completion agents: a named system
// prompt over a model backend, with plugin invocation and agent-to-agent
// hand-off.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cexll/foundrykit/pkg/model"
)

const defaultMaxRounds = 8

// Config describes an agent.
type Config struct {
	Name         string
	Instructions string
	Model        model.Model
	Plugins      []Plugin
	Hooks        []Hook
	// MaxRounds bounds plugin-resolution round trips per Respond call.
	MaxRounds int
}

// Agent answers one input at a time, resolving plugin calls requested by the
// model until it produces plain text.
type Agent struct {
	cfg Config
}

// Invocation records one resolved plugin call.
type Invocation struct {
	Plugin string
	Args   map[string]any
	Result string
	Err    error
}

// Response is the final answer plus the plugin calls made on the way.
type Response struct {
	Agent       string
	Content     string
	Invocations []Invocation
}

// New validates cfg and builds an Agent.
func New(cfg Config) (*Agent, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, errors.New("agent: name is required")
	}
	if cfg.Model == nil {
		return nil, errors.New("agent: model is required")
	}
	if len(cfg.Plugins) > 0 {
		if _, ok := cfg.Model.(model.ModelWithTools); !ok {
			return nil, errors.New("agent: plugins require a tool-capable model")
		}
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	return &Agent{cfg: cfg}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.cfg.Name }

// Respond answers input, invoking plugins as the model requests them.
func (a *Agent) Respond(ctx context.Context, input string) (Response, error) {
	if ctx == nil {
		return Response{}, errors.New("agent: context is nil")
	}
	resp := Response{Agent: a.cfg.Name}

	messages := []model.Message{}
	if a.cfg.Instructions != "" {
		messages = append(messages, model.Message{Role: "system", Content: a.cfg.Instructions})
	}
	messages = append(messages, model.Message{Role: "user", Content: input})

	defs := toolDefinitions(a.cfg.Plugins)
	toolModel, _ := a.cfg.Model.(model.ModelWithTools)

	for round := 0; round < a.cfg.MaxRounds; round++ {
		var reply model.Message
		var err error
		if len(defs) > 0 {
			reply, err = toolModel.GenerateWithTools(ctx, messages, defs)
		} else {
			reply, err = a.cfg.Model.Generate(ctx, messages)
		}
		if err != nil {
			return resp, fmt.Errorf("agent %s: %w", a.cfg.Name, err)
		}
		if len(reply.ToolCalls) == 0 {
			resp.Content = reply.Content
			return resp, nil
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			result, invErr := a.invoke(ctx, call)
			resp.Invocations = append(resp.Invocations, Invocation{
				Plugin: call.Name,
				Args:   call.Arguments,
				Result: result,
				Err:    invErr,
			})
			content := result
			if invErr != nil {
				// The model sees plugin failures and may recover or rephrase.
				content = fmt.Sprintf("error: %v", invErr)
			}
			messages = append(messages, model.Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: call.ID,
			})
		}
	}
	return resp, fmt.Errorf("agent %s: plugin rounds exceeded %d", a.cfg.Name, a.cfg.MaxRounds)
}

func (a *Agent) invoke(ctx context.Context, call model.ToolCall) (string, error) {
	plugin, err := findPlugin(a.cfg.Plugins, call.Name)
	if err != nil {
		return "", err
	}
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	for _, h := range a.cfg.Hooks {
		h.BeforeInvoke(ctx, call.Name, args)
	}
	result, err := plugin.Invoke(ctx, args)
	for _, h := range a.cfg.Hooks {
		h.AfterInvoke(ctx, call.Name, result, err)
	}
	return result, err
}
