package agent

import (
	"context"
	"fmt"
)

// handoffArg is the single argument a delegating agent fills in when
// forwarding work to a specialist.
const handoffArg = "messages"

// AsPlugin exposes an agent as a plugin so another agent can hand work off
// to it. The wrapping agent forwards the relevant part of the conversation
// through the "messages" argument and receives the specialist's answer as
// the plugin result.
func AsPlugin(a *Agent) Plugin {
	return &agentPlugin{target: a}
}

type agentPlugin struct {
	target *Agent
}

func (p *agentPlugin) Name() string { return p.target.Name() }

func (p *agentPlugin) Description() string {
	return fmt.Sprintf("Forward a request to the %s agent. %s", p.target.Name(), p.target.cfg.Instructions)
}

func (p *agentPlugin) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			handoffArg: map[string]any{
				"type":        "string",
				"description": "The request to forward to this agent.",
			},
		},
		"required": []string{handoffArg},
	}
}

func (p *agentPlugin) Invoke(ctx context.Context, args map[string]any) (string, error) {
	input, _ := args[handoffArg].(string)
	if input == "" {
		return "", fmt.Errorf("agent %s: hand-off requires a %q argument", p.target.Name(), handoffArg)
	}
	resp, err := p.target.Respond(ctx, input)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
