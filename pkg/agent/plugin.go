package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cexll/foundrykit/pkg/model"
)

// Plugin is a capability an agent may invoke while answering. Schema returns
// the JSON-schema object describing the invocation arguments.
type Plugin interface {
	Name() string
	Description() string
	Schema() map[string]any
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// FuncPlugin adapts a plain function into a Plugin.
type FuncPlugin struct {
	name        string
	description string
	schema      map[string]any
	fn          func(ctx context.Context, args map[string]any) (string, error)
}

// NewFuncPlugin wires a function as a plugin. A nil schema means the plugin
// takes no arguments.
func NewFuncPlugin(name, description string, schema map[string]any, fn func(ctx context.Context, args map[string]any) (string, error)) (*FuncPlugin, error) {
	if name == "" {
		return nil, errors.New("agent: plugin name is required")
	}
	if fn == nil {
		return nil, errors.New("agent: plugin function is required")
	}
	if schema == nil {
		schema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &FuncPlugin{name: name, description: description, schema: schema, fn: fn}, nil
}

func (p *FuncPlugin) Name() string           { return p.name }
func (p *FuncPlugin) Description() string    { return p.description }
func (p *FuncPlugin) Schema() map[string]any { return p.schema }

func (p *FuncPlugin) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return p.fn(ctx, args)
}

// toolDefinitions converts the plugin set into the schema list handed to a
// tool-capable model.
func toolDefinitions(plugins []Plugin) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(plugins))
	for _, p := range plugins {
		defs = append(defs, model.ToolDefinition{
			Name:        p.Name(),
			Description: p.Description(),
			Parameters:  p.Schema(),
		})
	}
	return defs
}

func findPlugin(plugins []Plugin, name string) (Plugin, error) {
	for _, p := range plugins {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("agent: no plugin named %q", name)
}
