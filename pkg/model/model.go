// Package model defines the chat-completion abstraction used by the local
// agent layer and the report post-processor.
package model

import "context"

// Message is one turn in a chat-completion conversation.
type Message struct {
	Role    string
	Content string
	// ToolCalls carries calls requested by an assistant message.
	ToolCalls []ToolCall
	// ToolCallID binds a role "tool" message to the call it answers.
	ToolCallID string
}

// ToolCall is a structured tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolDefinition is the JSON-schema shaped tool description handed to
// backends that support tool calling.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Model is a unary chat-completion backend.
type Model interface {
	Generate(ctx context.Context, messages []Message) (Message, error)
}

// ModelWithTools is an optional interface for backends that support
// tool calling. The agent layer passes plugin schemas through it.
type ModelWithTools interface {
	Model
	GenerateWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error)
}

// Complete is a convenience for single text-in, text-out calls such as the
// report post-processor. The system message is omitted when empty.
func Complete(ctx context.Context, m Model, system, prompt string) (string, error) {
	var messages []Message
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})
	reply, err := m.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}
