// Package anthropic backs the model abstraction with the official Anthropic SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	modelpkg "github.com/cexll/foundrykit/pkg/model"
	"github.com/cexll/foundrykit/pkg/telemetry"
)

const defaultMaxTokens = 4096

var _ modelpkg.ModelWithTools = (*Model)(nil)

// Config selects the model and credentials.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// Model wraps the official Anthropic SDK client.
type Model struct {
	client    *anthropicsdk.Client
	model     anthropicsdk.Model
	maxTokens int
}

// New builds a Model from cfg.
func New(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("anthropic: model name is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropicsdk.NewClient(opts...)
	return &Model{
		client:    &client,
		model:     anthropicsdk.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate performs a blocking call without tools.
func (m *Model) Generate(ctx context.Context, messages []modelpkg.Message) (modelpkg.Message, error) {
	return m.GenerateWithTools(ctx, messages, nil)
}

// GenerateWithTools performs a blocking call with tool definitions.
func (m *Model) GenerateWithTools(ctx context.Context, messages []modelpkg.Message, tools []modelpkg.ToolDefinition) (_ modelpkg.Message, err error) {
	ctx, span := telemetry.StartSpan(ctx, "model.anthropic.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", "anthropic"),
			attribute.String("llm.model", string(m.model)),
			attribute.Int("llm.tools_count", len(tools)),
		),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	systemBlocks, messageParams := convertMessages(messages)
	maxTokens := m.maxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     m.model,
		MaxTokens: int64(maxTokens),
		Messages:  messageParams,
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	message, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return modelpkg.Message{}, fmt.Errorf("anthropic: message create: %w", err)
	}
	return convertReply(*message), nil
}
