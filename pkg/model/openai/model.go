// Package openai backs the model abstraction with the official OpenAI SDK,
// including Azure-hosted deployments.
package openai

import (
	"context"
	"errors"
	"fmt"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	modelpkg "github.com/cexll/foundrykit/pkg/model"
	"github.com/cexll/foundrykit/pkg/telemetry"
)

var _ modelpkg.ModelWithTools = (*Model)(nil)

// Config selects the deployment and credentials.
type Config struct {
	APIKey string
	// Model is the model name, or the deployment name on Azure.
	Model string
	// BaseURL overrides the public API endpoint (ignored when Endpoint set).
	BaseURL string
	// Endpoint, when set, switches the client into Azure mode with APIVersion.
	Endpoint   string
	APIVersion string
	MaxTokens  int
}

// Model wraps the official OpenAI SDK client.
type Model struct {
	client    openaisdk.Client
	model     string
	maxTokens int
}

// New builds a Model from cfg.
func New(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai: model name is required")
	}
	var opts []option.RequestOption
	if cfg.Endpoint != "" {
		apiVersion := cfg.APIVersion
		if apiVersion == "" {
			apiVersion = "2024-06-01"
		}
		opts = append(opts, azure.WithEndpoint(cfg.Endpoint, apiVersion), azure.WithAPIKey(cfg.APIKey))
	} else {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
	}
	return &Model{
		client:    openaisdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate performs a blocking call without tools.
func (m *Model) Generate(ctx context.Context, messages []modelpkg.Message) (modelpkg.Message, error) {
	return m.GenerateWithTools(ctx, messages, nil)
}

// GenerateWithTools performs a blocking call with tool definitions.
func (m *Model) GenerateWithTools(ctx context.Context, messages []modelpkg.Message, tools []modelpkg.ToolDefinition) (_ modelpkg.Message, err error) {
	ctx, span := telemetry.StartSpan(ctx, "model.openai.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", "openai"),
			attribute.String("llm.model", m.model),
			attribute.Int("llm.tools_count", len(tools)),
		),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	messageParams, err := convertMessages(messages)
	if err != nil {
		return modelpkg.Message{}, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: messageParams,
		Model:    m.model,
	}
	if m.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(m.maxTokens))
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return modelpkg.Message{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return modelpkg.Message{}, errors.New("openai: response contains no choices")
	}
	return convertReply(completion.Choices[0].Message)
}
