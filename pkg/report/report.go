// Package report post-processes a run's final output into a structured
// report through a chat-completion backend.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cexll/foundrykit/pkg/model"
)

const systemPrompt = "You are an expert technical writer."

const defaultTemplate = `Given the agent's final research output below, produce:
1) A short executive summary (3 sentences).
2) Key findings (3-6 bullets).
3) Short list of the most-cited sources (if citations are inline, extract them).
4) A 2-sentence final recommendation.

=== Agent output start ===
%s
=== Agent output end ===
`

// Builder turns raw agent output into a structured report.
type Builder struct {
	completer model.Model
	template  string
}

// Option customizes a Builder.
type Option func(*Builder)

// WithTemplate overrides the report prompt. The template must contain exactly
// one %s verb for the agent output.
func WithTemplate(template string) Option {
	return func(b *Builder) {
		b.template = template
	}
}

// NewBuilder wires a Builder over the given completion backend.
func NewBuilder(completer model.Model, opts ...Option) (*Builder, error) {
	if completer == nil {
		return nil, errors.New("report: completer is required")
	}
	b := &Builder{completer: completer, template: defaultTemplate}
	for _, opt := range opts {
		opt(b)
	}
	if !strings.Contains(b.template, "%s") {
		return nil, errors.New("report: template needs a %s verb for the agent output")
	}
	return b, nil
}

// Build renders the prompt around raw and asks the backend for the report.
func (b *Builder) Build(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("report: agent output is empty")
	}
	prompt := fmt.Sprintf(b.template, raw)
	text, err := model.Complete(ctx, b.completer, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	return text, nil
}
