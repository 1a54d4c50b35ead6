package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cexll/foundrykit/pkg/model"
)

// scriptedModel replays canned replies in order.
type scriptedModel struct {
	replies []model.Message
	calls   int
	lastMsg []model.Message
}

func (m *scriptedModel) Generate(ctx context.Context, messages []model.Message) (model.Message, error) {
	return m.GenerateWithTools(ctx, messages, nil)
}

func (m *scriptedModel) GenerateWithTools(ctx context.Context, messages []model.Message, tools []model.ToolDefinition) (model.Message, error) {
	m.lastMsg = messages
	if m.calls >= len(m.replies) {
		return model.Message{}, errors.New("no scripted reply left")
	}
	reply := m.replies[m.calls]
	m.calls++
	return reply, nil
}

func menuPlugin(t *testing.T) Plugin {
	t.Helper()
	p, err := NewFuncPlugin("get_specials", "Provides a list of specials from the menu.", nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			return "Special Soup: Clam Chowder", nil
		})
	if err != nil {
		t.Fatalf("new plugin: %v", err)
	}
	return p
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Model: &scriptedModel{}}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := New(Config{Name: "a"}); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestRespondPlainAnswer(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{{Role: "assistant", Content: "a haiku"}}}
	ag, err := New(Config{Name: "SK-Assistant", Instructions: "You are a helpful assistant.", Model: m})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	resp, err := ag.Respond(context.Background(), "Write a haiku.")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Content != "a haiku" {
		t.Fatalf("content: %q", resp.Content)
	}
	if len(m.lastMsg) != 2 || m.lastMsg[0].Role != "system" {
		t.Fatalf("system instructions not sent: %+v", m.lastMsg)
	}
}

func TestRespondResolvesPluginCalls(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{
		{Role: "assistant", ToolCalls: []model.ToolCall{{ID: "tc_1", Name: "get_specials", Arguments: map[string]any{}}}},
		{Role: "assistant", Content: "Today's soup is Clam Chowder."},
	}}
	ag, err := New(Config{Name: "menu", Model: m, Plugins: []Plugin{menuPlugin(t)}})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	resp, err := ag.Respond(context.Background(), "What is the soup special?")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Content != "Today's soup is Clam Chowder." {
		t.Fatalf("content: %q", resp.Content)
	}
	if len(resp.Invocations) != 1 || resp.Invocations[0].Plugin != "get_specials" {
		t.Fatalf("invocations: %+v", resp.Invocations)
	}
	// The tool result must have been appended for the second round.
	last := m.lastMsg[len(m.lastMsg)-1]
	if last.Role != "tool" || last.ToolCallID != "tc_1" {
		t.Fatalf("tool result not threaded back: %+v", last)
	}
}

func TestRespondPluginErrorFedBack(t *testing.T) {
	failing, _ := NewFuncPlugin("boom", "always fails", nil,
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("no backend")
		})
	m := &scriptedModel{replies: []model.Message{
		{Role: "assistant", ToolCalls: []model.ToolCall{{ID: "tc_1", Name: "boom"}}},
		{Role: "assistant", Content: "I could not complete that."},
	}}
	ag, _ := New(Config{Name: "x", Model: m, Plugins: []Plugin{failing}})
	resp, err := ag.Respond(context.Background(), "try")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Invocations[0].Err == nil {
		t.Fatal("invocation error not recorded")
	}
	last := m.lastMsg[len(m.lastMsg)-1]
	if !strings.Contains(last.Content, "no backend") {
		t.Fatalf("error not surfaced to model: %q", last.Content)
	}
}

func TestRespondMaxRoundsExceeded(t *testing.T) {
	loop := model.Message{Role: "assistant", ToolCalls: []model.ToolCall{{ID: "tc", Name: "get_specials"}}}
	m := &scriptedModel{replies: []model.Message{loop, loop, loop}}
	ag, _ := New(Config{Name: "x", Model: m, Plugins: []Plugin{menuPlugin(t)}, MaxRounds: 2})
	if _, err := ag.Respond(context.Background(), "loop"); err == nil {
		t.Fatal("expected max rounds error")
	}
}

func TestHooksObserveInvocations(t *testing.T) {
	var order []string
	hook := HookFuncs{
		Before: func(ctx context.Context, plugin string, args map[string]any) {
			order = append(order, "before:"+plugin)
		},
		After: func(ctx context.Context, plugin string, result string, err error) {
			order = append(order, fmt.Sprintf("after:%s:%s", plugin, result))
		},
	}
	m := &scriptedModel{replies: []model.Message{
		{Role: "assistant", ToolCalls: []model.ToolCall{{ID: "tc_1", Name: "get_specials"}}},
		{Role: "assistant", Content: "done"},
	}}
	ag, _ := New(Config{Name: "x", Model: m, Plugins: []Plugin{menuPlugin(t)}, Hooks: []Hook{hook}})
	if _, err := ag.Respond(context.Background(), "specials?"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(order) != 2 || order[0] != "before:get_specials" || !strings.HasPrefix(order[1], "after:get_specials:") {
		t.Fatalf("hook order: %v", order)
	}
}

func TestHandoffBetweenAgents(t *testing.T) {
	billingModel := &scriptedModel{replies: []model.Message{
		{Role: "assistant", Content: "Your invoice doubled because of a plan change."},
	}}
	billing, err := New(Config{
		Name:         "BillingAgent",
		Instructions: "You handle billing questions.",
		Model:        billingModel,
	})
	if err != nil {
		t.Fatalf("billing agent: %v", err)
	}

	triageModel := &scriptedModel{replies: []model.Message{
		{Role: "assistant", ToolCalls: []model.ToolCall{{
			ID:        "tc_1",
			Name:      "BillingAgent",
			Arguments: map[string]any{"messages": "Why did my invoice double?"},
		}}},
		{Role: "assistant", Content: "BillingAgent says: plan change."},
	}}
	triage, err := New(Config{
		Name:         "TriageAgent",
		Instructions: "Forward requests to the right specialist.",
		Model:        triageModel,
		Plugins:      []Plugin{AsPlugin(billing)},
	})
	if err != nil {
		t.Fatalf("triage agent: %v", err)
	}

	resp, err := triage.Respond(context.Background(), "Why did my invoice double?")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Content != "BillingAgent says: plan change." {
		t.Fatalf("content: %q", resp.Content)
	}
	if resp.Invocations[0].Result != "Your invoice doubled because of a plan change." {
		t.Fatalf("hand-off result: %+v", resp.Invocations[0])
	}
}

func TestHandoffRequiresMessagesArg(t *testing.T) {
	inner, _ := New(Config{Name: "x", Model: &scriptedModel{}})
	p := AsPlugin(inner)
	if _, err := p.Invoke(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error for missing messages argument")
	}
}
