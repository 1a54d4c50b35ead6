package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	modelpkg "github.com/cexll/foundrykit/pkg/model"
)

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Model: "claude-sonnet-4-20250514"})
	require.Error(t, err)
	_, err = New(Config{APIKey: "key"})
	require.Error(t, err)
}

func TestGenerateRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		var payload struct {
			Model     string           `json:"model"`
			MaxTokens int              `json:"max_tokens"`
			System    []map[string]any `json:"system"`
			Messages  []map[string]any `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.NotZero(t, payload.MaxTokens)
		require.Len(t, payload.System, 1)
		require.Len(t, payload.Messages, 1)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant",
			"model": "claude-sonnet-4-20250514", "stop_reason": "end_turn",
			"content": [{"type": "text", "text": "structured report"}],
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	m, err := New(Config{APIKey: "test-key", Model: "claude-sonnet-4-20250514", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := m.Generate(context.Background(), []modelpkg.Message{
		{Role: "system", Content: "You are an expert technical writer."},
		{Role: "user", Content: "Summarize this."},
	})
	require.NoError(t, err)
	require.Equal(t, "assistant", reply.Role)
	require.Equal(t, "structured report", reply.Content)
}

func TestConvertMessagesSplitsSystemBlocks(t *testing.T) {
	system, params := convertMessages([]modelpkg.Message{
		{Role: "system", Content: "instructions"},
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer", ToolCalls: []modelpkg.ToolCall{{ID: "tc_1", Name: "search", Arguments: map[string]any{"q": "x"}}}},
		{Role: "tool", Content: "found it", ToolCallID: "tc_1"},
	})
	require.Len(t, system, 1)
	require.Len(t, params, 3)
}

func TestConvertMessagesNeverEmpty(t *testing.T) {
	_, params := convertMessages(nil)
	require.Len(t, params, 1)
}

func TestConvertToolsSkipsUnnamed(t *testing.T) {
	tools := convertTools([]modelpkg.ToolDefinition{
		{Name: "", Description: "dropped"},
		{Name: "search", Description: "kept", Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"q": map[string]any{"type": "string"}},
		}},
	})
	require.Len(t, tools, 1)
}
