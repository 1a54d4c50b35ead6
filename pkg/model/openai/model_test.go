package openai

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
	_, err := New(Config{Model: "gpt-4o"})
	require.Error(t, err)
	_, err = New(Config{APIKey: "key"})
	require.Error(t, err)
}

func TestGenerateRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var payload struct {
			Model    string           `json:"model"`
			Messages []map[string]any `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "gpt-4o", payload.Model)
		require.Len(t, payload.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "a haiku"}}]
		}`))
	}))
	defer srv.Close()

	m, err := New(Config{APIKey: "test-key", Model: "gpt-4o", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := m.Generate(context.Background(), []modelpkg.Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "Write a haiku."},
	})
	require.NoError(t, err)
	require.Equal(t, "assistant", reply.Role)
	require.Equal(t, "a haiku", reply.Content)
	require.Empty(t, reply.ToolCalls)
}

func TestGenerateWithToolsDecodesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Tools []map[string]any `json:"tools"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Tools, 1)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-2",
			"object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "tool_calls",
				"message": {"role": "assistant", "content": "",
					"tool_calls": [{"id": "call_1", "type": "function",
						"function": {"name": "get_item_price", "arguments": "{\"menu_item\":\"soup\"}"}}]}}]
		}`))
	}))
	defer srv.Close()

	m, err := New(Config{APIKey: "test-key", Model: "gpt-4o", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := m.GenerateWithTools(context.Background(),
		[]modelpkg.Message{{Role: "user", Content: "price of the soup special?"}},
		[]modelpkg.ToolDefinition{{
			Name:        "get_item_price",
			Description: "Provides the price of the requested menu item.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"menu_item": map[string]any{"type": "string"}},
				"required":   []string{"menu_item"},
			},
		}},
	)
	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	require.Equal(t, "call_1", reply.ToolCalls[0].ID)
	require.Equal(t, "get_item_price", reply.ToolCalls[0].Name)
	require.Equal(t, "soup", reply.ToolCalls[0].Arguments["menu_item"])
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	m, err := New(Config{APIKey: "bad-key", Model: "gpt-4o", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), []modelpkg.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
}

func TestConvertMessagesRejectsBadToolMessage(t *testing.T) {
	_, err := convertMessages([]modelpkg.Message{{Role: "tool", Content: "result"}})
	require.Error(t, err)
	_, err = convertMessages(nil)
	require.Error(t, err)
}
