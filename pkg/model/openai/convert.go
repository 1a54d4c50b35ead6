package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"

	modelpkg "github.com/cexll/foundrykit/pkg/model"
)

func convertMessages(messages []modelpkg.Message) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("openai: empty message list")
	}
	params := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for idx, msg := range messages {
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case "system":
			params = append(params, buildSystemMessage(msg.Content))
		case "", "user":
			params = append(params, buildUserMessage(msg.Content))
		case "assistant":
			param, err := buildAssistantMessage(msg)
			if err != nil {
				return nil, fmt.Errorf("messages[%d]: %w", idx, err)
			}
			params = append(params, param)
		case "tool":
			if msg.ToolCallID == "" {
				return nil, fmt.Errorf("messages[%d]: tool message missing tool_call_id", idx)
			}
			params = append(params, openaisdk.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, fmt.Errorf("messages[%d]: unsupported role %q", idx, msg.Role)
		}
	}
	return params, nil
}

func buildSystemMessage(content string) openaisdk.ChatCompletionMessageParamUnion {
	msg := openaisdk.ChatCompletionSystemMessageParam{}
	msg.Content.OfString = openaisdk.String(content)
	return openaisdk.ChatCompletionMessageParamUnion{OfSystem: &msg}
}

func buildUserMessage(content string) openaisdk.ChatCompletionMessageParamUnion {
	msg := openaisdk.ChatCompletionUserMessageParam{}
	msg.Content.OfString = openaisdk.String(content)
	return openaisdk.ChatCompletionMessageParamUnion{OfUser: &msg}
}

func buildAssistantMessage(msg modelpkg.Message) (openaisdk.ChatCompletionMessageParamUnion, error) {
	asst := openaisdk.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		asst.Content.OfString = openaisdk.String(msg.Content)
	}
	for idx, call := range msg.ToolCalls {
		if strings.TrimSpace(call.Name) == "" {
			return openaisdk.ChatCompletionMessageParamUnion{}, fmt.Errorf("tool_calls[%d]: missing name", idx)
		}
		asst.ToolCalls = append(asst.ToolCalls, openaisdk.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openaisdk.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openaisdk.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: encodeArguments(call.Arguments),
				},
			},
		})
	}
	return openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &asst}, nil
}

func convertTools(tools []modelpkg.ToolDefinition) []openaisdk.ChatCompletionToolUnionParam {
	out := make([]openaisdk.ChatCompletionToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		def := openaisdk.FunctionDefinitionParam{Name: tool.Name}
		if tool.Description != "" {
			def.Description = openaisdk.String(tool.Description)
		}
		if len(tool.Parameters) > 0 {
			def.Parameters = openaisdk.FunctionParameters(tool.Parameters)
		}
		out = append(out, openaisdk.ChatCompletionToolUnionParam{
			OfFunction: &openaisdk.ChatCompletionFunctionToolParam{Function: def},
		})
	}
	return out
}

func convertReply(msg openaisdk.ChatCompletionMessage) (modelpkg.Message, error) {
	role := strings.TrimSpace(string(msg.Role))
	if role == "" {
		role = "assistant"
	}
	content := msg.Content
	if content == "" && strings.TrimSpace(msg.Refusal) != "" {
		content = msg.Refusal
	}
	result := modelpkg.Message{Role: role, Content: content}

	for idx, call := range msg.ToolCalls {
		fn := call.AsFunction()
		if strings.TrimSpace(fn.Function.Name) == "" {
			return modelpkg.Message{}, fmt.Errorf("tool_calls[%d]: missing function name", idx)
		}
		args, err := decodeArguments(fn.Function.Arguments)
		if err != nil {
			return modelpkg.Message{}, fmt.Errorf("tool_calls[%d]: %w", idx, err)
		}
		result.ToolCalls = append(result.ToolCalls, modelpkg.ToolCall{
			ID:        fn.ID,
			Name:      fn.Function.Name,
			Arguments: args,
		})
	}
	return result, nil
}

func encodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeArguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	return args, nil
}
