package anthropic

import (
	"encoding/json"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	modelpkg "github.com/cexll/foundrykit/pkg/model"
)

func convertMessages(messages []modelpkg.Message) ([]anthropicsdk.TextBlockParam, []anthropicsdk.MessageParam) {
	var systemBlocks []anthropicsdk.TextBlockParam
	params := make([]anthropicsdk.MessageParam, 0, len(messages))

	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		switch role {
		case "system":
			if strings.TrimSpace(msg.Content) != "" {
				systemBlocks = append(systemBlocks, anthropicsdk.TextBlockParam{Text: msg.Content})
			}
			continue
		case "tool":
			if block, ok := buildToolResultBlock(msg); ok {
				params = append(params, anthropicsdk.MessageParam{
					Role:    anthropicsdk.MessageParamRoleUser,
					Content: []anthropicsdk.ContentBlockParamUnion{block},
				})
			}
			continue
		case "assistant":
			params = append(params, anthropicsdk.MessageParam{
				Role:    anthropicsdk.MessageParamRoleAssistant,
				Content: buildAssistantBlocks(msg),
			})
			continue
		}
		content := msg.Content
		if content == "" {
			// The API rejects empty content blocks.
			content = "."
		}
		params = append(params, anthropicsdk.MessageParam{
			Role:    anthropicsdk.MessageParamRoleUser,
			Content: []anthropicsdk.ContentBlockParamUnion{anthropicsdk.NewTextBlock(content)},
		})
	}

	if len(params) == 0 {
		params = append(params, anthropicsdk.MessageParam{
			Role:    anthropicsdk.MessageParamRoleUser,
			Content: []anthropicsdk.ContentBlockParamUnion{anthropicsdk.NewTextBlock(".")},
		})
	}
	return systemBlocks, params
}

func buildAssistantBlocks(msg modelpkg.Message) []anthropicsdk.ContentBlockParamUnion {
	var blocks []anthropicsdk.ContentBlockParamUnion
	if msg.Content != "" {
		blocks = append(blocks, anthropicsdk.NewTextBlock(msg.Content))
	}
	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Name)
		id := strings.TrimSpace(call.ID)
		if name == "" || id == "" {
			continue
		}
		args := call.Arguments
		if args == nil {
			args = map[string]any{}
		}
		blocks = append(blocks, anthropicsdk.NewToolUseBlock(id, args, name))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, anthropicsdk.NewTextBlock("."))
	}
	return blocks
}

func buildToolResultBlock(msg modelpkg.Message) (anthropicsdk.ContentBlockParamUnion, bool) {
	id := strings.TrimSpace(msg.ToolCallID)
	if id == "" {
		return anthropicsdk.ContentBlockParamUnion{}, false
	}
	block := anthropicsdk.ToolResultBlockParam{
		ToolUseID: id,
		Content: []anthropicsdk.ToolResultBlockParamContentUnion{
			{OfText: &anthropicsdk.TextBlockParam{Text: msg.Content}},
		},
	}
	return anthropicsdk.ContentBlockParamUnion{OfToolResult: &block}, true
}

func convertTools(tools []modelpkg.ToolDefinition) []anthropicsdk.ToolUnionParam {
	out := make([]anthropicsdk.ToolUnionParam, 0, len(tools))
	for _, def := range tools {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			continue
		}
		tool := anthropicsdk.ToolParam{
			Name:        name,
			InputSchema: convertParameters(def.Parameters),
		}
		if def.Description != "" {
			tool.Description = anthropicsdk.String(def.Description)
		}
		out = append(out, anthropicsdk.ToolUnionParam{OfTool: &tool})
	}
	return out
}

func convertParameters(params map[string]any) anthropicsdk.ToolInputSchemaParam {
	if len(params) == 0 {
		// Default to an object schema when no explicit parameters are provided.
		return anthropicsdk.ToolInputSchemaParam{Type: "object"}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return anthropicsdk.ToolInputSchemaParam{Type: "object"}
	}
	var schema anthropicsdk.ToolInputSchemaParam
	if err := json.Unmarshal(data, &schema); err != nil {
		return anthropicsdk.ToolInputSchemaParam{Type: "object"}
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	return schema
}

func convertReply(msg anthropicsdk.Message) modelpkg.Message {
	result := modelpkg.Message{Role: string(msg.Role)}
	var textParts []string
	for _, block := range msg.Content {
		switch content := block.AsAny().(type) {
		case anthropicsdk.TextBlock:
			textParts = append(textParts, content.Text)
		case anthropicsdk.ToolUseBlock:
			result.ToolCalls = append(result.ToolCalls, modelpkg.ToolCall{
				ID:        content.ID,
				Name:      content.Name,
				Arguments: decodeToolInput(content.Input),
			})
		}
	}
	result.Content = strings.Join(textParts, "\n")
	if strings.TrimSpace(result.Role) == "" {
		result.Role = "assistant"
	}
	return result
}

func decodeToolInput(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]any{}
	}
	return args
}
