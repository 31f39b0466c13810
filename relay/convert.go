package relay

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"github.com/fuchsia74/nova-agent/nova"
)

// convertMessages maps OpenAI-style chat messages onto nova conversation
// turns. Tool-role messages must reference the call they answer.
func convertMessages(in []ChatMessage) ([]nova.Message, error) {
	out := make([]nova.Message, 0, len(in))
	for i, msg := range in {
		switch msg.Role {
		case "system":
			out = append(out, nova.SystemMessage(msg.Content))
		case "user":
			out = append(out, nova.UserMessage(msg.Content))
		case "assistant":
			var parts []nova.Part
			if msg.Content != "" {
				parts = append(parts, nova.TextPart{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, nova.ToolCallPart{
					ID:   call.ID,
					Name: call.Function.Name,
					Args: json.RawMessage(call.Function.Arguments),
				})
			}
			out = append(out, nova.AssistantMessage(parts...))
		case "tool":
			if msg.ToolCallID == "" {
				return nil, errors.Errorf("messages[%d]: tool message requires tool_call_id", i)
			}
			out = append(out, nova.ToolReturnMessage(msg.ToolCallID, msg.Name, msg.Content, false))
		default:
			return nil, errors.Errorf("messages[%d]: unsupported role %q", i, msg.Role)
		}
	}
	return out, nil
}

func convertTools(in []ChatTool) []nova.ToolDefinition {
	if len(in) == 0 {
		return nil
	}
	defs := make([]nova.ToolDefinition, 0, len(in))
	for _, tool := range in {
		defs = append(defs, nova.ToolDefinition{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			Parameters:  tool.Function.Parameters,
		})
	}
	return defs
}

func convertToolCallParts(calls []nova.ToolCallPart) []ChatToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ChatToolCall, 0, len(calls))
	for _, call := range calls {
		args := string(call.Args)
		if args == "" {
			args = "{}"
		}
		out = append(out, ChatToolCall{
			ID:   call.ID,
			Type: "function",
			Function: ChatFunctionCall{
				Name:      call.Name,
				Arguments: args,
			},
		})
	}
	return out
}

// convertStopReason maps Bedrock stop reasons to OpenAI finish reasons.
// Unknown values pass through unchanged.
func convertStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence", "stop":
		return "stop"
	case "max_tokens", "length":
		return "length"
	case "content_filtered":
		return "content_filter"
	case "tool_use":
		return "tool_calls"
	case "":
		return "stop"
	default:
		return reason
	}
}
