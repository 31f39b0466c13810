package nova

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"
)

// buildRequest converts conversation messages into the Nova wire schema.
// System turns feed the top-level system field; tool results travel inside
// user-role messages as toolResult blocks, per the Converse-style schema.
func (am *AgentModel) buildRequest(messages []Message, settings *ModelSettings) (*wireRequest, error) {
	req := &wireRequest{
		InferenceConfig: settings.inferenceConfig(am.model.maxTokens),
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			for _, part := range msg.Parts {
				if tp, ok := part.(TextPart); ok && tp.Text != "" {
					req.System = append(req.System, systemPrompt{Text: tp.Text})
				}
			}

		case RoleUser, RoleAssistant:
			blocks, err := contentBlocks(msg.Parts)
			if err != nil {
				return nil, err
			}
			if len(blocks) == 0 {
				continue
			}
			req.Messages = append(req.Messages, wireMessage{
				Role:    string(msg.Role),
				Content: blocks,
			})

		case RoleTool:
			// Tool results are delivered back as user content.
			blocks, err := contentBlocks(msg.Parts)
			if err != nil {
				return nil, err
			}
			if len(blocks) == 0 {
				continue
			}
			req.Messages = append(req.Messages, wireMessage{
				Role:    string(RoleUser),
				Content: blocks,
			})

		default:
			return nil, errors.Errorf("unsupported message role %q", msg.Role)
		}
	}

	// Bedrock rejects an empty messages list; inject a placeholder turn.
	if len(req.Messages) == 0 {
		req.Messages = append(req.Messages, wireMessage{
			Role:    string(RoleUser),
			Content: []contentBlock{{Text: "Hello"}},
		})
	}

	if len(am.tools) > 0 {
		cfg := &toolConfig{Tools: am.tools}
		if !am.allowTextResult {
			cfg.ToolChoice = &toolChoice{Any: &struct{}{}}
		}
		req.ToolConfig = cfg
	}

	return req, nil
}

func contentBlocks(parts []Part) ([]contentBlock, error) {
	var blocks []contentBlock
	for _, part := range parts {
		switch p := part.(type) {
		case TextPart:
			if p.Text != "" {
				blocks = append(blocks, contentBlock{Text: p.Text})
			}
		case ToolCallPart:
			input := p.Args
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			blocks = append(blocks, contentBlock{ToolUse: &toolUseBlock{
				ToolUseID: p.ID,
				Name:      p.Name,
				Input:     input,
			}})
		case ToolReturnPart:
			status := ""
			if p.IsError {
				status = "error"
			}
			blocks = append(blocks, contentBlock{ToolResult: &toolResultBlock{
				ToolUseID: p.ID,
				Content:   []toolResultContent{{Text: p.Content}},
				Status:    status,
			}})
		default:
			return nil, errors.Errorf("unsupported part type %T", part)
		}
	}
	return blocks, nil
}
