package relay

import "encoding/json"

// OpenAI-compatible request/response shapes for /v1/chat/completions.

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages" binding:"required,min=1,dive"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens" binding:"omitempty,min=0"`
	Temperature *float64      `json:"temperature" binding:"omitempty,min=0,max=1"`
	TopP        *float64      `json:"top_p" binding:"omitempty,gt=0,max=1"`
	TopK        *int          `json:"top_k" binding:"omitempty,gt=0"`
	// Stop accepts a string or a list of strings, as OpenAI does.
	Stop  any        `json:"stop,omitempty"`
	Tools []ChatTool `json:"tools,omitempty" binding:"omitempty,dive"`
}

// StopSequences normalizes the polymorphic stop field.
func (r *ChatRequest) StopSequences() []string {
	switch v := r.Stop.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		seqs := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				seqs = append(seqs, s)
			}
		}
		return seqs
	case []string:
		return v
	default:
		return nil
	}
}

type ChatMessage struct {
	Role       string         `json:"role" binding:"required,oneof=system user assistant tool"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []ChatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type ChatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ChatFunctionCall `json:"function"`
}

type ChatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ChatTool struct {
	Type     string       `json:"type" binding:"omitempty,oneof=function"`
	Function ChatFunction `json:"function" binding:"required"`
}

type ChatFunction struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type ChatCompletion struct {
	Id      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage,omitempty"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatCompletionChunk struct {
	Id      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *ChatUsage    `json:"usage,omitempty"`
}

type ChunkChoice struct {
	Index        int          `json:"index"`
	Delta        DeltaMessage `json:"delta"`
	FinishReason *string      `json:"finish_reason,omitempty"`
}

type DeltaMessage struct {
	Role      string         `json:"role,omitempty"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []ChatToolCall `json:"tool_calls,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// ModelList is the /v1/models response.
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

type ModelInfo struct {
	Id      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}
