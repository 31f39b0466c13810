package nova

import "encoding/json"

// Wire types for the Nova native request/response schema used by
// InvokeModel and InvokeModelWithResponseStream.
// https://docs.aws.amazon.com/nova/latest/userguide/complete-request-schema.html

type wireRequest struct {
	Messages        []wireMessage    `json:"messages"`
	System          []systemPrompt   `json:"system,omitempty"`
	InferenceConfig *inferenceConfig `json:"inferenceConfig,omitempty"`
	ToolConfig      *toolConfig      `json:"toolConfig,omitempty"`
}

type wireMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type systemPrompt struct {
	Text string `json:"text"`
}

// contentBlock is a union; exactly one field is set.
type contentBlock struct {
	Text       string           `json:"text,omitempty"`
	ToolUse    *toolUseBlock    `json:"toolUse,omitempty"`
	ToolResult *toolResultBlock `json:"toolResult,omitempty"`
}

type toolUseBlock struct {
	ToolUseID string          `json:"toolUseId"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input,omitempty"`
}

type toolResultBlock struct {
	ToolUseID string              `json:"toolUseId"`
	Content   []toolResultContent `json:"content"`
	Status    string              `json:"status,omitempty"`
}

type toolResultContent struct {
	Text string          `json:"text,omitempty"`
	JSON json.RawMessage `json:"json,omitempty"`
}

type inferenceConfig struct {
	MaxTokens     int      `json:"maxTokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
	TopK          *int     `json:"topK,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

type toolConfig struct {
	Tools      []toolEntry `json:"tools"`
	ToolChoice *toolChoice `json:"toolChoice,omitempty"`
}

type toolEntry struct {
	ToolSpec toolSpec `json:"toolSpec"`
}

type toolSpec struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema inputSchema `json:"inputSchema"`
}

type inputSchema struct {
	JSON json.RawMessage `json:"json"`
}

type toolChoice struct {
	Auto *struct{}      `json:"auto,omitempty"`
	Any  *struct{}      `json:"any,omitempty"`
	Tool *toolChoiceRef `json:"tool,omitempty"`
}

type toolChoiceRef struct {
	Name string `json:"name"`
}

type wireResponse struct {
	Output     *wireOutput `json:"output,omitempty"`
	StopReason string      `json:"stopReason,omitempty"`
	Usage      *wireUsage  `json:"usage,omitempty"`
}

type wireOutput struct {
	Message *wireOutputMessage `json:"message,omitempty"`
}

type wireOutputMessage struct {
	Role    string         `json:"role,omitempty"`
	Content []contentBlock `json:"content,omitempty"`
}

type wireUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Streaming chunk events. Each decoded chunk carries exactly one of these.
type streamChunk struct {
	MessageStart      *messageStartEvent      `json:"messageStart,omitempty"`
	ContentBlockStart *contentBlockStartEvent `json:"contentBlockStart,omitempty"`
	ContentBlockDelta *contentBlockDeltaEvent `json:"contentBlockDelta,omitempty"`
	ContentBlockStop  *contentBlockStopEvent  `json:"contentBlockStop,omitempty"`
	MessageStop       *messageStopEvent       `json:"messageStop,omitempty"`
	Metadata          *metadataEvent          `json:"metadata,omitempty"`
}

type messageStartEvent struct {
	Role string `json:"role,omitempty"`
}

type contentBlockStartEvent struct {
	Start             *blockStart `json:"start,omitempty"`
	ContentBlockIndex int         `json:"contentBlockIndex"`
}

type blockStart struct {
	ToolUse *toolUseBlock `json:"toolUse,omitempty"`
}

type contentBlockDeltaEvent struct {
	Delta             *blockDelta `json:"delta,omitempty"`
	ContentBlockIndex int         `json:"contentBlockIndex"`
}

type blockDelta struct {
	Text    string        `json:"text,omitempty"`
	ToolUse *toolUseDelta `json:"toolUse,omitempty"`
}

// toolUseDelta carries a fragment of the tool input JSON as a string; the
// fragments concatenate into the full argument object.
type toolUseDelta struct {
	Input string `json:"input,omitempty"`
}

type contentBlockStopEvent struct {
	ContentBlockIndex int `json:"contentBlockIndex"`
}

type messageStopEvent struct {
	StopReason string `json:"stopReason,omitempty"`
}

type metadataEvent struct {
	Usage *wireUsage `json:"usage,omitempty"`
}
