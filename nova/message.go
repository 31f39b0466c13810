// Package nova adapts Amazon Bedrock's Nova model family to an agent-style
// model interface: plain and streaming invocation, tool calling, and
// token-usage accounting.
package nova

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Part is one piece of model input or output. Concrete types are TextPart,
// ToolCallPart and ToolReturnPart.
type Part interface {
	partKind() string
}

// TextPart is plain text produced by or sent to the model.
type TextPart struct {
	Text string
}

func (TextPart) partKind() string { return "text" }

// ToolCallPart is a tool invocation requested by the model.
type ToolCallPart struct {
	// ID is the tool-use identifier assigned by the service; it must be
	// echoed back with the matching ToolReturnPart.
	ID   string
	Name string
	// Args holds the call arguments as raw JSON. The service may deliver
	// arguments either as an object or as a JSON-encoded string; use ArgsMap
	// to decode both forms.
	Args json.RawMessage
}

func (ToolCallPart) partKind() string { return "tool_call" }

// ArgsMap decodes the call arguments. String-wrapped JSON payloads are
// unwrapped first.
func (p ToolCallPart) ArgsMap() (map[string]any, error) {
	raw := p.Args
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	// Arguments sometimes arrive as a JSON string containing JSON.
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = json.RawMessage(asString)
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, errors.Wrapf(err, "decode tool args for %q", p.Name)
	}
	return args, nil
}

// ToolReturnPart carries a tool's result back to the model.
type ToolReturnPart struct {
	ID      string
	Name    string
	Content string
	// IsError marks the result as a failure so the model can react to it.
	IsError bool
}

func (ToolReturnPart) partKind() string { return "tool_return" }

// Message is a single conversation turn.
type Message struct {
	Role  Role
	Parts []Part
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// ToolCalls returns the tool-call parts of the message, if any.
func (m Message) ToolCalls() []ToolCallPart {
	var calls []ToolCallPart
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// UserMessage builds a single-part user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// SystemMessage builds a single-part system message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{TextPart{Text: text}}}
}

// AssistantMessage builds an assistant message from parts.
func AssistantMessage(parts ...Part) Message {
	return Message{Role: RoleAssistant, Parts: parts}
}

// ToolReturnMessage builds a tool-result turn for the given call.
func ToolReturnMessage(callID, name, content string, isError bool) Message {
	return Message{Role: RoleTool, Parts: []Part{ToolReturnPart{
		ID:      callID,
		Name:    name,
		Content: content,
		IsError: isError,
	}}}
}
