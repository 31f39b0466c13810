package agent

import (
	"context"
	"encoding/json"
)

// ToolFunc executes a tool call. Args is the raw JSON argument object the
// model produced; the returned string is handed back to the model verbatim.
type ToolFunc func(ctx context.Context, args json.RawMessage) (string, error)

// Tool is a function the model may invoke by name.
type Tool struct {
	Name        string
	Description string
	// Parameters is the JSON Schema for the argument object.
	Parameters json.RawMessage
	// Retries is how many times a failing execution is retried before the
	// error text is reported back to the model.
	Retries int
	Fn      ToolFunc
}
