package nova

import "encoding/json"

// ToolDefinition describes a function tool the model may call. Parameters is
// a JSON Schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// AgentModelParams binds tool definitions and the text-result policy when
// deriving an AgentModel from a Model.
type AgentModelParams struct {
	FunctionTools []ToolDefinition
	ResultTools   []ToolDefinition
	// AllowTextResult permits plain text answers. When false the model is
	// steered to always answer through a tool.
	AllowTextResult bool
}

func mapToolDefinition(def ToolDefinition) toolEntry {
	schema := def.Parameters
	if len(schema) == 0 {
		schema = json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return toolEntry{ToolSpec: toolSpec{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: inputSchema{JSON: schema},
	}}
}
