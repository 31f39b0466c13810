package nova

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAgentModel(t *testing.T, params AgentModelParams) *AgentModel {
	t.Helper()
	m := &Model{alias: "nova-micro", modelID: "amazon.nova-micro-v1:0", maxTokens: 2048}
	am, err := m.AgentModel(params)
	require.NoError(t, err)
	return am
}

func TestBuildRequestBasicConversation(t *testing.T) {
	am := newTestAgentModel(t, AgentModelParams{AllowTextResult: true})

	req, err := am.buildRequest([]Message{
		SystemMessage("You are a helpful assistant."),
		UserMessage("Hi"),
		AssistantMessage(TextPart{Text: "Hello!"}),
		UserMessage("What can you do?"),
	}, nil)
	require.NoError(t, err)

	require.Len(t, req.System, 1)
	require.Equal(t, "You are a helpful assistant.", req.System[0].Text)

	require.Len(t, req.Messages, 3)
	require.Equal(t, "user", req.Messages[0].Role)
	require.Equal(t, "Hi", req.Messages[0].Content[0].Text)
	require.Equal(t, "assistant", req.Messages[1].Role)
	require.Equal(t, "user", req.Messages[2].Role)

	require.NotNil(t, req.InferenceConfig)
	require.Equal(t, 2048, req.InferenceConfig.MaxTokens)
	require.Nil(t, req.ToolConfig)
}

func TestBuildRequestEmptyConversationGetsPlaceholder(t *testing.T) {
	am := newTestAgentModel(t, AgentModelParams{AllowTextResult: true})

	req, err := am.buildRequest([]Message{SystemMessage("sys only")}, nil)
	require.NoError(t, err)

	require.Len(t, req.Messages, 1)
	require.Equal(t, "user", req.Messages[0].Role)
	require.Equal(t, "Hello", req.Messages[0].Content[0].Text)
}

func TestBuildRequestToolResultsTravelAsUserContent(t *testing.T) {
	am := newTestAgentModel(t, AgentModelParams{AllowTextResult: true})

	req, err := am.buildRequest([]Message{
		UserMessage("weather in tokyo?"),
		AssistantMessage(ToolCallPart{
			ID:   "tooluse_1",
			Name: "get_weather",
			Args: json.RawMessage(`{"city":"tokyo"}`),
		}),
		ToolReturnMessage("tooluse_1", "get_weather", "sunny", false),
	}, nil)
	require.NoError(t, err)

	require.Len(t, req.Messages, 3)

	assistant := req.Messages[1]
	require.Equal(t, "assistant", assistant.Role)
	require.NotNil(t, assistant.Content[0].ToolUse)
	require.Equal(t, "tooluse_1", assistant.Content[0].ToolUse.ToolUseID)
	require.Equal(t, "get_weather", assistant.Content[0].ToolUse.Name)

	toolTurn := req.Messages[2]
	require.Equal(t, "user", toolTurn.Role)
	require.NotNil(t, toolTurn.Content[0].ToolResult)
	require.Equal(t, "tooluse_1", toolTurn.Content[0].ToolResult.ToolUseID)
	require.Equal(t, "sunny", toolTurn.Content[0].ToolResult.Content[0].Text)
	require.Empty(t, toolTurn.Content[0].ToolResult.Status)
}

func TestBuildRequestErroredToolResultCarriesStatus(t *testing.T) {
	am := newTestAgentModel(t, AgentModelParams{AllowTextResult: true})

	req, err := am.buildRequest([]Message{
		UserMessage("hi"),
		ToolReturnMessage("tooluse_2", "broken", "boom", true),
	}, nil)
	require.NoError(t, err)

	toolTurn := req.Messages[1]
	require.Equal(t, "error", toolTurn.Content[0].ToolResult.Status)
}

func TestBuildRequestToolChoiceForcedWhenTextDisallowed(t *testing.T) {
	def := ToolDefinition{Name: "final_result"}

	am := newTestAgentModel(t, AgentModelParams{ResultTools: []ToolDefinition{def}})
	req, err := am.buildRequest([]Message{UserMessage("go")}, nil)
	require.NoError(t, err)
	require.NotNil(t, req.ToolConfig)
	require.NotNil(t, req.ToolConfig.ToolChoice)
	require.NotNil(t, req.ToolConfig.ToolChoice.Any)

	am = newTestAgentModel(t, AgentModelParams{
		FunctionTools:   []ToolDefinition{def},
		AllowTextResult: true,
	})
	req, err = am.buildRequest([]Message{UserMessage("go")}, nil)
	require.NoError(t, err)
	require.NotNil(t, req.ToolConfig)
	require.Nil(t, req.ToolConfig.ToolChoice)
}

func TestBuildRequestEmptySchemaDefaulted(t *testing.T) {
	am := newTestAgentModel(t, AgentModelParams{
		FunctionTools:   []ToolDefinition{{Name: "ping"}},
		AllowTextResult: true,
	})
	req, err := am.buildRequest([]Message{UserMessage("go")}, nil)
	require.NoError(t, err)

	require.Len(t, req.ToolConfig.Tools, 1)
	require.JSONEq(t, `{"type":"object","properties":{}}`,
		string(req.ToolConfig.Tools[0].ToolSpec.InputSchema.JSON))
}

func TestBuildRequestSettingsOverrideDefaults(t *testing.T) {
	am := newTestAgentModel(t, AgentModelParams{AllowTextResult: true})

	temp := 0.5
	topP := 0.9
	topK := 40
	req, err := am.buildRequest([]Message{UserMessage("hi")}, &ModelSettings{
		MaxTokens:     512,
		Temperature:   &temp,
		TopP:          &topP,
		TopK:          &topK,
		StopSequences: []string{"\n\n"},
	})
	require.NoError(t, err)

	cfg := req.InferenceConfig
	require.Equal(t, 512, cfg.MaxTokens)
	require.Equal(t, 0.5, *cfg.Temperature)
	require.Equal(t, 0.9, *cfg.TopP)
	require.Equal(t, 40, *cfg.TopK)
	require.Equal(t, []string{"\n\n"}, cfg.StopSequences)
}

func TestParseOutput(t *testing.T) {
	parts := parseOutput(&wireOutput{Message: &wireOutputMessage{
		Role: "assistant",
		Content: []contentBlock{
			{Text: "Let me check."},
			{ToolUse: &toolUseBlock{
				ToolUseID: "tooluse_abc",
				Name:      "get_weather",
				Input:     json.RawMessage(`{"city":"tokyo"}`),
			}},
		},
	}})

	require.Len(t, parts, 2)
	require.Equal(t, TextPart{Text: "Let me check."}, parts[0])
	call, ok := parts[1].(ToolCallPart)
	require.True(t, ok)
	require.Equal(t, "tooluse_abc", call.ID)
	require.Equal(t, "get_weather", call.Name)
}

func TestParseOutputGeneratesMissingToolUseID(t *testing.T) {
	parts := parseOutput(&wireOutput{Message: &wireOutputMessage{
		Content: []contentBlock{
			{ToolUse: &toolUseBlock{Name: "get_weather"}},
		},
	}})

	require.Len(t, parts, 1)
	call := parts[0].(ToolCallPart)
	require.Contains(t, call.ID, "tooluse_")
}

func TestParseOutputNilMessage(t *testing.T) {
	require.Nil(t, parseOutput(nil))
	require.Nil(t, parseOutput(&wireOutput{}))
}

func TestArgsMapUnwrapsStringWrappedJSON(t *testing.T) {
	call := ToolCallPart{Name: "t", Args: json.RawMessage(`"{\"city\":\"tokyo\"}"`)}
	args, err := call.ArgsMap()
	require.NoError(t, err)
	require.Equal(t, "tokyo", args["city"])

	call = ToolCallPart{Name: "t", Args: json.RawMessage(`{"city":"osaka"}`)}
	args, err = call.ArgsMap()
	require.NoError(t, err)
	require.Equal(t, "osaka", args["city"])

	call = ToolCallPart{Name: "t"}
	args, err = call.ArgsMap()
	require.NoError(t, err)
	require.Empty(t, args)
}
