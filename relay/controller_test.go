package relay_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fuchsia74/nova-agent/common/logger"
	"github.com/fuchsia74/nova-agent/nova"
	"github.com/fuchsia74/nova-agent/relay"
)

type fakeRequester struct {
	responses []*nova.Response
	params    nova.AgentModelParams
	model     string
	err       error
}

func (f *fakeRequester) Request(ctx context.Context, messages []nova.Message, settings *nova.ModelSettings) (*nova.Response, nova.Usage, error) {
	if f.err != nil {
		return nil, nova.Usage{Requests: 1, FailedRequests: 1}, f.err
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nova.Usage{
		RequestTokens:      12,
		ResponseTokens:     6,
		TotalTokens:        18,
		Requests:           1,
		SuccessfulRequests: 1,
	}, nil
}

func (f *fakeRequester) RequestStream(ctx context.Context, messages []nova.Message, settings *nova.ModelSettings) (nova.PartStream, error) {
	resp, usage, err := f.Request(ctx, messages, settings)
	if err != nil {
		return nil, err
	}
	parts := make(chan nova.Part, len(resp.Parts))
	for _, part := range resp.Parts {
		parts <- part
	}
	close(parts)
	return &fakeStream{parts: parts, usage: usage, stopReason: resp.StopReason}, nil
}

type fakeStream struct {
	parts      chan nova.Part
	usage      nova.Usage
	stopReason string
}

func (s *fakeStream) Parts() <-chan nova.Part { return s.parts }
func (s *fakeStream) Err() error              { return nil }
func (s *fakeStream) Usage() nova.Usage       { return s.usage }
func (s *fakeStream) StopReason() string      { return s.stopReason }
func (s *fakeStream) Close() error            { return nil }

func newTestEngine(fake *fakeRequester) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		gmw.SetLogger(c, logger.Logger)
		c.Next()
	})

	server := relay.NewServerWithBinder(func(ctx context.Context, model string, params nova.AgentModelParams) (nova.Requester, error) {
		fake.model = model
		fake.params = params
		return fake, nil
	})
	relay.SetRouter(engine, server)
	return engine
}

// closeNotifyRecorder adds the http.CloseNotifier method gin's c.Stream
// requires, which httptest.ResponseRecorder does not implement.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool { return r.closed }

func postChat(t *testing.T, engine *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
	engine.ServeHTTP(recorder, req)
	return recorder.ResponseRecorder
}

func TestChatCompletions(t *testing.T) {
	fake := &fakeRequester{responses: []*nova.Response{{
		Parts:      []nova.Part{nova.TextPart{Text: "Hello there!"}},
		StopReason: "end_turn",
		Timestamp:  time.Now(),
	}}}
	engine := newTestEngine(fake)

	recorder := postChat(t, engine, `{
		"model": "nova-micro",
		"messages": [
			{"role": "system", "content": "Be brief."},
			{"role": "user", "content": "Hi"}
		]
	}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "nova-micro", fake.model)

	var resp struct {
		Id      string `json:"id"`
		Object  string `json:"object"`
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens int `json:"prompt_tokens"`
			TotalTokens  int `json:"total_tokens"`
		} `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.Id, "chatcmpl-"))
	require.Equal(t, "chat.completion", resp.Object)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "assistant", resp.Choices[0].Message.Role)
	require.Equal(t, "Hello there!", resp.Choices[0].Message.Content)
	require.Equal(t, "stop", resp.Choices[0].FinishReason)
	require.Equal(t, 12, resp.Usage.PromptTokens)
	require.Equal(t, 18, resp.Usage.TotalTokens)
}

func TestChatCompletionsDefaultsModel(t *testing.T) {
	fake := &fakeRequester{responses: []*nova.Response{{
		Parts: []nova.Part{nova.TextPart{Text: "ok"}},
	}}}
	engine := newTestEngine(fake)

	recorder := postChat(t, engine, `{"messages": [{"role": "user", "content": "Hi"}]}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "nova-micro", fake.model)
}

func TestChatCompletionsToolCalls(t *testing.T) {
	fake := &fakeRequester{responses: []*nova.Response{{
		Parts: []nova.Part{nova.ToolCallPart{
			ID:   "tooluse_1",
			Name: "get_weather",
			Args: json.RawMessage(`{"city":"tokyo"}`),
		}},
		StopReason: "tool_use",
	}}}
	engine := newTestEngine(fake)

	recorder := postChat(t, engine, `{
		"model": "nova-micro",
		"messages": [{"role": "user", "content": "weather in tokyo?"}],
		"tools": [{
			"type": "function",
			"function": {
				"name": "get_weather",
				"description": "Get the weather for a city",
				"parameters": {"type": "object", "properties": {"city": {"type": "string"}}}
			}
		}]
	}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	// The tool definition reached the binder.
	require.Len(t, fake.params.FunctionTools, 1)
	require.Equal(t, "get_weather", fake.params.FunctionTools[0].Name)

	var resp struct {
		Choices []struct {
			Message struct {
				ToolCalls []struct {
					Id       string `json:"id"`
					Type     string `json:"type"`
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Equal(t, "tool_calls", resp.Choices[0].FinishReason)
	require.Len(t, resp.Choices[0].Message.ToolCalls, 1)
	call := resp.Choices[0].Message.ToolCalls[0]
	require.Equal(t, "tooluse_1", call.Id)
	require.Equal(t, "function", call.Type)
	require.Equal(t, "get_weather", call.Function.Name)
	require.JSONEq(t, `{"city":"tokyo"}`, call.Function.Arguments)
}

func TestChatCompletionsValidation(t *testing.T) {
	engine := newTestEngine(&fakeRequester{})

	for name, body := range map[string]string{
		"no messages":          `{"model": "nova-micro", "messages": []}`,
		"bad temperature":      `{"messages": [{"role": "user", "content": "x"}], "temperature": 1.5}`,
		"bad top_p":            `{"messages": [{"role": "user", "content": "x"}], "top_p": 0}`,
		"bad role":             `{"messages": [{"role": "wizard", "content": "x"}]}`,
		"tool without call id": `{"messages": [{"role": "tool", "content": "result"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			recorder := postChat(t, engine, body)
			require.Equal(t, http.StatusBadRequest, recorder.Code)

			var resp struct {
				Error struct {
					Type string `json:"type"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
			require.Equal(t, "invalid_request_error", resp.Error.Type)
		})
	}
}

func TestChatCompletionsUpstreamError(t *testing.T) {
	fake := &fakeRequester{err: context.DeadlineExceeded}
	engine := newTestEngine(fake)

	recorder := postChat(t, engine, `{"messages": [{"role": "user", "content": "Hi"}]}`)
	require.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestChatCompletionsStream(t *testing.T) {
	fake := &fakeRequester{responses: []*nova.Response{{
		Parts: []nova.Part{
			nova.TextPart{Text: "Hel"},
			nova.TextPart{Text: "lo"},
		},
		StopReason: "end_turn",
	}}}
	engine := newTestEngine(fake)

	recorder := postChat(t, engine, `{
		"model": "nova-micro",
		"messages": [{"role": "user", "content": "Hi"}],
		"stream": true
	}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Header().Get("Content-Type"), "text/event-stream")

	body := recorder.Body.String()
	require.True(t, strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]"))

	var deltas []string
	var finishReasons []string
	var lastUsageTotal int
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") || line == "data: [DONE]" {
			continue
		}
		var chunk struct {
			Object  string `json:"object"`
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason *string `json:"finish_reason"`
			} `json:"choices"`
			Usage *struct {
				TotalTokens int `json:"total_tokens"`
			} `json:"usage"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk))
		require.Equal(t, "chat.completion.chunk", chunk.Object)
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				deltas = append(deltas, choice.Delta.Content)
			}
			if choice.FinishReason != nil {
				finishReasons = append(finishReasons, *choice.FinishReason)
			}
		}
		if chunk.Usage != nil {
			lastUsageTotal = chunk.Usage.TotalTokens
		}
	}

	require.Equal(t, []string{"Hel", "lo"}, deltas)
	require.Equal(t, []string{"stop"}, finishReasons)
	require.Equal(t, 18, lastUsageTotal)
}

func TestListModels(t *testing.T) {
	engine := newTestEngine(&fakeRequester{})

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Object string `json:"object"`
		Data   []struct {
			Id      string `json:"id"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Equal(t, "list", resp.Object)
	require.NotEmpty(t, resp.Data)

	ids := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		ids = append(ids, m.Id)
		require.Equal(t, "amazon", m.OwnedBy)
	}
	require.Contains(t, ids, "nova-micro")
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(&fakeRequester{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "ok")
}
