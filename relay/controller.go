package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/nova-agent/common"
	"github.com/fuchsia74/nova-agent/common/config"
	"github.com/fuchsia74/nova-agent/common/graceful"
	"github.com/fuchsia74/nova-agent/common/helper"
	"github.com/fuchsia74/nova-agent/common/random"
	"github.com/fuchsia74/nova-agent/nova"
)

// ChatCompletions handles POST /v1/chat/completions.
func (s *Server) ChatCompletions(c *gin.Context) {
	defer graceful.BeginRequest()()
	start := time.Now()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		recordRequest(req.Model, http.StatusBadRequest, time.Since(start).Seconds())
		return
	}
	if req.Model == "" {
		req.Model = config.DefaultModel
	}

	messages, err := convertMessages(req.Messages)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		recordRequest(req.Model, http.StatusBadRequest, time.Since(start).Seconds())
		return
	}

	requester, err := s.bind(gmw.Ctx(c), req.Model, nova.AgentModelParams{
		FunctionTools:   convertTools(req.Tools),
		AllowTextResult: true,
	})
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		recordRequest(req.Model, http.StatusBadRequest, time.Since(start).Seconds())
		return
	}

	settings := &nova.ModelSettings{
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		TopK:          req.TopK,
		StopSequences: req.StopSequences(),
	}

	ctx := gmw.Ctx(c)
	if config.RelayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(config.RelayTimeout)*time.Second)
		defer cancel()
	}

	if req.Stream {
		s.streamCompletion(c, ctx, requester, req.Model, messages, settings, start)
		return
	}
	s.completion(c, ctx, requester, req.Model, messages, settings, start)
}

func (s *Server) completion(c *gin.Context, ctx context.Context, requester nova.Requester,
	model string, messages []nova.Message, settings *nova.ModelSettings, start time.Time) {
	resp, usage, err := requester.Request(ctx, messages, settings)
	if err != nil {
		status := nova.StatusCode(err)
		gmw.GetLogger(c).Error("chat completion failed", zap.String("model", model), zap.Error(err))
		abortWithError(c, status, "upstream_error", err.Error())
		recordRequest(model, status, time.Since(start).Seconds())
		return
	}

	toolCalls := convertToolCallParts(resp.ToolCalls())
	finishReason := convertStopReason(resp.StopReason)
	if len(toolCalls) > 0 {
		finishReason = "tool_calls"
	}

	out := ChatCompletion{
		Id:      "chatcmpl-" + random.GetRandomString(29),
		Object:  "chat.completion",
		Created: helper.GetTimestamp(),
		Model:   model,
		Choices: []ChatChoice{{
			Index: 0,
			Message: ChatMessage{
				Role:      "assistant",
				Content:   resp.Text(),
				ToolCalls: toolCalls,
			},
			FinishReason: finishReason,
		}},
		Usage: &ChatUsage{
			PromptTokens:     usage.RequestTokens,
			CompletionTokens: usage.ResponseTokens,
			TotalTokens:      usage.TotalTokens,
		},
	}

	recordRequest(model, http.StatusOK, time.Since(start).Seconds())
	recordTokens(model, usage.RequestTokens, usage.ResponseTokens)
	gmw.GetLogger(c).Debug("chat completion",
		zap.String("model", model),
		zap.Int("total_tokens", usage.TotalTokens),
		zap.Int64("elapsed_ms", helper.CalcElapsedTime(start)))
	c.JSON(http.StatusOK, out)
}

func (s *Server) streamCompletion(c *gin.Context, ctx context.Context, requester nova.Requester,
	model string, messages []nova.Message, settings *nova.ModelSettings, start time.Time) {
	lg := gmw.GetLogger(c)

	stream, err := requester.RequestStream(ctx, messages, settings)
	if err != nil {
		status := nova.StatusCode(err)
		lg.Error("chat completion stream failed", zap.String("model", model), zap.Error(err))
		abortWithError(c, status, "upstream_error", err.Error())
		recordRequest(model, status, time.Since(start).Seconds())
		return
	}
	defer stream.Close()

	common.SetEventStreamHeaders(c)
	id := "chatcmpl-" + random.GetRandomString(29)
	createdTime := helper.GetTimestamp()
	finalSent := false

	c.Stream(func(w io.Writer) bool {
		part, ok := <-stream.Parts()
		if !ok {
			if err := stream.Err(); err != nil {
				lg.Error("stream aborted", zap.String("model", model), zap.Error(err))
				recordRequest(model, nova.StatusCode(err), time.Since(start).Seconds())
			} else if !finalSent {
				usage := stream.Usage()
				finishReason := convertStopReason(stream.StopReason())
				final := &ChatCompletionChunk{
					Id:      id,
					Object:  "chat.completion.chunk",
					Created: createdTime,
					Model:   model,
					Choices: []ChunkChoice{{
						Index:        0,
						Delta:        DeltaMessage{},
						FinishReason: &finishReason,
					}},
					Usage: &ChatUsage{
						PromptTokens:     usage.RequestTokens,
						CompletionTokens: usage.ResponseTokens,
						TotalTokens:      usage.TotalTokens,
					},
				}
				renderChunk(c, lg, final)
				finalSent = true
				elapsed := time.Since(start).Seconds()
				graceful.GoBackground(context.Background(), "stream usage accounting", func(context.Context) {
					recordRequest(model, http.StatusOK, elapsed)
					recordTokens(model, usage.RequestTokens, usage.ResponseTokens)
				})
			}
			c.Render(-1, common.CustomEvent{Data: "data: [DONE]"})
			return false
		}

		chunk := &ChatCompletionChunk{
			Id:      id,
			Object:  "chat.completion.chunk",
			Created: createdTime,
			Model:   model,
		}
		switch p := part.(type) {
		case nova.TextPart:
			chunk.Choices = []ChunkChoice{{
				Index: 0,
				Delta: DeltaMessage{Role: "assistant", Content: p.Text},
			}}
		case nova.ToolCallPart:
			chunk.Choices = []ChunkChoice{{
				Index: 0,
				Delta: DeltaMessage{
					Role:      "assistant",
					ToolCalls: convertToolCallParts([]nova.ToolCallPart{p}),
				},
			}}
		default:
			return true
		}
		renderChunk(c, lg, chunk)
		return true
	})
}

func renderChunk(c *gin.Context, lg glog.Logger, chunk *ChatCompletionChunk) {
	jsonStr, err := json.Marshal(chunk)
	if err != nil {
		lg.Error("error marshalling stream response", zap.Error(err))
		return
	}
	c.Render(-1, common.CustomEvent{Data: "data: " + string(jsonStr)})
}

// ListModels handles GET /v1/models.
func (s *Server) ListModels(c *gin.Context) {
	aliases := nova.ListModels()
	list := ModelList{Object: "list", Data: make([]ModelInfo, 0, len(aliases))}
	for _, alias := range aliases {
		list.Data = append(list.Data, ModelInfo{
			Id:      alias,
			Object:  "model",
			OwnedBy: "amazon",
		})
	}
	c.JSON(http.StatusOK, list)
}

func abortWithError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    errType,
	}})
}
