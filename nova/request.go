package nova

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/fuchsia74/nova-agent/common/logger"
	"github.com/fuchsia74/nova-agent/common/random"
)

// Response is a completed model turn.
type Response struct {
	Parts      []Part
	StopReason string
	Timestamp  time.Time
}

// Text concatenates the response's text parts.
func (r *Response) Text() string {
	var out string
	for _, p := range r.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// ToolCalls returns the tool invocations requested by the model, if any.
func (r *Response) ToolCalls() []ToolCallPart {
	var calls []ToolCallPart
	for _, p := range r.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// Request sends the conversation to the model and returns its reply along
// with per-request usage. The returned usage always has Requests == 1 so
// callers can accumulate it.
func (am *AgentModel) Request(ctx context.Context, messages []Message, settings *ModelSettings) (*Response, Usage, error) {
	start := time.Now()
	failed := func(err error) (*Response, Usage, error) {
		return nil, Usage{Requests: 1, FailedRequests: 1, TotalTime: time.Since(start)}, err
	}

	if err := validateSettings(settings); err != nil {
		return failed(errors.Wrap(err, "validate settings"))
	}

	req, err := am.buildRequest(messages, settings)
	if err != nil {
		return failed(errors.Wrap(err, "build request"))
	}
	body, err := json.Marshal(req)
	if err != nil {
		return failed(errors.Wrap(err, "marshal request"))
	}

	out, err := am.model.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(am.model.invokeModelID()),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return failed(errors.Wrap(err, "InvokeModel"))
	}

	var resp wireResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return failed(errors.Wrap(err, "unmarshal response"))
	}

	parts := parseOutput(resp.Output)
	if len(parts) == 0 {
		logger.Logger.Warn("model returned no parsable parts, using default response",
			zap.String("model", am.model.Name()),
			zap.ByteString("body", out.Body))
		parts = []Part{TextPart{Text: defaultResponseText}}
	}

	usage := am.extractUsage(resp.Usage, messages, parts)
	usage.Requests = 1
	usage.SuccessfulRequests = 1
	usage.TotalTime = time.Since(start)

	return &Response{
		Parts:      parts,
		StopReason: resp.StopReason,
		Timestamp:  time.Now(),
	}, usage, nil
}

// defaultResponseText is the fallback answer when the service returns an
// empty or unparsable message.
const defaultResponseText = "I am an AI assistant. How can I help you?"

func parseOutput(output *wireOutput) []Part {
	if output == nil || output.Message == nil {
		return nil
	}
	var parts []Part
	for _, block := range output.Message.Content {
		switch {
		case block.Text != "":
			parts = append(parts, TextPart{Text: block.Text})
		case block.ToolUse != nil:
			id := block.ToolUse.ToolUseID
			if id == "" {
				id = "tooluse_" + random.GetUUID()
			}
			parts = append(parts, ToolCallPart{
				ID:   id,
				Name: block.ToolUse.Name,
				Args: block.ToolUse.Input,
			})
		}
	}
	return parts
}

// extractUsage converts the wire usage block, estimating locally when the
// service omitted it.
func (am *AgentModel) extractUsage(w *wireUsage, messages []Message, parts []Part) Usage {
	if w != nil {
		return usageFromWire(w)
	}

	var responseText string
	for _, p := range parts {
		if tp, ok := p.(TextPart); ok {
			responseText += tp.Text
		}
	}
	usage := Usage{
		RequestTokens:  CountMessageTokens(messages),
		ResponseTokens: CountTokenText(responseText),
		Details:        map[string]any{"estimated": true},
	}
	usage.TotalTokens = usage.RequestTokens + usage.ResponseTokens
	return usage
}
