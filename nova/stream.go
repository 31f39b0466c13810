package nova

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/fuchsia74/nova-agent/common/random"
)

// PartStream delivers response parts as they arrive. Drain Parts until it
// closes, then check Err; Usage and StopReason are final once the channel
// has closed.
type PartStream interface {
	Parts() <-chan Part
	Err() error
	Usage() Usage
	StopReason() string
	Close() error
}

// RequestStream sends the conversation to the model and streams the reply.
// The caller must Close the stream; cancelling ctx aborts it.
func (am *AgentModel) RequestStream(ctx context.Context, messages []Message, settings *ModelSettings) (PartStream, error) {
	if err := validateSettings(settings); err != nil {
		return nil, errors.Wrap(err, "validate settings")
	}

	req, err := am.buildRequest(messages, settings)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	out, err := am.model.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(am.model.invokeModelID()),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "InvokeModelWithResponseStream")
	}

	s := &stream{
		parts:    make(chan Part, 16),
		es:       out.GetStream(),
		messages: messages,
		start:    time.Now(),
	}
	go s.consume(ctx)
	return s, nil
}

type stream struct {
	parts    chan Part
	es       *bedrockruntime.InvokeModelWithResponseStreamEventStream
	messages []Message
	start    time.Time

	collector chunkCollector

	mu         sync.Mutex
	err        error
	usage      Usage
	stopReason string

	closeOnce sync.Once
}

func (s *stream) Parts() <-chan Part { return s.parts }

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) Usage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

func (s *stream) StopReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopReason
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.es.Close()
	})
	return err
}

func (s *stream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *stream) consume(ctx context.Context) {
	defer close(s.parts)
	defer s.Close()
	// Runs before Close and the channel close, so Usage and StopReason are
	// final by the time Parts stops delivering. Every exit path, including
	// decode errors and cancellation, gets its failure counted.
	defer s.finalize()

	for {
		select {
		case <-ctx.Done():
			s.setErr(ctx.Err())
			return

		case event, ok := <-s.es.Events():
			if !ok {
				if err := s.es.Err(); err != nil {
					s.setErr(errors.Wrap(err, "response stream"))
				}
				return
			}

			switch v := event.(type) {
			case *types.ResponseStreamMemberChunk:
				parts, err := s.collector.handleChunk(v.Value.Bytes)
				if err != nil {
					s.setErr(err)
					return
				}
				for _, part := range parts {
					select {
					case s.parts <- part:
					case <-ctx.Done():
						s.setErr(ctx.Err())
						return
					}
				}
			default:
				// Unknown event types are skipped, matching how other
				// Bedrock stream consumers treat them.
			}
		}
	}
}

// finalize records usage and stop reason once the event stream has ended.
func (s *stream) finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopReason = s.collector.stopReason
	if s.collector.usage != nil {
		s.usage = usageFromWire(s.collector.usage)
	} else {
		// No trailing metadata event; estimate so accounting stays non-zero.
		s.usage = Usage{
			RequestTokens:  CountMessageTokens(s.messages),
			ResponseTokens: CountTokenText(s.collector.textAccum.String()),
			Details:        map[string]any{"estimated": true},
		}
		s.usage.TotalTokens = s.usage.RequestTokens + s.usage.ResponseTokens
	}
	s.usage.Requests = 1
	if s.err == nil {
		s.usage.SuccessfulRequests = 1
	} else {
		s.usage.FailedRequests = 1
	}
	s.usage.TotalTime = time.Since(s.start)
}

// chunkCollector turns decoded stream chunks into parts. Tool-use input
// arrives as string fragments across deltas and is assembled until the
// content block stops.
type chunkCollector struct {
	pendingToolID    string
	pendingToolName  string
	pendingToolInput strings.Builder
	toolPending      bool

	textAccum  strings.Builder
	stopReason string
	usage      *wireUsage
}

func (c *chunkCollector) handleChunk(raw []byte) ([]Part, error) {
	var chunk streamChunk
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return nil, errors.Wrap(err, "unmarshal stream chunk")
	}

	var parts []Part

	switch {
	case chunk.ContentBlockStart != nil:
		if tu := chunk.ContentBlockStart.Start; tu != nil && tu.ToolUse != nil {
			c.toolPending = true
			c.pendingToolID = tu.ToolUse.ToolUseID
			c.pendingToolName = tu.ToolUse.Name
			c.pendingToolInput.Reset()
			if len(tu.ToolUse.Input) > 0 {
				c.pendingToolInput.Write(tu.ToolUse.Input)
			}
		}

	case chunk.ContentBlockDelta != nil:
		if delta := chunk.ContentBlockDelta.Delta; delta != nil {
			if delta.Text != "" {
				c.textAccum.WriteString(delta.Text)
				parts = append(parts, TextPart{Text: delta.Text})
			}
			if delta.ToolUse != nil && delta.ToolUse.Input != "" {
				// Input fragments may arrive without a preceding block start.
				c.toolPending = true
				c.pendingToolInput.WriteString(delta.ToolUse.Input)
			}
		}

	case chunk.ContentBlockStop != nil:
		if c.toolPending {
			parts = append(parts, c.flushTool())
		}

	case chunk.MessageStop != nil:
		if c.toolPending {
			parts = append(parts, c.flushTool())
		}
		c.stopReason = chunk.MessageStop.StopReason

	case chunk.Metadata != nil:
		if chunk.Metadata.Usage != nil {
			c.usage = chunk.Metadata.Usage
		}
	}

	return parts, nil
}

func (c *chunkCollector) flushTool() Part {
	id := c.pendingToolID
	if id == "" {
		id = "tooluse_" + random.GetUUID()
	}
	input := c.pendingToolInput.String()
	if input == "" {
		input = "{}"
	}
	part := ToolCallPart{
		ID:   id,
		Name: c.pendingToolName,
		Args: json.RawMessage(input),
	}

	c.toolPending = false
	c.pendingToolID = ""
	c.pendingToolName = ""
	c.pendingToolInput.Reset()
	return part
}
