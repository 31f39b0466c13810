package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/Laisky/errors/v2"

	"github.com/fuchsia74/nova-agent/nova"
)

// RunStream is a streaming run. Read Deltas until it closes, then call
// Result for the outcome.
type RunStream struct {
	deltas chan string

	mu     sync.Mutex
	result *Result
	err    error
}

// Deltas yields the model's text output incrementally.
func (rs *RunStream) Deltas() <-chan string { return rs.deltas }

// Result blocks until the run has finished and returns its outcome. Pending
// deltas are drained if the caller has stopped reading them.
func (rs *RunStream) Result() (*Result, error) {
	for range rs.deltas {
		// drain
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.result, rs.err
}

func (rs *RunStream) finish(result *Result, err error) {
	rs.mu.Lock()
	rs.result = result
	rs.err = err
	rs.mu.Unlock()
	close(rs.deltas)
}

// RunStream executes a prompt like Run but streams text deltas as they
// arrive. Tool calls are dispatched between streamed turns.
func (a *Agent) RunStream(ctx context.Context, prompt string) (*RunStream, error) {
	requester, err := a.getRequester()
	if err != nil {
		return nil, err
	}

	rs := &RunStream{deltas: make(chan string, 16)}
	go a.runStream(ctx, requester, prompt, rs)
	return rs, nil
}

func (a *Agent) runStream(ctx context.Context, requester nova.Requester, prompt string, rs *RunStream) {
	history := a.initialHistory(prompt)
	var runUsage nova.Usage
	var finalText strings.Builder

	for range a.maxIterations {
		stream, err := requester.RequestStream(ctx, history, a.settings)
		if err != nil {
			rs.finish(nil, err)
			return
		}

		var parts []nova.Part
		for part := range stream.Parts() {
			parts = append(parts, part)
			if tp, ok := part.(nova.TextPart); ok {
				finalText.WriteString(tp.Text)
				select {
				case rs.deltas <- tp.Text:
				case <-ctx.Done():
					stream.Close()
					rs.finish(nil, ctx.Err())
					return
				}
			}
		}
		usage := stream.Usage()
		runUsage.Add(usage)
		a.addUsage(usage)
		if err := stream.Err(); err != nil {
			stream.Close()
			rs.finish(nil, err)
			return
		}
		stream.Close()

		history = append(history, nova.AssistantMessage(parts...))

		var calls []nova.ToolCallPart
		for _, part := range parts {
			if tc, ok := part.(nova.ToolCallPart); ok {
				calls = append(calls, tc)
			}
		}
		if len(calls) == 0 {
			rs.finish(&Result{
				Data:     finalText.String(),
				Messages: history,
				Usage:    runUsage,
			}, nil)
			return
		}

		returns, err := a.executeTools(ctx, calls)
		if err != nil {
			rs.finish(nil, err)
			return
		}
		history = append(history, returns...)
	}

	rs.finish(nil, errors.Errorf("tool loop did not settle within %d iterations", a.maxIterations))
}
