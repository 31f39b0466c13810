// Package agent runs conversations against a nova model, dispatching the
// model's tool calls to registered Go functions until a final answer comes
// back.
package agent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fuchsia74/nova-agent/common/logger"
	"github.com/fuchsia74/nova-agent/nova"
)

// DefaultMaxIterations bounds the request/tool-dispatch loop of a single run.
const DefaultMaxIterations = 10

// Agent owns a model, registered tools, and system prompts, and drives the
// tool-calling loop.
type Agent struct {
	model         *nova.Model
	systemPrompts []string
	settings      *nova.ModelSettings
	maxIterations int

	mu        sync.Mutex
	tools     map[string]*Tool
	toolOrder []string
	requester nova.Requester
	usage     nova.Usage
}

// Option configures New.
type Option func(*Agent)

// WithSystemPrompts prepends system turns to every run.
func WithSystemPrompts(prompts ...string) Option {
	return func(a *Agent) { a.systemPrompts = prompts }
}

// WithMaxIterations bounds the tool loop of a single run.
func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIterations = n }
}

// WithSettings applies model settings to every request.
func WithSettings(settings *nova.ModelSettings) Option {
	return func(a *Agent) { a.settings = settings }
}

// WithRequester injects a pre-built requester, bypassing the model's
// AgentModel construction. Mainly for tests.
func WithRequester(r nova.Requester) Option {
	return func(a *Agent) { a.requester = r }
}

// New builds an Agent around the given model.
func New(model *nova.Model, opts ...Option) *Agent {
	a := &Agent{
		model:         model,
		maxIterations: DefaultMaxIterations,
		tools:         make(map[string]*Tool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterTool makes a tool available to the model. Registration after the
// first run rebinds the model with the updated tool set.
func (a *Agent) RegisterTool(tool Tool) error {
	if tool.Name == "" {
		return errors.New("tool requires a name")
	}
	if tool.Fn == nil {
		return errors.Errorf("tool %q requires a function", tool.Name)
	}
	if tool.Retries < 0 {
		return errors.Errorf("tool %q has negative retries", tool.Name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.tools[tool.Name]; exists {
		return errors.Errorf("tool %q already registered", tool.Name)
	}
	a.tools[tool.Name] = &tool
	a.toolOrder = append(a.toolOrder, tool.Name)
	// Invalidate the bound model so the next run picks up the new tool.
	// Injected requesters stay as-is; they carry their own tool binding.
	if a.model != nil {
		a.requester = nil
	}
	return nil
}

// Usage returns usage accumulated across all runs of this agent.
func (a *Agent) Usage() nova.Usage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

func (a *Agent) addUsage(u nova.Usage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.Add(u)
}

func (a *Agent) getRequester() (nova.Requester, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.requester != nil {
		return a.requester, nil
	}
	if a.model == nil {
		return nil, errors.New("agent has no model")
	}

	defs := make([]nova.ToolDefinition, 0, len(a.toolOrder))
	for _, name := range a.toolOrder {
		tool := a.tools[name]
		defs = append(defs, nova.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	am, err := a.model.AgentModel(nova.AgentModelParams{
		FunctionTools:   defs,
		AllowTextResult: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "bind agent model")
	}
	a.requester = am
	return am, nil
}

// Result is the outcome of a run.
type Result struct {
	// Data is the model's final text answer.
	Data string
	// Messages is the full transcript, including tool calls and returns.
	Messages []nova.Message
	// Usage is accumulated across every model request of the run.
	Usage nova.Usage
}

// Run executes a prompt, dispatching tool calls until the model produces a
// text answer or the iteration cap is hit.
func (a *Agent) Run(ctx context.Context, prompt string) (*Result, error) {
	requester, err := a.getRequester()
	if err != nil {
		return nil, err
	}

	history := a.initialHistory(prompt)
	var runUsage nova.Usage

	for range a.maxIterations {
		resp, usage, err := requester.Request(ctx, history, a.settings)
		runUsage.Add(usage)
		a.addUsage(usage)
		if err != nil {
			return nil, err
		}

		history = append(history, nova.AssistantMessage(resp.Parts...))

		calls := resp.ToolCalls()
		if len(calls) == 0 {
			return &Result{
				Data:     resp.Text(),
				Messages: history,
				Usage:    runUsage,
			}, nil
		}

		returns, err := a.executeTools(ctx, calls)
		if err != nil {
			return nil, err
		}
		history = append(history, returns...)
	}

	return nil, errors.Errorf("tool loop did not settle within %d iterations", a.maxIterations)
}

// RunSync is Run with a background context, for parity with synchronous
// callers.
func (a *Agent) RunSync(prompt string) (*Result, error) {
	return a.Run(context.Background(), prompt)
}

func (a *Agent) initialHistory(prompt string) []nova.Message {
	history := make([]nova.Message, 0, len(a.systemPrompts)+1)
	for _, sp := range a.systemPrompts {
		history = append(history, nova.SystemMessage(sp))
	}
	history = append(history, nova.UserMessage(prompt))
	return history
}

// executeTools runs the requested calls concurrently and returns their
// results in call order. Tool failures become error results for the model;
// only context cancellation aborts the run.
func (a *Agent) executeTools(ctx context.Context, calls []nova.ToolCallPart) ([]nova.Message, error) {
	results := make([]nova.Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			content, isErr := a.executeTool(gctx, call)
			results[i] = nova.ToolReturnMessage(call.ID, call.Name, content, isErr)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "execute tools")
	}
	return results, nil
}

func (a *Agent) executeTool(ctx context.Context, call nova.ToolCallPart) (content string, isErr bool) {
	a.mu.Lock()
	tool, ok := a.tools[call.Name]
	a.mu.Unlock()
	if !ok {
		// Report back to the model instead of failing the run; the model may
		// recover by answering without the tool.
		return "unknown tool: " + call.Name, true
	}

	// ArgsMap unwraps string-encoded argument payloads, so tool functions
	// always receive a plain JSON object.
	argsMap, err := call.ArgsMap()
	if err != nil {
		return "invalid tool arguments: " + err.Error(), true
	}
	args, err := json.Marshal(argsMap)
	if err != nil {
		return "invalid tool arguments: " + err.Error(), true
	}

	var lastErr error
	for attempt := 0; attempt <= tool.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "cancelled", true
		}
		start := time.Now()
		out, err := tool.Fn(ctx, args)
		if err == nil {
			return out, false
		}
		lastErr = err
		logger.Logger.Warn("tool execution failed",
			zap.String("tool", call.Name),
			zap.Int("attempt", attempt+1),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
	return lastErr.Error(), true
}
