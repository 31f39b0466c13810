package nova

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUsageAdd(t *testing.T) {
	var total Usage
	total.Add(Usage{
		RequestTokens:      10,
		ResponseTokens:     5,
		TotalTokens:        15,
		Requests:           1,
		SuccessfulRequests: 1,
		TotalTime:          time.Second,
	})
	total.Add(Usage{
		RequestTokens:  7,
		ResponseTokens: 3,
		TotalTokens:    10,
		Requests:       1,
		FailedRequests: 1,
		TotalTime:      time.Second,
		Details:        map[string]any{"estimated": true},
	})

	require.Equal(t, 17, total.RequestTokens)
	require.Equal(t, 8, total.ResponseTokens)
	require.Equal(t, 25, total.TotalTokens)
	require.Equal(t, 2, total.Requests)
	require.Equal(t, 1, total.SuccessfulRequests)
	require.Equal(t, 1, total.FailedRequests)
	require.Equal(t, 2*time.Second, total.TotalTime)
	require.Equal(t, true, total.Details["estimated"])
}

func TestUsageFromWire(t *testing.T) {
	u := usageFromWire(&wireUsage{InputTokens: 12, OutputTokens: 8, TotalTokens: 20})
	require.Equal(t, 12, u.RequestTokens)
	require.Equal(t, 8, u.ResponseTokens)
	require.Equal(t, 20, u.TotalTokens)

	// Total is derived when the service omits it.
	u = usageFromWire(&wireUsage{InputTokens: 12, OutputTokens: 8})
	require.Equal(t, 20, u.TotalTokens)

	require.Equal(t, Usage{}, usageFromWire(nil))
}

func TestExtractUsageEstimatesWhenWireMissing(t *testing.T) {
	am := newTestAgentModel(t, AgentModelParams{AllowTextResult: true})

	messages := []Message{UserMessage("What's the weather in Tokyo?")}
	parts := []Part{TextPart{Text: "It is sunny."}}

	u := am.extractUsage(nil, messages, parts)
	require.Positive(t, u.RequestTokens)
	require.Positive(t, u.ResponseTokens)
	require.Equal(t, u.RequestTokens+u.ResponseTokens, u.TotalTokens)
	require.Equal(t, true, u.Details["estimated"])

	// Wire usage wins when present.
	u = am.extractUsage(&wireUsage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5}, messages, parts)
	require.Equal(t, 5, u.TotalTokens)
	require.Nil(t, u.Details)
}
