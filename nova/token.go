package nova

import (
	"sync"

	"github.com/Laisky/zap"
	"github.com/pkoukk/tiktoken-go"

	"github.com/fuchsia74/nova-agent/common/config"
	"github.com/fuchsia74/nova-agent/common/logger"
)

// Bedrock reports usage in its responses, but the count is missing from some
// malformed or truncated payloads. These estimators keep accounting non-zero
// in that case.

var (
	tokenEncoder     *tiktoken.Tiktoken
	tokenEncoderOnce sync.Once
)

func getTokenEncoder() *tiktoken.Tiktoken {
	tokenEncoderOnce.Do(func() {
		encoder, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// Offline environments without the encoding files fall back to
			// the approximate path below.
			logger.Logger.Warn("failed to load token encoder, using approximate counting", zap.Error(err))
			return
		}
		tokenEncoder = encoder
	})
	return tokenEncoder
}

// CountTokenText estimates the token count of text.
func CountTokenText(text string) int {
	if config.ApproximateTokenEnabled {
		return int(float64(len(text)) * 0.38)
	}
	encoder := getTokenEncoder()
	if encoder == nil {
		return int(float64(len(text)) * 0.38)
	}
	return len(encoder.Encode(text, nil, nil))
}

// CountMessageTokens estimates the token count of a message list, including
// the per-message framing overhead.
func CountMessageTokens(messages []Message) int {
	const tokensPerMessage = 3
	total := 0
	for _, msg := range messages {
		total += tokensPerMessage
		total += CountTokenText(msg.Text())
	}
	// Reply priming.
	total += 3
	return total
}
