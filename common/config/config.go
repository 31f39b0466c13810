package config

import (
	"strings"
	"time"

	"github.com/fuchsia74/nova-agent/common/env"
)

var (
	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// AWSRegion selects the Bedrock region used when a model does not
	// override it explicitly.
	AWSRegion = strings.TrimSpace(env.String("AWS_REGION", "us-east-1"))

	// DefaultModel is the model alias used by the relay server when a request
	// does not name one.
	DefaultModel = strings.TrimSpace(env.String("NOVA_DEFAULT_MODEL", "nova-micro"))

	// DefaultMaxToken caps generated tokens when callers do not set max_tokens.
	DefaultMaxToken = env.Int("DEFAULT_MAX_TOKEN", 2048)

	// CrossRegionInferenceEnabled rewrites model IDs into geo-prefixed
	// inference profiles (e.g. us.amazon.nova-micro-v1:0) when available.
	CrossRegionInferenceEnabled = env.Bool("CROSS_REGION_INFERENCE", true)

	// ApproximateTokenEnabled replaces tiktoken counting with a cheap
	// length-based estimate for the usage fallback path.
	ApproximateTokenEnabled = env.Bool("APPROXIMATE_TOKEN", false)

	// ServerPort overrides the default relay listen port when running inside
	// container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", "3000"))

	// GinMode allows forcing Gin into release mode (or other modes) without
	// recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))

	// EnablePrometheusMetrics exposes /metrics and per-request counters.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)

	// RelayTimeout bounds a single upstream Bedrock call (seconds) before
	// aborting it. Zero disables the bound.
	RelayTimeout = env.Int("RELAY_TIMEOUT", 0)

	// GracefulShutdownTimeout is how long to wait for in-flight requests to
	// drain after SIGTERM.
	GracefulShutdownTimeout = time.Second * time.Duration(env.Int("GRACEFUL_SHUTDOWN_TIMEOUT", 30))

	// ModelCacheTTL controls how long per-model Bedrock clients stay cached in
	// the relay before being rebuilt.
	ModelCacheTTL = time.Second * time.Duration(env.Int("MODEL_CACHE_TTL", 10*60))
)
