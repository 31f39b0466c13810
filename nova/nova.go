package nova

import (
	"context"

	"github.com/Laisky/errors/v2"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/fuchsia74/nova-agent/common/config"
)

// Model is an Amazon Nova model reachable through Bedrock. Derive an
// AgentModel from it to make requests.
type Model struct {
	alias       string
	modelID     string
	region      string
	client      *bedrockruntime.Client
	maxTokens   int
	crossRegion bool
}

type modelOptions struct {
	region      string
	accessKey   string
	secretKey   string
	client      *bedrockruntime.Client
	maxTokens   int
	crossRegion bool
}

// Option configures New.
type Option func(*modelOptions)

// WithRegion overrides the AWS region.
func WithRegion(region string) Option {
	return func(o *modelOptions) { o.region = region }
}

// WithStaticCredentials uses a fixed access/secret key pair instead of the
// default AWS credential chain.
func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(o *modelOptions) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// WithClient supplies a pre-built Bedrock runtime client, bypassing AWS
// config loading entirely.
func WithClient(client *bedrockruntime.Client) Option {
	return func(o *modelOptions) { o.client = client }
}

// WithDefaultMaxTokens sets the maxTokens applied when a request does not.
func WithDefaultMaxTokens(n int) Option {
	return func(o *modelOptions) { o.maxTokens = n }
}

// WithCrossRegionInference toggles rewriting the model ID into a
// geo-prefixed inference profile.
func WithCrossRegionInference(enabled bool) Option {
	return func(o *modelOptions) { o.crossRegion = enabled }
}

// New builds a Model for the given model alias, Bedrock model ID, or
// inference-profile ARN.
func New(ctx context.Context, modelID string, opts ...Option) (*Model, error) {
	resolved, err := ResolveModelID(modelID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve model id")
	}

	o := modelOptions{
		region:      config.AWSRegion,
		maxTokens:   config.DefaultMaxToken,
		crossRegion: config.CrossRegionInferenceEnabled,
	}
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(o.region),
		}
		if o.accessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(o.accessKey, o.secretKey, "")))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "load aws config")
		}
		client = bedrockruntime.NewFromConfig(awsCfg)
	}

	return &Model{
		alias:       modelID,
		modelID:     resolved,
		region:      o.region,
		client:      client,
		maxTokens:   o.maxTokens,
		crossRegion: o.crossRegion,
	}, nil
}

// Name returns the qualified model name, e.g. "amazon_nova:nova-micro".
func (m *Model) Name() string {
	return "amazon_nova:" + m.alias
}

// invokeModelID is the ID actually sent to Bedrock, after cross-region
// profile conversion.
func (m *Model) invokeModelID() string {
	if m.crossRegion {
		return CrossRegionProfile(m.modelID, m.region)
	}
	return m.modelID
}

// AgentModel binds tool definitions and the text-result policy to the model.
func (m *Model) AgentModel(params AgentModelParams) (*AgentModel, error) {
	seen := make(map[string]bool)
	var tools []toolEntry
	for _, def := range append(append([]ToolDefinition{}, params.FunctionTools...), params.ResultTools...) {
		if def.Name == "" {
			return nil, errors.New("tool definition requires a name")
		}
		if seen[def.Name] {
			return nil, errors.Errorf("duplicate tool name %q", def.Name)
		}
		seen[def.Name] = true
		tools = append(tools, mapToolDefinition(def))
	}

	return &AgentModel{
		model:           m,
		tools:           tools,
		allowTextResult: params.AllowTextResult,
	}, nil
}

// AgentModel is a Model bound to tool definitions; it performs the actual
// requests.
type AgentModel struct {
	model           *Model
	tools           []toolEntry
	allowTextResult bool
}

// Requester is the request-level surface of an AgentModel. Agents and the
// relay accept this interface so tests can substitute fakes.
type Requester interface {
	Request(ctx context.Context, messages []Message, settings *ModelSettings) (*Response, Usage, error)
	RequestStream(ctx context.Context, messages []Message, settings *ModelSettings) (PartStream, error)
}

var _ Requester = (*AgentModel)(nil)
