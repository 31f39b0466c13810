package nova_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fuchsia74/nova-agent/nova"
)

func TestResolveModelID(t *testing.T) {
	id, err := nova.ResolveModelID("nova-micro")
	require.NoError(t, err)
	require.Equal(t, "amazon.nova-micro-v1:0", id)

	id, err = nova.ResolveModelID("amazon-nova-pro")
	require.NoError(t, err)
	require.Equal(t, "amazon.nova-pro-v1:0", id)

	// Raw Bedrock IDs and ARNs pass through.
	id, err = nova.ResolveModelID("amazon.nova-lite-v1:0")
	require.NoError(t, err)
	require.Equal(t, "amazon.nova-lite-v1:0", id)

	id, err = nova.ResolveModelID("arn:aws:bedrock:us-east-1:123456789012:inference-profile/us.amazon.nova-pro-v1:0")
	require.NoError(t, err)
	require.Contains(t, id, "arn:aws:bedrock")

	_, err = nova.ResolveModelID("gpt-4o")
	require.Error(t, err)
}

func TestCrossRegionProfile(t *testing.T) {
	tests := []struct {
		name     string
		modelID  string
		region   string
		expected string
	}{
		{
			name:     "US region with cross-region support",
			modelID:  "amazon.nova-micro-v1:0",
			region:   "us-east-1",
			expected: "us.amazon.nova-micro-v1:0",
		},
		{
			name:     "EU region with cross-region support",
			modelID:  "amazon.nova-lite-v1:0",
			region:   "eu-west-1",
			expected: "eu.amazon.nova-lite-v1:0",
		},
		{
			name:     "APAC region with cross-region support",
			modelID:  "amazon.nova-pro-v1:0",
			region:   "ap-northeast-1",
			expected: "apac.amazon.nova-pro-v1:0",
		},
		{
			name:     "premier has no APAC profile",
			modelID:  "amazon.nova-premier-v1:0",
			region:   "ap-northeast-1",
			expected: "amazon.nova-premier-v1:0",
		},
		{
			name:     "unknown region returns input unchanged",
			modelID:  "amazon.nova-micro-v1:0",
			region:   "me-south-1",
			expected: "amazon.nova-micro-v1:0",
		},
		{
			name:     "unknown model returns input unchanged",
			modelID:  "anthropic.claude-3-sonnet-20240229-v1:0",
			region:   "us-east-1",
			expected: "anthropic.claude-3-sonnet-20240229-v1:0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, nova.CrossRegionProfile(tt.modelID, tt.region))
		})
	}
}

func TestListModelsCoversAliases(t *testing.T) {
	models := nova.ListModels()
	require.Contains(t, models, "nova-micro")
	require.Contains(t, models, "nova-premier")
	require.Len(t, models, len(nova.AwsModelIDMap))
}
