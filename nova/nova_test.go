package nova_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/require"

	"github.com/fuchsia74/nova-agent/nova"
)

func testClient() *bedrockruntime.Client {
	return bedrockruntime.New(bedrockruntime.Options{Region: "us-east-1"})
}

func TestNewResolvesAliasAndName(t *testing.T) {
	m, err := nova.New(context.Background(), "nova-micro", nova.WithClient(testClient()))
	require.NoError(t, err)
	require.Equal(t, "amazon_nova:nova-micro", m.Name())
}

func TestNewRejectsUnknownModel(t *testing.T) {
	_, err := nova.New(context.Background(), "not-a-model", nova.WithClient(testClient()))
	require.Error(t, err)
}

func TestAgentModelRejectsBadToolSets(t *testing.T) {
	m, err := nova.New(context.Background(), "nova-micro", nova.WithClient(testClient()))
	require.NoError(t, err)

	_, err = m.AgentModel(nova.AgentModelParams{
		FunctionTools: []nova.ToolDefinition{{Name: ""}},
	})
	require.Error(t, err)

	_, err = m.AgentModel(nova.AgentModelParams{
		FunctionTools: []nova.ToolDefinition{{Name: "dup"}, {Name: "dup"}},
	})
	require.Error(t, err)

	_, err = m.AgentModel(nova.AgentModelParams{
		FunctionTools: []nova.ToolDefinition{{Name: "a"}},
		ResultTools:   []nova.ToolDefinition{{Name: "b"}},
	})
	require.NoError(t, err)
}
