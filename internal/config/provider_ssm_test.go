package config

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSSMClient struct {
	params    map[string]string
	invalid   []string
	err       error
	callCount int
}

func (m *mockSSMClient) GetParameters(_ context.Context, input *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	out := &ssm.GetParametersOutput{}
	for _, name := range input.Names {
		if v, ok := m.params[name]; ok {
			out.Parameters = append(out.Parameters, ssmtypes.Parameter{
				Name:  aws.String(name),
				Value: aws.String(v),
			})
		}
	}
	out.InvalidParameters = m.invalid
	return out, nil
}

func TestSSMProviderGetParametersBatch(t *testing.T) {
	t.Run("resolves values", func(t *testing.T) {
		client := &mockSSMClient{params: map[string]string{
			"/subtrack/db": "postgres://x",
		}}
		p := newSSMProviderWithClient("eu-west-1", client)

		got, err := p.GetParametersBatch(context.Background(), []string{"/subtrack/db"})
		require.NoError(t, err)
		assert.Equal(t, "postgres://x", got["/subtrack/db"])
	})

	t.Run("empty keys skips the API", func(t *testing.T) {
		client := &mockSSMClient{}
		p := newSSMProviderWithClient("eu-west-1", client)

		got, err := p.GetParametersBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, client.callCount)
	})

	t.Run("batches above the API limit", func(t *testing.T) {
		params := make(map[string]string)
		var keys []string
		for i := 0; i < 15; i++ {
			k := fmt.Sprintf("/subtrack/p%d", i)
			params[k] = fmt.Sprintf("v%d", i)
			keys = append(keys, k)
		}
		client := &mockSSMClient{params: params}
		p := newSSMProviderWithClient("eu-west-1", client)

		got, err := p.GetParametersBatch(context.Background(), keys)
		require.NoError(t, err)
		assert.Len(t, got, 15)
		assert.Equal(t, 2, client.callCount)
	})

	t.Run("invalid parameters fail the call", func(t *testing.T) {
		client := &mockSSMClient{invalid: []string{"/subtrack/missing"}}
		p := newSSMProviderWithClient("eu-west-1", client)

		_, err := p.GetParametersBatch(context.Background(), []string{"/subtrack/missing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "/subtrack/missing")
	})

	t.Run("API error is wrapped", func(t *testing.T) {
		boom := errors.New("throttled")
		client := &mockSSMClient{err: boom}
		p := newSSMProviderWithClient("eu-west-1", client)

		_, err := p.GetParametersBatch(context.Background(), []string{"/subtrack/db"})
		require.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context stops between batches", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		client := &mockSSMClient{}
		p := newSSMProviderWithClient("eu-west-1", client)

		_, err := p.GetParametersBatch(ctx, []string{"/subtrack/db"})
		require.Error(t, err)
		assert.Zero(t, client.callCount)
	})
}

func TestEnvVarProvider(t *testing.T) {
	t.Setenv("SUBTRACK_TEST_SECRET", "hunter2")

	p := NewEnvVarProvider()
	got, err := p.GetParametersBatch(context.Background(), []string{"SUBTRACK_TEST_SECRET", "SUBTRACK_TEST_ABSENT"})
	require.NoError(t, err)

	assert.Equal(t, "hunter2", got["SUBTRACK_TEST_SECRET"])
	_, present := got["SUBTRACK_TEST_ABSENT"]
	assert.False(t, present)
}
