package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPut struct {
	name  string
	value string
	typ   ssmtypes.ParameterType
}

type fakeSSM struct {
	puts []recordedPut
	err  error
}

func (f *fakeSSM) PutParameter(_ context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, recordedPut{
		name:  *params.Name,
		value: *params.Value,
		typ:   params.Type,
	})
	return &ssm.PutParameterOutput{}, nil
}

func TestParameterStore_Put(t *testing.T) {
	client := &fakeSSM{}
	store := NewParameterStore(client, "dev")

	err := store.Put(context.Background(), Parameter{Name: "stripe/secret_key", Secret: true}, "sk_test_abc")
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	assert.Equal(t, "/dev/subtrack/stripe/secret_key", client.puts[0].name)
	assert.Equal(t, "sk_test_abc", client.puts[0].value)
	assert.Equal(t, ssmtypes.ParameterTypeSecureString, client.puts[0].typ)
}

func TestParameterStore_Put_PlainParameter(t *testing.T) {
	client := &fakeSSM{}
	store := NewParameterStore(client, "prod")

	err := store.Put(context.Background(), Parameter{Name: "stripe/default_price_id"}, "price_123")
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	assert.Equal(t, "/prod/subtrack/stripe/default_price_id", client.puts[0].name)
	assert.Equal(t, ssmtypes.ParameterTypeString, client.puts[0].typ)
}

func TestRunBootstrap_CollectsAndWrites(t *testing.T) {
	client := &fakeSSM{}
	store := NewParameterStore(client, "dev")

	manifest := []Parameter{
		{Name: "database/url", Prompt: "db", Secret: true},
		{Name: "stripe/default_price_id", Prompt: "price", Optional: true},
	}

	in := strings.NewReader("postgres://localhost/subtrack\nprice_123\n")
	var out bytes.Buffer

	err := runBootstrap(context.Background(), store, manifest, in, &out)
	require.NoError(t, err)

	require.Len(t, client.puts, 2)
	assert.Equal(t, "/dev/subtrack/database/url", client.puts[0].name)
	assert.Equal(t, "/dev/subtrack/stripe/default_price_id", client.puts[1].name)
}

func TestRunBootstrap_SkipsOptionalOnEmptyInput(t *testing.T) {
	client := &fakeSSM{}
	store := NewParameterStore(client, "dev")

	manifest := []Parameter{
		{Name: "stripe/default_price_id", Prompt: "price", Optional: true},
	}

	err := runBootstrap(context.Background(), store, manifest, strings.NewReader("\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, client.puts)
}

func TestRunBootstrap_RepromptsRequiredOnEmptyInput(t *testing.T) {
	client := &fakeSSM{}
	store := NewParameterStore(client, "dev")

	manifest := []Parameter{
		{Name: "database/url", Prompt: "db", Secret: true},
	}

	// First line empty, second line has the value.
	in := strings.NewReader("\npostgres://localhost/subtrack\n")
	var out bytes.Buffer

	err := runBootstrap(context.Background(), store, manifest, in, &out)
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	assert.Contains(t, out.String(), "database/url is required")
}

func TestRunBootstrap_FailsWhenInputEndsEarly(t *testing.T) {
	store := NewParameterStore(&fakeSSM{}, "dev")

	manifest := []Parameter{
		{Name: "database/url", Prompt: "db", Secret: true},
	}

	err := runBootstrap(context.Background(), store, manifest, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database/url")
}

func TestConfirmProduction(t *testing.T) {
	session := &Session{AccountID: "123", AWSRegion: "eu-west-1"}

	assert.True(t, confirmProduction(session, strings.NewReader("yes\n")))
	assert.True(t, confirmProduction(session, strings.NewReader("  YES \n")))
	assert.False(t, confirmProduction(session, strings.NewReader("no\n")))
	assert.False(t, confirmProduction(session, strings.NewReader("")))
}

func TestManifest_RequiredSecretsFirst(t *testing.T) {
	manifest := Manifest()
	require.NotEmpty(t, manifest)

	assert.Equal(t, "database/url", manifest[0].Name)
	assert.True(t, manifest[0].Secret)

	for _, p := range manifest {
		assert.NotEmpty(t, p.Prompt, "parameter %s has no prompt", p.Name)
	}
}
