package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// putTimeout bounds each PutParameter call.
const putTimeout = 10 * time.Second

// SSMWriter abstracts the PutParameter operation for testability.
type SSMWriter interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// ParameterStore writes bootstrap parameters under the environment prefix.
type ParameterStore struct {
	client SSMWriter
	prefix string
}

// NewParameterStore creates a store rooted at /<env>/subtrack/.
func NewParameterStore(client SSMWriter, env string) *ParameterStore {
	return &ParameterStore{
		client: client,
		prefix: fmt.Sprintf("/%s/subtrack/", env),
	}
}

// Path returns the full SSM path for a manifest parameter.
func (s *ParameterStore) Path(param Parameter) string {
	return s.prefix + param.Name
}

// Put writes a parameter value, overwriting any existing one. Secrets are
// stored as SecureString with the account's default KMS key.
func (s *ParameterStore) Put(ctx context.Context, param Parameter, value string) error {
	paramType := ssmtypes.ParameterTypeString
	if param.Secret {
		paramType = ssmtypes.ParameterTypeSecureString
	}

	putCtx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()

	_, err := s.client.PutParameter(putCtx, &ssm.PutParameterInput{
		Name:      aws.String(s.Path(param)),
		Value:     aws.String(value),
		Type:      paramType,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("putting SSM parameter %s: %w", s.Path(param), err)
	}
	return nil
}
