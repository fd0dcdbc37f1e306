package paramstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI is the subset of the SSM client used by SSMStore.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMStore reads and writes AWS Systems Manager parameters. Reads always
// request decryption.
type SSMStore struct {
	client SSMAPI
}

// NewSSMStore builds a store from an SSM client.
func NewSSMStore(cfg aws.Config) *SSMStore {
	return &SSMStore{client: ssm.NewFromConfig(cfg)}
}

// NewSSMStoreWithClient is used when the caller already owns a client.
func NewSSMStoreWithClient(client SSMAPI) *SSMStore {
	return &SSMStore{client: client}
}

func (s *SSMStore) Get(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ssm get %s: %w", name, err)
	}
	if out.Parameter == nil {
		return "", ErrNotFound
	}
	return aws.ToString(out.Parameter.Value), nil
}

func (s *SSMStore) Put(ctx context.Context, name, value string, secure bool) error {
	paramType := types.ParameterTypeString
	if secure {
		paramType = types.ParameterTypeSecureString
	}
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      paramType,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("ssm put %s: %w", name, err)
	}
	return nil
}
