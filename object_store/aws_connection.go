package object_store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	typehelpers "github.com/turbot/go-kit/types"
)

// AwsConnection is the `connection` block of an aws_s3_bucket store.
// Credentials not given here come from the default AWS credential chain.
type AwsConnection struct {
	Profile      *string `hcl:"profile"`
	AccessKey    *string `hcl:"access_key"`
	SecretKey    *string `hcl:"secret_key"`
	SessionToken *string `hcl:"session_token"`
	// EndpointUrl points the client at an S3 compatible service such as minio
	EndpointUrl  *string `hcl:"endpoint_url"`
	UsePathStyle *bool   `hcl:"s3_force_path_style"`
}

func (c *AwsConnection) Validate() error {
	if (c.AccessKey == nil) != (c.SecretKey == nil) {
		return errors.New("access_key and secret_key must be set together")
	}
	if c.SessionToken != nil && c.AccessKey == nil {
		return errors.New("session_token set without access_key")
	}
	return nil
}

// s3Client builds an S3 client for the given region.
// The client makes a single attempt per call: retries and rate limiting are
// applied by the artifact store, uniformly for every backend.
func (c *AwsConnection) s3Client(ctx context.Context, region string) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithHTTPClient(awsHTTPClient()),
		config.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), 1)
		}),
	}
	if c.Profile != nil {
		opts = append(opts, config.WithSharedConfigProfile(*c.Profile))
	}
	if c.AccessKey != nil {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			*c.AccessKey, typehelpers.SafeString(c.SecretKey), typehelpers.SafeString(c.SessionToken))))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		// AWS_ENDPOINT_URL is picked up by LoadDefaultConfig; an explicit endpoint wins
		if c.EndpointUrl != nil {
			o.BaseEndpoint = c.EndpointUrl
		}
		o.UsePathStyle = c.UsePathStyle != nil && *c.UsePathStyle
	}), nil
}
